package model

// Credential is one stored account record. Credentials carry no identity of
// their own; they are referenced by position in the store.
type Credential struct {
	Name     string `json:"Name"`
	LoginID  string `json:"LoginId"`
	Password string `json:"Password"`
}

// NoAccountsLabel is shown in place of a credential name when the store is empty.
const NoAccountsLabel = "No Accounts"
