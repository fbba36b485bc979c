package model

// CommandKind is the DataType tag carried by every command on the wire.
type CommandKind int

const (
	CommandAddAccount     CommandKind = 0
	CommandRemoveAccounts CommandKind = 1
	CommandEditAccount    CommandKind = 2
	CommandSwapAccounts   CommandKind = 3
	CommandSaveAccounts   CommandKind = 4
)

// String returns the protocol name of the command kind.
func (k CommandKind) String() string {
	switch k {
	case CommandAddAccount:
		return "AddAccount"
	case CommandRemoveAccounts:
		return "RemoveAccounts"
	case CommandEditAccount:
		return "EditAccount"
	case CommandSwapAccounts:
		return "SwapAccounts"
	case CommandSaveAccounts:
		return "SaveAccounts"
	default:
		return "Unknown"
	}
}

// Command is a decoded host command. The concrete types below are the only
// implementations.
type Command interface {
	Kind() CommandKind
	command()
}

// AddAccount appends a credential to the end of the store.
type AddAccount struct {
	Account Credential
}

// RemoveAccounts removes the credentials at the given positions.
type RemoveAccounts struct {
	Indexes []int
}

// EditAccount replaces the credential at Index.
type EditAccount struct {
	Index   int
	Account Credential
}

// SwapAccounts exchanges the credentials at FromIndex and ToIndex.
type SwapAccounts struct {
	FromIndex int
	ToIndex   int
}

// SaveAccounts persists the store.
type SaveAccounts struct{}

func (AddAccount) Kind() CommandKind     { return CommandAddAccount }
func (RemoveAccounts) Kind() CommandKind { return CommandRemoveAccounts }
func (EditAccount) Kind() CommandKind    { return CommandEditAccount }
func (SwapAccounts) Kind() CommandKind   { return CommandSwapAccounts }
func (SaveAccounts) Kind() CommandKind   { return CommandSaveAccounts }

func (AddAccount) command()     {}
func (RemoveAccounts) command() {}
func (EditAccount) command()    {}
func (SwapAccounts) command()   {}
func (SaveAccounts) command()   {}
