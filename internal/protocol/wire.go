package protocol

import "github.com/ericfisherdev/wpass/internal/domain/model"

// wireCommand is the union of every field any command kind may carry.
type wireCommand struct {
	DataType  *int              `json:"DataType"`
	Account   *model.Credential `json:"Account,omitempty"`
	Indexes   []int             `json:"Indexes,omitempty"`
	Index     *int              `json:"Index,omitempty"`
	FromIndex *int              `json:"FromIndex,omitempty"`
	ToIndex   *int              `json:"ToIndex,omitempty"`
}

func intPtr(v int) *int { return &v }
