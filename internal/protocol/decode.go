package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ericfisherdev/wpass/internal/domain/model"
)

// Decode converts one JSON value into a typed command. The value must be an
// object carrying a known DataType and the fields that kind requires.
func Decode(raw []byte) (model.Command, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	var w wireCommand
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCommand, err)
	}
	if w.DataType == nil {
		return nil, ErrMissingDataType
	}

	kind := model.CommandKind(*w.DataType)
	switch kind {
	case model.CommandAddAccount:
		if w.Account == nil {
			return nil, fmt.Errorf("%w: %s requires Account", ErrMalformedCommand, kind)
		}
		return model.AddAccount{Account: *w.Account}, nil

	case model.CommandRemoveAccounts:
		if len(w.Indexes) == 0 {
			return nil, fmt.Errorf("%w: %s requires Indexes", ErrMalformedCommand, kind)
		}
		return model.RemoveAccounts{Indexes: w.Indexes}, nil

	case model.CommandEditAccount:
		if w.Index == nil || w.Account == nil {
			return nil, fmt.Errorf("%w: %s requires Index and Account", ErrMalformedCommand, kind)
		}
		return model.EditAccount{Index: *w.Index, Account: *w.Account}, nil

	case model.CommandSwapAccounts:
		if w.FromIndex == nil || w.ToIndex == nil {
			return nil, fmt.Errorf("%w: %s requires FromIndex and ToIndex", ErrMalformedCommand, kind)
		}
		return model.SwapAccounts{FromIndex: *w.FromIndex, ToIndex: *w.ToIndex}, nil

	case model.CommandSaveAccounts:
		return model.SaveAccounts{}, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownDataType, *w.DataType)
	}
}

// DecodeSnapshot parses the credential list the device sends on connection.
func DecodeSnapshot(raw []byte) ([]model.Credential, error) {
	var creds []model.Credential
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if creds == nil {
		creds = []model.Credential{}
	}
	return creds, nil
}
