package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/ericfisherdev/wpass/internal/domain/model"
)

// Encode renders cmd in wire form, without the trailing newline.
func Encode(cmd model.Command) ([]byte, error) {
	if cmd == nil {
		return nil, ErrMalformedCommand
	}
	w := wireCommand{DataType: intPtr(int(cmd.Kind()))}

	switch c := cmd.(type) {
	case model.AddAccount:
		w.Account = &c.Account
	case model.RemoveAccounts:
		if len(c.Indexes) == 0 {
			return nil, fmt.Errorf("%w: %s requires Indexes", ErrMalformedCommand, c.Kind())
		}
		w.Indexes = c.Indexes
	case model.EditAccount:
		w.Index = intPtr(c.Index)
		w.Account = &c.Account
	case model.SwapAccounts:
		w.FromIndex = intPtr(c.FromIndex)
		w.ToIndex = intPtr(c.ToIndex)
	case model.SaveAccounts:
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownDataType, cmd)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Kind(), err)
	}
	return data, nil
}
