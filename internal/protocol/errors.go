package protocol

import "errors"

var (
	ErrNotObject        = errors.New("protocol: command is not a JSON object")
	ErrMissingDataType  = errors.New("protocol: missing DataType")
	ErrUnknownDataType  = errors.New("protocol: unknown DataType")
	ErrMalformedCommand = errors.New("protocol: malformed command")
)
