package application

import "errors"

var (
	// ErrIndexOutOfRange is returned when a position does not address a
	// credential in the store.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNoCredentials is returned by selection and retrieval calls when the
	// store is empty.
	ErrNoCredentials = errors.New("no credentials available")
)
