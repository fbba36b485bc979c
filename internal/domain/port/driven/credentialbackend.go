package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/wpass/internal/domain/model"
)

// ErrSecretKeyNotSet is returned by a backend that finds sealed records but
// was constructed without a secret key.
var ErrSecretKeyNotSet = errors.New("secret key not configured: set WPASS_SECRET_KEY")

// CredentialBackend defines the driven port for credential persistence.
// Implementations store the whole ordered sequence at once; the in-memory
// store is authoritative between reads and writes.
type CredentialBackend interface {
	// Read returns the persisted credentials in store order.
	Read(ctx context.Context) ([]model.Credential, error)

	// Write replaces the persisted credentials with creds, preserving order.
	Write(ctx context.Context, creds []model.Credential) error
}
