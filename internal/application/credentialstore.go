// Package application contains the device core: credential store, command
// channel, input handling and the tick loop that drives them.
package application

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/ericfisherdev/wpass/internal/domain/model"
	"github.com/ericfisherdev/wpass/internal/domain/port/driven"
)

// CredentialStore is the ordered in-memory credential collection. Order is
// the display and selection order; duplicates are allowed. Persistence goes
// through a CredentialBackend and never fails loudly: the in-memory copy is
// authoritative.
type CredentialStore struct {
	backend driven.CredentialBackend
	creds   []model.Credential
	logger  *slog.Logger
}

// LoadCredentialStore reads the backend into a new store. Any read error is
// logged and yields an empty store.
func LoadCredentialStore(ctx context.Context, backend driven.CredentialBackend, logger *slog.Logger) *CredentialStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CredentialStore{backend: backend, logger: logger}

	creds, err := backend.Read(ctx)
	if err != nil {
		logger.Warn("failed to load credentials, starting empty", "error", err)
		return s
	}

	s.creds = slices.Clone(creds)
	logger.Info("credentials loaded", "count", len(s.creds))
	return s
}

// Save writes the store to the backend. Failures are logged and swallowed.
func (s *CredentialStore) Save(ctx context.Context) {
	if err := s.backend.Write(ctx, s.Snapshot()); err != nil {
		s.logger.Error("failed to save credentials", "count", len(s.creds), "error", err)
		return
	}
	s.logger.Info("credentials saved", "count", len(s.creds))
}

// Len returns the number of credentials.
func (s *CredentialStore) Len() int {
	return len(s.creds)
}

// Get returns the credential at index.
func (s *CredentialStore) Get(index int) (model.Credential, error) {
	if err := s.checkIndex(index); err != nil {
		return model.Credential{}, err
	}
	return s.creds[index], nil
}

// All yields every credential with its position, in store order.
func (s *CredentialStore) All() iter.Seq2[int, model.Credential] {
	return func(yield func(int, model.Credential) bool) {
		for i, c := range s.creds {
			if !yield(i, c) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the credentials in store order. The result is
// never nil so it always serializes as a JSON array.
func (s *CredentialStore) Snapshot() []model.Credential {
	out := make([]model.Credential, len(s.creds))
	copy(out, s.creds)
	return out
}

// Append adds c at the end of the store.
func (s *CredentialStore) Append(c model.Credential) {
	s.creds = append(s.creds, c)
}

// Replace overwrites the credential at index.
func (s *CredentialStore) Replace(index int, c model.Credential) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.creds[index] = c
	return nil
}

// Remove deletes the credential at index, shifting later entries left, and
// returns it.
func (s *CredentialStore) Remove(index int) (model.Credential, error) {
	if err := s.checkIndex(index); err != nil {
		return model.Credential{}, err
	}
	removed := s.creds[index]
	s.creds = slices.Delete(s.creds, index, index+1)
	return removed, nil
}

// Swap exchanges the credentials at a and b.
func (s *CredentialStore) Swap(a, b int) error {
	if err := s.checkIndex(a); err != nil {
		return err
	}
	if err := s.checkIndex(b); err != nil {
		return err
	}
	s.creds[a], s.creds[b] = s.creds[b], s.creds[a]
	return nil
}

func (s *CredentialStore) checkIndex(index int) error {
	if index < 0 || index >= len(s.creds) {
		return fmt.Errorf("%w: %d (store has %d)", ErrIndexOutOfRange, index, len(s.creds))
	}
	return nil
}
