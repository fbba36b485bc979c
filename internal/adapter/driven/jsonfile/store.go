// Package jsonfile persists the credential list as a single JSON document,
// {"Accounts":[...]}, replaced atomically on every write.
package jsonfile

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ericfisherdev/wpass/internal/domain/model"
	"github.com/ericfisherdev/wpass/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialBackend = (*Store)(nil)

type document struct {
	Accounts []model.Credential `json:"Accounts"`
}

// Store is the JSON file implementation of the CredentialBackend port.
type Store struct {
	path string
}

// NewStore returns a Store backed by the file at path. The file is not
// touched until the first Read or Write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Read loads the credential list. A missing file is an empty list; an
// unreadable or malformed file is an error.
func (s *Store) Read(_ context.Context) ([]model.Credential, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Credential{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	if doc.Accounts == nil {
		doc.Accounts = []model.Credential{}
	}
	return doc.Accounts, nil
}

// Write replaces the file with creds using the temp-file, fsync, rename
// pattern, so a crash mid-write leaves the previous file intact.
func (s *Store) Write(_ context.Context, creds []model.Credential) error {
	if creds == nil {
		creds = []model.Credential{}
	}
	data, err := json.Marshal(document{Accounts: creds})
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".wpass-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
