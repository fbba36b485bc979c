package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/wpass/internal/domain/model"
	"github.com/ericfisherdev/wpass/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialBackend = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialBackend port.
// Rows are kept in store order by their position column. When a key is
// configured, login ids and passwords are sealed with AES-256-GCM before
// write and opened after read.
type CredentialRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil stores values in plaintext.
}

// NewCredentialRepo creates a new CredentialRepo. key must be 32 bytes, or nil
// to store values unsealed.
func NewCredentialRepo(db *DB, key []byte) (*CredentialRepo, error) {
	if key != nil && len(key) != 32 {
		return nil, fmt.Errorf("secret key must be 32 bytes, got %d", len(key))
	}
	return &CredentialRepo{db: db, key: key}, nil
}

// Read returns every stored credential ordered by position.
func (r *CredentialRepo) Read(ctx context.Context) ([]model.Credential, error) {
	const query = `SELECT name, login_id, password, sealed FROM credentials ORDER BY position`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	creds := []model.Credential{}
	for rows.Next() {
		var cred model.Credential
		var sealed bool
		if err := rows.Scan(&cred.Name, &cred.LoginID, &cred.Password, &sealed); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}

		if sealed {
			if cred.LoginID, err = r.decrypt(cred.LoginID); err != nil {
				return nil, fmt.Errorf("open login id of %q: %w", cred.Name, err)
			}
			if cred.Password, err = r.decrypt(cred.Password); err != nil {
				return nil, fmt.Errorf("open password of %q: %w", cred.Name, err)
			}
		}

		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// Write replaces the table contents with creds in a single transaction.
func (r *CredentialRepo) Write(ctx context.Context, creds []model.Credential) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}

	const insert = `INSERT INTO credentials (position, name, login_id, password, sealed, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	sealed := r.key != nil
	for i, cred := range creds {
		loginID, password := cred.LoginID, cred.Password
		if sealed {
			if loginID, err = r.encrypt(loginID); err != nil {
				return err
			}
			if password, err = r.encrypt(password); err != nil {
				return err
			}
		}
		if _, err := stmt.ExecContext(ctx, i, cred.Name, loginID, password, sealed); err != nil {
			return fmt.Errorf("insert credential %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit credentials: %w", err)
	}
	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce (12 bytes) prepended to the ciphertext.
func (r *CredentialRepo) encrypt(plaintext string) (string, error) {
	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *CredentialRepo) decrypt(encoded string) (string, error) {
	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func (r *CredentialRepo) aead() (cipher.AEAD, error) {
	if r.key == nil {
		return nil, driven.ErrSecretKeyNotSet
	}
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
