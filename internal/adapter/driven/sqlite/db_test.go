package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB opens a migrated in-memory database private to the test.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory(context.Background(), t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenMemory_Migrates(t *testing.T) {
	db := setupTestDB(t)

	assert.Equal(t, ":memory:", db.Path())
	assert.Equal(t, uint(1), db.SchemaVersion())

	var n int
	require.NoError(t, db.Reader.QueryRow(`SELECT COUNT(*) FROM credentials`).Scan(&n))
	assert.Zero(t, n)
}

func TestOpen_CreatesOwnerOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wpass.db")

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Equal(t, path, db.Path())
}

func TestOpen_ReopenKeepsDataAndVersion(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wpass.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	repo, err := NewCredentialRepo(db, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Write(ctx, sampleCredentials()))
	require.NoError(t, db.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	assert.Equal(t, uint(1), reopened.SchemaVersion())

	repo, err = NewCredentialRepo(reopened, nil)
	require.NoError(t, err)
	creds, err := repo.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleCredentials(), creds)
}

func TestMigrateUp_RefusesDirtySchema(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.Writer.Exec(`UPDATE schema_migrations SET dirty = 1`)
	require.NoError(t, err)

	_, err = migrateUp(db.Writer)

	assert.ErrorIs(t, err, ErrDirtySchema)
}
