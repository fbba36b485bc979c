package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/wpass/internal/application"
	"github.com/ericfisherdev/wpass/internal/domain/model"
)

func TestLoadCredentialStore_ReadsBackend(t *testing.T) {
	backend := &fakeBackend{creds: creds("a", "b")}

	store := application.LoadCredentialStore(context.Background(), backend, discardLogger())

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []string{"a", "b"}, names(store.Snapshot()))
}

func TestLoadCredentialStore_FailsSoft(t *testing.T) {
	var logs logBuffer
	backend := &fakeBackend{readErr: errors.New("corrupt file")}

	store := application.LoadCredentialStore(context.Background(), backend, newTestLogger(&logs))

	require.NotNil(t, store)
	assert.Equal(t, 0, store.Len())
	assert.Contains(t, logs.String(), "corrupt file")
}

func TestCredentialStore_SaveFailsSoft(t *testing.T) {
	var logs logBuffer
	backend := &fakeBackend{creds: creds("a"), writeErr: errDiskFull}
	store := application.LoadCredentialStore(context.Background(), backend, newTestLogger(&logs))

	store.Append(model.Credential{Name: "b"})
	store.Save(context.Background())

	assert.Equal(t, 1, backend.writes)
	assert.Equal(t, 2, store.Len(), "in-memory state is authoritative after a failed save")
	assert.Contains(t, logs.String(), "disk full")
}

func TestCredentialStore_SaveThenLoadReproducesOrder(t *testing.T) {
	backend := &fakeBackend{}
	store := application.LoadCredentialStore(context.Background(), backend, discardLogger())
	for _, c := range creds("x", "y", "x", "z") {
		store.Append(c)
	}
	store.Append(model.Credential{})

	store.Save(context.Background())
	reloaded := application.LoadCredentialStore(context.Background(), backend, discardLogger())

	assert.Equal(t, store.Snapshot(), reloaded.Snapshot())
}

func TestCredentialStore_RemovePreservesOrder(t *testing.T) {
	store := application.LoadCredentialStore(context.Background(), &fakeBackend{creds: creds("a", "b", "c", "d")}, discardLogger())

	removed, err := store.Remove(1)

	require.NoError(t, err)
	assert.Equal(t, "b", removed.Name)
	assert.Equal(t, []string{"a", "c", "d"}, names(store.Snapshot()))
}

func TestCredentialStore_ReplaceAndSwap(t *testing.T) {
	store := application.LoadCredentialStore(context.Background(), &fakeBackend{creds: creds("a", "b", "c")}, discardLogger())

	require.NoError(t, store.Replace(1, model.Credential{Name: "B"}))
	require.NoError(t, store.Swap(0, 2))

	assert.Equal(t, []string{"c", "B", "a"}, names(store.Snapshot()))
}

func TestCredentialStore_OutOfRange(t *testing.T) {
	store := application.LoadCredentialStore(context.Background(), &fakeBackend{creds: creds("a")}, discardLogger())

	_, err := store.Get(1)
	assert.ErrorIs(t, err, application.ErrIndexOutOfRange)

	_, err = store.Get(-1)
	assert.ErrorIs(t, err, application.ErrIndexOutOfRange)

	_, err = store.Remove(3)
	assert.ErrorIs(t, err, application.ErrIndexOutOfRange)

	assert.ErrorIs(t, store.Replace(1, model.Credential{}), application.ErrIndexOutOfRange)
	assert.ErrorIs(t, store.Swap(0, 1), application.ErrIndexOutOfRange)

	assert.Equal(t, []string{"a"}, names(store.Snapshot()), "failed calls must not modify the store")
}

func TestCredentialStore_AllIsRestartable(t *testing.T) {
	store := application.LoadCredentialStore(context.Background(), &fakeBackend{creds: creds("a", "b", "c")}, discardLogger())

	collect := func() []string {
		var out []string
		for i, c := range store.All() {
			assert.Equal(t, len(out), i)
			out = append(out, c.Name)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, collect())
	assert.Equal(t, []string{"a", "b", "c"}, collect())

	var first []string
	for _, c := range store.All() {
		first = append(first, c.Name)
		break
	}
	assert.Equal(t, []string{"a"}, first)
}

func TestCredentialStore_SnapshotIsACopy(t *testing.T) {
	store := application.LoadCredentialStore(context.Background(), &fakeBackend{}, discardLogger())

	snap := store.Snapshot()
	require.NotNil(t, snap)
	assert.Empty(t, snap)

	store.Append(model.Credential{Name: "a"})
	snap = store.Snapshot()
	snap[0].Name = "mutated"

	got, err := store.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
}
