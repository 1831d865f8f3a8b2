package outbox

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altenshop/backend/internal/mailer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStashAndBatch(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Stash(mailer.Message{To: "a@x.com", Subject: "first"}))
	require.NoError(t, store.Stash(mailer.Message{To: "b@x.com", Subject: "second"}))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	entries, err := store.Batch(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Oldest first.
	assert.Equal(t, "a@x.com", entries[0].Message.To)
	assert.Equal(t, "b@x.com", entries[1].Message.To)
	assert.NotEmpty(t, entries[0].ID)
}

func TestBatchHonorsLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Stash(mailer.Message{To: "a@x.com"}))
	}

	entries, err := store.Batch(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Stash(mailer.Message{To: "a@x.com"}))
	entries, err := store.Batch(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, store.Remove(entries[0]))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestRequeueFailureKeepsEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.db")
	store, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, store.Stash(mailer.Message{To: "a@x.com"}))
	entries, err := store.Batch(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// A requeue that cannot commit must not lose the message.
	require.NoError(t, store.Close())
	require.Error(t, store.Requeue(entries[0]))

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	size, err := reopened.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestRequeueBumpsAttempts(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Stash(mailer.Message{To: "a@x.com"}))
	entries, err := store.Batch(1)
	require.NoError(t, err)

	require.NoError(t, store.Requeue(entries[0]))

	entries, err = store.Batch(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Attempts)
	// Identity survives the round trip, only the key changes.
	assert.Equal(t, "a@x.com", entries[0].Message.To)
}
