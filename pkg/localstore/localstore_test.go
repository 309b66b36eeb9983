package localstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	_, ok, err := store.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(KeyToken, "abc123"))

	value, ok, err := store.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", value)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyCart, `[{"size":"9"}]`))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	value, ok, err := reopened.Get(KeyCart)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"size":"9"}]`, value)
}

func TestFileStoreDeleteIsIdempotent(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyUser, `{"id":"u1"}`))
	require.NoError(t, store.Delete(KeyUser))
	require.NoError(t, store.Delete(KeyUser))

	_, ok, err := store.Get(KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Two handles on the same file behave like two browser tabs: each write
// replaces the whole map, so the last writer wins.
func TestConcurrentHandlesLastWriterWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	tabA, err := NewFileStore(path)
	require.NoError(t, err)
	tabB, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, tabA.Set(KeyCart, "from-a"))
	require.NoError(t, tabB.Set(KeyCart, "from-b"))

	value, ok, err := tabA.Get(KeyCart)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-b", value)
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Set("k", "v"))

	value, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	require.NoError(t, store.Delete("k"))
	_, ok, err = store.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}
