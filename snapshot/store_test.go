package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreSaveLoad(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t)
	doc := sampleDocument()

	require.NoError(t, store.Save("genesis", doc))
	loaded, err := store.Load("genesis")
	require.NoError(t, err)

	raw1, err := doc.Encode()
	require.NoError(t, err)
	raw2, err := loaded.Encode()
	require.NoError(t, err)
	assert.Equal(raw1, raw2)
}

func TestStoreSaveOverwrites(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t)

	first := NewDocument(SourceLocal, 1, 12)
	second := NewDocument(SourceLocal, 2, 24)
	require.NoError(t, store.Save("latest", first))
	require.NoError(t, store.Save("latest", second))

	loaded, err := store.Load("latest")
	require.NoError(t, err)
	assert.Equal(uint64(2), loaded.BlockNum)
}

func TestStoreRejectsEmptyName(t *testing.T) {
	store := openTestStore(t)
	require.Error(t, store.Save("", NewDocument(SourceLocal, 0, 0)))
}

func TestStoreLoadMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Load("nope")
	require.Error(t, err)
}

func TestStoreListAndDelete(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t)

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, store.Save(name, NewDocument(SourceLocal, 0, 0)))
	}

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal([]string{"alpha", "bravo", "charlie"}, names)

	require.NoError(t, store.Delete("bravo"))
	names, err = store.List()
	require.NoError(t, err)
	assert.Equal([]string{"alpha", "charlie"}, names)
}
