package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FergusFettes/command-line-loom/internal/loom"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLoadMissingChatIsEmpty(t *testing.T) {
	s := newStore(t)

	ix, err := s.Load("fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", ix.Name())
	assert.Equal(t, 0, ix.Store().Size())
	assert.False(t, s.Exists("fresh"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t)

	ix, err := s.Load("trip")
	require.NoError(t, err)
	_, err = ix.Extend("hello", "")
	require.NoError(t, err)
	_, err = ix.Extend("world", "")
	require.NoError(t, err)
	require.NoError(t, ix.Tag("here"))

	require.NoError(t, s.Save(ix))
	assert.True(t, s.Exists("trip"))

	loaded, err := s.Load("trip")
	require.NoError(t, err)
	assert.Equal(t, "trip", loaded.Name())
	assert.Equal(t, []int{0, 1}, loaded.Store().IDs())
	assert.Equal(t, map[string]int{"here": 1}, loaded.Tags())
	assert.Equal(t, 1, loaded.Tip().ID)
}

func TestSaveWithoutNameFails(t *testing.T) {
	s := newStore(t)

	err := s.Save(loom.NewIndex())
	assert.ErrorIs(t, err, loom.ErrInvalidInput)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := newStore(t)

	ix, err := s.Load("clean")
	require.NoError(t, err)
	_, err = ix.Extend("x", "")
	require.NoError(t, err)
	require.NoError(t, s.Save(ix))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "clean.json", entries[0].Name())
}

func TestLoadCorruptFileFails(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(s.Path("bad"), []byte("{not json"), 0o644))

	_, err := s.Load("bad")
	assert.ErrorIs(t, err, loom.ErrCorrupt)
}

func TestListSortedNames(t *testing.T) {
	s := newStore(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		ix, err := s.Load(name)
		require.NoError(t, err)
		_, err = ix.Extend("x", "")
		require.NoError(t, err)
		require.NoError(t, s.Save(ix))
	}
	// Non-chat files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("n"), 0o644))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestDumpAndRemove(t *testing.T) {
	s := newStore(t)

	ix, err := s.Load("doomed")
	require.NoError(t, err)
	_, err = ix.Extend("x", "")
	require.NoError(t, err)
	require.NoError(t, s.Save(ix))

	raw, err := s.Dump("doomed")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "index_struct")

	require.NoError(t, s.Remove("doomed"))
	assert.False(t, s.Exists("doomed"))

	_, err = s.Dump("doomed")
	assert.ErrorIs(t, err, loom.ErrNotFound)
	assert.ErrorIs(t, s.Remove("doomed"), loom.ErrNotFound)
}
