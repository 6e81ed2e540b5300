package target

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bogrep/bogrep/internal/source"
)

func TestLoadMissingIsEmpty(t *testing.T) {
	s := New(t.TempDir())
	got, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSaveLoadRoundtripSortsByURL(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	now := time.Now().UTC().Truncate(time.Second)
	bookmarks := []Bookmark{
		{ID: "b", URL: "https://b.example.com", Status: StatusAdded, LastImported: now},
		{ID: "a", URL: "https://a.example.com", Status: StatusAdded, LastImported: now},
	}
	require.NoError(t, s.Save(bookmarks))

	got, err := s.Load()
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "https://a.example.com", got[0].URL)
	require.Equal(t, "https://b.example.com", got[1].URL)
}

func TestSaveIsAtomicNoStaleTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Save(nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".tmp.")
	}
	require.FileExists(t, filepath.Join(dir, IndexFilename))
}

func TestLoadCorruptIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFilename), []byte("{not an array"), 0o644))

	s := New(dir)
	_, err := s.Load()
	require.ErrorIs(t, err, ErrIndexCorrupt)
}

func TestUpsertFromSourcesCreatesAndMerges(t *testing.T) {
	now := time.Now()
	index := UpsertFromSources(nil, []source.Bookmark{
		{URL: "https://example.com/a", Title: "A", Source: source.Descriptor{Kind: "chromium", Path: "p"}},
	}, now)
	require.Len(t, index, 1)
	require.Equal(t, StatusAdded, index[0].Status)
	require.Equal(t, ActionFetchAndAdd, index[0].Action)
	require.NotEmpty(t, index[0].ID)

	id := index[0].ID
	index = UpsertFromSources(index, []source.Bookmark{
		{URL: "https://example.com/a", Title: "A renamed", Source: source.Descriptor{Kind: "chromium", Path: "p"}},
	}, now.Add(time.Hour))
	require.Len(t, index, 1)
	require.Equal(t, id, index[0].ID, "id must be stable across re-imports")
	require.Equal(t, "A renamed", index[0].Title)
	require.Len(t, index[0].Sources, 1, "re-importing from the same source must not duplicate it")
}

func TestUpsertFromSourcesURLUniqueness(t *testing.T) {
	now := time.Now()
	index := UpsertFromSources(nil, []source.Bookmark{
		{URL: "https://dup.example.com", Source: source.Descriptor{Kind: "chromium"}},
		{URL: "https://dup.example.com", Source: source.Descriptor{Kind: "firefox"}},
	}, now)

	require.Len(t, index, 1, "same URL from two sources must merge into one entry")
	require.Len(t, index[0].Sources, 2)
}

func TestRetainOnly(t *testing.T) {
	index := []Bookmark{
		{ID: "1", URL: "https://keep"},
		{ID: "2", URL: "https://drop"},
	}
	index = RetainOnly(index, func(b Bookmark) bool { return b.ID == "1" })
	require.Len(t, index, 1)
	require.Equal(t, "1", index[0].ID)
}

func TestNoteSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	n := Note{ID: "abc123", URL: "https://example.com", Title: "Example", Body: "remember to reread this"}
	require.NoError(t, SaveNote(dir, n))

	got, ok, err := LoadNote(dir, "abc123")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, n.ID, got.ID)
	require.Equal(t, n.URL, got.URL)
	require.Equal(t, n.Body, got.Body)

	require.NoError(t, RemoveNote(dir, "abc123"))
	_, ok, err = LoadNote(dir, "abc123")
	require.NoError(t, err)
	require.False(t, ok)
}
