package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bogrep/bogrep/internal/config"
	"github.com/bogrep/bogrep/internal/ignore"
	"github.com/bogrep/bogrep/internal/source"
	"github.com/bogrep/bogrep/internal/target"
)

var now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func chromiumDesc(path string) source.Descriptor {
	return source.Descriptor{Kind: "chromium", Path: path}
}

func TestImportNewBookmarkFetchAndAdd(t *testing.T) {
	observed := []source.Bookmark{
		{URL: "https://example.com/a", Title: "A", Source: chromiumDesc("/chrome")},
	}
	out := Import(nil, observed, ImportOptions{ActiveSourcePaths: []string{"/chrome"}}, now)
	require.Len(t, out, 1)
	require.Equal(t, target.ActionFetchAndAdd, out[0].Action)
	require.Equal(t, target.StatusAdded, out[0].Status)
}

func TestImportReimportIsIdempotent(t *testing.T) {
	observed := []source.Bookmark{
		{URL: "https://example.com/a", Title: "A", Source: chromiumDesc("/chrome")},
	}
	first := Import(nil, observed, ImportOptions{ActiveSourcePaths: []string{"/chrome"}}, now)
	first[0].Status = target.StatusFetchedSuccess
	first[0].CacheModes = []config.CacheMode{config.ModeMarkdown}
	first[0].Action = target.ActionNone

	second := Import(first, observed, ImportOptions{ActiveSourcePaths: []string{"/chrome"}}, now)
	require.Len(t, second, 1)
	require.Equal(t, target.ActionNone, second[0].Action)
	require.Equal(t, target.StatusFetchedSuccess, second[0].Status)
}

func TestImportSourceRemovedDropsAttribution(t *testing.T) {
	existing := []target.Bookmark{
		{
			ID:           "id1",
			URL:          "https://example.com/a",
			Sources:      []source.Descriptor{chromiumDesc("/chrome")},
			LastImported: now,
			Status:       target.StatusFetchedSuccess,
			CacheModes:   []config.CacheMode{config.ModeMarkdown},
		},
	}
	// No observed bookmarks at all this run: the source was emptied.
	out := Import(existing, nil, ImportOptions{ActiveSourcePaths: []string{"/chrome"}}, now)
	require.Len(t, out, 1)
	require.Equal(t, target.StatusRemoved, out[0].Status)
	require.Equal(t, target.ActionRemove, out[0].Action)
}

func TestImportSourceRemovedKeepsOtherSource(t *testing.T) {
	existing := []target.Bookmark{
		{
			ID:  "id1",
			URL: "https://example.com/a",
			Sources: []source.Descriptor{
				chromiumDesc("/chrome"),
				chromiumDesc("/other"),
			},
			LastImported: now,
			Status:       target.StatusFetchedSuccess,
			CacheModes:   []config.CacheMode{config.ModeMarkdown},
		},
	}
	out := Import(existing, nil, ImportOptions{ActiveSourcePaths: []string{"/chrome"}}, now)
	require.Len(t, out, 1)
	require.Equal(t, target.StatusFetchedSuccess, out[0].Status)
	require.Equal(t, target.ActionNone, out[0].Action)
	require.Len(t, out[0].Sources, 1)
	require.Equal(t, "/other", out[0].Sources[0].Path)
}

func TestImportIgnoreWinsOverFetch(t *testing.T) {
	observed := []source.Bookmark{
		{URL: "https://spam.example.com/x", Source: chromiumDesc("/chrome")},
	}
	list := ignore.New([]string{"https://spam.example.com/x"})
	out := Import(nil, observed, ImportOptions{ActiveSourcePaths: []string{"/chrome"}, IgnoreList: list}, now)
	require.Len(t, out, 1)
	require.Equal(t, target.StatusIgnored, out[0].Status)
	require.Equal(t, target.ActionDeleteCache, out[0].Action)
}

func TestImportUnderlyingAddsSecondBookmark(t *testing.T) {
	observed := []source.Bookmark{
		{URL: "https://youtu.be/abc123", Source: chromiumDesc("/chrome")},
	}
	out := Import(nil, observed, ImportOptions{ActiveSourcePaths: []string{"/chrome"}, ApplyUnderlying: true}, now)
	require.Len(t, out, 2)

	rewritten, ok := target.ByURL(out, "https://www.youtube.com/watch?v=abc123")
	require.True(t, ok)
	require.Equal(t, target.ActionFetchAndAdd, rewritten.Action)
	require.Len(t, rewritten.Sources, 1)
	require.Equal(t, "underlying", rewritten.Sources[0].Kind)
}

func TestFetchNoCacheYieldsAdd(t *testing.T) {
	index := []target.Bookmark{
		{ID: "id1", URL: "https://example.com/a", Status: target.StatusAdded},
	}
	out := Fetch(index, FetchOptions{CacheMode: config.ModeMarkdown})
	require.Equal(t, target.ActionFetchAndAdd, out[0].Action)
}

func TestFetchAlreadyCachedYieldsNone(t *testing.T) {
	index := []target.Bookmark{
		{
			ID: "id1", URL: "https://example.com/a",
			Status:     target.StatusFetchedSuccess,
			CacheModes: []config.CacheMode{config.ModeMarkdown},
		},
	}
	out := Fetch(index, FetchOptions{CacheMode: config.ModeMarkdown})
	require.Equal(t, target.ActionNone, out[0].Action)
}

func TestFetchModeChangedYieldsReplace(t *testing.T) {
	index := []target.Bookmark{
		{
			ID: "id1", URL: "https://example.com/a",
			Status:     target.StatusFetchedSuccess,
			CacheModes: []config.CacheMode{config.ModeHTML},
		},
	}
	out := Fetch(index, FetchOptions{CacheMode: config.ModeMarkdown})
	require.Equal(t, target.ActionFetchAndReplace, out[0].Action)
}

func TestFetchExplicitReplaceFlag(t *testing.T) {
	index := []target.Bookmark{
		{
			ID: "id1", URL: "https://example.com/a",
			Status:     target.StatusFetchedSuccess,
			CacheModes: []config.CacheMode{config.ModeMarkdown},
		},
	}
	out := Fetch(index, FetchOptions{CacheMode: config.ModeMarkdown, Replace: true})
	require.Equal(t, target.ActionFetchAndReplace, out[0].Action)
}

func TestFetchDiffBeatsReplace(t *testing.T) {
	index := []target.Bookmark{
		{
			ID: "id1", URL: "https://example.com/a",
			Status:     target.StatusFetchedSuccess,
			CacheModes: []config.CacheMode{config.ModeMarkdown},
		},
	}
	out := Fetch(index, FetchOptions{
		CacheMode: config.ModeMarkdown,
		Replace:   true,
		Diff:      map[string]struct{}{"https://example.com/a": {}},
	})
	require.Equal(t, target.ActionFetchAndDiff, out[0].Action)
}

func TestFetchStaleModesPurgedWithoutRefetch(t *testing.T) {
	index := []target.Bookmark{
		{
			ID: "id1", URL: "https://example.com/a",
			Status:     target.StatusFetchedSuccess,
			CacheModes: []config.CacheMode{config.ModeMarkdown, config.ModeHTML},
		},
	}
	out := Fetch(index, FetchOptions{CacheMode: config.ModeMarkdown})
	require.Equal(t, target.ActionDeleteCache, out[0].Action)
}

func TestFetchIgnoredNeverFetched(t *testing.T) {
	index := []target.Bookmark{
		{ID: "id1", URL: "https://spam.example.com/x", Status: target.StatusIgnored},
	}
	out := Fetch(index, FetchOptions{CacheMode: config.ModeMarkdown, Replace: true})
	require.Equal(t, target.ActionNone, out[0].Action)
}

func TestFetchRemoveActionNotOverridden(t *testing.T) {
	index := []target.Bookmark{
		{ID: "id1", URL: "https://example.com/a", Status: target.StatusRemoved, Action: target.ActionRemove},
	}
	out := Fetch(index, FetchOptions{CacheMode: config.ModeMarkdown, Replace: true})
	require.Equal(t, target.ActionRemove, out[0].Action)
}

func TestFetchOnlySubsetRestrictsSelection(t *testing.T) {
	index := []target.Bookmark{
		{ID: "id1", URL: "https://example.com/a", Status: target.StatusAdded},
		{ID: "id2", URL: "https://example.com/b", Status: target.StatusAdded},
	}
	out := Fetch(index, FetchOptions{
		CacheMode: config.ModeMarkdown,
		Only:      map[string]struct{}{"https://example.com/a": {}},
	})
	require.Equal(t, target.ActionFetchAndAdd, out[0].Action)
	require.Equal(t, target.ActionNone, out[1].Action)
}
