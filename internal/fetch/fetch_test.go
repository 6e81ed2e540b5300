package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bogrep/bogrep/internal/cache"
	"github.com/bogrep/bogrep/internal/config"
	"github.com/bogrep/bogrep/internal/render"
	"github.com/bogrep/bogrep/internal/target"
)

func newScheduler(t *testing.T, settings config.Settings) (*Scheduler, *cache.Store) {
	t.Helper()
	cacheStore := cache.New(t.TempDir())
	sched := New(settings, cacheStore, render.New(render.Options{}))
	return sched, cacheStore
}

func baseSettings() config.Settings {
	s := config.Default()
	s.MaxConcurrentRequests = 4
	s.RequestThrottlingMillis = 0
	s.RequestTimeoutMillis = 5000
	s.MaxOpenFiles = 256
	s.CacheMode = config.ModeText
	return s
}

func TestRunFetchesAndCaches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>hello world</p></body></html>"))
	}))
	defer srv.Close()

	settings := baseSettings()
	sched, cacheStore := newScheduler(t, settings)

	index := []target.Bookmark{
		{ID: "id1", URL: srv.URL, Status: target.StatusAdded, Action: target.ActionFetchAndAdd},
	}

	out, report := sched.Run(context.Background(), index, nil)
	require.Equal(t, 1, report.FetchedOK)
	require.Equal(t, 0, report.Failed)
	require.Len(t, out, 1)
	require.Equal(t, target.StatusFetchedSuccess, out[0].Status)
	require.True(t, out[0].HasCacheMode(config.ModeText))

	content, err := cacheStore.Get("id1", config.ModeText)
	require.NoError(t, err)
	require.Contains(t, string(content), "hello world")
}

func TestRunMarksFailedOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	settings := baseSettings()
	sched, _ := newScheduler(t, settings)

	index := []target.Bookmark{
		{ID: "id1", URL: srv.URL, Status: target.StatusAdded, Action: target.ActionFetchAndAdd},
	}
	out, report := sched.Run(context.Background(), index, nil)
	require.Equal(t, 0, report.FetchedOK)
	require.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	require.Equal(t, target.StatusFetchedFailed, out[0].Status)
}

func TestRunRejectsUnsupportedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	}))
	defer srv.Close()

	settings := baseSettings()
	sched, _ := newScheduler(t, settings)

	index := []target.Bookmark{
		{ID: "id1", URL: srv.URL, Status: target.StatusAdded, Action: target.ActionFetchAndAdd},
	}
	_, report := sched.Run(context.Background(), index, nil)
	require.Equal(t, 1, report.Failed)
}

func TestRunSkipsActionNone(t *testing.T) {
	settings := baseSettings()
	sched, _ := newScheduler(t, settings)

	index := []target.Bookmark{
		{ID: "id1", URL: "https://example.com/a", Status: target.StatusFetchedSuccess, Action: target.ActionNone},
	}
	out, report := sched.Run(context.Background(), index, nil)
	require.Equal(t, 1, report.Skipped)
	require.Len(t, out, 1)
}

func TestRunDropsRemovedBookmarksAndPurgesCache(t *testing.T) {
	settings := baseSettings()
	sched, cacheStore := newScheduler(t, settings)
	require.NoError(t, cacheStore.Put("id1", config.ModeText, []byte("stale")))

	index := []target.Bookmark{
		{ID: "id1", URL: "https://example.com/a", Status: target.StatusRemoved, Action: target.ActionRemove},
	}
	out, report := sched.Run(context.Background(), index, nil)
	require.Equal(t, 1, report.Removed)
	require.Len(t, out, 0)
	require.False(t, cacheStore.Exists("id1", config.ModeText))
}

func TestRunDeleteCacheForIgnoredPurgesAllModes(t *testing.T) {
	settings := baseSettings()
	sched, cacheStore := newScheduler(t, settings)
	require.NoError(t, cacheStore.Put("id1", config.ModeText, []byte("a")))
	require.NoError(t, cacheStore.Put("id1", config.ModeMarkdown, []byte("b")))

	index := []target.Bookmark{
		{
			ID: "id1", URL: "https://spam.example.com/x",
			Status: target.StatusIgnored, Action: target.ActionDeleteCache,
			CacheModes: []config.CacheMode{config.ModeText, config.ModeMarkdown},
		},
	}
	out, report := sched.Run(context.Background(), index, nil)
	require.Equal(t, 1, report.Ignored)
	require.Len(t, out, 1)
	require.Empty(t, out[0].CacheModes)
	require.False(t, cacheStore.Exists("id1", config.ModeText))
	require.False(t, cacheStore.Exists("id1", config.ModeMarkdown))
}

func TestRunDeleteCachePreservesConfiguredMode(t *testing.T) {
	settings := baseSettings()
	settings.CacheMode = config.ModeMarkdown
	sched, cacheStore := newScheduler(t, settings)
	require.NoError(t, cacheStore.Put("id1", config.ModeMarkdown, []byte("keep")))
	require.NoError(t, cacheStore.Put("id1", config.ModeHTML, []byte("drop")))

	index := []target.Bookmark{
		{
			ID: "id1", URL: "https://example.com/a",
			Status: target.StatusFetchedSuccess, Action: target.ActionDeleteCache,
			CacheModes: []config.CacheMode{config.ModeMarkdown, config.ModeHTML},
		},
	}
	out, _ := sched.Run(context.Background(), index, nil)
	require.Equal(t, []config.CacheMode{config.ModeMarkdown}, out[0].CacheModes)
	require.True(t, cacheStore.Exists("id1", config.ModeMarkdown))
	require.False(t, cacheStore.Exists("id1", config.ModeHTML))
}

func TestRunProgressCallbackFires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	settings := baseSettings()
	sched, _ := newScheduler(t, settings)

	index := []target.Bookmark{
		{ID: "id1", URL: srv.URL, Status: target.StatusAdded, Action: target.ActionFetchAndAdd},
	}
	var events []ProgressEvent
	_, _ = sched.Run(context.Background(), index, func(e ProgressEvent) {
		events = append(events, e)
	})
	require.Len(t, events, 1)
	require.Equal(t, 1, events[0].Total)
}

func TestRunRecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	settings := baseSettings()
	sched, _ := newScheduler(t, settings)

	index := []target.Bookmark{
		{ID: "id1", URL: srv.URL, Status: target.StatusAdded, Action: target.ActionFetchAndAdd},
		{ID: "id2", URL: "https://example.com/a", Status: target.StatusFetchedSuccess, Action: target.ActionNone},
	}
	_, _ = sched.Run(context.Background(), index, nil)

	snap := sched.Metrics.Snapshot()
	require.Equal(t, 1, snap.FetchedOK)
	require.Equal(t, 1, snap.Skipped)
}

func TestRunFetchAndDiffEmitsUnifiedDiff(t *testing.T) {
	page := "<p>hi</p>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	settings := baseSettings()
	sched, cacheStore := newScheduler(t, settings)
	require.NoError(t, cacheStore.Put("id1", config.ModeText, []byte("hi")))

	page = "<p>bye</p>"
	index := []target.Bookmark{
		{ID: "id1", URL: srv.URL, Status: target.StatusFetchedSuccess, Action: target.ActionFetchAndDiff},
	}

	_, report := sched.Run(context.Background(), index, nil)
	require.Equal(t, 1, report.FetchedOK)
	require.Len(t, report.Diffs, 1)
	require.Equal(t, srv.URL, report.Diffs[0].URL)
	require.Contains(t, report.Diffs[0].Text, "-hi")
	require.Contains(t, report.Diffs[0].Text, "+bye")

	content, err := cacheStore.Get("id1", config.ModeText)
	require.NoError(t, err)
	require.Contains(t, string(content), "bye")
}

func TestRunRespectsCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.Write([]byte("too late"))
	}))
	defer srv.Close()
	defer close(block)

	settings := baseSettings()
	settings.RequestTimeoutMillis = 60_000
	sched, _ := newScheduler(t, settings)

	index := []target.Bookmark{
		{ID: "id1", URL: srv.URL, Status: target.StatusAdded, Action: target.ActionFetchAndAdd},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, report := sched.Run(ctx, index, nil)
	require.True(t, report.Cancelled)
}
