// Package fetch implements the scheduler (C9): the bounded-concurrency
// worker pool that executes the actions the planner (internal/plan)
// assigned, rendering and caching each bookmark's content.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/sys/unix"

	"github.com/bogrep/bogrep/internal/cache"
	"github.com/bogrep/bogrep/internal/client"
	"github.com/bogrep/bogrep/internal/config"
	"github.com/bogrep/bogrep/internal/metrics"
	"github.com/bogrep/bogrep/internal/render"
	"github.com/bogrep/bogrep/internal/target"
)

// gracePeriod bounds how long in-flight work is allowed to finish after
// ctx is cancelled, before the scheduler checkpoints and returns
// (spec.md §4.9 item 7).
const gracePeriod = 5 * time.Second

// Failure records one bookmark's fetch/render/cache failure for the
// end-of-run report (spec.md §7).
type Failure struct {
	URL string
	Err error
}

// Diff is a unified textual diff between a bookmark's previously cached
// content and what was just fetched, produced for ActionFetchAndDiff
// (spec.md §4.5, §8 scenario S5).
type Diff struct {
	URL  string
	Text string
}

// Report summarizes one scheduler run.
type Report struct {
	FetchedOK int
	Failed    int
	Skipped   int
	Ignored   int
	Removed   int
	Cancelled bool
	Failures  []Failure
	Diffs     []Diff
}

// ProgressEvent is delivered to the caller's progress callback after
// every completed or failed fetch, for driving a progress bar.
type ProgressEvent struct {
	URL       string
	Completed int
	Total     int
	Err       error
}

// Scheduler executes a planned []target.Bookmark slice.
type Scheduler struct {
	httpClient *retryablehttp.Client
	cache      *cache.Store
	renderer   *render.Renderer
	settings   config.Settings
	Metrics    *metrics.Recorder
}

// New builds a Scheduler from settings, constructing its own HTTP client,
// renderer, and metrics recorder.
func New(settings config.Settings, cacheStore *cache.Store, renderer *render.Renderer) *Scheduler {
	return &Scheduler{
		httpClient: client.New(settings),
		cache:      cacheStore,
		renderer:   renderer,
		settings:   settings,
		Metrics:    metrics.New(),
	}
}

// reservedFDs is the number of file descriptors held back from
// settings.MaxOpenFiles when deriving the concurrency ceiling, for the
// index, cache writes, and stdio.
const reservedFDs = 32

// raiseFileLimit attempts to raise the process's soft RLIMIT_NOFILE
// toward settings.MaxOpenFiles (spec.md §4.9 item 1). Failure is logged
// and otherwise ignored; the concurrency ceiling in Run is derived from
// settings.MaxOpenFiles, not from the limit actually obtained.
func raiseFileLimit(want uint64) {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		slog.Warn("fetch: could not read RLIMIT_NOFILE", "error", err)
		return
	}
	wantLimit := want
	if rlimit.Max != 0 && wantLimit > rlimit.Max {
		wantLimit = rlimit.Max
	}
	if wantLimit <= rlimit.Cur {
		return
	}
	rlimit.Cur = wantLimit
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		slog.Warn("fetch: could not raise RLIMIT_NOFILE", "error", err, "wanted", want)
	}
}

// Run executes every bookmark in index whose Action requires work,
// returning the updated index (Remove actions dropped, state fields
// refreshed) and a Report. It never persists the index itself — the
// caller (internal/bogrep) owns target.Store.Save, since index I/O
// failures are fatal per spec.md §7 and must surface above the
// scheduler, not be swallowed as a per-bookmark warning.
func (s *Scheduler) Run(ctx context.Context, index []target.Bookmark, onProgress func(ProgressEvent)) ([]target.Bookmark, Report) {
	raiseFileLimit(uint64(s.settings.MaxOpenFiles))

	limit := s.settings.MaxConcurrentRequests
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	if s.settings.MaxOpenFiles > 0 {
		if fdLimit := max(s.settings.MaxOpenFiles-reservedFDs, 1); fdLimit < limit {
			limit = fdLimit
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(limit)

	var (
		mu        sync.Mutex
		sf        singleflight.Group
		report    Report
		completed int
	)
	total := 0
	for i := range index {
		if isFetchAction(index[i].Action) {
			total++
		}
	}

	for i := range index {
		b := &index[i]
		switch b.Action {
		case target.ActionRemove:
			if err := s.cache.RemoveAll(b.ID); err != nil {
				slog.Warn("fetch: failed to purge cache on remove", "url", b.URL, "error", err)
			}
			mu.Lock()
			report.Removed++
			mu.Unlock()
		case target.ActionDeleteCache:
			s.execDeleteCache(b)
			mu.Lock()
			report.Ignored++
			mu.Unlock()
			s.Metrics.Ignored.Inc()
		case target.ActionNone:
			mu.Lock()
			report.Skipped++
			mu.Unlock()
			s.Metrics.Skipped.Inc()
		case target.ActionFetchAndAdd, target.ActionFetchAndReplace, target.ActionFetchAndDiff:
			b := b // capture
			s.Metrics.InFlight.Inc()
			g.Go(func() error {
				defer s.Metrics.InFlight.Dec()
				diff, err := s.fetchOne(gctx, &sf, b)

				mu.Lock()
				if err != nil {
					report.Failed++
					report.Failures = append(report.Failures, Failure{URL: b.URL, Err: err})
				} else {
					report.FetchedOK++
					if diff != "" {
						report.Diffs = append(report.Diffs, Diff{URL: b.URL, Text: diff})
					}
				}
				completed++
				done := completed
				mu.Unlock()

				if err != nil {
					s.Metrics.Failed.Inc()
				} else {
					s.Metrics.FetchedOK.Inc()
				}

				if onProgress != nil {
					onProgress(ProgressEvent{URL: b.URL, Completed: done, Total: total, Err: err})
				}
				return nil // per-bookmark failures are warnings, never abort the group
			})
		}
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- g.Wait() }()

	select {
	case <-waitErr:
	case <-ctx.Done():
		report.Cancelled = true
		cancel() // stop scheduling further work inside the group
		select {
		case <-waitErr:
		case <-time.After(gracePeriod):
			slog.Warn("fetch: grace period elapsed with work still in flight")
		}
	}

	out := target.RetainOnly(index, func(b target.Bookmark) bool {
		return b.Action != target.ActionRemove
	})
	for i := range out {
		if out[i].Action != target.ActionNone {
			out[i].Action = target.ActionNone
		}
	}
	return out, report
}

func isFetchAction(a target.Action) bool {
	return a == target.ActionFetchAndAdd || a == target.ActionFetchAndReplace || a == target.ActionFetchAndDiff
}

// execDeleteCache purges stale cache artifacts for b without performing a
// fetch (spec.md §4.5: "DeleteCache"). Ignored bookmarks lose every
// cached mode; bookmarks that merely outgrew a shrunk mode set keep the
// currently configured mode's file and lose the rest.
func (s *Scheduler) execDeleteCache(b *target.Bookmark) {
	if b.Status == target.StatusIgnored {
		if err := s.cache.RemoveAll(b.ID); err != nil {
			slog.Warn("fetch: failed to purge cache for ignored bookmark", "url", b.URL, "error", err)
		}
		b.CacheModes = nil
		return
	}

	keep := s.settings.CacheMode
	remaining := b.CacheModes[:0]
	for _, mode := range b.CacheModes {
		if mode == keep {
			remaining = append(remaining, mode)
			continue
		}
		if err := s.cache.Remove(b.ID, mode); err != nil {
			slog.Warn("fetch: failed to purge stale cache mode", "url", b.URL, "mode", mode, "error", err)
		}
	}
	b.CacheModes = remaining
}

// fetchOne performs one bookmark's HTTP fetch, render, and cache write,
// coalescing duplicate URLs via sf (spec.md §4.9 item 3) and updating b's
// in-place state under no lock — b is owned exclusively by this
// goroutine for the duration of the call, since the planner guarantees
// one Action per id per run. For ActionFetchAndDiff it returns a unified
// diff against the content the fetch is about to replace.
func (s *Scheduler) fetchOne(ctx context.Context, sf *singleflight.Group, b *target.Bookmark) (string, error) {
	type result struct {
		body        []byte
		contentType string
	}

	var previous []byte
	if b.Action == target.ActionFetchAndDiff {
		if data, err := s.cache.Get(b.ID, s.settings.CacheMode); err == nil {
			previous = data
		}
	}

	v, err, _ := sf.Do(b.URL, func() (any, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, b.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch: build request: %w", err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch: request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("fetch: http status %d", resp.StatusCode)
		}

		contentType := resp.Header.Get("Content-Type")
		if err := client.CheckContentType(contentType); err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("fetch: read body: %w", err)
		}
		return result{body: body, contentType: contentType}, nil
	})
	if err != nil {
		b.Status = target.StatusFetchedFailed
		return "", err
	}
	res := v.(result)

	rendered, err := s.renderer.Render(res.body, res.contentType, s.settings.CacheMode, b.URL)
	if err != nil {
		b.Status = target.StatusFetchedFailed
		return "", err
	}

	if err := s.cache.Put(b.ID, s.settings.CacheMode, []byte(rendered)); err != nil {
		b.Status = target.StatusFetchedFailed
		return "", fmt.Errorf("fetch: cache put: %w", err)
	}

	now := time.Now()
	b.LastCached = &now
	b.Status = target.StatusFetchedSuccess
	b.AddCacheMode(s.settings.CacheMode)

	var diff string
	if b.Action == target.ActionFetchAndDiff {
		diff = unifiedDiff(b.URL, previous, []byte(rendered))
	}
	return diff, nil
}

// unifiedDiff renders a standard unified diff between a bookmark's old and
// new cached content, grounded on github.com/pmezard/go-difflib (already in
// the dependency tree via testify's require package).
func unifiedDiff(url string, oldContent, newContent []byte) string {
	if string(oldContent) == string(newContent) {
		return ""
	}
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(oldContent)),
		B:        difflib.SplitLines(string(newContent)),
		FromFile: url + " (cached)",
		ToFile:   url + " (fetched)",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return ""
	}
	return text
}
