// Package bogrep is the service facade (C11): it composes the source
// readers, target store, planner, cache, and fetch scheduler into the
// operations the CLI exposes, and owns the run lock.
package bogrep

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bogrep/bogrep/internal/cache"
	"github.com/bogrep/bogrep/internal/config"
	"github.com/bogrep/bogrep/internal/fetch"
	"github.com/bogrep/bogrep/internal/ignore"
	"github.com/bogrep/bogrep/internal/plan"
	"github.com/bogrep/bogrep/internal/render"
	"github.com/bogrep/bogrep/internal/source"
	"github.com/bogrep/bogrep/internal/target"
)

// Service composes every component for one config directory.
type Service struct {
	dir      string
	Settings config.Settings

	store      *target.Store
	cacheStore *cache.Store
	renderer   *render.Renderer
	release    func()
}

// SetRenderer overrides the renderer Fetch uses, letting the facade's
// caller (cmd/bogrep) plug in an optional LLM cleanup pass (spec.md §4.10
// expansion). Must be called before Fetch/Sync.
func (s *Service) SetRenderer(r *render.Renderer) { s.renderer = r }

// Init creates dir (if needed) and writes a default settings.json, if one
// doesn't already exist. It does not acquire the run lock — `init` is
// expected to run once, standalone.
func Init(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("bogrep: init: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, config.SettingsPath)
	if _, err := os.Stat(path); err == nil {
		return nil // already initialized
	}
	return config.Save(dir, config.Default())
}

// Open loads settings and acquires the run lock for dir. Callers must
// call Close on every exit path, including signal-driven cancellation
// (spec.md §4.11).
func Open(dir string) (*Service, error) {
	settings, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("bogrep: load settings: %w", err)
	}
	release, err := config.Lock(dir)
	if err != nil {
		return nil, err
	}
	return &Service{
		dir:        dir,
		Settings:   settings,
		store:      target.New(dir),
		cacheStore: cache.New(dir),
		renderer:   render.New(render.Options{}),
		release:    release,
	}, nil
}

// CacheStore exposes the cache store for read-only consumers (cmd/bogrep's
// grep subcommand).
func (s *Service) CacheStore() *cache.Store { return s.cacheStore }

// Index returns the current persisted index, for read-only consumers.
func (s *Service) Index() ([]target.Bookmark, error) { return s.store.Load() }

// Dir returns the config root directory.
func (s *Service) Dir() string { return s.dir }

// Close releases the run lock. Safe to call more than once.
func (s *Service) Close() {
	if s.release != nil {
		s.release()
	}
}

// Config applies mutate to the current settings and persists the result.
func (s *Service) Config(mutate func(*config.Settings)) error {
	mutate(&s.Settings)
	if err := config.Save(s.dir, s.Settings); err != nil {
		return fmt.Errorf("bogrep: save settings: %w", err)
	}
	return nil
}

// ImportOptions configures one Import call.
type ImportOptions struct {
	DryRun bool
	// Only, if non-empty, restricts reading to source configs whose Path
	// is in this set (spec.md §6 `import --urls` reinterpreted per-source
	// config path, since import has no per-URL granularity of its own).
	Only map[string]struct{}
}

// Import reads every configured source, reconciles with the target
// index, and — unless DryRun — persists the result (spec.md §2: import =
// C1 → C3 → C4 → C5 → C2).
func (s *Service) Import(opts ImportOptions) ([]target.Bookmark, error) {
	existing, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("bogrep: load index: %w", err)
	}

	var observed []source.Bookmark
	var activePaths []string
	for _, sc := range s.Settings.Sources {
		if len(opts.Only) > 0 {
			if _, ok := opts.Only[sc.Path]; !ok {
				continue
			}
		}
		activePaths = append(activePaths, sc.Path)

		reader, err := source.Detect(sc.Path)
		if err != nil {
			// Source errors are skipped with a warning in multi-source
			// mode (spec.md §7); single-source mode treats this as fatal.
			if len(s.Settings.Sources) == 1 {
				return nil, fmt.Errorf("bogrep: detect source %s: %w", sc.Path, err)
			}
			slog.Warn("bogrep: skipping source", "path", sc.Path, "error", err)
			continue
		}
		seq, err := reader.Read(sc.Path, sc.Folders)
		if err != nil {
			if len(s.Settings.Sources) == 1 {
				return nil, fmt.Errorf("bogrep: read source %s: %w", sc.Path, err)
			}
			slog.Warn("bogrep: skipping source", "path", sc.Path, "error", err)
			continue
		}
		for b := range seq {
			observed = append(observed, b)
		}
	}

	ignoreList := ignore.New(s.Settings.IgnoredURLs)
	updated := plan.Import(existing, observed, plan.ImportOptions{
		ActiveSourcePaths: activePaths,
		IgnoreList:        ignoreList,
		ApplyUnderlying:   true,
	}, time.Now())

	if opts.DryRun {
		return updated, nil
	}
	if err := s.store.Save(updated); err != nil {
		return nil, fmt.Errorf("bogrep: save index: %w", err)
	}
	return updated, nil
}

// FetchOptions configures one Fetch call.
type FetchOptions struct {
	URLs       []string
	Replace    bool
	Diff       []string
	OnProgress func(fetch.ProgressEvent)
}

// Fetch plans fetch actions over the current index and runs the
// scheduler (spec.md §2: fetch = (C2, optional URL set) → plan → C9 →
// C2).
func (s *Service) Fetch(ctx context.Context, opts FetchOptions) (fetch.Report, error) {
	index, err := s.store.Load()
	if err != nil {
		return fetch.Report{}, fmt.Errorf("bogrep: load index: %w", err)
	}

	var only map[string]struct{}
	if len(opts.URLs) > 0 {
		only = make(map[string]struct{}, len(opts.URLs))
		for _, u := range opts.URLs {
			only[u] = struct{}{}
		}
	}
	diff := make(map[string]struct{}, len(opts.Diff))
	for _, u := range opts.Diff {
		diff[u] = struct{}{}
	}

	planned := plan.Fetch(index, plan.FetchOptions{
		Only:      only,
		Replace:   opts.Replace,
		Diff:      diff,
		CacheMode: s.Settings.CacheMode,
	})

	scheduler := fetch.New(s.Settings, s.cacheStore, s.renderer)
	out, report := scheduler.Run(ctx, planned, opts.OnProgress)

	if err := s.store.Save(out); err != nil {
		return report, fmt.Errorf("bogrep: save index: %w", err)
	}
	return report, nil
}

// Sync composes Import then Fetch (spec.md §2: sync = import + fetch).
func (s *Service) Sync(ctx context.Context, fetchOpts FetchOptions) (fetch.Report, error) {
	if _, err := s.Import(ImportOptions{}); err != nil {
		return fetch.Report{}, err
	}
	return s.Fetch(ctx, fetchOpts)
}

// Add manually registers urls as internal-source bookmarks.
func (s *Service) Add(urls []string) error {
	index, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("bogrep: load index: %w", err)
	}
	observed := make([]source.Bookmark, 0, len(urls))
	for _, u := range urls {
		observed = append(observed, source.Bookmark{URL: u, Source: source.Internal()})
	}
	updated := target.UpsertFromSources(index, observed, time.Now())
	return s.store.Save(updated)
}

// Remove deletes urls from the index and purges their cache.
func (s *Service) Remove(urls []string) error {
	index, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("bogrep: load index: %w", err)
	}
	remove := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		remove[u] = struct{}{}
	}

	var ids []string
	kept := target.RetainOnly(index, func(b target.Bookmark) bool {
		_, drop := remove[b.URL]
		if drop {
			ids = append(ids, b.ID)
		}
		return !drop
	})
	for _, id := range ids {
		if err := s.cacheStore.RemoveAll(id); err != nil {
			return fmt.Errorf("bogrep: purge cache for %s: %w", id, err)
		}
	}
	return s.store.Save(kept)
}

// SetNote writes (or overwrites) a free-text note for the bookmark at url
// (SPEC_FULL.md §4.2 expansion: a `notes.md` sidecar per bookmark id).
func (s *Service) SetNote(url, body string) error {
	index, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("bogrep: load index: %w", err)
	}
	b, ok := target.ByURL(index, url)
	if !ok {
		return fmt.Errorf("bogrep: no bookmark for %s", url)
	}
	return target.SaveNote(s.cacheStore.Dir(), target.Note{ID: b.ID, URL: b.URL, Title: b.Title, Body: body})
}

// GetNote reads back the note for the bookmark at url, if any.
func (s *Service) GetNote(url string) (target.Note, bool, error) {
	index, err := s.store.Load()
	if err != nil {
		return target.Note{}, false, fmt.Errorf("bogrep: load index: %w", err)
	}
	b, ok := target.ByURL(index, url)
	if !ok {
		return target.Note{}, false, fmt.Errorf("bogrep: no bookmark for %s", url)
	}
	return target.LoadNote(s.cacheStore.Dir(), b.ID)
}

// RemoveNote deletes the note for the bookmark at url, if any.
func (s *Service) RemoveNote(url string) error {
	index, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("bogrep: load index: %w", err)
	}
	b, ok := target.ByURL(index, url)
	if !ok {
		return fmt.Errorf("bogrep: no bookmark for %s", url)
	}
	return target.RemoveNote(s.cacheStore.Dir(), b.ID)
}

// Clean purges cache artifacts with no corresponding index entry. If all
// is true, every cache file is purged regardless of the index.
func (s *Service) Clean(all bool) error {
	index, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("bogrep: load index: %w", err)
	}
	if all {
		for _, b := range index {
			if err := s.cacheStore.RemoveAll(b.ID); err != nil {
				return err
			}
		}
		return nil
	}

	live := make(map[string]struct{}, len(index))
	for _, b := range index {
		live[b.ID] = struct{}{}
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, "cache"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("bogrep: read cache dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue // the notes sidecar directory is not a cache artifact
		}
		id := stripCacheExt(entry.Name())
		if _, ok := live[id]; all || !ok {
			if err := os.Remove(filepath.Join(s.dir, "cache", entry.Name())); err != nil {
				return fmt.Errorf("bogrep: remove orphan cache file %s: %w", entry.Name(), err)
			}
		}
	}
	return nil
}

func stripCacheExt(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}
