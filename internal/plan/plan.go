// Package plan implements the action planner (C5): reconciling sources
// and manual additions against the target store and assigning exactly one
// Action to each bookmark for the upcoming scheduler pass, per spec.md §4.5.
package plan

import (
	"time"

	"github.com/bogrep/bogrep/internal/config"
	"github.com/bogrep/bogrep/internal/ignore"
	"github.com/bogrep/bogrep/internal/source"
	"github.com/bogrep/bogrep/internal/target"
	"github.com/bogrep/bogrep/internal/underlying"
)

// ImportOptions configures one import pass.
type ImportOptions struct {
	// ActiveSourcePaths are the source.Descriptor.Path values read this
	// run; bookmarks previously attributed to one of these paths but not
	// re-observed this run lose that source (spec.md §9, resolved in
	// DESIGN.md: union-of-sources policy with source-dropped cleanup).
	ActiveSourcePaths []string
	IgnoreList        *ignore.List
	ApplyUnderlying   bool
}

// Import reconciles observed source bookmarks into existing, assigning
// Action per spec.md §4.5. It does not persist; callers call
// target.Store.Save themselves.
func Import(existing []target.Bookmark, observed []source.Bookmark, opts ImportOptions, now time.Time) []target.Bookmark {
	index := target.UpsertFromSources(existing, observed, now)

	if opts.ApplyUnderlying {
		index = applyUnderlying(index, now)
	}

	index = dropStaleSources(index, opts.ActiveSourcePaths, observedURLsBySource(observed))
	index = markRemoved(index)
	index = applyIgnoreList(index, opts.IgnoreList)
	return index
}

// applyUnderlying adds, for every bookmark whose URL the underlying
// rewriter matches, a second TargetBookmark for the rewritten URL whose
// Sources contains the "underlying" pseudo-source linked to the
// originating bookmark's id (spec.md §4.4).
func applyUnderlying(index []target.Bookmark, now time.Time) []target.Bookmark {
	// Snapshot ids up front: rewriter output must never itself be
	// rewritten again (no transitive chains), and iterating while
	// appending must not revisit newly-added entries.
	origins := make([]target.Bookmark, len(index))
	copy(origins, index)

	for _, origin := range origins {
		rewritten, ok := underlying.Rewrite(origin.URL)
		if !ok {
			continue
		}
		desc := source.Underlying(origin.ID)
		if b, exists := target.ByURL(index, rewritten); exists {
			b.Sources = append(b.Sources, desc)
			b.LastImported = now
			continue
		}
		index = append(index, target.Bookmark{
			ID:           target.NewID(),
			URL:          rewritten,
			Sources:      []source.Descriptor{desc},
			LastImported: now,
			Status:       target.StatusAdded,
			Action:       target.ActionFetchAndAdd,
		})
	}
	return index
}

func observedURLsBySource(observed []source.Bookmark) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	for _, ob := range observed {
		set, ok := out[ob.Source.Path]
		if !ok {
			set = make(map[string]struct{})
			out[ob.Source.Path] = set
		}
		set[ob.URL] = struct{}{}
	}
	return out
}

// dropStaleSources removes, from each bookmark's Sources, any entry whose
// Path is one of activePaths but whose URL was not observed from that
// path this run — i.e. the bookmark was deleted from that source
// (spec.md S4: "remove source" scenario).
func dropStaleSources(index []target.Bookmark, activePaths []string, observedBySource map[string]map[string]struct{}) []target.Bookmark {
	active := make(map[string]struct{}, len(activePaths))
	for _, p := range activePaths {
		active[p] = struct{}{}
	}

	for i := range index {
		b := &index[i]
		kept := b.Sources[:0]
		for _, s := range b.Sources {
			if _, isActive := active[s.Path]; !isActive {
				kept = append(kept, s)
				continue
			}
			if urls, ok := observedBySource[s.Path]; ok {
				if _, stillThere := urls[b.URL]; stillThere {
					kept = append(kept, s)
				}
			}
		}
		b.Sources = kept
	}
	return index
}

// markRemoved sets Status/Action=Remove for any non-internal bookmark
// that retains no sources (spec.md §4.5 state machine).
func markRemoved(index []target.Bookmark) []target.Bookmark {
	for i := range index {
		b := &index[i]
		if len(b.Sources) == 0 && !b.IsInternal() {
			b.Status = target.StatusRemoved
			b.Action = target.ActionRemove
		}
	}
	return index
}

// applyIgnoreList transitions any ignored URL's bookmark to Ignored with
// a DeleteCache action, regardless of anything else computed above —
// ignore wins (spec.md §4.3).
func applyIgnoreList(index []target.Bookmark, list *ignore.List) []target.Bookmark {
	if list == nil {
		return index
	}
	for i := range index {
		b := &index[i]
		if b.Action == target.ActionRemove {
			continue // already leaving the index entirely
		}
		if list.Match(b.URL) {
			b.Status = target.StatusIgnored
			b.Action = target.ActionDeleteCache
		}
	}
	return index
}

// FetchOptions configures one fetch pass (spec.md §6: `fetch`/`sync`
// flags `--replace`, `--diff`, `--urls`).
type FetchOptions struct {
	// Only, if non-empty, restricts the pass to these URLs.
	Only map[string]struct{}
	// Replace forces FetchAndReplace for every selected bookmark that
	// isn't already getting FetchAndDiff.
	Replace bool
	// Diff forces FetchAndDiff for these URLs specifically.
	Diff map[string]struct{}
	// CacheMode is the currently configured rendering mode.
	CacheMode config.CacheMode
}

// Fetch assigns fetch-related actions ahead of a scheduler run. Bookmarks
// already marked Remove/DeleteCache by a prior Import pass are left
// untouched (spec.md §4.5: "Remove and DeleteCache are mutually exclusive
// with any fetch action for the same id in the same run").
func Fetch(index []target.Bookmark, opts FetchOptions) []target.Bookmark {
	for i := range index {
		b := &index[i]
		if b.Action == target.ActionRemove || b.Action == target.ActionDeleteCache {
			continue
		}
		if b.Status == target.StatusIgnored {
			b.Action = target.ActionNone
			continue
		}
		if len(opts.Only) > 0 {
			if _, selected := opts.Only[b.URL]; !selected {
				b.Action = target.ActionNone
				continue
			}
		}

		_, wantDiff := opts.Diff[b.URL]
		modeChanged := opts.CacheMode != "" && !b.HasCacheMode(opts.CacheMode)
		needsFetch := !b.HasCacheMode(opts.CacheMode) || len(b.CacheModes) == 0 || b.Status == target.StatusFetchedFailed

		switch {
		case wantDiff:
			// FetchAndDiff wins the tie-break against FetchAndReplace
			// (spec.md §4.5).
			b.Action = target.ActionFetchAndDiff
		case needsFetch || modeChanged:
			b.Action = target.ActionFetchAndAdd
			if len(b.CacheModes) > 0 {
				b.Action = target.ActionFetchAndReplace
			}
		case opts.Replace:
			b.Action = target.ActionFetchAndReplace
		case hasStaleModes(b, opts.CacheMode):
			// Configured mode is already cached but older modes from a
			// prior differently-configured run linger: purge them
			// without a refetch (spec.md §4.5: "DeleteCache: mode set
			// shrunk").
			b.Action = target.ActionDeleteCache
		default:
			b.Action = target.ActionNone
		}
	}
	return index
}

func hasStaleModes(b *target.Bookmark, configured config.CacheMode) bool {
	if configured == "" {
		return false
	}
	for _, m := range b.CacheModes {
		if m != configured {
			return true
		}
	}
	return false
}
