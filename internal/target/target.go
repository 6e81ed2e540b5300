// Package target implements the persistent bookmark index (C2):
// bookmarks.json, its TargetBookmark records, and atomic load/save.
package target

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/bogrep/bogrep/internal/config"
	"github.com/bogrep/bogrep/internal/source"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Status is a TargetBookmark's lifecycle state (spec.md §3, §4.5).
type Status string

const (
	StatusAdded          Status = "Added"
	StatusFetchedSuccess Status = "FetchedSuccess"
	StatusFetchedFailed  Status = "FetchedFailed"
	StatusIgnored        Status = "Ignored"
	StatusRemoved        Status = "Removed"
)

// Action is the operation the fetch scheduler should perform next
// (spec.md §4.5).
type Action string

const (
	ActionNone            Action = "None"
	ActionFetchAndAdd     Action = "FetchAndAdd"
	ActionFetchAndReplace Action = "FetchAndReplace"
	ActionFetchAndDiff    Action = "FetchAndDiff"
	ActionRemove          Action = "Remove"
	ActionDeleteCache     Action = "DeleteCache"
)

// Bookmark is spec.md §3's TargetBookmark.
type Bookmark struct {
	ID            string               `json:"id"`
	URL           string               `json:"url"`
	Title         string               `json:"title"`
	Sources       []source.Descriptor  `json:"sources"`
	CacheModes    []config.CacheMode   `json:"cache_modes"`
	LastImported  time.Time            `json:"last_imported"`
	LastCached    *time.Time           `json:"last_cached,omitempty"`
	Status        Status               `json:"status"`
	Action        Action               `json:"action"`
}

// HasCacheMode reports whether mode is currently persisted for b.
func (b *Bookmark) HasCacheMode(mode config.CacheMode) bool {
	for _, m := range b.CacheModes {
		if m == mode {
			return true
		}
	}
	return false
}

// AddCacheMode records mode as persisted, if not already present.
func (b *Bookmark) AddCacheMode(mode config.CacheMode) {
	if !b.HasCacheMode(mode) {
		b.CacheModes = append(b.CacheModes, mode)
	}
}

// RemoveCacheMode drops mode from the persisted set.
func (b *Bookmark) RemoveCacheMode(mode config.CacheMode) {
	out := b.CacheModes[:0]
	for _, m := range b.CacheModes {
		if m != mode {
			out = append(out, m)
		}
	}
	b.CacheModes = out
}

// HasSourceKind reports whether any contributing source matches kind.
func (b *Bookmark) HasSourceKind(kind string) bool {
	for _, s := range b.Sources {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

// IsInternal reports whether b was created via manual add.
func (b *Bookmark) IsInternal() bool { return b.HasSourceKind("internal") }

// Errors surfaced by Store, per spec.md §4.2.
var (
	ErrIndexCorrupt = errors.New("target: index corrupt")
)

// IndexFilename is bookmarks.json's well-known name (spec.md §3).
const IndexFilename = "bookmarks.json"

// idCounter disambiguates ids minted within the same process tick.
var idCounter uint64

// NewID allocates a fresh, URL-independent, stable id (spec.md §9: "Id
// allocation"). 10 random bytes + a monotonic counter, base32-encoded.
func NewID() string {
	var buf [10]byte
	_, _ = rand.Read(buf[:])
	n := atomic.AddUint64(&idCounter, 1)
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return enc.EncodeToString(buf[:]) + "-" + enc.EncodeToString([]byte{
		byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24),
	})
}

// Store is the bookmarks.json index for one config directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir (the config directory).
func New(dir string) *Store { return &Store{dir: dir} }

func (s *Store) path() string { return filepath.Join(s.dir, IndexFilename) }

// Load returns the current index. A missing file is treated as empty
// (spec.md §4.2); a present-but-unparsable file is ErrIndexCorrupt.
func (s *Store) Load() ([]Bookmark, error) {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("target: read %s: %w", s.path(), err)
	}

	var bookmarks []Bookmark
	if err := json.Unmarshal(data, &bookmarks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	return bookmarks, nil
}

// Save writes the index atomically (temp file + fsync + rename),
// grounded on aistore/cmn/jsp/file.go's Save. Bookmarks are sorted by URL
// first, which both gives a deterministic serialization for the
// "Idempotent import" property (spec.md §8 property 1) and resolves the
// open question about serialization order when multiple sources
// contribute the same URL (spec.md §9).
func (s *Store) Save(bookmarks []Bookmark) error {
	sorted := make([]Bookmark, len(bookmarks))
	copy(sorted, bookmarks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].URL < sorted[j].URL })

	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("target: marshal: %w", err)
	}
	if err := config.AtomicWrite(s.path(), data); err != nil {
		return fmt.Errorf("target: save: %w", err)
	}
	return nil
}

// UpsertFromSources merges observed source bookmarks into index: existing
// entries are matched by URL, new ones get a fresh NewID(). Returns the
// updated index; callers still run the planner (internal/plan) to set
// Action before Save.
func UpsertFromSources(index []Bookmark, observed []source.Bookmark, now time.Time) []Bookmark {
	byURL := make(map[string]int, len(index))
	for i, b := range index {
		byURL[b.URL] = i
	}

	for _, sb := range observed {
		if i, ok := byURL[sb.URL]; ok {
			b := &index[i]
			b.Title = sb.Title
			b.LastImported = now
			b.Sources = mergeSource(b.Sources, sb.Source)
			if b.Status == StatusRemoved {
				b.Status = StatusAdded
			}
			continue
		}

		index = append(index, Bookmark{
			ID:           NewID(),
			URL:          sb.URL,
			Title:        sb.Title,
			Sources:      []source.Descriptor{sb.Source},
			LastImported: now,
			Status:       StatusAdded,
			Action:       ActionFetchAndAdd,
		})
		byURL[sb.URL] = len(index) - 1
	}
	return index
}

func mergeSource(sources []source.Descriptor, add source.Descriptor) []source.Descriptor {
	for _, s := range sources {
		if s.Kind == add.Kind && s.Path == add.Path {
			return sources
		}
	}
	return append(sources, add)
}

// RetainOnly keeps only the bookmarks for which keep returns true,
// used by `remove` and by dropped-source cleanup.
func RetainOnly(index []Bookmark, keep func(Bookmark) bool) []Bookmark {
	out := index[:0]
	for _, b := range index {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

// ByID finds a bookmark by id.
func ByID(index []Bookmark, id string) (*Bookmark, bool) {
	for i := range index {
		if index[i].ID == id {
			return &index[i], true
		}
	}
	return nil, false
}

// ByURL finds a bookmark by URL.
func ByURL(index []Bookmark, url string) (*Bookmark, bool) {
	for i := range index {
		if index[i].URL == url {
			return &index[i], true
		}
	}
	return nil, false
}
