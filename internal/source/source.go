// Package source parses browser bookmark exports into a normalized stream
// of bookmarks.
package source

import (
	"errors"
	"iter"
)

// Errors surfaced by readers, per spec.md §4.1's SourceKind taxonomy.
var (
	ErrSourceNotFound     = errors.New("source: not found")
	ErrBadFormat          = errors.New("source: bad format")
	ErrUnsupportedVersion = errors.New("source: unsupported version")
)

// Descriptor identifies a configured bookmark source: a path plus an
// optional folder filter. It is also used for the pseudo-sources
// "internal" (manual add) and "underlying" (rewriter output).
type Descriptor struct {
	Kind    string   `json:"kind"`
	Path    string   `json:"path,omitempty"`
	Folders []string `json:"folders,omitempty"`
}

// Internal is the pseudo-source for manually added bookmarks.
func Internal() Descriptor { return Descriptor{Kind: "internal"} }

// Underlying is the pseudo-source for rewriter-derived bookmarks.
func Underlying(originID string) Descriptor {
	return Descriptor{Kind: "underlying", Path: originID}
}

// Bookmark is a SourceBookmark (spec.md §3): a URL with optional title and
// folder path, merged by URL downstream (no identity of its own).
type Bookmark struct {
	URL    string
	Title  string
	Folder string
	Source Descriptor
}

// Reader is the capability set every browser-format reader implements:
// detect whether it can parse a given path, and produce a finite,
// non-restartable stream of bookmarks.
type Reader interface {
	// CanRead reports whether path looks like this reader's format.
	CanRead(path string) bool
	// Read parses path and yields bookmarks under folderFilter (see
	// matchesFolder). The returned sequence is single-pass.
	Read(path string, folderFilter []string) (iter.Seq[Bookmark], error)
}

// Readers is the set of built-in readers, tried in order by CanRead.
func Readers() []Reader {
	return []Reader{
		&ChromiumReader{},
		&FirefoxReader{},
		&SafariReader{},
	}
}

// Detect returns the first reader able to read path.
func Detect(path string) (Reader, error) {
	for _, r := range Readers() {
		if r.CanRead(path) {
			return r, nil
		}
	}
	return nil, ErrUnsupportedVersion
}

// matchesFolder reports whether folder satisfies filter: empty filter
// matches everything; otherwise folder must contain one of the listed
// path segments, per spec.md §4.1.
func matchesFolder(folder string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, want := range filter {
		if want == "" {
			continue
		}
		if containsSegment(folder, want) {
			return true
		}
	}
	return false
}

func containsSegment(path, segment string) bool {
	if path == segment {
		return true
	}
	n := len(path)
	m := len(segment)
	for i := 0; i+m <= n; i++ {
		if path[i:i+m] == segment {
			before := i == 0 || path[i-1] == '/'
			after := i+m == n || path[i+m] == '/'
			if before && after {
				return true
			}
		}
	}
	return false
}

// joinFolder joins a parent folder path and a child title the way the
// teacher's internal/bookmarks.Bookmark.All walk does.
func joinFolder(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "/" + child
}

// Values adapts an iter.Seq2 keyed by folder path into a plain
// iter.Seq of bookmarks, kept from the teacher's internal/x/iter.go
// (format-agnostic iterator combinator, reused unchanged in shape).
func Values(seq iter.Seq2[string, Bookmark]) iter.Seq[Bookmark] {
	return func(yield func(Bookmark) bool) {
		for _, v := range seq {
			if !yield(v) {
				return
			}
		}
	}
}
