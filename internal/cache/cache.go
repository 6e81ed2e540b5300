// Package cache implements the content-addressed render cache (C6):
// one file per (bookmark id, cache mode), descended from the teacher's
// internal/x.FileCache but generalized to a two-part key and upgraded to
// atomic writes.
package cache

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/bogrep/bogrep/internal/config"
)

// ErrNotFound is returned by Get when no cached content exists for the
// given (id, mode) pair.
var ErrNotFound = errors.New("cache: not found")

// extensions maps a CacheMode to the file extension its rendered content
// is stored under (spec.md §4.6).
var extensions = map[config.CacheMode]string{
	config.ModeText:     ".txt",
	config.ModeMarkdown: ".md",
	config.ModeHTML:     ".html",
}

// Store is the cache directory for one config root.
type Store struct {
	dir string
}

// New returns a Store rooted at dir/cache.
func New(configDir string) *Store {
	return &Store{dir: filepath.Join(configDir, "cache")}
}

func (s *Store) path(id string, mode config.CacheMode) (string, error) {
	ext, ok := extensions[mode]
	if !ok {
		return "", errors.New("cache: unknown mode " + string(mode))
	}
	return filepath.Join(s.dir, id+ext), nil
}

// Put writes content for id/mode atomically: temp file, fsync, rename —
// the same pattern as target.Store.Save and config.Save, since spec.md §8
// property 4 ("Cache files are never partially written") applies here
// too.
func (s *Store) Put(id string, mode config.CacheMode, content []byte) error {
	path, err := s.path(id, mode)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return config.AtomicWrite(path, content)
}

// Get reads the cached content for id/mode. A missing file is ErrNotFound.
func (s *Store) Get(id string, mode config.CacheMode) ([]byte, error) {
	path, err := s.path(id, mode)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Exists reports whether content for id/mode is already cached.
func (s *Store) Exists(id string, mode config.CacheMode) bool {
	path, err := s.path(id, mode)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Remove deletes the cached content for id/mode, if present. Removing a
// file that doesn't exist is not an error.
func (s *Store) Remove(id string, mode config.CacheMode) error {
	path, err := s.path(id, mode)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll deletes every cached mode for id (spec.md §4.5 `DeleteCache`
// when the whole bookmark is being dropped, not just one stale mode).
func (s *Store) RemoveAll(id string) error {
	for mode := range extensions {
		if err := s.Remove(id, mode); err != nil {
			return err
		}
	}
	return nil
}

// Dir returns the cache directory's path, for callers (internal/grep) that
// need to walk it directly rather than go through id/mode lookups.
func (s *Store) Dir() string { return s.dir }

// modeByExt is the reverse of extensions, built once.
var modeByExt = func() map[string]config.CacheMode {
	m := make(map[string]config.CacheMode, len(extensions))
	for mode, ext := range extensions {
		m[ext] = mode
	}
	return m
}()

// ParseFilename splits a cache file's base name into the bookmark id and
// mode it was rendered with, per the `{id}.{ext}` layout (spec.md §6).
func ParseFilename(name string) (id string, mode config.CacheMode, ok bool) {
	ext := filepath.Ext(name)
	mode, ok = modeByExt[ext]
	if !ok {
		return "", "", false
	}
	return name[:len(name)-len(ext)], mode, true
}

// IsEmpty reports whether the cache directory contains no entries at all.
// A missing cache directory counts as empty.
func (s *Store) IsEmpty() (bool, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
