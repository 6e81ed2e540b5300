// Package config loads and atomically persists bogrep's settings.json,
// per spec.md §3.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CacheMode is the rendering mode for new fetches.
type CacheMode string

const (
	ModeText     CacheMode = "text"
	ModeMarkdown CacheMode = "markdown"
	ModeHTML     CacheMode = "html"
)

// SourceConfig is a configured browser source: an export path plus an
// optional folder filter.
type SourceConfig struct {
	Path    string   `json:"path"`
	Folders []string `json:"folders,omitempty"`
}

// Settings is the recognized option set from spec.md §3.
type Settings struct {
	CacheMode                CacheMode      `json:"cache_mode"`
	MaxConcurrentRequests    int            `json:"max_concurrent_requests"`
	RequestTimeoutMillis     int            `json:"request_timeout"`
	RequestThrottlingMillis  int            `json:"request_throttling"`
	MaxIdleConnsPerHost      int            `json:"max_idle_connections_per_host"`
	IdleConnsTimeoutMillis   int            `json:"idle_connections_timeout"`
	MaxOpenFiles             int            `json:"max_open_files"`
	Sources                  []SourceConfig `json:"sources"`
	IgnoredURLs              []string       `json:"ignored_urls"`
	UnderlyingURLs           []string       `json:"underlying_urls"`
}

// Default returns the settings a fresh `bogrep init` writes.
func Default() Settings {
	return Settings{
		CacheMode:               ModeText,
		MaxConcurrentRequests:   8,
		RequestTimeoutMillis:    20_000,
		RequestThrottlingMillis: 500,
		MaxIdleConnsPerHost:     4,
		IdleConnsTimeoutMillis:  90_000,
		MaxOpenFiles:            1024,
	}
}

// SettingsPath is the well-known filename under the config root.
const SettingsPath = "settings.json"

// Load reads settings.json from dir. A missing file is not an error: Load
// returns Default() instead, the same way target.Load treats a missing
// index as empty (spec.md §4.2).
func Load(dir string) (Settings, error) {
	path := filepath.Join(dir, SettingsPath)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings.json atomically: temp file, fsync, rename over the
// destination, the same pattern target.Store.Save uses for bookmarks.json.
func Save(dir string, s Settings) error {
	path := filepath.Join(dir, SettingsPath)
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return atomicWrite(path, data)
}

// atomicWrite is the shared temp-file+fsync+rename helper, grounded on
// 2lambda123-NVIDIA-aistore/cmn/jsp/file.go's Save.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("config: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("config: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("config: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("config: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("config: rename: %w", err)
	}
	return nil
}

// AtomicWrite exposes the atomic-write helper for other packages
// (internal/target, internal/cache) that need the same guarantee over
// their own files.
func AtomicWrite(path string, data []byte) error {
	return atomicWrite(path, data)
}
