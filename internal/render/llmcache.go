package render

import (
	"os"
	"path/filepath"
)

// FileCache is a flat-file ResponseCache keyed by LLMCleaner's content
// hash, adapted from the teacher's internal/x.FileCache.
type FileCache struct {
	dir string
}

// NewFileCache returns a FileCache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Get implements ResponseCache.
func (c *FileCache) Get(key string) (string, bool) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return "", false
	}
	return string(content), true
}

// Set implements ResponseCache.
func (c *FileCache) Set(key string, content string) error {
	return os.WriteFile(filepath.Join(c.dir, key), []byte(content), 0o644)
}
