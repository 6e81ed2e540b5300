package target

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
)

// Note is the expansion feature from SPEC_FULL.md §4.2: a free-text,
// human-editable per-bookmark note file under cache_root/notes/{id}.md,
// with YAML frontmatter carrying the bookmark's identity. Grounded on the
// teacher's internal/markdown.Frontmatter / internal/markdown.Cache,
// repointed at notes instead of the full rendered article.
type Note struct {
	ID    string `yaml:"id"`
	URL   string `yaml:"url"`
	Title string `yaml:"title"`
	Body  string `yaml:"-"`
}

func notesDir(cacheRoot string) string { return filepath.Join(cacheRoot, "notes") }

func notePath(cacheRoot, id string) string {
	return filepath.Join(notesDir(cacheRoot), id+".md")
}

// frontMatterString renders the YAML-ish frontmatter block, in the same
// hand-rolled style as the teacher's FrontMatter.String() (main.go) /
// markdown.Frontmatter.String() — id and url always, title only if
// non-empty, wrapped with "---".
func (n Note) frontMatterString() string {
	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "id: %s\n", n.ID)
	fmt.Fprintf(&sb, "url: %s\n", n.URL)
	if n.Title != "" {
		fmt.Fprintf(&sb, "title: %q\n", n.Title)
	}
	sb.WriteString("---")
	return sb.String()
}

// SaveNote writes (or overwrites) the note file for id under cacheRoot.
func SaveNote(cacheRoot string, n Note) error {
	if err := os.MkdirAll(notesDir(cacheRoot), 0o755); err != nil {
		return fmt.Errorf("target: mkdir notes: %w", err)
	}
	content := fmt.Sprintf("%s\n%s\n", n.frontMatterString(), n.Body)
	return os.WriteFile(notePath(cacheRoot, n.ID), []byte(content), 0o644)
}

// LoadNote reads back the note for id, or ok=false if none exists.
func LoadNote(cacheRoot, id string) (note Note, ok bool, err error) {
	data, readErr := os.ReadFile(notePath(cacheRoot, id))
	if os.IsNotExist(readErr) {
		return Note{}, false, nil
	}
	if readErr != nil {
		return Note{}, false, fmt.Errorf("target: read note %s: %w", id, readErr)
	}

	var matter Note
	rest, err := frontmatter.Parse(strings.NewReader(string(data)), &matter)
	if err != nil {
		return Note{}, false, fmt.Errorf("target: parse note %s: %w", id, err)
	}
	matter.Body = strings.TrimSpace(string(rest))
	return matter, true, nil
}

// RemoveNote deletes the note file for id, if any; a missing file is not
// an error (matching internal/cache.Remove's contract).
func RemoveNote(cacheRoot, id string) error {
	err := os.Remove(notePath(cacheRoot, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("target: remove note %s: %w", id, err)
	}
	return nil
}
