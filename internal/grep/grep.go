// Package grep searches the rendered cache for a pattern, line by line.
// It is named as an external collaborator, but the CLI surface table
// lists `<pattern>` as a first-class subcommand, so a minimal matcher
// ships here rather than leaving the binary unable to run its own
// documented command.
package grep

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/bogrep/bogrep/internal/cache"
	"github.com/bogrep/bogrep/internal/config"
	"github.com/bogrep/bogrep/internal/target"
)

// Options configures one Search call (spec.md §6 `<pattern>` flags).
type Options struct {
	IgnoreCase bool
	WholeWord  bool
	ListOnly   bool
	Mode       config.CacheMode // "" matches every mode
}

// Match is one matched line within one cached artifact.
type Match struct {
	URL  string
	ID   string
	Line int
	Text string
}

// Search compiles pattern per opts and walks every file under the cache
// store's directory, resolving each match's bookmark id back to its URL
// via index (spec.md §4.11: grep "resolved back through the target index
// by id").
func Search(store *cache.Store, index []target.Bookmark, pattern string, opts Options) ([]Match, error) {
	re, err := compile(pattern, opts)
	if err != nil {
		return nil, fmt.Errorf("grep: bad pattern: %w", err)
	}

	entries, err := os.ReadDir(store.Dir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("grep: read cache dir: %w", err)
	}

	var matches []Match
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, mode, ok := cache.ParseFilename(entry.Name())
		if !ok {
			continue
		}
		if opts.Mode != "" && mode != opts.Mode {
			continue
		}

		b, found := target.ByID(index, id)
		if !found {
			continue
		}

		if opts.ListOnly {
			if _, already := seen[id]; already {
				continue
			}
			hit, err := anyLineMatches(filepath.Join(store.Dir(), entry.Name()), re)
			if err != nil {
				return nil, err
			}
			if hit {
				seen[id] = struct{}{}
				matches = append(matches, Match{URL: b.URL, ID: id})
			}
			continue
		}

		lines, err := matchingLines(filepath.Join(store.Dir(), entry.Name()), re)
		if err != nil {
			return nil, err
		}
		for _, l := range lines {
			matches = append(matches, Match{URL: b.URL, ID: id, Line: l.num, Text: l.text})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].URL != matches[j].URL {
			return matches[i].URL < matches[j].URL
		}
		return matches[i].Line < matches[j].Line
	})
	return matches, nil
}

// compile treats pattern as a regular expression, the way grep(1) does
// with -E; -w and -i compose by wrapping/prefixing rather than quoting.
func compile(pattern string, opts Options) (*regexp.Regexp, error) {
	expr := pattern
	if opts.WholeWord {
		expr = `\b(?:` + expr + `)\b`
	}
	if opts.IgnoreCase {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

type line struct {
	num  int
	text string
}

func matchingLines(path string, re *regexp.Regexp) ([]line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grep: open %s: %w", path, err)
	}
	defer f.Close()

	var out []line
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	num := 0
	for scanner.Scan() {
		num++
		text := scanner.Text()
		if re.MatchString(text) {
			out = append(out, line{num: num, text: text})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("grep: scan %s: %w", path, err)
	}
	return out, nil
}

func anyLineMatches(path string, re *regexp.Regexp) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("grep: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if re.MatchString(scanner.Text()) {
			return true, nil
		}
	}
	return false, scanner.Err()
}
