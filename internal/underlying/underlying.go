// Package underlying implements the underlying-URL rewriter (C4): a
// closed, compiled-in whitelist of host+path templates that map a
// tracked URL to zero or one additional URL also worth tracking.
package underlying

import (
	"net/url"
	"regexp"
	"strings"
)

// Rule is one whitelist entry: Match decides applicability, Rewrite
// computes the additional URL. Rules are pure functions of the input URL
// (spec.md §4.4: "Rewriter output is stable").
type Rule struct {
	Name    string
	Match   func(u *url.URL) bool
	Rewrite func(u *url.URL) (string, bool)
}

// githubBlobPath captures owner/repo/ref/path out of a GitHub blob URL,
// generalizing the teacher's internal/web/github.go raw-README
// construction from "always README" to "whatever path is given".
var githubBlobPath = regexp.MustCompile(`^/([^/]+)/([^/]+)/blob/([^/]+)/(.+)$`)

// Rules returns the closed, built-in whitelist.
func Rules() []Rule {
	return []Rule{
		{
			Name: "github-blob-raw",
			Match: func(u *url.URL) bool {
				return isHost(u, "github.com", "www.github.com") && githubBlobPath.MatchString(u.Path)
			},
			Rewrite: func(u *url.URL) (string, bool) {
				m := githubBlobPath.FindStringSubmatch(u.Path)
				if m == nil {
					return "", false
				}
				owner, repo, ref, path := m[1], m[2], m[3], m[4]
				return "https://raw.githubusercontent.com/" + owner + "/" + repo + "/" + ref + "/" + path, true
			},
		},
		{
			Name: "youtube-short-link",
			Match: func(u *url.URL) bool {
				return isHost(u, "youtu.be")
			},
			Rewrite: func(u *url.URL) (string, bool) {
				id := strings.Trim(u.Path, "/")
				if id == "" {
					return "", false
				}
				return "https://www.youtube.com/watch?v=" + id, true
			},
		},
	}
}

func isHost(u *url.URL, hosts ...string) bool {
	h := strings.ToLower(u.Host)
	for _, want := range hosts {
		if h == want {
			return true
		}
	}
	return false
}

// Rewrite consults the built-in whitelist for rawURL and returns the
// additional URL to track, if any rule matches.
func Rewrite(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	for _, rule := range Rules() {
		if rule.Match(u) {
			if out, ok := rule.Rewrite(u); ok {
				return out, true
			}
		}
	}
	return "", false
}
