// Package ignore implements the accept/reject predicate over URLs (C3).
package ignore

// List is a set of URL patterns. For this version, matching is exact URL
// equality (spec.md §4.3: "exact URL match for this version").
type List struct {
	urls map[string]struct{}
}

// New builds a List from a slice of URLs (as persisted in
// Settings.IgnoredURLs).
func New(urls []string) *List {
	l := &List{urls: make(map[string]struct{}, len(urls))}
	for _, u := range urls {
		l.urls[u] = struct{}{}
	}
	return l
}

// Match reports whether url is on the ignore list.
func (l *List) Match(url string) bool {
	if l == nil {
		return false
	}
	_, ok := l.urls[url]
	return ok
}

// Add appends url to the list, if not already present.
func (l *List) Add(url string) {
	l.urls[url] = struct{}{}
}

// URLs returns the ignored URLs, for persistence back to Settings.
func (l *List) URLs() []string {
	out := make([]string, 0, len(l.urls))
	for u := range l.urls {
		out = append(out, u)
	}
	return out
}
