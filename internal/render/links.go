package render

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// markdownLinkPattern matches both markdown links and images, capturing
// the leading "!" separately. Kept almost verbatim from the teacher's
// internal/web/markdown.go fixMarkdownLinks — it is format-agnostic regex
// work that applies regardless of how the markdown was produced.
var markdownLinkPattern = regexp.MustCompile(`(!)?\[(.*?)\]\((.*?)\)`)

// fixMarkdownLinks rewrites relative links/images in content to be
// absolute against baseURL.
func fixMarkdownLinks(content string, baseURL string) string {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return markdownLinkPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := markdownLinkPattern.FindStringSubmatch(match)
		if len(parts) != 4 {
			return match
		}

		isImage := parts[1] == "!"
		text := parts[2]
		link := parts[3]

		if strings.HasPrefix(link, "data:") ||
			strings.HasPrefix(link, "http://") ||
			strings.HasPrefix(link, "https://") {
			return match
		}

		prefix := ""
		if isImage {
			prefix = "!"
		}
		base, err := url.Parse(baseURL)
		if err != nil {
			return match
		}
		ref, err := url.Parse(link)
		if err != nil {
			return match
		}
		return fmt.Sprintf("%s[%s](%s)", prefix, text, base.ResolveReference(ref).String())
	})
}
