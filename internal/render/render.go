// Package render implements the content renderer (C10): turning a fetched
// response body into the text, markdown, or HTML cached for one
// bookmark.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/bogrep/bogrep/internal/config"
)

// RenderError wraps a goquery/conversion failure so callers can classify
// it as a per-bookmark warning rather than a fatal error (spec.md §7).
type RenderError struct {
	Mode config.CacheMode
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: %s: %v", e.Mode, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Cleaner optionally post-processes rendered markdown (the teacher's
// internal/llm.OpenAIClient.CleanMarkdown, now an opt-in pass rather than
// always-on).
type Cleaner interface {
	CleanMarkdown(content string) (string, error)
}

// droppedSelectors strips obvious page chrome before extraction, grounded
// on SecKatie-bookmarkd's goquery-based page handling.
var droppedSelectors = []string{"script", "style", "nav", "footer", "header[role=banner]", "aside"}

// Options configures a Renderer.
type Options struct {
	Cleaner Cleaner
}

// Renderer converts fetched bodies into cacheable content for one
// CacheMode.
type Renderer struct {
	opts Options
}

// New returns a Renderer with the given options.
func New(opts Options) *Renderer { return &Renderer{opts: opts} }

// Render converts body (as served under contentType) into the content
// persisted for mode.
func (r *Renderer) Render(body []byte, contentType string, mode config.CacheMode, baseURL string) (string, error) {
	switch mode {
	case config.ModeHTML:
		return renderHTML(body)
	case config.ModeMarkdown:
		return r.renderMarkdown(body, baseURL)
	case config.ModeText:
		return renderText(body)
	default:
		return "", &RenderError{Mode: mode, Err: fmt.Errorf("unknown cache mode %q", mode)}
	}
}

// renderHTML passes the body through largely unchanged, repairing any
// invalid UTF-8 runs — the only stdlib-only corner of the renderer (no
// library in the retrieved corpus addresses lossy UTF-8 repair
// specifically).
func renderHTML(body []byte) (string, error) {
	s := string(body)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return s, nil
}

func (r *Renderer) renderMarkdown(body []byte, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", &RenderError{Mode: config.ModeMarkdown, Err: err}
	}
	stripBoilerplate(doc)

	cleanedHTML, err := doc.Html()
	if err != nil {
		return "", &RenderError{Mode: config.ModeMarkdown, Err: err}
	}

	md, err := htmltomarkdown.ConvertString(cleanedHTML)
	if err != nil {
		return "", &RenderError{Mode: config.ModeMarkdown, Err: err}
	}

	md = fixMarkdownLinks(md, baseURL)
	md = dropEmptyLines(md)

	if r.opts.Cleaner != nil {
		cleaned, err := r.opts.Cleaner.CleanMarkdown(md)
		if err != nil {
			// LLM cleanup failing falls back to the uncleaned markdown,
			// exactly as the teacher's web.MarkdownFetcher.clean does.
			return md, nil
		}
		md = cleaned
	}
	return md, nil
}

// renderText strips boilerplate the same way renderMarkdown does, then
// walks paragraph/heading/list-item text nodes, preserving paragraph
// breaks and trimming whitespace (spec.md §4.10).
func renderText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", &RenderError{Mode: config.ModeText, Err: err}
	}
	stripBoilerplate(doc)

	var blocks []string
	doc.Find("p, h1, h2, h3, h4, h5, h6, li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			blocks = append(blocks, text)
		}
	})
	return strings.Join(blocks, "\n\n"), nil
}

func stripBoilerplate(doc *goquery.Document) {
	for _, sel := range droppedSelectors {
		doc.Find(sel).Remove()
	}
}

func dropEmptyLines(content string) string {
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
