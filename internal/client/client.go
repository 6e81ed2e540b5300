// Package client builds the HTTP client the fetch scheduler issues
// requests through (C7): hashicorp/go-retryablehttp, the way the
// teacher's cmd/main.go constructs it, wrapping a throttle.Transport for
// per-host pacing and rejecting non-text content types before the body
// is read.
package client

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/bogrep/bogrep/internal/config"
	"github.com/bogrep/bogrep/internal/throttle"
)

// UnsupportedContentType is returned when a response's Content-Type is
// not eligible for caching (spec.md §4.7: only text-ish content is
// fetched and rendered).
type UnsupportedContentType struct {
	ContentType string
}

func (e *UnsupportedContentType) Error() string {
	return fmt.Sprintf("client: unsupported content type %q", e.ContentType)
}

var rejectedPrefixes = []string{"application/", "image/", "audio/", "video/"}

// CheckContentType rejects binary media before the caller reads the
// response body.
func CheckContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if semi := strings.IndexByte(ct, ';'); semi >= 0 {
		ct = ct[:semi]
	}
	for _, prefix := range rejectedPrefixes {
		if strings.HasPrefix(ct, prefix) {
			return &UnsupportedContentType{ContentType: contentType}
		}
	}
	return nil
}

// New builds the retryablehttp.Client the scheduler uses, configured from
// settings (spec.md §3: request_timeout, request_throttling,
// max_idle_connections_per_host, idle_connections_timeout).
func New(settings config.Settings) *retryablehttp.Client {
	base := &http.Transport{
		MaxIdleConnsPerHost: settings.MaxIdleConnsPerHost,
		IdleConnTimeout:     time.Duration(settings.IdleConnsTimeoutMillis) * time.Millisecond,
	}

	th := throttle.New(time.Duration(settings.RequestThrottlingMillis) * time.Millisecond)

	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.Logger = nil // the scheduler logs outcomes itself; retryablehttp's own logging is redundant noise
	c.HTTPClient.Timeout = time.Duration(settings.RequestTimeoutMillis) * time.Millisecond
	c.HTTPClient.Transport = &throttle.Transport{Throttler: th, Base: base}
	return c
}
