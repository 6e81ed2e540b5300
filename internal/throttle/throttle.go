// Package throttle implements per-host request pacing (C8), grounded on
// blampe-rreading-glasses's throttledTransport: one rate.Limiter per host,
// wrapped as an http.RoundTripper so every outbound request is paced
// without the caller having to remember to wait.
package throttle

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttler hands out a rate.Limiter per host, lazily created on first
// use, all sharing the same configured rate.
type Throttler struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// New returns a Throttler that allows one request per interval, per host.
// A zero or negative interval disables throttling (spec.md §3's
// request_throttling = 0 means "unthrottled").
func New(interval time.Duration) *Throttler {
	return &Throttler{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

func (t *Throttler) limiterFor(host string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[host] = l
	}
	return l
}

// Wait blocks until host's limiter admits one request, or ctx is done.
// rate.Limiter.Wait already observes ctx.Done() internally, which is what
// gives spec.md §5's "cancellation wakes waiters promptly" for free.
func (t *Throttler) Wait(ctx context.Context, host string) error {
	if t.interval <= 0 {
		return nil
	}
	return t.limiterFor(host).Wait(ctx)
}

// Transport is an http.RoundTripper adapter around a Throttler, so
// existing http.Client-based call sites get per-host pacing without any
// explicit Wait calls (spec.md §4.7's fetch client requirement).
type Transport struct {
	Throttler *Throttler
	Base      http.RoundTripper
}

// RoundTrip waits for the limiter of req.URL.Hostname() (the host without
// its port) before delegating to Base.
func (rt *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := rt.Throttler.Wait(req.Context(), req.URL.Hostname()); err != nil {
		return nil, err
	}
	base := rt.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
