package httpclient

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// HostLimiter caps concurrent requests per upstream site so a wide probe
// fan-out never hammers one provider with the whole worker pool. Limits are
// keyed by registrable domain (cdn1.example.com and cdn2.example.com share
// one slot pool); IP literals and unlisted hosts key by hostname.
//
// Usage: acquire before sending a request, release when the response arrived.
//
//	release, err := limiter.Acquire(ctx, streamURL)
//	if err != nil { return err } // ctx cancelled while waiting
//	defer release()
type HostLimiter struct {
	mu    sync.Mutex
	sems  map[string]chan struct{}
	limit int
}

// NewHostLimiter returns a limiter allowing up to concurrency in-flight
// requests per site.
func NewHostLimiter(concurrency int) *HostLimiter {
	if concurrency < 1 {
		concurrency = 1
	}
	return &HostLimiter{
		sems:  make(map[string]chan struct{}),
		limit: concurrency,
	}
}

// Acquire blocks until a slot for rawURL's site is free or ctx is done.
// The returned release func must be called exactly once.
func (h *HostLimiter) Acquire(ctx context.Context, rawURL string) (func(), error) {
	sem := h.semFor(siteKey(rawURL))
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *HostLimiter) semFor(key string) chan struct{} {
	h.mu.Lock()
	s, ok := h.sems[key]
	if !ok {
		s = make(chan struct{}, h.limit)
		h.sems[key] = s
	}
	h.mu.Unlock()
	return s
}

// siteKey maps a URL to its registrable domain, falling back to the bare
// hostname for IP literals and single-label hosts.
func siteKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	host := strings.ToLower(u.Hostname())
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return etld1
	}
	return host
}
