// Package httpclient provides the shared HTTP clients used by fetch, probe
// and the source preflight check. The transport is tuned for the probing
// workload: many short requests spread over many distinct stream hosts, so
// the per-host idle pool stays small while the total pool is sized for the
// worker fan-out.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds whole-request time for playlist downloads and
	// preflight checks. Stream probes pass their own tighter timeout via
	// WithTimeout.
	DefaultTimeout = 30 * time.Second

	// Probes rarely hit the same host twice in quick succession, so a
	// couple of idle connections per host is enough.
	maxIdleConnsPerHost = 4

	// Sized for the upper end of the probe worker pool so completed
	// probes can hand their connection to the next job on the same host.
	maxIdleConns = 64

	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 15 * time.Second
	idleConnTimeout       = 60 * time.Second
)

func newTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		MaxIdleConns:          maxIdleConns,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       idleConnTimeout,
		ForceAttemptHTTP2:     true,
	}
}

var defaultClient = &http.Client{
	Timeout:   DefaultTimeout,
	Transport: newTransport(),
}

// Default returns the shared client. Callers must not mutate it.
func Default() *http.Client {
	return defaultClient
}

// WithTimeout returns a client with the given whole-request timeout. The
// client shares the default transport so probes reuse its connection pool
// instead of redialing hosts the collector already touched.
func WithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: defaultClient.Transport,
	}
}
