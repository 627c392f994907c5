package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/httpclient"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/safeurl"
)

const preflightTimeout = 10 * time.Second

// CheckResult is the preflight verdict for one source URL.
type CheckResult struct {
	Source  playlist.Source
	Err     error
	Latency time.Duration
}

// OK reports whether the source answered usefully.
func (r CheckResult) OK() bool { return r.Err == nil }

// Check probes one source URL for reachability without downloading the
// playlist: a GET whose body is discarded after the status line. Local
// paths pass trivially; the fetcher will surface their errors.
func Check(ctx context.Context, src playlist.Source) CheckResult {
	res := CheckResult{Source: src}
	if !safeurl.IsHTTPOrHTTPS(src.URL) {
		return res
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		res.Err = err
		return res
	}
	resp, err := httpclient.Default().Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("status %d", resp.StatusCode)
	}
	return res
}

// Preflight checks every source in order and returns one result per source.
func Preflight(ctx context.Context, srcs []playlist.Source) []CheckResult {
	out := make([]CheckResult, 0, len(srcs))
	for _, src := range srcs {
		out = append(out, Check(ctx, src))
	}
	return out
}
