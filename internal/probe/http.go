package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/httpclient"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/safeurl"
)

// previewSize bounds how much of a live stream the fast probe reads before
// declaring the entry reachable.
const previewSize = 512

const defaultProbeTimeout = 15 * time.Second

// HTTPProber is the fast reachability check: one GET with a per-probe
// deadline, classified by status code and transport error. Safe for
// concurrent use.
type HTTPProber struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
}

// NewHTTPProber returns a fast prober with a client whose timeout matches
// the per-probe deadline.
func NewHTTPProber(timeout time.Duration, userAgent string) *HTTPProber {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &HTTPProber{
		Client:    httpclient.WithTimeout(timeout),
		UserAgent: userAgent,
		Timeout:   timeout,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, e playlist.Entry) Outcome {
	start := time.Now()
	out := Outcome{Index: e.Index, Method: MethodFast}

	if !safeurl.IsHTTPOrHTTPS(e.URL) {
		out.Kind = KindUnsupportedProtocol
		out.Detail = fmt.Sprintf("scheme %q", safeurl.Scheme(e.URL))
		out.Duration = time.Since(start)
		return out
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		out.Kind = KindUnsupportedProtocol
		out.Detail = err.Error()
		out.Duration = time.Since(start)
		return out
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	resp, err := p.client().Do(req)
	out.Duration = time.Since(start)
	if err != nil {
		if parent.Err() != nil {
			// The run was cancelled, not the stream judged.
			out.Aborted = true
			return out
		}
		out.Kind, out.Detail = classifyTransportError(err)
		return out
	}
	defer resp.Body.Close()

	// Read a short preview rather than the stream itself; also lets the
	// transport reuse the connection.
	_, _ = io.CopyN(io.Discard, resp.Body, previewSize)

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		out.Valid = true
		out.QualityLabel = GuessLabelFromURL(e.URL)
		if out.QualityLabel == "" {
			out.QualityLabel = DeclaredLabel(e)
		}
		return out
	}
	out.Kind = KindHTTPError(resp.StatusCode)
	out.Detail = http.StatusText(resp.StatusCode)
	return out
}

func (p *HTTPProber) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return httpclient.Default()
}

func (p *HTTPProber) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return defaultProbeTimeout
}

func classifyTransportError(err error) (ErrorKind, string) {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, "probe deadline exceeded"
	case errors.As(err, &ne) && ne.Timeout():
		return KindTimeout, ne.Error()
	}
	// DNS misses, refused dials and the rest of the transport family all
	// mean nobody is serving this URL right now.
	return KindConnectionRefused, err.Error()
}
