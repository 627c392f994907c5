package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
)

func TestHTTPProberClassifiesStatuses(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/ok":
			fmt.Fprint(w, "#EXTM3U\n")
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		case "/busy":
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	p := NewHTTPProber(2*time.Second, "test-agent/1.0")

	out := p.Probe(context.Background(), playlist.Entry{URL: srv.URL + "/ok", Index: 3})
	assert.True(t, out.Valid)
	assert.Equal(t, MethodFast, out.Method)
	assert.Equal(t, 3, out.Index)
	assert.True(t, out.Kind.IsZero())
	assert.Equal(t, "test-agent/1.0", gotUA)

	out = p.Probe(context.Background(), playlist.Entry{URL: srv.URL + "/gone"})
	assert.False(t, out.Valid)
	assert.Equal(t, KindHTTPError(404), out.Kind)
	assert.Equal(t, "HttpError(404)", out.Kind.String())

	out = p.Probe(context.Background(), playlist.Entry{URL: srv.URL + "/busy"})
	assert.Equal(t, KindHTTPError(503), out.Kind)
}

func TestHTTPProberConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	p := NewHTTPProber(2*time.Second, "")
	out := p.Probe(context.Background(), playlist.Entry{URL: deadURL})
	assert.False(t, out.Valid)
	assert.Equal(t, KindConnectionRefused, out.Kind)
	assert.NotEmpty(t, out.Detail)
}

func TestHTTPProberTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	p := NewHTTPProber(80*time.Millisecond, "")
	out := p.Probe(context.Background(), playlist.Entry{URL: srv.URL})
	assert.False(t, out.Valid)
	assert.Equal(t, KindTimeout, out.Kind)
}

func TestHTTPProberUnsupportedProtocol(t *testing.T) {
	p := NewHTTPProber(time.Second, "")
	out := p.Probe(context.Background(), playlist.Entry{URL: "rtmp://example.com/live"})
	assert.False(t, out.Valid)
	assert.Equal(t, KindUnsupportedProtocol, out.Kind)
	assert.Contains(t, out.Detail, "rtmp")
}

func TestHTTPProberAbortsOnRunCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewHTTPProber(time.Second, "")
	out := p.Probe(ctx, playlist.Entry{URL: srv.URL})
	assert.True(t, out.Aborted)
	assert.False(t, out.Valid)
	assert.True(t, out.Kind.IsZero(), "an abandoned probe is not a verdict")
}
