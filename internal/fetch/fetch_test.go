package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
)

const samplePlaylist = "#EXTM3U\n#EXTINF:-1 tvg-name=\"TF1\",TF1\nhttp://example.com/tf1.m3u8\n"

func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(samplePlaylist))
		case "/gzip":
			w.Header().Set("Content-Encoding", "gzip")
			zw := gzip.NewWriter(w)
			_, _ = zw.Write([]byte(samplePlaylist))
			_ = zw.Close()
		case "/br":
			w.Header().Set("Content-Encoding", "br")
			bw := brotli.NewWriter(w)
			_, _ = bw.Write([]byte(samplePlaylist))
			_ = bw.Close()
		case "/html":
			_, _ = w.Write([]byte("<!DOCTYPE html><html><body>login required</body></html>"))
		case "/huge":
			_, _ = w.Write(bytes.Repeat([]byte("#EXTM3U padding line\n"), 100))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPlain(t *testing.T) {
	srv := newFixtureServer(t)
	doc, err := Fetch(context.Background(), playlist.Source{Name: "s", URL: srv.URL + "/ok"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, samplePlaylist, string(doc.Body))
}

func TestFetchDecodesCompressed(t *testing.T) {
	srv := newFixtureServer(t)
	for _, path := range []string{"/gzip", "/br"} {
		t.Run(path, func(t *testing.T) {
			doc, err := Fetch(context.Background(), playlist.Source{Name: "s", URL: srv.URL + path}, Options{})
			require.NoError(t, err)
			assert.Equal(t, samplePlaylist, string(doc.Body))
		})
	}
}

func TestFetchRejectsHTML(t *testing.T) {
	srv := newFixtureServer(t)
	_, err := Fetch(context.Background(), playlist.Source{Name: "s", URL: srv.URL + "/html"}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML")
}

func TestFetchSizeCap(t *testing.T) {
	srv := newFixtureServer(t)
	_, err := Fetch(context.Background(), playlist.Source{Name: "s", URL: srv.URL + "/huge"}, Options{MaxBytes: 64})
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := newFixtureServer(t)
	_, err := Fetch(context.Background(), playlist.Source{Name: "s", URL: srv.URL + "/missing"}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.m3u")
	require.NoError(t, os.WriteFile(path, []byte(samplePlaylist), 0o644))

	tests := []struct {
		name string
		url  string
	}{
		{"bare path", path},
		{"file scheme", "file://" + path},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Fetch(context.Background(), playlist.Source{Name: "local", URL: tt.url}, Options{})
			require.NoError(t, err)
			assert.Equal(t, samplePlaylist, string(doc.Body))
		})
	}
}

func TestFetchLocalFileSizeCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.m3u")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 256), 0o644))
	_, err := Fetch(context.Background(), playlist.Source{Name: "local", URL: path}, Options{MaxBytes: 64})
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestFetchUnsupportedScheme(t *testing.T) {
	_, err := Fetch(context.Background(), playlist.Source{Name: "s", URL: "ftp://host/list.m3u"}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestLoadAllToleratesPartialFailure(t *testing.T) {
	srv := newFixtureServer(t)
	srcs := []playlist.Source{
		{Name: "good", URL: srv.URL + "/ok", Priority: 0},
		{Name: "dead", URL: srv.URL + "/missing", Priority: 1},
	}
	entries, stats, err := LoadAll(context.Background(), srcs, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, entries, 1)
	assert.Equal(t, "good", entries[0].Source)
}

func TestLoadAllAllFailed(t *testing.T) {
	srv := newFixtureServer(t)
	srcs := []playlist.Source{
		{Name: "a", URL: srv.URL + "/missing"},
		{Name: "b", URL: srv.URL + "/html"},
	}
	_, stats, err := LoadAll(context.Background(), srcs, Options{})
	require.Error(t, err)
	assert.Equal(t, 2, stats.Failed)
}

func TestLoadAllGlobalIndexOrder(t *testing.T) {
	srv := newFixtureServer(t)
	srcs := []playlist.Source{
		{Name: "first", URL: srv.URL + "/ok", Priority: 0},
		{Name: "second", URL: srv.URL + "/ok", Priority: 1},
	}
	entries, _, err := LoadAll(context.Background(), srcs, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Source)
	assert.Equal(t, 0, entries[0].Index)
	assert.Equal(t, "second", entries[1].Source)
	assert.Equal(t, 1, entries[1].Index)
}
