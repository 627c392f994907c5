package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
)

func TestByCategory(t *testing.T) {
	srcs, err := ByCategory("french")
	require.NoError(t, err)
	require.NotEmpty(t, srcs)
	assert.Equal(t, 0, srcs[0].Priority)
	assert.Equal(t, "fr", srcs[0].Name)

	_, err = ByCategory("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestCategoriesSorted(t *testing.T) {
	cats := Categories()
	require.NotEmpty(t, cats)
	assert.IsNonDecreasing(t, cats)
	assert.Contains(t, cats, DefaultCategory)
}

func TestNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://iptv-org.github.io/iptv/countries/fr.m3u", "fr"},
		{"https://example.com/playlists/main.m3u8", "main"},
		{"https://example.com/", "example.com"},
		{"not a url at all \x7f", "not a url at all \x7f"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nameFromURL(tt.url), tt.url)
	}
}

const sampleYAML = `
categories:
  custom:
    - name: primary
      url: https://example.com/a.m3u
    - https://example.com/b.m3u
aliases:
  "La Une": "France 2"
whitelist:
  - TF1
  - France 2
`

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	f, err := LoadFile(writeSourcesFile(t, sampleYAML))
	require.NoError(t, err)

	want := File{
		Categories: map[string][]SourceSpec{
			"custom": {
				{Name: "primary", URL: "https://example.com/a.m3u"},
				{URL: "https://example.com/b.m3u"},
			},
		},
		Aliases:   map[string]string{"La Une": "France 2"},
		Whitelist: []string{"TF1", "France 2"},
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Fatalf("sources file mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileRejectsMissingURL(t *testing.T) {
	_, err := LoadFile(writeSourcesFile(t, "categories:\n  bad:\n    - name: only-a-name\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no url")
}

func TestResolveOverridesWin(t *testing.T) {
	f, err := LoadFile(writeSourcesFile(t, sampleYAML))
	require.NoError(t, err)

	srcs, err := Resolve("custom", f, []playlist.Source{{URL: "https://cli.example/x.m3u"}})
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	assert.Equal(t, "x", srcs[0].Name)
	assert.Equal(t, 0, srcs[0].Priority)
}

func TestResolveFileCategoryShadowsBuiltin(t *testing.T) {
	f, err := LoadFile(writeSourcesFile(t, sampleYAML))
	require.NoError(t, err)

	srcs, err := Resolve("custom", f, nil)
	require.NoError(t, err)
	require.Len(t, srcs, 2)
	assert.Equal(t, "primary", srcs[0].Name)
	assert.Equal(t, "b", srcs[1].Name)
	assert.Equal(t, 1, srcs[1].Priority)
}

func TestResolveEmptyCategoryUsesDefault(t *testing.T) {
	srcs, err := Resolve("", File{}, nil)
	require.NoError(t, err)
	builtin, err := ByCategory(DefaultCategory)
	require.NoError(t, err)
	assert.Equal(t, builtin, srcs)
}

func TestPreflight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("#EXTM3U\n"))
	}))
	defer srv.Close()

	results := Preflight(context.Background(), []playlist.Source{
		{Name: "up", URL: srv.URL + "/list.m3u"},
		{Name: "down", URL: srv.URL + "/down"},
		{Name: "local", URL: "/tmp/list.m3u"},
	})
	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	require.False(t, results[1].OK())
	assert.Contains(t, results[1].Err.Error(), "503")
	assert.True(t, results[2].OK(), "local paths pass preflight")
}
