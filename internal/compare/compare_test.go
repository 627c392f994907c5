package compare

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/naming"
)

func writePlaylist(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const playlistA = `#EXTM3U
#EXTINF:-1 tvg-name="TF1 HD",TF1 HD
http://a.example/tf1.m3u8
#EXTINF:-1,France 2
http://a.example/fr2.m3u8
#EXTINF:-1,Arte (1080p)
http://a.example/arte.m3u8
`

const playlistB = `#EXTM3U
#EXTINF:-1,TF1
http://b.example/tf1.m3u8
#EXTINF:-1,M6 HD
http://b.example/m6.m3u8
#EXTINF:-1,Artee
http://b.example/artee.m3u8
`

func TestLoadSide(t *testing.T) {
	side, err := LoadSide(writePlaylist(t, "a.m3u", playlistA), naming.Table{})
	require.NoError(t, err)
	assert.Equal(t, 3, side.Entries)
	assert.Len(t, side.Channels, 3)
	assert.Equal(t, "TF1 HD", side.Channels["tf 1"])
	assert.Equal(t, map[string]int{"720p": 1, "1080p": 1, "unknown": 1}, side.Qualities)
}

func TestCompare(t *testing.T) {
	a, err := LoadSide(writePlaylist(t, "a.m3u", playlistA), naming.Table{})
	require.NoError(t, err)
	b, err := LoadSide(writePlaylist(t, "b.m3u", playlistB), naming.Table{})
	require.NoError(t, err)

	d := Compare(a, b)
	if diff := cmp.Diff([]string{"tf 1"}, d.Common); diff != "" {
		t.Fatalf("common mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"arte", "france 2"}, d.OnlyA)
	assert.Equal(t, []string{"artee", "m 6"}, d.OnlyB)

	require.Len(t, d.NearMisses, 1)
	assert.Equal(t, "Arte (1080p)", d.NearMisses[0].FromA)
	assert.Equal(t, "Artee", d.NearMisses[0].FromB)
}

func TestRenderMentionsCounts(t *testing.T) {
	a, err := LoadSide(writePlaylist(t, "a.m3u", playlistA), naming.Table{})
	require.NoError(t, err)
	b, err := LoadSide(writePlaylist(t, "b.m3u", playlistB), naming.Table{})
	require.NoError(t, err)

	var sb strings.Builder
	Compare(a, b).Render(&sb)
	out := sb.String()
	assert.Contains(t, out, "Common channels: 1")
	assert.Contains(t, out, "Possible matches")
	assert.Contains(t, out, `"Arte (1080p)" ~ "Artee"`)
}

func TestLoadSideMissingFile(t *testing.T) {
	_, err := LoadSide(filepath.Join(t.TempDir(), "absent.m3u"), naming.Table{})
	require.Error(t, err)
}
