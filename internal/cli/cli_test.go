package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceFlags(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "local.m3u")
	require.NoError(t, os.WriteFile(local, []byte("#EXTM3U\n"), 0o644))

	srcs, err := parseSourceFlags(
		[]string{"main=https://example.com/a.m3u", "https://example.com/b.m3u"},
		[]string{local},
	)
	require.NoError(t, err)
	require.Len(t, srcs, 3)
	assert.Equal(t, "main", srcs[0].Name)
	assert.Equal(t, "https://example.com/a.m3u", srcs[0].URL)
	assert.Empty(t, srcs[1].Name, "bare URL keeps no name until Resolve fills it")
	assert.Equal(t, "https://example.com/b.m3u", srcs[1].URL)
	assert.Equal(t, "local.m3u", srcs[2].Name)
}

func TestParseSourceFlagsMissingFile(t *testing.T) {
	_, err := parseSourceFlags(nil, []string{filepath.Join(t.TempDir(), "absent.m3u")})
	require.Error(t, err)
}

func TestParseSourceFlagsURLWithEquals(t *testing.T) {
	srcs, err := parseSourceFlags([]string{"https://example.com/get?type=m3u"}, nil)
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	assert.Equal(t, "https://example.com/get?type=m3u", srcs[0].URL)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "cleaned.m3u", "cleaned.m3u"},
		{"extension forced", "cleaned.txt", "cleaned.txt.m3u"},
		{"directory kept", "out/lists/tv.m3u8", "out/lists/tv.m3u8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := outputPath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExitErrorUnwraps(t *testing.T) {
	sentinel := errors.New("boom")
	err := exitWith(ExitDeadline, sentinel)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitDeadline, ee.code)
	assert.ErrorIs(t, err, sentinel)
}

func TestCancellationCode(t *testing.T) {
	background := context.Background()

	interrupted, cancel := context.WithCancel(background)
	cancel()
	assert.Equal(t, ExitInterrupted, cancellationCode(interrupted, interrupted))

	deadline, cancel2 := context.WithDeadline(background, time.Now().Add(-time.Second))
	defer cancel2()
	assert.Equal(t, ExitDeadline, cancellationCode(background, deadline))

	assert.Equal(t, ExitOK, cancellationCode(background, background))
}
