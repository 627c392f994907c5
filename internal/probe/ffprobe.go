package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
)

// FFProbe runs the external ffprobe binary against a stream URL and reads
// the real video resolution out of its JSON report.
type FFProbe struct {
	Path      string // binary path; empty resolves "ffprobe" via PATH
	Timeout   time.Duration
	UserAgent string
}

// Resolution is what a deep probe measured for one stream.
type Resolution struct {
	Width  int
	Height int
	Codec  string
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Inspect probes streamURL and returns the first video stream's resolution.
// A missing binary surfaces as exec.ErrNotFound so callers can classify it.
func (f *FFProbe) Inspect(ctx context.Context, streamURL string) (Resolution, error) {
	path := f.Path
	if path == "" {
		path = "ffprobe"
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	args := []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams"}
	if f.UserAgent != "" {
		args = append(args, "-user_agent", f.UserAgent)
	}
	args = append(args, streamURL)

	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return Resolution{}, ctx.Err()
		}
		return Resolution{}, err
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return Resolution{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	for _, s := range parsed.Streams {
		if s.CodecType == "video" && s.Width > 0 && s.Height > 0 {
			return Resolution{Width: s.Width, Height: s.Height, Codec: s.CodecName}, nil
		}
	}
	return Resolution{}, errors.New("no video stream in ffprobe output")
}

// DeepProber enriches valid fast outcomes with the resolution ffprobe
// measured. Measured resolution overrides any declared label. A deep probe
// that cannot run or finish never demotes the outcome; the fast verdict
// stands and the degradation is recorded on it.
type DeepProber struct {
	Fast    Prober
	FFprobe *FFProbe
}

func (p DeepProber) Probe(ctx context.Context, e playlist.Entry) Outcome {
	out := p.Fast.Probe(ctx, e)
	if !out.Valid || out.Aborted {
		return out
	}

	start := time.Now()
	res, err := p.FFprobe.Inspect(ctx, e.URL)
	out.Duration += time.Since(start)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Run shutdown mid-enrichment; keep the fast verdict.
			return out
		}
		out.DeepDegraded = true
		out.DeepKind, out.DeepDetail = classifyDeepError(err)
		return out
	}

	out.Method = MethodDeep
	out.Width, out.Height = res.Width, res.Height
	if res.Height > 0 {
		out.QualityLabel = BucketLabel(res.Height)
	}
	return out
}

func classifyDeepError(err error) (ErrorKind, string) {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return KindToolUnavailable, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, "deep probe deadline exceeded"
	}
	// Everything else is ffprobe itself failing: bad exit, unreadable
	// output, no video stream in the container.
	return KindToolError, err.Error()
}
