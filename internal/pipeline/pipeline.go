// Package pipeline chains the cleaning stages over parsed playlist entries:
// annotate canonical keys, validate across a bounded worker pool,
// deduplicate by URL fingerprint, then select the best stream per channel.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/config"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/httpclient"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/log"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/naming"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/probe"
)

// ErrNoValidStreams is the one hard failure a finished run can report:
// nothing across all sources probed valid.
var ErrNoValidStreams = errors.New("no valid streams across all sources")

// Result is everything one run produced, for the writer and the reporter.
type Result struct {
	RunID      string
	Validated  Validated
	Deduped    int
	Selections []Selection
	// WhitelistMissing lists whitelist channels with no valid stream,
	// in their configured spelling. Empty when no whitelist is set.
	WhitelistMissing []string
	Duration         time.Duration
}

// Run executes the full pipeline over parsed entries. The Result is
// populated even when the error is ErrNoValidStreams, so callers can still
// write partial output and report what happened.
func Run(ctx context.Context, cfg config.Run, entries []playlist.Entry, aliases naming.Table) (Result, error) {
	start := time.Now()
	res := Result{RunID: uuid.NewString()}
	logger := log.Derive(func(c *zerolog.Context) {
		*c = c.Str("component", "pipeline").Str("run_id", res.RunID)
	})

	cfg = cfg.Normalize()
	naming.Annotate(entries, aliases)

	res.Validated = Validate(ctx, entries, ValidateOptions{
		Workers:   cfg.Workers,
		Prober:    buildProber(cfg),
		HostLimit: httpclient.NewHostLimiter(cfg.PerHostLimit),
		Rate:      buildRate(cfg.ProbeRate),
	})

	valid := res.Validated.Valid()
	if cfg.Dedup {
		valid, res.Deduped = Dedup(valid)
	}
	res.Selections = Select(valid, cfg.FallbackMax)
	if len(cfg.Whitelist) > 0 {
		res.Selections, res.WhitelistMissing = ApplyWhitelist(res.Selections, cfg.Whitelist, aliases)
	}
	res.Duration = time.Since(start)

	logger.Info().
		Int("entries", len(entries)).
		Int("valid", len(valid)).
		Int("unprobed", res.Validated.Unprobed).
		Int("duplicates_dropped", res.Deduped).
		Int("channels", len(res.Selections)).
		Dur("took", res.Duration).
		Msg("pipeline finished")

	if len(valid) == 0 {
		return res, ErrNoValidStreams
	}
	return res, nil
}

// buildProber picks the probe strategy for this run: the fast HTTP check
// alone, or wrapped by ffprobe enrichment when deep probing is on.
func buildProber(cfg config.Run) probe.Prober {
	fast := probe.NewHTTPProber(cfg.ProbeTimeout, cfg.UserAgent)
	if !cfg.DeepProbe {
		return fast
	}
	return probe.DeepProber{
		Fast: fast,
		FFprobe: &probe.FFProbe{
			Path:      cfg.FFprobePath,
			Timeout:   cfg.ProbeTimeout,
			UserAgent: cfg.UserAgent,
		},
	}
}

func buildRate(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
