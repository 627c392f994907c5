package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/config"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/config/key"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/fetch"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/log"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/metrics"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/naming"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/pipeline"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/report"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/sources"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [playlist files...]",
	Short: "Probe sources and write the cleaned playlist",
	Long: "clean loads the configured sources (a built-in category, explicit\n" +
		"--source URLs, or local playlist files given as arguments), validates\n" +
		"every stream, and writes one best entry per channel.",
	RunE: runClean,
}

func init() {
	addCleanFlags(cleanCmd)
	rootCmd.AddCommand(cleanCmd)
}

// addCleanFlags registers the pipeline flags. Both the root command and the
// explicit clean subcommand take them; viper binding happens at run time
// against whichever command actually executed, so the parsed flag set wins.
func addCleanFlags(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringP("category", "c", "", "Built-in source category (see the sources command)")
	fl.StringSliceP("source", "s", nil, "Explicit source as URL or NAME=URL; repeatable, order sets priority")
	fl.String("sources-file", "", "YAML file with categories, aliases and a channel whitelist")
	fl.IntP("workers", "w", config.DefaultWorkers, "Probe worker pool size (1-50)")
	fl.DurationP("probe-timeout", "t", config.DefaultProbeTimeout, "Per-probe deadline (1s-60s)")
	fl.Duration("run-timeout", 0, "Overall run deadline; 0 disables")
	fl.Int("fallback-max", config.DefaultFallbackMax, "Fallback streams kept per channel")
	fl.String("deep", "auto", "Deep probing via ffprobe: auto, on or off")
	fl.String("ffprobe", "ffprobe", "ffprobe binary path")
	fl.Bool("dedup", true, "Drop exact-URL duplicates before selection")
	fl.String("user-agent", config.DefaultUserAgent, "User-Agent for downloads and probes")
	fl.Int64("max-download", config.DefaultMaxDownload, "Per-source playlist download cap, bytes")
	fl.Int("host-limit", config.DefaultPerHostLimit, "Concurrent probes per upstream site")
	fl.Float64("rate", 0, "Global probe rate in requests/sec; 0 disables")
	fl.StringP("output", "o", "cleaned.m3u", "Cleaned playlist path")
	fl.String("lineup", "", "Also write a JSON lineup to this path")
	fl.String("report", "", "Also write the JSON run report to this path")
	fl.Bool("strict", false, "Exit non-zero when any channel stays unresolved")
}

// bindCleanFlags points the viper keys at the executed command's flag set.
func bindCleanFlags(cmd *cobra.Command) {
	fl := cmd.Flags()
	lo.Must0(viper.BindPFlag(key.SourcesCategory, fl.Lookup("category")))
	lo.Must0(viper.BindPFlag(key.SourcesFile, fl.Lookup("sources-file")))
	lo.Must0(viper.BindPFlag(key.PoolWorkers, fl.Lookup("workers")))
	lo.Must0(viper.BindPFlag(key.ProbeTimeout, fl.Lookup("probe-timeout")))
	lo.Must0(viper.BindPFlag(key.RunTimeout, fl.Lookup("run-timeout")))
	lo.Must0(viper.BindPFlag(key.SelectFallbacks, fl.Lookup("fallback-max")))
	lo.Must0(viper.BindPFlag(key.ProbeDeep, fl.Lookup("deep")))
	lo.Must0(viper.BindPFlag(key.ProbeFFprobe, fl.Lookup("ffprobe")))
	lo.Must0(viper.BindPFlag(key.DedupEnabled, fl.Lookup("dedup")))
	lo.Must0(viper.BindPFlag(key.ProbeUserAgent, fl.Lookup("user-agent")))
	lo.Must0(viper.BindPFlag(key.FetchMaxBytes, fl.Lookup("max-download")))
	lo.Must0(viper.BindPFlag(key.ProbeHostLimit, fl.Lookup("host-limit")))
	lo.Must0(viper.BindPFlag(key.ProbeRate, fl.Lookup("rate")))
	lo.Must0(viper.BindPFlag(key.OutputPlaylist, fl.Lookup("output")))
	lo.Must0(viper.BindPFlag(key.OutputLineup, fl.Lookup("lineup")))
	lo.Must0(viper.BindPFlag(key.OutputReport, fl.Lookup("report")))
	lo.Must0(viper.BindPFlag(key.Strict, fl.Lookup("strict")))
}

func runClean(cmd *cobra.Command, args []string) error {
	bindCleanFlags(cmd)
	configureLogging(Version)
	logger := log.WithComponent("cli")
	sigCtx := cmd.Context()

	metrics.Serve(sigCtx, viper.GetString(key.MetricsAddr))

	srcFile, err := loadSourcesFile(viper.GetString(key.SourcesFile))
	if err != nil {
		return exitWith(ExitFailure, err)
	}

	srcFlags, _ := cmd.Flags().GetStringSlice("source")
	overrides, err := parseSourceFlags(srcFlags, args)
	if err != nil {
		return exitWith(ExitFailure, err)
	}
	srcs, err := sources.Resolve(viper.GetString(key.SourcesCategory), srcFile, overrides)
	if err != nil {
		return exitWith(ExitFailure, err)
	}

	cfg := config.FromViper()
	cfg.Whitelist = srcFile.Whitelist
	aliases := naming.NewTable(srcFile.Aliases)

	runCtx := sigCtx
	var cancel context.CancelFunc
	if cfg.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(sigCtx, cfg.RunTimeout)
		defer cancel()
	}

	entries, fstats, err := fetch.LoadAll(runCtx, srcs, fetch.Options{
		UserAgent: cfg.UserAgent,
		MaxBytes:  cfg.MaxDownload,
	})
	if err != nil {
		if code := cancellationCode(sigCtx, runCtx); code != ExitOK {
			return exitWith(code, err)
		}
		return exitWith(ExitFailure, err)
	}

	res, runErr := pipeline.Run(runCtx, cfg, entries, aliases)

	rep := report.Build(res, report.Input{Sources: fstats.Sources, Skipped: fstats.Skipped})
	rep.Render(cmd.OutOrStdout())
	metrics.RecordSelection(rep.Stats.Channels, rep.Stats.Unresolved)

	// Partial results are still results: write whatever was selected even
	// when the run was cut short or nothing validated.
	if err := writeArtifacts(res, rep); err != nil {
		return exitWith(ExitFailure, err)
	}

	if code := cancellationCode(sigCtx, runCtx); code != ExitOK {
		logger.Warn().Int("channels", rep.Stats.Channels).Msg("run cut short, partial playlist written")
		return exitWith(code, nil)
	}
	if runErr != nil {
		return exitWith(ExitFailure, runErr)
	}
	if rep.Stats.Unresolved > 0 || len(rep.WhitelistMissing) > 0 {
		if viper.GetBool(key.Strict) {
			return exitWith(ExitStrict, fmt.Errorf("%d channels unresolved", rep.Stats.Unresolved))
		}
		logger.Warn().
			Int("unresolved", rep.Stats.Unresolved).
			Int("whitelist_missing", len(rep.WhitelistMissing)).
			Msg("finished with unresolved channels")
	}
	return nil
}

// cancellationCode distinguishes why a context died: the signal context
// dying means an interrupt, the run context alone means the deadline.
func cancellationCode(sigCtx, runCtx context.Context) int {
	switch {
	case sigCtx.Err() != nil:
		return ExitInterrupted
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return ExitDeadline
	}
	return ExitOK
}

func loadSourcesFile(path string) (sources.File, error) {
	if path == "" {
		return sources.File{}, nil
	}
	return sources.LoadFile(path)
}

// parseSourceFlags turns --source values and positional file arguments into
// an override source list. --source accepts "URL" or "NAME=URL"; positional
// arguments are local playlist files.
func parseSourceFlags(flags, args []string) ([]playlist.Source, error) {
	var out []playlist.Source
	for _, v := range flags {
		name, url, found := strings.Cut(v, "=")
		if found && !strings.Contains(name, "://") {
			out = append(out, playlist.Source{Name: name, URL: url})
			continue
		}
		out = append(out, playlist.Source{URL: v})
	}
	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("playlist file %s: %w", path, err)
		}
		out = append(out, playlist.Source{Name: filepath.Base(path), URL: path})
	}
	return out, nil
}

func writeArtifacts(res pipeline.Result, rep report.Report) error {
	outPath, err := outputPath(viper.GetString(key.OutputPlaylist))
	if err != nil {
		return err
	}
	items := pipeline.OutputItems(res.Selections)
	header := playlist.Header{
		GeneratedAt: time.Now(),
		RunID:       res.RunID,
		Version:     Version,
	}
	if err := playlist.WriteM3UFile(outPath, items, header); err != nil {
		return err
	}
	cliLog := log.WithComponent("cli")
	cliLog.Info().Str("path", outPath).Int("channels", len(items)).Msg("playlist written")

	if path := viper.GetString(key.OutputLineup); path != "" {
		if err := playlist.WriteLineupJSON(path, items); err != nil {
			return err
		}
	}
	if path := viper.GetString(key.OutputReport); path != "" {
		if err := rep.WriteFile(path); err != nil {
			return err
		}
	}
	return nil
}

// outputPath sanitizes the playlist file name while honoring the directory
// the caller chose.
func outputPath(flag string) (string, error) {
	dir := filepath.Dir(flag)
	base, err := playlist.SanitizeFilename(filepath.Base(flag))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, base), nil
}
