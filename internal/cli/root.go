// Package cli implements the tv-playlist-cleaner command line. It is the
// only layer that reads viper; everything below takes explicit
// configuration.
package cli

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/config"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/config/key"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/log"
)

// Exit codes of the process. Partial outputs are written before the
// deadline and interrupt codes are returned.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitStrict      = 3 // --strict and at least one channel unresolved
	ExitDeadline    = 124
	ExitInterrupted = 130
)

// exitError carries a specific process exit code up through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return "exit"
}

func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error { return &exitError{code: code, err: err} }

var rootCmd = &cobra.Command{
	Use:   "tv-playlist-cleaner",
	Short: "Validate IPTV playlists and keep the best stream per channel",
	Long: "tv-playlist-cleaner downloads one or more M3U playlists, probes every\n" +
		"stream concurrently, and writes a cleaned playlist with a single\n" +
		"best-quality entry per channel plus a breakdown of what failed.",
	SilenceUsage:  true,
	SilenceErrors: true,
	// Bare invocation runs the pipeline; positional args are playlist
	// files, same as the clean subcommand.
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClean(cmd, args)
	},
}

func init() {
	config.Setup()

	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	pf.String("log-format", "console", "Log output format (console or json)")
	pf.String("metrics-addr", "", "Expose Prometheus metrics on this address during the run")
	lo.Must0(viper.BindPFlag(key.LogLevel, pf.Lookup("log-level")))
	lo.Must0(viper.BindPFlag(key.LogFormat, pf.Lookup("log-format")))
	lo.Must0(viper.BindPFlag(key.MetricsAddr, pf.Lookup("metrics-addr")))

	addCleanFlags(rootCmd)
}

// Execute runs the CLI and maps the outcome onto a process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			logger := log.Base()
			logger.Error().Err(ee.err).Msg("run failed")
		}
		return ee.code
	}
	logger := log.Base()
	logger.Error().Err(err).Msg("run failed")
	return ExitFailure
}

// configureLogging applies the ambient flags. Safe to call from every
// command; the first call wins.
func configureLogging(version string) {
	log.Configure(log.Config{
		Level:   viper.GetString(key.LogLevel),
		Format:  viper.GetString(key.LogFormat),
		Version: version,
	})
}
