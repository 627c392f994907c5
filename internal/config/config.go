// Package config carries the explicit run configuration handed to the
// pipeline and the viper plumbing the CLI uses to materialize it. The
// pipeline packages never read viper or the environment themselves.
package config

import (
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/config/key"
)

// Bounds for the probe pool and per-probe budget. Values outside the range
// are clamped, not rejected, so a bad flag degrades instead of aborting.
const (
	MinWorkers      = 1
	MaxWorkers      = 50
	MinProbeTimeout = 1 * time.Second
	MaxProbeTimeout = 60 * time.Second
)

// Defaults mirrored in the viper table below.
const (
	DefaultWorkers      = 10
	DefaultProbeTimeout = 15 * time.Second
	DefaultFallbackMax  = 5
	DefaultPerHostLimit = 4
	DefaultMaxDownload  = 50 << 20
	DefaultUserAgent    = "tv-playlist-cleaner/1.0"
)

// Run is the full configuration consumed by pipeline.Run. It is plain data:
// construct it directly in tests, or via FromViper at the CLI boundary.
type Run struct {
	Workers      int           // probe worker pool size
	ProbeTimeout time.Duration // per-probe budget
	RunTimeout   time.Duration // overall deadline; 0 = none
	FallbackMax  int           // fallback chain cap per channel
	DeepProbe    bool          // ffprobe enrichment of valid outcomes
	FFprobePath  string        // ffprobe binary (name or path)
	Dedup        bool          // drop exact-URL duplicates before grouping
	UserAgent    string
	MaxDownload  int64   // playlist download cap, bytes
	PerHostLimit int     // concurrent probes per upstream host
	ProbeRate    float64 // global probes/sec, 0 = unlimited

	// Whitelist restricts the output lineup to these channel names when
	// non-empty. Names go through the alias table and canonicalizer, so
	// natural spellings work. Whitelisted channels with no valid stream
	// are reported as missing.
	Whitelist []string
}

// Normalize returns a copy with all values clamped into their legal ranges.
func (r Run) Normalize() Run {
	r.Workers = clampInt(r.Workers, DefaultWorkers, MinWorkers, MaxWorkers)
	r.ProbeTimeout = clampDuration(r.ProbeTimeout, DefaultProbeTimeout, MinProbeTimeout, MaxProbeTimeout)
	if r.RunTimeout < 0 {
		r.RunTimeout = 0
	}
	if r.FallbackMax < 0 {
		r.FallbackMax = 0
	}
	if r.UserAgent == "" {
		r.UserAgent = DefaultUserAgent
	}
	if r.MaxDownload <= 0 {
		r.MaxDownload = DefaultMaxDownload
	}
	if r.PerHostLimit <= 0 {
		r.PerHostLimit = DefaultPerHostLimit
	}
	if r.ProbeRate < 0 {
		r.ProbeRate = 0
	}
	if r.FFprobePath == "" {
		r.FFprobePath = "ffprobe"
	}
	return r
}

// Default is the factory settings table registered with viper. Keys not
// listed here have no default and read as zero values.
var Default = map[string]any{
	key.PoolWorkers:     DefaultWorkers,
	key.ProbeTimeout:    DefaultProbeTimeout,
	key.ProbeDeep:       "auto",
	key.ProbeFFprobe:    "ffprobe",
	key.ProbeRate:       0.0,
	key.ProbeHostLimit:  DefaultPerHostLimit,
	key.ProbeUserAgent:  DefaultUserAgent,
	key.RunTimeout:      time.Duration(0),
	key.DedupEnabled:    true,
	key.SelectFallbacks: DefaultFallbackMax,
	key.SourcesCategory: "",
	key.SourcesFile:     "",
	key.FetchMaxBytes:   int64(DefaultMaxDownload),
	key.OutputPlaylist:  "cleaned.m3u",
	key.OutputLineup:    "",
	key.OutputReport:    "",
	key.LogLevel:        "info",
	key.LogFormat:       "console",
	key.MetricsAddr:     "",
	key.Strict:          false,
}

// EnvKeyReplacer maps config keys to environment variable form
// (probe.timeout -> TVPC_PROBE_TIMEOUT).
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup registers defaults and environment bindings on the global viper.
// Call once from the CLI before flag binding.
func Setup() {
	viper.SetEnvPrefix("TVPC")
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	viper.AutomaticEnv()
	viper.SetTypeByDefaultValue(true)
	for name, value := range Default {
		viper.SetDefault(name, value)
	}
}

// FromViper materializes a normalized Run from the current viper state.
func FromViper() Run {
	r := Run{
		Workers:      viper.GetInt(key.PoolWorkers),
		ProbeTimeout: viper.GetDuration(key.ProbeTimeout),
		RunTimeout:   viper.GetDuration(key.RunTimeout),
		FallbackMax:  viper.GetInt(key.SelectFallbacks),
		FFprobePath:  viper.GetString(key.ProbeFFprobe),
		Dedup:        viper.GetBool(key.DedupEnabled),
		UserAgent:    viper.GetString(key.ProbeUserAgent),
		MaxDownload:  viper.GetInt64(key.FetchMaxBytes),
		PerHostLimit: viper.GetInt(key.ProbeHostLimit),
		ProbeRate:    viper.GetFloat64(key.ProbeRate),
	}
	r = r.Normalize()
	r.DeepProbe = ResolveDeepProbe(viper.GetString(key.ProbeDeep), r.FFprobePath)
	return r
}

// ResolveDeepProbe decides whether deep probing is active. "on" and "off"
// are explicit; "auto" (and anything unrecognized) enables deep probing only
// when the ffprobe binary resolves on PATH.
func ResolveDeepProbe(mode, ffprobePath string) bool {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "on", "true", "1", "yes":
		return true
	case "off", "false", "0", "no":
		return false
	}
	_, err := exec.LookPath(ffprobePath)
	return err == nil
}

func clampInt(v, def, min, max int) int {
	if v == 0 {
		v = def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampDuration(v, def, min, max time.Duration) time.Duration {
	if v == 0 {
		v = def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
