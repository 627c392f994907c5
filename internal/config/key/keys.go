// Package key defines the canonical configuration identifiers shared by the
// CLI flags, environment bindings and the config file.
package key

// Probe pool and probe behavior.
const (
	PoolWorkers     = "pool.workers"
	ProbeTimeout    = "probe.timeout"
	ProbeDeep       = "probe.deep" // "auto" | "on" | "off"
	ProbeFFprobe    = "probe.ffprobe_path"
	ProbeRate       = "probe.rate"
	ProbeHostLimit  = "probe.host_limit"
	ProbeUserAgent  = "probe.user_agent"
	RunTimeout      = "run.timeout"
	DedupEnabled    = "dedup.enabled"
	SelectFallbacks = "select.fallback_max"
)

// Source resolution and fetching.
const (
	SourcesCategory = "sources.category"
	SourcesFile     = "sources.file"
	FetchMaxBytes   = "fetch.max_bytes"
)

// Output artifacts.
const (
	OutputPlaylist = "output.playlist"
	OutputLineup   = "output.lineup"
	OutputReport   = "output.report"
)

// Ambient concerns.
const (
	LogLevel    = "log.level"
	LogFormat   = "log.format"
	MetricsAddr = "metrics.addr"
	Strict      = "strict"
)
