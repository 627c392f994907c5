// Package metrics exposes Prometheus instrumentation for the pipeline.
// Collectors are process-global; the optional listener in server.go makes
// them scrapeable during long validation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entriesParsedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvpc_entries_parsed_total",
		Help: "Playlist entries parsed per source",
	}, []string{"source"})

	parseSkipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvpc_parse_skips_total",
		Help: "Malformed playlist line pairs skipped per source",
	}, []string{"source"})

	sourcesLoadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvpc_sources_loaded_total",
		Help: "Playlist source downloads by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	probeOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvpc_probe_outcomes_total",
		Help: "Probe outcomes by error kind and probe method",
	}, []string{"kind", "method"}) // kind=valid|Timeout|HttpError|... method=fast|deep

	probeDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tvpc_probe_duration_seconds",
		Help:    "Wall time per stream probe",
		Buckets: prometheus.DefBuckets,
	})

	deepProbeDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tvpc_deep_probe_degraded_total",
		Help: "Deep probes that fell back to the fast result (tool missing or timed out)",
	})

	duplicatesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tvpc_duplicates_dropped_total",
		Help: "Entries dropped because their URL fingerprint was already retained",
	})

	channelsSelected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tvpc_channels_selected",
		Help: "Channels with a chosen candidate in the last run",
	})

	channelsUnresolved = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tvpc_channels_unresolved",
		Help: "Channels whose every candidate failed validation in the last run",
	})
)

func AddEntriesParsed(source string, n int) {
	entriesParsedTotal.WithLabelValues(source).Add(float64(n))
}

func AddParseSkips(source string, n int) {
	parseSkipsTotal.WithLabelValues(source).Add(float64(n))
}

func IncSourceLoaded(outcome string) { sourcesLoadedTotal.WithLabelValues(outcome).Inc() }

func IncProbeOutcome(kind, method string) {
	probeOutcomesTotal.WithLabelValues(kind, method).Inc()
}

func ObserveProbeDuration(d time.Duration) { probeDurationSeconds.Observe(d.Seconds()) }

func IncDeepProbeDegraded() { deepProbeDegradedTotal.Inc() }

func AddDuplicatesDropped(n int) { duplicatesDroppedTotal.Add(float64(n)) }

func RecordSelection(selected, unresolved int) {
	channelsSelected.Set(float64(selected))
	channelsUnresolved.Set(float64(unresolved))
}
