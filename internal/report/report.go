// Package report aggregates one run's outcomes into operator-facing
// artifacts: a console summary and a JSON report file.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/pipeline"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/probe"
)

// Stats are the headline counters of one run.
type Stats struct {
	RunID             string    `json:"run_id"`
	GeneratedAt       time.Time `json:"generated_at"`
	Sources           int       `json:"sources"`
	EntriesSeen       int       `json:"entries_seen"`
	EntriesSkipped    int       `json:"entries_skipped"`
	Valid             int       `json:"valid"`
	Invalid           int       `json:"invalid"`
	Unprobed          int       `json:"unprobed"`
	DeepDegraded      int       `json:"deep_degraded,omitempty"`
	DuplicatesDropped int       `json:"duplicates_dropped"`
	Channels          int       `json:"channels"`
	Unresolved        int       `json:"unresolved"`
	DurationMS        int64     `json:"duration_ms"`
}

// Channel is a channel whose every candidate failed or went unprobed,
// with its failure breakdown.
type Channel struct {
	Key      string         `json:"key"`
	Name     string         `json:"name"`
	Failures map[string]int `json:"failures"`
}

// Report is the full run report. Failures buckets invalid outcomes by
// error kind; Methods buckets probed entries by which probe settled them;
// Degraded buckets streams kept on their fast verdict by the reason the
// deep pass could not improve on it; aborted probes count as unprobed,
// never as failures.
type Report struct {
	Stats            Stats          `json:"stats"`
	Failures         map[string]int `json:"failures,omitempty"`
	Methods          map[string]int `json:"methods,omitempty"`
	Degraded         map[string]int `json:"degraded,omitempty"`
	Unresolved       []Channel      `json:"unresolved,omitempty"`
	WhitelistMissing []string       `json:"whitelist_missing,omitempty"`
}

// Input carries the parse-side counters the pipeline result cannot know.
type Input struct {
	Sources int
	Skipped int
}

// unprobedLabel buckets aborted probes in per-channel breakdowns.
const unprobedLabel = "Unprobed"

// Build aggregates a finished run. It never fails: an all-dead run still
// produces a report, that being the run most worth reading about.
func Build(res pipeline.Result, in Input) Report {
	r := Report{
		Stats: Stats{
			RunID:             res.RunID,
			GeneratedAt:       time.Now().UTC(),
			Sources:           in.Sources,
			EntriesSeen:       len(res.Validated.Entries),
			EntriesSkipped:    in.Skipped,
			Unprobed:          res.Validated.Unprobed,
			DuplicatesDropped: res.Deduped,
			Channels:          len(res.Selections),
			DurationMS:        res.Duration.Milliseconds(),
		},
		Failures:         map[string]int{},
		Methods:          map[string]int{},
		Degraded:         map[string]int{},
		WhitelistMissing: res.WhitelistMissing,
	}

	type group struct {
		name     string
		anyValid bool
		failures map[string]int
	}
	groups := map[string]*group{}
	var order []string

	for i, out := range res.Validated.Outcomes {
		entry := res.Validated.Entries[i]
		key := pipeline.GroupKey(entry)
		g := groups[key]
		if g == nil {
			g = &group{name: entry.DisplayName, failures: map[string]int{}}
			groups[key] = g
			order = append(order, key)
		}

		switch {
		case out.Valid:
			r.Stats.Valid++
			g.anyValid = true
			countMethod(r.Methods, out.Method)
			if out.DeepDegraded {
				r.Stats.DeepDegraded++
				if !out.DeepKind.IsZero() {
					r.Degraded[out.DeepKind.String()]++
				}
			}
		case out.Aborted:
			g.failures[unprobedLabel]++
		default:
			countMethod(r.Methods, out.Method)
			r.Stats.Invalid++
			kind := out.Kind.String()
			r.Failures[kind]++
			g.failures[kind]++
		}
	}

	sort.Strings(order)
	for _, key := range order {
		g := groups[key]
		if g.anyValid {
			continue
		}
		r.Unresolved = append(r.Unresolved, Channel{Key: key, Name: g.name, Failures: g.failures})
	}
	r.Stats.Unresolved = len(r.Unresolved)

	if len(r.Failures) == 0 {
		r.Failures = nil
	}
	if len(r.Methods) == 0 {
		r.Methods = nil
	}
	if len(r.Degraded) == 0 {
		r.Degraded = nil
	}
	return r
}

// Render writes the human-readable summary. Ordering is stable: failure
// kinds by count then name, unresolved channels by canonical key.
func (r Report) Render(w io.Writer) {
	s := r.Stats
	fmt.Fprintf(w, "Run %s: %d entries, %d valid, %d invalid, %d unprobed (took %s)\n",
		s.RunID, s.EntriesSeen, s.Valid, s.Invalid, s.Unprobed,
		(time.Duration(s.DurationMS) * time.Millisecond).String())
	if s.EntriesSkipped > 0 {
		fmt.Fprintf(w, "Skipped %d malformed line pairs across %d sources\n", s.EntriesSkipped, s.Sources)
	}
	if s.DuplicatesDropped > 0 {
		fmt.Fprintf(w, "Dropped %d duplicate URLs\n", s.DuplicatesDropped)
	}
	if s.DeepDegraded > 0 {
		fmt.Fprintf(w, "Deep probe degraded on %d streams (kept fast verdicts)\n", s.DeepDegraded)
		if len(r.Degraded) > 0 {
			var parts []string
			for _, kv := range sortedCounts(r.Degraded) {
				parts = append(parts, fmt.Sprintf("%s x%d", kv.name, kv.n))
			}
			fmt.Fprintf(w, "  %s\n", strings.Join(parts, ", "))
		}
	}
	fmt.Fprintf(w, "Selected %d channels, %d unresolved\n", s.Channels, s.Unresolved)

	if len(r.Methods) > 0 {
		var parts []string
		for _, kv := range sortedCounts(r.Methods) {
			parts = append(parts, fmt.Sprintf("%s x%d", kv.name, kv.n))
		}
		fmt.Fprintf(w, "Probe methods: %s\n", strings.Join(parts, ", "))
	}

	if len(r.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures:\n")
		for _, kv := range sortedCounts(r.Failures) {
			fmt.Fprintf(w, "  %-24s %d\n", kv.name, kv.n)
		}
	}

	if len(r.Unresolved) > 0 {
		fmt.Fprintf(w, "\nUnresolved channels:\n")
		for _, ch := range r.Unresolved {
			var parts []string
			for _, kv := range sortedCounts(ch.Failures) {
				parts = append(parts, fmt.Sprintf("%s x%d", kv.name, kv.n))
			}
			fmt.Fprintf(w, "  %s: %s\n", ch.Name, strings.Join(parts, ", "))
		}
	}

	if len(r.WhitelistMissing) > 0 {
		fmt.Fprintf(w, "\nWhitelisted channels without a working stream:\n")
		for _, name := range r.WhitelistMissing {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}

// WriteFile writes the JSON report atomically.
func (r Report) WriteFile(path string) error {
	return playlist.WriteJSONFile(path, r)
}

func countMethod(m map[string]int, method probe.Method) {
	if method != "" {
		m[string(method)]++
	}
}

type countRow struct {
	name string
	n    int
}

func sortedCounts(m map[string]int) []countRow {
	rows := make([]countRow, 0, len(m))
	for name, n := range m {
		rows = append(rows, countRow{name, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].n != rows[j].n {
			return rows[i].n > rows[j].n
		}
		return rows[i].name < rows[j].name
	})
	return rows
}
