package pipeline

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/httpclient"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/log"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/metrics"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/probe"
)

const defaultWorkers = 10

// ValidateOptions configures one validation pass. Workers is clamped to a
// sane floor; HostLimit and Rate are optional politeness brakes.
type ValidateOptions struct {
	Workers   int
	Prober    probe.Prober
	HostLimit *httpclient.HostLimiter
	Rate      *rate.Limiter
}

// Validated is the closed outcome set of one validation pass. Outcomes[i]
// belongs to Entries[i]. Entries the run was cancelled before probing carry
// an aborted outcome and count into Unprobed.
type Validated struct {
	Entries  []playlist.Entry
	Outcomes []probe.Outcome
	Unprobed int
}

// Valid returns the (entry, outcome) pairs that probed valid, in parse order.
func (v Validated) Valid() []Pair {
	pairs := make([]Pair, 0, len(v.Entries))
	for i, out := range v.Outcomes {
		if out.Valid {
			pairs = append(pairs, Pair{Entry: v.Entries[i], Outcome: out})
		}
	}
	return pairs
}

type probeJob struct {
	pos int
	e   playlist.Entry
}

type probeResult struct {
	pos int
	out probe.Outcome
}

// Validate probes every entry across a bounded worker pool. Workers emit
// outcomes onto a channel drained by a single collector, so no two
// goroutines ever touch the same slot. Results arrive in completion order;
// the outcome set is reassembled in parse order before returning.
//
// Cancellation stops the feed and aborts in-flight probes; whatever
// outcomes were already collected are returned so downstream stages can
// still run.
func Validate(ctx context.Context, entries []playlist.Entry, opts ValidateOptions) Validated {
	logger := log.WithComponent("validate")
	total := len(entries)
	v := Validated{
		Entries:  entries,
		Outcomes: make([]probe.Outcome, total),
	}
	if total == 0 {
		return v
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > total {
		workers = total
	}

	jobs := make(chan probeJob)
	results := make(chan probeResult, total)

	go func() {
		defer close(jobs)
		for i := range entries {
			select {
			case jobs <- probeJob{pos: i, e: entries[i]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- probeResult{pos: job.pos, out: probeOne(ctx, job.e, opts)}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make([]bool, total)
	done := 0
	for res := range results {
		v.Outcomes[res.pos] = res.out
		seen[res.pos] = true
		recordOutcome(res.out)
		done++
		if done%200 == 0 {
			logger.Debug().Int("done", done).Int("total", total).Msg("probing")
		}
	}

	for i, ok := range seen {
		if !ok {
			v.Outcomes[i] = probe.Outcome{Index: entries[i].Index, Aborted: true}
		}
		if v.Outcomes[i].Aborted {
			v.Unprobed++
		}
	}

	logger.Info().
		Int("entries", total).
		Int("unprobed", v.Unprobed).
		Int("workers", workers).
		Msg("validation pass closed")
	return v
}

// probeOne runs politeness gates then the configured prober. A gate refusal
// only ever means the run is shutting down, so the entry counts as unprobed.
func probeOne(ctx context.Context, e playlist.Entry, opts ValidateOptions) probe.Outcome {
	if ctx.Err() != nil {
		return probe.Outcome{Index: e.Index, Aborted: true}
	}
	if opts.Rate != nil {
		if err := opts.Rate.Wait(ctx); err != nil {
			return probe.Outcome{Index: e.Index, Aborted: true}
		}
	}
	if opts.HostLimit != nil {
		release, err := opts.HostLimit.Acquire(ctx, e.URL)
		if err != nil {
			return probe.Outcome{Index: e.Index, Aborted: true}
		}
		defer release()
	}
	return opts.Prober.Probe(ctx, e)
}

func recordOutcome(out probe.Outcome) {
	method := string(out.Method)
	switch {
	case out.Aborted:
		metrics.IncProbeOutcome("aborted", method)
	case out.Valid:
		metrics.IncProbeOutcome("valid", method)
	default:
		metrics.IncProbeOutcome(out.Kind.String(), method)
	}
	if out.Duration > 0 {
		metrics.ObserveProbeDuration(out.Duration)
	}
	if out.DeepDegraded {
		metrics.IncDeepProbeDegraded()
	}
}
