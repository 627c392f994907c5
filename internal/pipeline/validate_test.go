package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/probe"
)

type proberFunc func(ctx context.Context, e playlist.Entry) probe.Outcome

func (f proberFunc) Probe(ctx context.Context, e playlist.Entry) probe.Outcome {
	return f(ctx, e)
}

func makeEntries(n int) []playlist.Entry {
	entries := make([]playlist.Entry, n)
	for i := range entries {
		entries[i] = playlist.Entry{
			DisplayName: fmt.Sprintf("Channel %d", i),
			URL:         fmt.Sprintf("http://cdn.example.com/live/%d", i),
			Index:       i,
		}
	}
	return entries
}

func TestValidateProbesEveryEntryOnce(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	entries := makeEntries(20)
	calls := make([]int32, len(entries))
	prober := proberFunc(func(_ context.Context, e playlist.Entry) probe.Outcome {
		atomic.AddInt32(&calls[e.Index], 1)
		return probe.Outcome{Index: e.Index, Valid: e.Index%2 == 0, Method: probe.MethodFast}
	})

	v := Validate(context.Background(), entries, ValidateOptions{Workers: 5, Prober: prober})

	require.Len(t, v.Outcomes, len(entries))
	for i, out := range v.Outcomes {
		assert.Equal(t, entries[i].Index, out.Index, "outcomes line up with parse order")
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls[i]), "entry %d probed exactly once", i)
	}
	assert.Zero(t, v.Unprobed)

	valid := v.Valid()
	require.Len(t, valid, 10)
	for i := 1; i < len(valid); i++ {
		assert.Less(t, valid[i-1].Entry.Index, valid[i].Entry.Index, "valid pairs stay in parse order")
	}
}

func TestValidateBoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var current, peak int32
	prober := proberFunc(func(_ context.Context, e playlist.Entry) probe.Outcome {
		n := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return probe.Outcome{Index: e.Index, Valid: true}
	})

	Validate(context.Background(), makeEntries(12), ValidateOptions{Workers: 3, Prober: prober})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestValidateCancellationKeepsCompleted(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const fast = 4
	fastDone := make(chan struct{}, fast)
	prober := proberFunc(func(ctx context.Context, e playlist.Entry) probe.Outcome {
		if e.Index < fast {
			fastDone <- struct{}{}
			return probe.Outcome{Index: e.Index, Valid: true}
		}
		<-ctx.Done()
		return probe.Outcome{Index: e.Index, Aborted: true}
	})

	entries := makeEntries(10)
	go func() {
		for i := 0; i < fast; i++ {
			<-fastDone
		}
		cancel()
	}()

	v := Validate(ctx, entries, ValidateOptions{Workers: 2, Prober: prober})

	valid := v.Valid()
	require.Len(t, valid, fast, "probes that finished before cancellation survive")
	for i, p := range valid {
		assert.Equal(t, i, p.Entry.Index)
	}
	assert.Equal(t, len(entries)-fast, v.Unprobed)
	for _, out := range v.Outcomes[fast:] {
		assert.True(t, out.Aborted)
		assert.False(t, out.Valid)
	}
}

func TestValidatePreCancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	prober := proberFunc(func(context.Context, playlist.Entry) probe.Outcome {
		atomic.AddInt32(&calls, 1)
		return probe.Outcome{Valid: true}
	})

	entries := makeEntries(6)
	v := Validate(ctx, entries, ValidateOptions{Workers: 3, Prober: prober})

	assert.Zero(t, atomic.LoadInt32(&calls), "nothing is probed once the run is cancelled")
	assert.Equal(t, len(entries), v.Unprobed)
	assert.Empty(t, v.Valid())
	for i, out := range v.Outcomes {
		assert.True(t, out.Aborted)
		assert.Equal(t, entries[i].Index, out.Index)
	}
}

func TestValidateEmptyInput(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	v := Validate(context.Background(), nil, ValidateOptions{Prober: proberFunc(func(context.Context, playlist.Entry) probe.Outcome {
		t.Fatal("prober must not run without entries")
		return probe.Outcome{}
	})})

	assert.Empty(t, v.Outcomes)
	assert.Empty(t, v.Valid())
	assert.Zero(t, v.Unprobed)
}
