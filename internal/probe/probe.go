// Package probe classifies playlist entries as alive or dead. A fast HTTP
// prober settles reachability; an optional ffprobe pass enriches valid
// outcomes with the stream's real resolution.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
)

// Method names which probe produced the authoritative classification.
type Method string

const (
	MethodFast Method = "fast"
	MethodDeep Method = "deep"
)

// ErrorKind classifies a probe failure. It is comparable so reports and
// metrics can bucket on it directly.
type ErrorKind struct {
	Class string
	Code  int // HTTP status, set only for HttpError
}

var (
	KindTimeout             = ErrorKind{Class: "Timeout"}
	KindConnectionRefused   = ErrorKind{Class: "ConnectionRefused"}
	KindUnsupportedProtocol = ErrorKind{Class: "UnsupportedProtocol"}
	KindToolUnavailable     = ErrorKind{Class: "ToolUnavailable"}
	KindToolError           = ErrorKind{Class: "ToolError"}
)

// KindHTTPError tags a response with a non-success status code.
func KindHTTPError(code int) ErrorKind {
	return ErrorKind{Class: "HttpError", Code: code}
}

// IsZero reports whether no kind was recorded.
func (k ErrorKind) IsZero() bool { return k.Class == "" }

func (k ErrorKind) String() string {
	if k.Class == "HttpError" {
		return fmt.Sprintf("HttpError(%d)", k.Code)
	}
	return k.Class
}

// Outcome is the result of probing one entry, produced exactly once per
// entry. Dead streams carry Kind and Detail; live ones carry whatever
// resolution and quality label the probes could establish.
type Outcome struct {
	Index  int // the probed entry's global parse position
	Valid  bool
	Method Method

	// Resolution and label, when a probe established them. Zero
	// width/height means unknown; QualityLabel may still be set from the
	// URL or the entry's own metadata.
	Width        int
	Height       int
	QualityLabel string

	// Failure classification, set only on invalid outcomes.
	Kind   ErrorKind
	Detail string

	// Aborted marks an entry whose probe was cut short by run
	// cancellation. Counted as unprobed, not as a failure.
	Aborted bool

	// A deep probe that could not run or finish leaves the outcome valid
	// on the fast result and records why here.
	DeepDegraded bool
	DeepKind     ErrorKind
	DeepDetail   string

	Duration time.Duration
}

// Prober classifies one entry. Implementations are selected by run
// configuration: the fast HTTP prober alone, or wrapped by the deep prober.
type Prober interface {
	Probe(ctx context.Context, e playlist.Entry) Outcome
}
