package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/metrics"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/probe"
)

// Pair is one entry together with its probe outcome. Downstream stages pass
// these around instead of re-deriving outcome state from entries.
type Pair struct {
	Entry   playlist.Entry
	Outcome probe.Outcome
}

// Fingerprint identifies a stream for exact-duplicate detection: sha256
// over the normalized URL, truncated to the width reports print.
func Fingerprint(rawURL string) string {
	sum := sha256.Sum256([]byte(normalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])[:16]
}

// normalizeURL lower-cases the parts of a URL that are case-insensitive
// (scheme and host) and trims whitespace. Paths stay untouched: two URLs
// differing only in path case are genuinely different streams.
func normalizeURL(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// Dedup drops pairs whose URL fingerprint duplicates one already retained,
// keeping the instance from the higher-priority source (lower priority
// value). Equal priority keeps the first in parse order. Input must be in
// parse order; output is in parse order of the survivors.
func Dedup(pairs []Pair) (kept []Pair, dropped int) {
	byPrint := make(map[string]int, len(pairs)) // fingerprint -> index into kept
	kept = make([]Pair, 0, len(pairs))

	for _, p := range pairs {
		fp := Fingerprint(p.Entry.URL)
		at, dup := byPrint[fp]
		if !dup {
			byPrint[fp] = len(kept)
			kept = append(kept, p)
			continue
		}
		dropped++
		if p.Entry.SourcePriority < kept[at].Entry.SourcePriority {
			kept[at] = p
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		return kept[i].Entry.Index < kept[j].Entry.Index
	})
	metrics.AddDuplicatesDropped(dropped)
	return kept, dropped
}
