package pipeline

import (
	"sort"
	"strings"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/naming"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/probe"
)

// Selection is the result for one channel: the top-ranked candidate plus
// the next-best alternatives in rank order.
type Selection struct {
	Key       string
	Chosen    Pair
	Fallbacks []Pair
}

// GroupKey is the channel identity a pair groups under: the annotated
// canonical key, or the lower-cased display name when canonicalization left
// nothing of it.
func GroupKey(e playlist.Entry) string {
	if e.CanonicalKey != "" {
		return e.CanonicalKey
	}
	return strings.ToLower(strings.TrimSpace(e.DisplayName))
}

// Select groups valid pairs by channel identity, ranks every group, and
// emits one Selection per channel with at most fallbackMax alternatives.
// Channels appear in first-seen parse order, so re-running over the same
// validated set yields the identical selection set.
func Select(pairs []Pair, fallbackMax int) []Selection {
	if fallbackMax < 0 {
		fallbackMax = 0
	}

	groups := make(map[string][]Pair)
	var order []string
	for _, p := range pairs {
		key := GroupKey(p.Entry)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	selections := make([]Selection, 0, len(order))
	for _, key := range order {
		g := groups[key]
		sort.SliceStable(g, func(i, j int) bool { return rankBetter(g[i], g[j]) })

		sel := Selection{Key: key, Chosen: g[0]}
		rest := g[1:]
		if len(rest) > fallbackMax {
			rest = rest[:fallbackMax]
		}
		if len(rest) > 0 {
			sel.Fallbacks = append([]Pair(nil), rest...)
		}
		selections = append(selections, sel)
	}
	return selections
}

// rankBetter orders candidates inside a channel group: measured resolution
// area first, with unknown below any known; then the area the declared
// label estimates; then source priority; then parse order so the ordering
// is total and reproducible.
func rankBetter(a, b Pair) bool {
	if aa, ba := area(a.Outcome), area(b.Outcome); aa != ba {
		return aa > ba
	}
	if ae, be := labelArea(a.Outcome.QualityLabel), labelArea(b.Outcome.QualityLabel); ae != be {
		return ae > be
	}
	if a.Entry.SourcePriority != b.Entry.SourcePriority {
		return a.Entry.SourcePriority < b.Entry.SourcePriority
	}
	return a.Entry.Index < b.Entry.Index
}

func area(o probe.Outcome) int { return o.Width * o.Height }

func labelArea(label string) int {
	w, h, ok := probe.ParseLabel(label)
	if !ok {
		return 0
	}
	return w * h
}

// ApplyWhitelist restricts selections to the named channels, reordering
// them to whitelist order. Whitelisted channels with no selection come back
// in missing, keeping their caller-supplied spelling.
func ApplyWhitelist(sels []Selection, names []string, aliases naming.Table) (kept []Selection, missing []string) {
	byKey := make(map[string]Selection, len(sels))
	for _, s := range sels {
		byKey[s.Key] = s
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := aliases.Canonical(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if s, ok := byKey[key]; ok {
			kept = append(kept, s)
		} else {
			missing = append(missing, name)
		}
	}
	return kept, missing
}

// OutputItems renders selections in the shape the playlist writer takes.
func OutputItems(sels []Selection) []playlist.OutputItem {
	items := make([]playlist.OutputItem, 0, len(sels))
	for _, s := range sels {
		item := playlist.OutputItem{
			Entry:        s.Chosen.Entry,
			QualityLabel: s.Chosen.Outcome.QualityLabel,
		}
		for _, f := range s.Fallbacks {
			item.FallbackURLs = append(item.FallbackURLs, f.Entry.URL)
		}
		items = append(items, item)
	}
	return items
}
