// Package compare diffs two playlists by canonical channel identity:
// which channels both carry, which only one has, and how their declared
// qualities stack up. Near-matches between the unique sets flag channels
// that probably are the same despite canonicalization missing it.
package compare

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/naming"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/probe"
)

// Side is one playlist's view in a comparison.
type Side struct {
	Path      string
	Entries   int
	Channels  map[string]string // canonical key -> first display name seen
	Qualities map[string]int    // declared quality label -> channel count
}

// Diff is the result of comparing two playlists.
type Diff struct {
	A, B       Side
	Common     []string // canonical keys in both, sorted
	OnlyA      []string // canonical keys only in A, sorted
	OnlyB      []string
	NearMisses []NearMiss
}

// NearMiss pairs a channel unique to one side with a close name on the
// other, suggesting the two playlists spell one channel differently.
type NearMiss struct {
	FromA, FromB string // display names
	Distance     int    // Levenshtein distance between canonical keys
}

// nearMissMaxDistance bounds how dissimilar two keys can be and still be
// reported as a near-miss.
const nearMissMaxDistance = 2

// LoadSide parses one playlist file into its comparison view.
func LoadSide(path string, aliases naming.Table) (Side, error) {
	f, err := os.Open(path)
	if err != nil {
		return Side{}, err
	}
	defer f.Close()

	parsed, err := playlist.Parse(f, playlist.Source{Name: path}, 0)
	if err != nil {
		return Side{}, fmt.Errorf("parse %s: %w", path, err)
	}

	side := Side{
		Path:      path,
		Entries:   len(parsed.Entries),
		Channels:  make(map[string]string),
		Qualities: make(map[string]int),
	}
	for _, e := range parsed.Entries {
		key := aliases.Canonical(e.DisplayName)
		if key == "" {
			continue
		}
		if _, seen := side.Channels[key]; !seen {
			side.Channels[key] = e.DisplayName
			label := probe.DeclaredLabel(e)
			if label == "" {
				label = "unknown"
			}
			side.Qualities[label]++
		}
	}
	return side, nil
}

// Compare joins two playlists on canonical key.
func Compare(a, b Side) Diff {
	d := Diff{A: a, B: b}
	for key := range a.Channels {
		if _, ok := b.Channels[key]; ok {
			d.Common = append(d.Common, key)
		} else {
			d.OnlyA = append(d.OnlyA, key)
		}
	}
	for key := range b.Channels {
		if _, ok := a.Channels[key]; !ok {
			d.OnlyB = append(d.OnlyB, key)
		}
	}
	sort.Strings(d.Common)
	sort.Strings(d.OnlyA)
	sort.Strings(d.OnlyB)
	d.NearMisses = nearMisses(d.OnlyA, d.OnlyB, a, b)
	return d
}

// nearMisses pairs each A-only key with its closest B-only key within the
// distance bound. Each B key is claimed at most once, best match first.
func nearMisses(onlyA, onlyB []string, a, b Side) []NearMiss {
	type candidate struct {
		ka, kb string
		dist   int
	}
	var cands []candidate
	for _, ka := range onlyA {
		for _, kb := range onlyB {
			if dist := fuzzy.LevenshteinDistance(ka, kb); dist <= nearMissMaxDistance {
				cands = append(cands, candidate{ka: ka, kb: kb, dist: dist})
			}
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })

	usedA, usedB := map[string]bool{}, map[string]bool{}
	var out []NearMiss
	for _, c := range cands {
		if usedA[c.ka] || usedB[c.kb] {
			continue
		}
		usedA[c.ka], usedB[c.kb] = true, true
		out = append(out, NearMiss{FromA: a.Channels[c.ka], FromB: b.Channels[c.kb], Distance: c.dist})
	}
	return out
}

// exampleCap bounds how many channel names a rendered section lists.
const exampleCap = 10

// Render writes the human-readable comparison.
func (d Diff) Render(w io.Writer) {
	fmt.Fprintf(w, "%s: %d entries, %d channels\n", d.A.Path, d.A.Entries, len(d.A.Channels))
	renderQualities(w, d.A.Qualities)
	fmt.Fprintf(w, "%s: %d entries, %d channels\n", d.B.Path, d.B.Entries, len(d.B.Channels))
	renderQualities(w, d.B.Qualities)

	fmt.Fprintf(w, "\nCommon channels: %d\n", len(d.Common))
	renderExamples(w, d.Common, d.A.Channels)
	fmt.Fprintf(w, "Only in %s: %d\n", d.A.Path, len(d.OnlyA))
	renderExamples(w, d.OnlyA, d.A.Channels)
	fmt.Fprintf(w, "Only in %s: %d\n", d.B.Path, len(d.OnlyB))
	renderExamples(w, d.OnlyB, d.B.Channels)

	if len(d.NearMisses) > 0 {
		fmt.Fprintf(w, "\nPossible matches across the unique sets:\n")
		for _, nm := range d.NearMisses {
			fmt.Fprintf(w, "  %q ~ %q\n", nm.FromA, nm.FromB)
		}
	}
}

func renderQualities(w io.Writer, qualities map[string]int) {
	if len(qualities) == 0 {
		return
	}
	type row struct {
		label string
		n     int
	}
	rows := make([]row, 0, len(qualities))
	for label, n := range qualities {
		rows = append(rows, row{label, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].n != rows[j].n {
			return rows[i].n > rows[j].n
		}
		return rows[i].label < rows[j].label
	})
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, fmt.Sprintf("%s x%d", r.label, r.n))
	}
	fmt.Fprintf(w, "  qualities: %s\n", strings.Join(parts, ", "))
}

func renderExamples(w io.Writer, keys []string, names map[string]string) {
	for i, key := range keys {
		if i == exampleCap {
			fmt.Fprintf(w, "  ... and %d more\n", len(keys)-exampleCap)
			return
		}
		fmt.Fprintf(w, "  %s\n", names[key])
	}
}
