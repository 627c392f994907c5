// Package naming derives the canonical identity of a TV channel from its
// display name, so that spelling variants of the same channel group together
// across playlists.
package naming

import (
	"regexp"
	"strings"
	"unicode"

	unorm "golang.org/x/text/unicode/norm"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
)

var (
	// "12. TF1" channel-number prefixes and [720p-tf1.fr] style segments.
	ordinal     = regexp.MustCompile(`^\d+\.\s+`)
	bracketed   = regexp.MustCompile(`[\[(][^\])]*[\])]`)
	punct       = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	letterDigit = regexp.MustCompile(`(\p{L})(\d)`)
	digitLetter = regexp.MustCompile(`(\d)(\p{L})`)
	resolutionP = regexp.MustCompile(`^\d{3,4}p$`)
)

// qualityTokens are format markers that carry no channel identity.
var qualityTokens = map[string]bool{
	"hd": true, "sd": true, "fhd": true, "uhd": true, "fullhd": true,
	"4k": true, "8k": true, "hevc": true, "h265": true, "x265": true,
}

// bareResolutions are pixel heights that show up without the trailing "p".
var bareResolutions = map[string]bool{
	"240": true, "360": true, "480": true, "540": true, "576": true,
	"720": true, "1080": true, "1440": true, "2160": true, "4320": true,
}

// regionTokens are country suffixes providers append to channel names.
// Stripped only from the tail so names like "France 2" survive.
var regionTokens = map[string]bool{
	"fr": true,
}

// Canonical returns the normalized identity for a channel display name:
// lower-cased, diacritics folded, bracketed segments and channel-number
// prefixes removed, punctuation treated as word boundaries, glued
// letter/digit runs split, and quality tokens dropped. "FRANCE 2 FHD [FR]",
// "France 2 HD" and "France2" all map to "france 2".
//
// The empty string comes back for names with no identity left after
// filtering. Safe for concurrent use.
func Canonical(name string) string {
	s := strings.TrimSpace(name)
	s = ordinal.ReplaceAllString(s, "")
	s = strings.ToLower(stripMarks(s))
	s = bracketed.ReplaceAllString(s, " ")
	s = punct.ReplaceAllString(s, " ")

	var kept []string
	for _, tok := range strings.Fields(s) {
		if isQualityToken(tok) {
			continue
		}
		// Split glued letter/digit runs ("france2", "tf1hd") and
		// re-filter so markers hidden inside them still drop out.
		tok = letterDigit.ReplaceAllString(tok, "$1 $2")
		tok = digitLetter.ReplaceAllString(tok, "$1 $2")
		for _, sub := range strings.Fields(tok) {
			if isQualityToken(sub) {
				continue
			}
			kept = append(kept, sub)
		}
	}
	for len(kept) > 1 && regionTokens[kept[len(kept)-1]] {
		kept = kept[:len(kept)-1]
	}
	return strings.Join(kept, " ")
}

func isQualityToken(tok string) bool {
	return qualityTokens[tok] || bareResolutions[tok] || resolutionP.MatchString(tok)
}

// stripMarks folds diacritics: decompose to NFD, drop combining marks.
func stripMarks(s string) string {
	d := unorm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(d))
	for _, r := range d {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return unorm.NFC.String(b.String())
}

// Annotate stamps every entry with its canonical key. This is the one place
// entries are mutated after parsing; all later stages treat them read-only.
func Annotate(entries []playlist.Entry, t Table) {
	for i := range entries {
		entries[i].CanonicalKey = t.Canonical(entries[i].DisplayName)
	}
}
