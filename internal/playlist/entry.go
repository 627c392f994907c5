// Package playlist parses and emits extended-M3U playlist documents.
package playlist

// Source identifies one playlist document handed to the pipeline and its
// precedence. Priority is the position in the declared source list; lower
// values win deduplication ties.
type Source struct {
	Name     string `yaml:"name" json:"name"`
	URL      string `yaml:"url" json:"url"` // http(s) URL or local path
	Priority int    `yaml:"-" json:"priority"`
}

// Entry is one parsed metadata/URL line pair. Entries are immutable after
// the canonicalizer annotates them; every later stage treats them read-only.
type Entry struct {
	DisplayName string
	TVGID       string
	TVGName     string
	Logo        string
	Group       string
	RawEXTINF   string // original metadata line, verbatim
	URL         string

	Source         string
	SourcePriority int

	// Index is the global parse position across all sources; downstream
	// stages use it to restore a deterministic order after concurrent
	// validation and as the final deduplication tie-break.
	Index int

	// CanonicalKey is the normalized channel identity, annotated once by
	// the canonicalizer before validation starts.
	CanonicalKey string
}
