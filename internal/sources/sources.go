// Package sources resolves which playlist documents a run should ingest:
// the built-in category table, an optional YAML file layering extra sources,
// aliases and a channel whitelist on top, and explicit CLI overrides.
package sources

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
)

// categories is the embedded table: category name to ordered source URLs.
// List order is source priority. Community mirrors sit after the iptv-org
// official lists so official streams win deduplication ties.
var categories = map[string][]string{
	"all": {
		"https://iptv-org.github.io/iptv/countries/fr.m3u",
		"https://iptv-org.github.io/iptv/countries/us.m3u",
		"https://iptv-org.github.io/iptv/countries/gb.m3u",
		"https://iptv-org.github.io/iptv/countries/de.m3u",
		"https://iptv-org.github.io/iptv/countries/es.m3u",
		"https://iptv-org.github.io/iptv/countries/it.m3u",
		"https://raw.githubusercontent.com/ipstreet312/freeiptv/refs/heads/master/all.m3u",
	},
	"french": {
		"https://iptv-org.github.io/iptv/countries/fr.m3u",
		"https://raw.githubusercontent.com/ipstreet312/freeiptv/refs/heads/master/all.m3u",
	},
	"english": {
		"https://iptv-org.github.io/iptv/countries/us.m3u",
		"https://iptv-org.github.io/iptv/countries/gb.m3u",
		"https://iptv-org.github.io/iptv/countries/ca.m3u",
		"https://iptv-org.github.io/iptv/countries/au.m3u",
	},
	"european": {
		"https://iptv-org.github.io/iptv/countries/fr.m3u",
		"https://iptv-org.github.io/iptv/countries/de.m3u",
		"https://iptv-org.github.io/iptv/countries/es.m3u",
		"https://iptv-org.github.io/iptv/countries/it.m3u",
		"https://iptv-org.github.io/iptv/countries/nl.m3u",
		"https://iptv-org.github.io/iptv/countries/be.m3u",
		"https://iptv-org.github.io/iptv/countries/ch.m3u",
	},
	"news":   {"https://iptv-org.github.io/iptv/categories/news.m3u"},
	"sports": {"https://iptv-org.github.io/iptv/categories/sports.m3u"},
	"movies": {"https://iptv-org.github.io/iptv/categories/movies.m3u"},
	"kids":   {"https://iptv-org.github.io/iptv/categories/kids.m3u"},
}

// DefaultCategory is used when the caller names neither a category nor
// explicit sources.
const DefaultCategory = "all"

// Categories returns the built-in category names, sorted.
func Categories() []string {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByCategory resolves a built-in category to its prioritized source list.
func ByCategory(category string) ([]playlist.Source, error) {
	urls, ok := categories[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return nil, fmt.Errorf("unknown category %q (known: %s)", category, strings.Join(Categories(), ", "))
	}
	srcs := make([]playlist.Source, 0, len(urls))
	for i, u := range urls {
		srcs = append(srcs, playlist.Source{Name: nameFromURL(u), URL: u, Priority: i})
	}
	return srcs, nil
}

// nameFromURL derives a short human name for an unnamed source: the last
// path segment without extension, or the host when the path is bare.
func nameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	seg := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	if i := strings.LastIndex(seg, "."); i > 0 {
		seg = seg[:i]
	}
	if seg == "" {
		return u.Host
	}
	return seg
}

// File is the optional YAML sources file. Categories extend or replace the
// built-in table; aliases and whitelist feed the canonicalizer and the
// selection filter.
type File struct {
	Categories map[string][]SourceSpec `yaml:"categories"`
	Aliases    map[string]string       `yaml:"aliases"`
	Whitelist  []string                `yaml:"whitelist"`
}

// SourceSpec is one source in the YAML file. Name is optional; priority is
// list position.
type SourceSpec struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// UnmarshalYAML also accepts a bare URL string in place of the mapping form.
func (s *SourceSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.URL = node.Value
		return nil
	}
	type plain SourceSpec
	return node.Decode((*plain)(s))
}

// LoadFile parses a sources YAML file.
func LoadFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read sources file: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse sources file %s: %w", path, err)
	}
	for cat, specs := range f.Categories {
		for i, s := range specs {
			if strings.TrimSpace(s.URL) == "" {
				return f, fmt.Errorf("sources file %s: category %q entry %d has no url", path, cat, i+1)
			}
		}
	}
	return f, nil
}

// Resolve produces the final source list for a run. Explicit overrides win
// outright; otherwise the file's category definition shadows the built-in
// one. An empty category falls back to DefaultCategory.
func Resolve(category string, file File, overrides []playlist.Source) ([]playlist.Source, error) {
	if len(overrides) > 0 {
		out := make([]playlist.Source, len(overrides))
		copy(out, overrides)
		for i := range out {
			out[i].Priority = i
			if out[i].Name == "" {
				out[i].Name = nameFromURL(out[i].URL)
			}
		}
		return out, nil
	}

	if category == "" {
		category = DefaultCategory
	}
	if specs, ok := file.Categories[strings.ToLower(category)]; ok {
		srcs := make([]playlist.Source, 0, len(specs))
		for i, s := range specs {
			name := s.Name
			if name == "" {
				name = nameFromURL(s.URL)
			}
			srcs = append(srcs, playlist.Source{Name: name, URL: s.URL, Priority: i})
		}
		return srcs, nil
	}
	return ByCategory(category)
}
