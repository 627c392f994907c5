package playlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/log"
)

// OutputItem is one channel slot in the cleaned playlist: the entry that won
// selection, the quality label probing settled on ("" when unknown), and the
// ordered fallback URLs kept in reserve.
type OutputItem struct {
	Entry        Entry
	QualityLabel string
	FallbackURLs []string
}

// Header carries the provenance written as comments at the top of generated
// playlists. Zero-value fields are omitted.
type Header struct {
	GeneratedAt time.Time
	RunID       string
	Version     string
}

// WriteM3U renders the cleaned playlist: an #EXTM3U banner, provenance
// comments, then one rebuilt EXTINF/URL pair per channel with the quality
// label appended to the display name. Entries are separated by a blank line.
func WriteM3U(w io.Writer, items []OutputItem, h Header) error {
	buf := &bytes.Buffer{}
	buf.WriteString("#EXTM3U\n")
	if !h.GeneratedAt.IsZero() {
		buf.WriteString("# Generated: " + h.GeneratedAt.UTC().Format(time.RFC3339))
		if h.RunID != "" {
			buf.WriteString(" (run " + h.RunID + ")")
		}
		buf.WriteString("\n")
	}
	if h.Version != "" {
		buf.WriteString("# Generator: tv-playlist-cleaner " + h.Version + "\n")
	}
	fmt.Fprintf(buf, "# Channels: %d\n", len(items))
	if qs := qualityLabels(items); len(qs) > 0 {
		buf.WriteString("# Qualities: " + strings.Join(qs, ", ") + "\n")
	}
	buf.WriteString("\n")

	for _, it := range items {
		buf.WriteString(formatEXTINF(it))
		buf.WriteString(it.Entry.URL + "\n\n")
	}
	_, err := io.Copy(w, buf)
	return err
}

func formatEXTINF(it OutputItem) string {
	var b strings.Builder
	b.WriteString("#EXTINF:-1")
	e := it.Entry
	writeAttr(&b, "tvg-id", e.TVGID)
	writeAttr(&b, "tvg-name", e.TVGName)
	writeAttr(&b, "tvg-logo", e.Logo)
	writeAttr(&b, "group-title", e.Group)
	b.WriteString(",")
	b.WriteString(e.DisplayName)
	if it.QualityLabel != "" {
		b.WriteString(" (" + it.QualityLabel + ")")
	}
	b.WriteString("\n")
	return b.String()
}

func writeAttr(b *strings.Builder, key, val string) {
	if val == "" {
		return
	}
	fmt.Fprintf(b, " %s=%q", key, val)
}

// qualityLabels returns the distinct known labels across items, sorted.
func qualityLabels(items []OutputItem) []string {
	seen := map[string]bool{}
	for _, it := range items {
		if it.QualityLabel != "" {
			seen[it.QualityLabel] = true
		}
	}
	out := make([]string, 0, len(seen))
	for q := range seen {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// WriteM3UFile writes the playlist to path atomically: content lands in a
// pending temp file and replaces the target only after a successful fsync,
// so a crash mid-write never leaves a truncated playlist behind.
func WriteM3UFile(path string, items []OutputItem, h Header) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending playlist file: %w", err)
	}
	defer cleanupPending(pending)

	if err := WriteM3U(pending, items, h); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace playlist file: %w", err)
	}
	return nil
}

// LineupItem is one channel in the machine-readable lineup written alongside
// the playlist. Field names follow the HDHomeRun lineup.json convention so
// DVR frontends can ingest the file directly.
type LineupItem struct {
	GuideNumber string   `json:"GuideNumber"`
	GuideName   string   `json:"GuideName"`
	URL         string   `json:"URL"`
	Quality     string   `json:"Quality,omitempty"`
	Source      string   `json:"Source,omitempty"`
	Fallbacks   []string `json:"Fallbacks,omitempty"`
}

// WriteLineupJSON writes the lineup for the cleaned playlist as a flat JSON
// array, atomically. Guide numbers are assigned from playlist order.
func WriteLineupJSON(path string, items []OutputItem) error {
	lineup := make([]LineupItem, 0, len(items))
	for i, it := range items {
		lineup = append(lineup, LineupItem{
			GuideNumber: strconv.Itoa(i + 1),
			GuideName:   it.Entry.DisplayName,
			URL:         it.Entry.URL,
			Quality:     it.QualityLabel,
			Source:      it.Entry.Source,
			Fallbacks:   it.FallbackURLs,
		})
	}
	return WriteJSONFile(path, lineup)
}

// WriteJSONFile writes v as indented JSON to path with the same atomic
// replace guarantees as WriteM3UFile.
func WriteJSONFile(path string, v any) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending JSON file: %w", err)
	}
	defer cleanupPending(pending)

	enc := json.NewEncoder(pending)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace JSON file: %w", err)
	}
	return nil
}

func cleanupPending(p *renameio.PendingFile) {
	// Cleanup is a no-op after a successful CloseAtomicallyReplace.
	if err := p.Cleanup(); err != nil {
		logger := log.WithComponent("writer")
		logger.Debug().Err(err).Msg("cleanup pending file")
	}
}

// SanitizeFilename reduces a caller-supplied playlist name to a safe local
// filename: directory components are stripped, traversal is rejected, and a
// .m3u extension is enforced when neither .m3u nor .m3u8 is present.
func SanitizeFilename(name string) (string, error) {
	if name == "" {
		return "playlist.m3u", nil
	}
	base := filepath.Base(name)
	if strings.Contains(base, "..") {
		return "", fmt.Errorf("invalid filename %q: contains traversal", name)
	}
	cleaned := filepath.Clean(base)
	if !filepath.IsLocal(cleaned) {
		return "", fmt.Errorf("invalid filename %q: not local", name)
	}
	if ext := filepath.Ext(cleaned); ext != ".m3u" && ext != ".m3u8" {
		cleaned += ".m3u"
	}
	return cleaned, nil
}
