package playlist

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

const maxLineSize = 1 << 20 // 1 MiB per line

// attrRE matches key="value" and bare key=value attribute forms inside an
// EXTINF metadata line.
var attrRE = regexp.MustCompile(`([\w-]+)=(?:"([^"]*?)"|([^\s,]+))`)

// ParseResult is the output of parsing one playlist document.
type ParseResult struct {
	Entries []Entry
	// Skipped counts malformed line pairs: metadata without a following
	// URL line, URL lines with no preceding metadata, and entries with an
	// empty display name. Never fatal.
	Skipped int
}

// Parse reads one extended-M3U document in a streaming fashion and returns
// the entries in document order. Entries are tagged with src and numbered
// from startIndex so multiple documents share one global ordering.
//
// Malformed pairs are counted and dropped; parsing only fails on reader
// errors (for example a line exceeding the 1 MiB bound).
func Parse(r io.Reader, src Source, startIndex int) (ParseResult, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, maxLineSize)

	var res ParseResult
	next := startIndex
	pending := "" // EXTINF line waiting for its URL

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			// Metadata pairs only with the immediately following URL
			// line; a blank line in that position orphans it.
			if pending != "" {
				res.Skipped++
				pending = ""
			}
			continue
		case strings.HasPrefix(line, "#EXTINF:"):
			if pending != "" {
				res.Skipped++ // metadata with no URL
			}
			pending = line
		case strings.HasPrefix(line, "#"):
			// Other directives and comments. A comment between a
			// pending EXTINF and its URL orphans the metadata.
			if pending != "" {
				res.Skipped++
				pending = ""
			}
		default:
			if pending == "" {
				res.Skipped++ // URL with no metadata
				continue
			}
			e := entryFromEXTINF(pending, line, src)
			pending = ""
			if e.DisplayName == "" {
				res.Skipped++
				continue
			}
			e.Index = next
			next++
			res.Entries = append(res.Entries, e)
		}
	}
	if pending != "" {
		res.Skipped++ // trailing metadata at EOF
	}
	if err := sc.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func entryFromEXTINF(extinf, url string, src Source) Entry {
	e := Entry{
		RawEXTINF:      extinf,
		URL:            url,
		Source:         src.Name,
		SourcePriority: src.Priority,
	}
	for _, m := range attrRE.FindAllStringSubmatch(extinf, -1) {
		val := m[2]
		if val == "" {
			val = m[3]
		}
		switch strings.ToLower(m[1]) {
		case "tvg-id":
			e.TVGID = val
		case "tvg-name":
			e.TVGName = val
		case "tvg-logo":
			e.Logo = val
		case "group-title":
			e.Group = val
		}
	}
	e.DisplayName = displayName(extinf, e.TVGName)
	return e
}

// displayName prefers the tvg-name attribute, falling back to the text after
// the last comma of the EXTINF line.
func displayName(extinf, tvgName string) string {
	if tvgName != "" {
		return strings.TrimSpace(tvgName)
	}
	if i := strings.LastIndex(extinf, ","); i >= 0 {
		return strings.TrimSpace(extinf[i+1:])
	}
	return ""
}
