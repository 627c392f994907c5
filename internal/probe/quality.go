package probe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
)

var (
	labelWxH   = regexp.MustCompile(`^(\d{3,4})\s*[x×]\s*(\d{3,4})$`)
	labelBareP = regexp.MustCompile(`^(\d{3,4})p?$`)
	declaredRE = regexp.MustCompile(`(?i)\b(\d{3,4})p\b|\b(fhd|uhd|fullhd|4k|8k|hd|sd)\b`)
)

// standardWidth holds the conventional 16:9 width per label height.
var standardWidth = map[int]int{
	2160: 3840, 1440: 2560, 1080: 1920, 720: 1280,
	576: 1024, 480: 854, 360: 640,
}

// ParseLabel turns a quality label into an estimated resolution for
// ranking. "1920x1080" reads literally; bare heights such as "1080p" or
// "720" get the conventional 16:9 width.
func ParseLabel(label string) (width, height int, ok bool) {
	s := strings.TrimSpace(strings.ToLower(label))
	if s == "" || s == "unknown" {
		return 0, 0, false
	}
	if m := labelWxH.FindStringSubmatch(s); m != nil {
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		return w, h, true
	}
	if m := labelBareP.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		return estimateWidth(h), h, true
	}
	switch s {
	case "uhd", "4k":
		return 3840, 2160, true
	case "fhd", "fullhd":
		return 1920, 1080, true
	case "hd":
		return 1280, 720, true
	case "sd":
		return 854, 480, true
	}
	return 0, 0, false
}

func estimateWidth(height int) int {
	if w, ok := standardWidth[height]; ok {
		return w
	}
	return height * 16 / 9
}

// BucketLabel maps a measured height onto the conventional label. Streams
// padded slightly above a standard height (1088-line MPEG-2, say) land in
// the standard bucket.
func BucketLabel(height int) string {
	switch {
	case height <= 0:
		return ""
	case height >= 2160:
		return "2160p"
	case height >= 1440:
		return "1440p"
	case height >= 1080:
		return "1080p"
	case height >= 720:
		return "720p"
	case height >= 576:
		return "576p"
	case height >= 480:
		return "480p"
	}
	return fmt.Sprintf("%dp", height)
}

// GuessLabelFromURL mines resolution hints out of the URL, the way provider
// CDNs encode variants ("/tf1-1080p/index.m3u8"). Substring matching keeps
// the same reach, and the same occasional false positive, as matching on
// the raw path segments would.
func GuessLabelFromURL(rawURL string) string {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "2160"), strings.Contains(u, "3840"), strings.Contains(u, "4k"):
		return "2160p"
	case strings.Contains(u, "1080"), strings.Contains(u, "1920"):
		return "1080p"
	case strings.Contains(u, "720"), strings.Contains(u, "1280"):
		return "720p"
	case strings.Contains(u, "480"):
		return "480p"
	}
	return ""
}

// DeclaredLabel extracts the quality a playlist claims for an entry from
// its own metadata. Used when nothing measured the stream.
func DeclaredLabel(e playlist.Entry) string {
	for _, s := range []string{e.DisplayName, e.RawEXTINF} {
		m := declaredRE.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if m[1] != "" {
			return m[1] + "p"
		}
		switch strings.ToLower(m[2]) {
		case "uhd", "4k":
			return "2160p"
		case "8k":
			return "4320p"
		case "fhd", "fullhd":
			return "1080p"
		case "hd":
			return "720p"
		case "sd":
			return "480p"
		}
	}
	return ""
}
