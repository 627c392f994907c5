package safeurl

import (
	"net/url"
	"strings"
)

// IsHTTPOrHTTPS returns true if u is a valid URL with scheme http or https.
// Used to reject file://, ftp://, and other schemes that could lead to SSRF or local file access.
func IsHTTPOrHTTPS(u string) bool {
	s := Scheme(u)
	return s == "http" || s == "https"
}

// Scheme returns the lower-cased scheme of u, or "" when u does not parse or
// carries no scheme. Stream playlists routinely mix rtmp/rtsp/mms/udp URLs in
// with http ones; the probe layer uses this to classify them without dialing.
func Scheme(u string) string {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Scheme)
}
