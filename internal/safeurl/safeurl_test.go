package safeurl

import "testing"

func TestIsHTTPOrHTTPS(t *testing.T) {
	tests := []struct {
		url   string
		allow bool
	}{
		{"http://example.com/", true},
		{"https://example.com/path", true},
		{"HTTP://x", true},
		{"HTTPS://x", true},
		{"file:///etc/passwd", false},
		{"ftp://example.com", false},
		{"rtmp://example.com/live", false},
		{"", false},
		{"not-a-url", false},
		{"javascript:alert(1)", false},
	}
	for _, tt := range tests {
		got := IsHTTPOrHTTPS(tt.url)
		if got != tt.allow {
			t.Errorf("IsHTTPOrHTTPS(%q) = %v, want %v", tt.url, got, tt.allow)
		}
	}
}

func TestScheme(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com", "http"},
		{"RTSP://cam.local/stream", "rtsp"},
		{"udp://239.0.0.1:1234", "udp"},
		{" https://padded.example ", "https"},
		{"no-scheme-here", ""},
		{"://broken", ""},
	}
	for _, tt := range tests {
		if got := Scheme(tt.url); got != tt.want {
			t.Errorf("Scheme(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
