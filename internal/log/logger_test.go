package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfigureOnceAndComponentField(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Format: "json", Output: &buf, Service: "test"})
	// Second Configure must not rebind the writer.
	Configure(Config{Format: "json", Output: &bytes.Buffer{}, Service: "other"})

	logger := WithComponent("probe")
	logger.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"probe"`) {
		t.Fatalf("missing component field: %s", out)
	}
	if !strings.Contains(out, `"service":"test"`) {
		t.Fatalf("first Configure should win: %s", out)
	}
}
