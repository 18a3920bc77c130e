package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestTerminalHandlerWritesLevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(NewTerminalHandler(&buf, false))

	l.Info("peer connected", "peer", 7)

	out := buf.String()
	if !strings.Contains(out, "[INFO]") {
		t.Fatalf("expected INFO level in output, got %q", out)
	}
	if !strings.Contains(out, "peer connected") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "peer=7") {
		t.Fatalf("expected field in output, got %q", out)
	}
}

func TestWithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(NewTerminalHandler(&buf, false)).With("module", "relay")

	l.Warn("dropped message")

	out := buf.String()
	if !strings.Contains(out, "module=relay") {
		t.Fatalf("expected persistent field in output, got %q", out)
	}
	if !strings.Contains(out, "[WARN]") {
		t.Fatalf("expected WARN level, got %q", out)
	}
}
