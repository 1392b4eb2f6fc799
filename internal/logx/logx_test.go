package logx

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestDiscardDropsEverything(t *testing.T) {
	d := Discard()
	// Must not panic regardless of args; there is nowhere for output to go.
	d.Debug("x")
	d.Info("y", "k", "v")
	d.Warn("z")
	d.Error("w", "k", 1, "unpaired")
}

func TestNewSlogWritesThroughHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{})
	log := NewSlog(handler)
	log.Info("hello world", "key", "value")
	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Fatalf("expected log output to contain the message, got %q", out)
	}
	if !strings.Contains(out, "value") {
		t.Fatalf("expected log output to contain the field value, got %q", out)
	}
}
