package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONEvent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Format: "json", Output: &buf})

	log.Event("ENTITY_TAGGED", "P1", "wolf tagged")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if rec["type"] != "ENTITY_TAGGED" || rec["actor"] != "P1" {
		t.Errorf("Unexpected record %v", rec)
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Output: &buf})

	log.Info("hidden")
	log.Warn("shown", "entity", "wolf-1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info must be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "entity=wolf-1") {
		t.Errorf("Expected warn line with attributes, got %q", out)
	}
}
