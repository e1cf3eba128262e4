package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(&buf, Options{Format: "json", Level: "warn"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer closeFn()
	logger.Info("hidden")
	logger.Warn("shown", "rows", 3)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["msg"] != "shown" || rec["rows"] != float64(3) {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestDebugOverridesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(&buf, Options{Level: "error", Debug: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Debug("trace")
	if !strings.Contains(buf.String(), "msg=trace") {
		t.Fatalf("debug record missing: %q", buf.String())
	}
}

func TestMultiHandlerRespectsEachLevel(t *testing.T) {
	var quiet, loud bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&loud, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected enabled when any handler is")
	}
	slog.New(h).With("op", "summary").Info("dispatched")
	if quiet.Len() != 0 || !strings.Contains(loud.String(), "op=summary") {
		t.Fatalf("quiet=%q loud=%q", quiet.String(), loud.String())
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, _, err := New(&bytes.Buffer{}, Options{Format: "xml"}); err == nil {
		t.Fatal("expected error")
	}
}
