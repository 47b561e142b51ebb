package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTextHandlerLiftsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTextHandler(&buf, slog.LevelDebug))
	logger = NewComponentLogger(logger, "resolver")

	logger.Info("chose title", String("title", "Armageddon"), Float64("confidence", 0.83))

	line := buf.String()
	if !strings.Contains(line, "INFO resolver: chose title") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "title=Armageddon") || !strings.Contains(line, "confidence=0.83") {
		t.Fatalf("missing attrs: %q", line)
	}
}

func TestTextHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTextHandler(&buf, slog.LevelInfo))

	logger.Info("scan", String("label", "REMEMBER THE TITANS"), Duration("took", 1500*time.Millisecond))

	line := buf.String()
	if !strings.Contains(line, `label="REMEMBER THE TITANS"`) {
		t.Fatalf("expected quoted label: %q", line)
	}
	if !strings.Contains(line, "took=1.5s") {
		t.Fatalf("expected duration formatting: %q", line)
	}
}

func TestTextHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTextHandler(&buf, slog.LevelInfo))

	logger.Debug("hidden")
	if handler := logger.Handler(); handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled at info level")
	}
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("info line missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDropsEverything(t *testing.T) {
	logger := NewNop()
	if logger.Handler().Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop handler should report disabled")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
