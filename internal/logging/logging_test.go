package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFileAndStderr(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer
	logger, err := New(Options{Dir: dir, Verbose: true, Stderr: &stderr})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("drafted section", "section", "Abstract")
	logger.Debug("hidden at info level")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, out := range []string{string(data), stderr.String()} {
		if !strings.Contains(out, "drafted section") || !strings.Contains(out, "section=Abstract") {
			t.Fatalf("expected record in output, got %q", out)
		}
		if strings.Contains(out, "hidden at info level") {
			t.Fatalf("expected debug record filtered, got %q", out)
		}
	}
}

func TestNewWithoutHandlersDiscards(t *testing.T) {
	logger, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("nowhere")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("%q: expected %v, got %v", input, want, got)
		}
	}
}

func TestToJournalKey(t *testing.T) {
	if got := toJournalKey("section.name-1"); got != "SECTION_NAME_1" {
		t.Fatalf("unexpected journal key %q", got)
	}
}
