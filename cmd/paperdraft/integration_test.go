package main

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/csheth/paperdraft/internal/config"
	"github.com/csheth/paperdraft/internal/paper"
	"github.com/csheth/paperdraft/internal/store"
	"github.com/csheth/paperdraft/internal/tuitest"
)

func TestEmptySessionAsksForRepository(t *testing.T) {
	if testing.Short() || runtime.GOOS == "windows" {
		t.Skip("pty integration test")
	}
	binary := buildBinary(t)
	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "--no-alt-screen", "--data-dir", t.TempDir()},
		Steps: []tuitest.Step{
			{WaitFor: "Start from a repository"},
			{Delay: 200 * time.Millisecond, Input: tuitest.KeyCtrlC},
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"Repository", "Session Log"} {
		if !rec.Contains(want) {
			t.Fatalf("output missing %q", want)
		}
	}
}

func TestSavedPaperOpensWithCheatsheet(t *testing.T) {
	if testing.Short() || runtime.GOOS == "windows" {
		t.Skip("pty integration test")
	}
	dir := t.TempDir()
	seedPaper(t, dir)
	binary := buildBinary(t)
	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "--no-alt-screen", "--data-dir", dir},
		Height:  48,
		Steps: []tuitest.Step{
			{WaitFor: "Widgets at Scale"},
			{Input: []byte("?")},
			{WaitFor: "Navigation Cheatsheet"},
			{Input: []byte("q")},
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !rec.Contains("Introduction") {
		t.Fatal("section headers missing")
	}
}

func seedPaper(t *testing.T, dir string) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(dir, config.DBName))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	p := paper.New("https://github.com/acme/widgets")
	for _, name := range paper.Order {
		p.Sections[name].Content = name.String() + " text."
	}
	p.Sections[paper.Title].Content = "Widgets at Scale"
	if err := store.SavePaper(context.Background(), st, p); err != nil {
		t.Fatalf("seed paper: %v", err)
	}
}

func buildBinary(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime caller unavailable")
	}
	bin := filepath.Join(t.TempDir(), "paperdraft")
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Dir(file)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build: %v\n%s", err, output)
	}
	return bin
}
