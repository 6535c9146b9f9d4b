package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/paperdraft/internal/pipeline"
)

func TestCommandAvailability(t *testing.T) {
	empty := newTestModel(t, false)
	if empty.commandAvailable(actionImprove) || empty.commandAvailable(actionEdit) || empty.commandAvailable(actionExportMarkdown) {
		t.Fatal("paper commands should be unavailable without a paper")
	}
	if !empty.commandAvailable(actionNewPaper) || !empty.commandAvailable(actionOptions) {
		t.Fatal("new paper and options should always be available when idle")
	}

	m := newTestModel(t, true)
	for _, id := range []action{actionEdit, actionRestore, actionDelete, actionImprove, actionReview, actionClear, actionComment} {
		if !m.commandAvailable(id) {
			t.Fatalf("action %d should be available on an idle paper", id)
		}
	}
	if m.commandAvailable(actionResume) {
		t.Fatal("resume needs an undrafted section")
	}

	m.running = jobKindEdit
	for _, id := range []action{actionEdit, actionImprove, actionReview, actionClear, actionNewPaper} {
		if m.commandAvailable(id) {
			t.Fatalf("action %d should wait for the running job", id)
		}
	}
	if !m.commandAvailable(actionComment) || !m.commandAvailable(actionExportMarkdown) {
		t.Fatal("comments and export stay available while a job runs")
	}
}

func TestRunActionWhileBusyExplains(t *testing.T) {
	m := newTestModel(t, true)
	m.running = jobKindDraft
	if cmd := m.runAction(actionImprove); cmd != nil {
		t.Fatal("no command expected while busy")
	}
	if !strings.Contains(m.infoMessage, "draft") {
		t.Fatalf("info = %q", m.infoMessage)
	}
}

func TestFilterPalette(t *testing.T) {
	empty := newTestModel(t, false)
	empty.filterPalette("")
	for _, cmd := range empty.paletteMatches {
		if cmd.id == actionImprove || cmd.id == actionExportHTML {
			t.Fatalf("%q listed without a paper", cmd.title)
		}
	}

	m := newTestModel(t, true)
	m.filterPalette("export")
	if len(m.paletteMatches) != 2 {
		t.Fatalf("export matches = %+v", m.paletteMatches)
	}
	m.filterPalette("nothing like this")
	if len(m.paletteMatches) != 0 {
		t.Fatalf("unexpected matches %+v", m.paletteMatches)
	}
}

func TestPaletteRunsSelectedCommand(t *testing.T) {
	m := newTestModel(t, true)
	press(t, m, "ctrl+k")
	if m.stage != stagePalette {
		t.Fatalf("stage = %v", m.stage)
	}
	m.filterPalette("cheatsheet")
	press(t, m, "enter")
	if m.stage != stageDisplay || !m.helpVisible {
		t.Fatalf("stage = %v, help = %v", m.stage, m.helpVisible)
	}
}

func TestExportJobWritesFile(t *testing.T) {
	m := newTestModel(t, true)
	dir := t.TempDir()
	msg, err := exportJob(m.config.Session, dir, false)(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	result := msg.(exportResultMsg)
	if result.path != filepath.Join(dir, "widgets_at_scale.md") {
		t.Fatalf("path = %q", result.path)
	}
	body, err := os.ReadFile(result.path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(body), "Widgets at Scale") {
		t.Fatalf("export body = %q", body)
	}

	msg, err = exportJob(m.config.Session, dir, true)(context.Background())
	if err != nil {
		t.Fatalf("html export: %v", err)
	}
	if path := msg.(exportResultMsg).path; !strings.HasSuffix(path, ".html") {
		t.Fatalf("html path = %q", path)
	}
}

func TestClearReturnsToURLEntry(t *testing.T) {
	m := newTestModel(t, true)
	m.runAction(actionClear)
	if m.paper != nil {
		t.Fatal("paper should be cleared")
	}
	if m.stage != stageInput || m.composerMode != composerModeURL {
		t.Fatalf("stage = %v, composer = %v", m.stage, m.composerMode)
	}
}

func TestJobBusStatuses(t *testing.T) {
	bus := newJobBus(nil)
	snapshot := jobSnapshot{ID: "edit-1", Kind: jobKindEdit, Status: jobStatusRunning}

	cases := []struct {
		err  error
		want jobStatus
	}{
		{nil, jobStatusSucceeded},
		{pipeline.ErrCancelled, jobStatusCancelled},
		{errors.New("boom"), jobStatusFailed},
	}
	for _, tc := range cases {
		env := bus.execute(context.Background(), snapshot, func(context.Context) (tea.Msg, error) {
			return "payload", tc.err
		})
		if env.Snapshot.Status != tc.want {
			t.Fatalf("err %v: status = %q, want %q", tc.err, env.Snapshot.Status, tc.want)
		}
		if env.Payload != "payload" {
			t.Fatalf("payload = %v", env.Payload)
		}
		if tc.want == jobStatusFailed && env.Snapshot.Err != "boom" {
			t.Fatalf("err text = %q", env.Snapshot.Err)
		}
	}
}

func TestListenReportsClosedChannel(t *testing.T) {
	ch := make(chan tea.Msg, 1)
	ch <- editTokenMsg{token: "x"}
	close(ch)
	first := listen(ch)()
	relay, ok := first.(relayMsg)
	if !ok || relay.msg.(editTokenMsg).token != "x" {
		t.Fatalf("first = %#v", first)
	}
	if _, ok := listen(ch)().(relayClosedMsg); !ok {
		t.Fatal("closed channel should report relayClosedMsg")
	}
}
