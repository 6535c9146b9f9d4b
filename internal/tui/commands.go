package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/paperdraft/internal/history"
	"github.com/csheth/paperdraft/internal/paper"
	"github.com/csheth/paperdraft/internal/pipeline"
	"github.com/csheth/paperdraft/internal/session"
)

func draftJob(s *session.Session, repoURL string, updates chan<- tea.Msg) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		defer close(updates)
		progress := func(ev pipeline.DraftEvent) {
			updates <- draftProgressMsg{event: ev}
		}
		var err error
		if repoURL == "" {
			err = s.Resume(ctx, progress)
		} else {
			err = s.Start(ctx, repoURL, progress)
		}
		return draftResultMsg{err: err}, err
	}
}

func editJob(s *session.Session, addr history.Address, opts paper.EditingOptions, tokens chan<- tea.Msg) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		defer close(tokens)
		result, err := s.EditParagraph(ctx, addr, opts, func(token string) {
			tokens <- editTokenMsg{address: addr, token: token}
		})
		return editResultMsg{result: result, err: err}, err
	}
}

func improveJob(s *session.Session, opts paper.EditingOptions) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		result, err := s.Improve(ctx, opts)
		return improveResultMsg{result: result, err: err}, err
	}
}

func reviewJob(s *session.Session, name paper.SectionName, opts paper.EditingOptions) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		result, err := s.Review(ctx, name, opts)
		return reviewResultMsg{result: result, err: err}, err
	}
}

func exportJob(s *session.Session, dir string, html bool) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		name, body, err := s.Export(html)
		if err != nil {
			return exportResultMsg{err: err}, err
		}
		if dir == "" {
			dir = "."
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			err = fmt.Errorf("write export: %w", err)
			return exportResultMsg{err: err}, err
		}
		return exportResultMsg{path: path}, nil
	}
}

type action int

const (
	actionEdit action = iota
	actionRestore
	actionDelete
	actionComment
	actionOptions
	actionImprove
	actionReview
	actionResume
	actionNewPaper
	actionExportMarkdown
	actionExportHTML
	actionClear
	actionSearch
	actionToggleHelp
)

type paletteCommand struct {
	id          action
	title       string
	shortcut    string
	description string
}

var paletteCommands = []paletteCommand{
	{actionEdit, "Edit paragraph", "enter", "Stream a rewrite of the highlighted paragraph."},
	{actionRestore, "Restore paragraph", "u", "Swap the paragraph with its pre-edit text."},
	{actionDelete, "Delete paragraph", "D", "Remove the highlighted paragraph (press twice)."},
	{actionComment, "Comment on section", "c", "Add a researcher comment to the current section."},
	{actionOptions, "Editing options", "o", "Choose the criteria the editor focuses on."},
	{actionImprove, "Improve paper", "I", "Let the model pick one section and rewrite it."},
	{actionReview, "Review section", "R", "Rewrite the current section and collect review comments."},
	{actionResume, "Resume drafting", "r", "Draft the sections that are still empty."},
	{actionNewPaper, "New paper", "p", "Start over from another repository."},
	{actionExportMarkdown, "Export markdown", "x", "Write the paper as a markdown file."},
	{actionExportHTML, "Export HTML", "X", "Write the paper as an HTML fragment."},
	{actionClear, "Clear paper", "", "Discard the paper and its saved state."},
	{actionSearch, "Search", "/", "Search the rendered paper."},
	{actionToggleHelp, "Toggle cheatsheet", "?", "Show or hide the key legend."},
}

func (m *model) commandAvailable(id action) bool {
	hasPaper := m.paper != nil
	idle := m.running == ""
	switch id {
	case actionEdit, actionRestore, actionDelete:
		_, ok := m.currentAddress()
		return ok && idle
	case actionComment, actionSearch, actionExportMarkdown, actionExportHTML:
		return hasPaper
	case actionImprove, actionReview, actionClear:
		return hasPaper && idle
	case actionResume:
		return hasPaper && idle && m.paper.Drafted() < len(paper.Order)
	case actionOptions, actionToggleHelp:
		return true
	case actionNewPaper:
		return idle
	default:
		return false
	}
}

func (m *model) filterPalette(query string) {
	query = strings.ToLower(strings.TrimSpace(query))
	m.paletteMatches = m.paletteMatches[:0]
	for _, cmd := range paletteCommands {
		if !m.commandAvailable(cmd.id) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(cmd.title+" "+cmd.description), query) {
			continue
		}
		m.paletteMatches = append(m.paletteMatches, cmd)
	}
	if m.paletteCursor >= len(m.paletteMatches) {
		m.paletteCursor = 0
	}
}

func (m *model) runAction(id action) tea.Cmd {
	if !m.commandAvailable(id) {
		if m.running != "" {
			m.infoMessage = fmt.Sprintf("Wait for the %s job to finish or press Esc to cancel it.", m.running)
		} else {
			m.infoMessage = "That command is not available right now."
		}
		return nil
	}
	if id != actionDelete {
		m.pendingDelete = false
	}
	switch id {
	case actionEdit:
		return m.actionEditCmd()
	case actionRestore:
		m.actionRestore()
	case actionDelete:
		m.actionDelete()
	case actionComment:
		return m.startCommentEntry()
	case actionOptions:
		m.openOptions()
	case actionImprove:
		return m.startJob(jobKindImprove, improveJob(m.config.Session, m.opts), "Running global improvement…")
	case actionReview:
		name := m.cursor.Section
		return m.startJob(jobKindReview, reviewJob(m.config.Session, name, m.opts), fmt.Sprintf("Reviewing %s…", name))
	case actionResume:
		return m.startDraft("")
	case actionNewPaper:
		if m.paper != nil {
			m.openSavePrompt()
			return nil
		}
		m.startURLEntry()
	case actionExportMarkdown:
		return m.startJob(jobKindExport, exportJob(m.config.Session, m.config.ExportDir, false), "Exporting markdown…")
	case actionExportHTML:
		return m.startJob(jobKindExport, exportJob(m.config.Session, m.config.ExportDir, true), "Exporting HTML…")
	case actionClear:
		m.actionClear()
	case actionSearch:
		m.stage = stageSearch
		m.searchInput.SetValue(m.searchQuery)
		return m.searchInput.Focus()
	case actionToggleHelp:
		m.actionToggleHelpCmd()
	}
	return nil
}

func (m *model) startJob(kind jobKind, runner jobRunner, message string) tea.Cmd {
	cmd, cancel := m.jobs.Start(kind, runner)
	m.running = kind
	m.cancel = cancel
	m.errorMessage = ""
	m.infoMessage = message
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *model) startDraft(repoURL string) tea.Cmd {
	updates := make(chan tea.Msg, 16)
	message := "Fetching repository contents…"
	if repoURL == "" {
		message = "Resuming draft…"
	}
	cmd := m.startJob(jobKindDraft, draftJob(m.config.Session, repoURL, updates), message)
	return tea.Batch(cmd, listen(updates))
}

func (m *model) actionEditCmd() tea.Cmd {
	addr, _ := m.currentAddress()
	tokens := make(chan tea.Msg, 64)
	m.streaming = &addr
	m.streamBuffer.Reset()
	m.markViewportDirty()
	cmd := m.startJob(jobKindEdit, editJob(m.config.Session, addr, m.opts, tokens),
		fmt.Sprintf("Editing %s paragraph %d… Esc cancels.", addr.Section, addr.Index+1))
	return tea.Batch(cmd, listen(tokens))
}

func (m *model) actionRestore() {
	addr, _ := m.currentAddress()
	result, err := m.config.Session.Restore(context.Background(), addr)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.errorMessage = ""
	m.infoMessage = m.config.Session.Status()
	m.appendTranscript("restore", fmt.Sprintf("%s paragraph %d restored: %s", addr.Section, addr.Index+1, previewText(result.After, 80)))
	m.reloadPaper()
}

func (m *model) actionDelete() {
	addr, _ := m.currentAddress()
	if !m.pendingDelete {
		m.pendingDelete = true
		m.infoMessage = fmt.Sprintf("Press D again to delete %s paragraph %d.", addr.Section, addr.Index+1)
		return
	}
	m.pendingDelete = false
	removed, err := m.config.Session.DeleteParagraph(context.Background(), addr)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.errorMessage = ""
	m.infoMessage = m.config.Session.Status()
	m.appendTranscript("delete", fmt.Sprintf("%s paragraph %d deleted: %s", addr.Section, addr.Index+1, previewText(removed, 80)))
	m.reloadPaper()
}

func (m *model) actionClear() {
	if err := m.config.Session.Clear(context.Background()); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.appendTranscript("system", "Paper cleared.")
	m.reloadPaper()
	m.startURLEntry()
}

func (m *model) actionToggleHelpCmd() tea.Cmd {
	m.helpVisible = !m.helpVisible
	if m.helpVisible {
		m.infoMessage = "Cheatsheet open. Press ? to hide."
	} else {
		m.infoMessage = "Cheatsheet hidden."
	}
	return nil
}
