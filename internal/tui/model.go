package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/paperdraft/internal/history"
	"github.com/csheth/paperdraft/internal/logging"
	"github.com/csheth/paperdraft/internal/paper"
	"github.com/csheth/paperdraft/internal/pipeline"
	"github.com/csheth/paperdraft/internal/session"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Session   *session.Session
	Options   paper.EditingOptions
	ExportDir string
	Logger    *slog.Logger
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	urlInput := textinput.New()
	urlInput.Placeholder = composerURLPlaceholder
	urlInput.CharLimit = 200
	urlInput.Width = 70

	commentInput := textarea.New()
	commentInput.Placeholder = composerCommentPlaceholder
	commentInput.ShowLineNumbers = false
	commentInput.CharLimit = 2000
	commentInput.SetWidth(70)
	commentInput.SetHeight(3)

	customInput := textinput.New()
	customInput.Placeholder = "Optional instruction, e.g. shorten to two sentences"
	customInput.CharLimit = 280
	customInput.Width = 60

	searchInput := textinput.New()
	searchInput.Placeholder = "Search within the paper…"
	searchInput.CharLimit = 120
	searchInput.Width = 60

	paletteInput := textinput.New()
	paletteInput.Placeholder = "Type to filter commands…"
	paletteInput.CharLimit = 60
	paletteInput.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true
	logView := viewport.New(80, 6)

	logger := config.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	m := &model{
		config:             config,
		stage:              stageDisplay,
		layout:             newPageLayout(),
		urlInput:           urlInput,
		commentInput:       commentInput,
		customInput:        customInput,
		searchInput:        searchInput,
		paletteInput:       paletteInput,
		spinner:            spin,
		viewport:           vp,
		transcriptViewport: logView,
		jobs:               newJobBus(logger),
		opts:               config.Options,
		drafting:           -1,
		searchMatchIdx:     -1,
		viewportDirty:      true,
		transcriptDirty:    true,
	}
	if config.Session != nil {
		m.reloadPaper()
	}
	if m.paper == nil {
		m.startURLEntry()
	} else {
		m.infoMessage = fmt.Sprintf("Loaded %s. Press ? for keys.", m.paper.TitleText())
	}
	return m
}

type model struct {
	config Config
	stage  stage
	layout pageLayout

	urlInput           textinput.Model
	commentInput       textarea.Model
	customInput        textinput.Model
	searchInput        textinput.Model
	paletteInput       textinput.Model
	composerMode       composerMode
	spinner            spinner.Model
	viewport           viewport.Model
	transcriptViewport viewport.Model

	jobs     *jobBus
	running  jobKind
	cancel   context.CancelFunc
	lastJobs map[jobKind]jobSnapshot

	paper         *paper.Paper
	opts          paper.EditingOptions
	cursor        history.Address
	optionCursor  int
	drafting      paper.SectionName
	streaming     *history.Address
	streamBuffer  strings.Builder
	pendingDelete bool
	// newAfterExport opens the repository prompt once the running export
	// succeeds.
	newAfterExport bool

	paragraphSpans    map[history.Address]lineSpan
	sectionAnchors    map[paper.SectionName]int
	lineCount         int
	viewportDirty     bool
	transcriptEntries []transcriptEntry
	transcriptDirty   bool

	searchQuery    string
	searchMatches  []matchRange
	searchMatchIdx int

	paletteMatches []paletteCommand
	paletteCursor  int

	infoMessage  string
	errorMessage string
	helpVisible  bool
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.running == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.streaming != nil || m.running == jobKindDraft {
			m.markViewportDirty()
		}
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.transcriptViewport.Width = m.layout.viewportWidth
		m.transcriptViewport.Height = m.layout.logHeight
		m.commentInput.SetWidth(m.layout.viewportWidth)
		m.markViewportDirty()
		m.transcriptDirty = true
		return m, nil
	case jobSignalMsg:
		m.recordJob(msg.Snapshot)
		return m, nil
	case jobResultEnvelope:
		return m, m.handleJobResult(msg)
	case relayMsg:
		m.handleRelay(msg.msg)
		return m, listen(msg.ch)
	case relayClosedMsg:
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	}
	if cmd, handled := m.processComposerKey(key); handled {
		return m, cmd
	}
	switch m.stage {
	case stageOptions:
		return m, m.handleOptionsKey(key)
	case stageSearch:
		return m, m.handleSearchKey(key)
	case stagePalette:
		return m, m.handlePaletteKey(key)
	case stageConfirmNew:
		return m, m.handleConfirmNewKey(key)
	case stageInput:
		if key.Type == tea.KeyEsc && m.cancel != nil {
			m.cancel()
			m.infoMessage = "Cancelling…"
		}
		return m, nil
	default:
		return m.handleDisplayKey(key)
	}
}

// processComposerKey routes keys to the focused composer. handled is false
// when no composer has focus.
func (m *model) processComposerKey(key tea.KeyMsg) (tea.Cmd, bool) {
	switch m.composerMode {
	case composerModeURL:
		if !m.urlInput.Focused() {
			return nil, false
		}
		switch key.Type {
		case tea.KeyEsc:
			m.urlInput.SetValue("")
			if m.paper != nil {
				m.urlInput.Blur()
				m.composerMode = composerModeIdle
				m.stage = stageDisplay
				m.infoMessage = "New paper cancelled."
			}
			return nil, true
		case tea.KeyEnter:
			value := strings.TrimSpace(m.urlInput.Value())
			if value == "" {
				m.errorMessage = "Enter a GitHub repository URL or owner/repo."
				return nil, true
			}
			if m.running != "" {
				m.errorMessage = fmt.Sprintf("Wait for the %s job to finish.", m.running)
				return nil, true
			}
			m.urlInput.SetValue("")
			m.urlInput.Blur()
			m.composerMode = composerModeIdle
			m.stage = stageInput
			m.cursor = history.Address{Section: paper.Title}
			m.appendTranscript("system", "Starting a paper for "+value)
			return m.startDraft(value), true
		}
		var cmd tea.Cmd
		m.urlInput, cmd = m.urlInput.Update(key)
		return cmd, true
	case composerModeComment:
		if !m.commentInput.Focused() {
			return nil, false
		}
		switch key.String() {
		case "esc":
			m.commentInput.Reset()
			m.commentInput.Blur()
			m.composerMode = composerModeIdle
			m.infoMessage = "Comment discarded."
			return nil, true
		case "ctrl+s":
			m.submitComment()
			return nil, true
		}
		var cmd tea.Cmd
		m.commentInput, cmd = m.commentInput.Update(key)
		return cmd, true
	}
	return nil, false
}

func (m *model) handleDisplayKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyName := key.String()
	if keyName != "D" {
		m.pendingDelete = false
	}
	switch keyName {
	case "esc":
		switch {
		case m.cancel != nil:
			m.cancel()
			m.infoMessage = "Cancelling…"
		case m.searchQuery != "":
			m.clearSearch()
			m.infoMessage = "Search cleared."
		case m.helpVisible:
			m.helpVisible = false
		}
		return m, nil
	case "q":
		if m.running == "" {
			return m, tea.Quit
		}
		m.infoMessage = "A job is running. Press Esc to cancel it first, or Ctrl+C to quit."
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "]":
		m.jumpToRelativeSection(1)
	case "[":
		m.jumpToRelativeSection(-1)
	case "g":
		m.moveCursor(-len(m.slots()))
	case "G":
		m.moveCursor(len(m.slots()))
	case "n":
		m.advanceSearch(1)
	case "N":
		m.advanceSearch(-1)
	case "enter", "e":
		return m, m.runAction(actionEdit)
	case "u":
		return m, m.runAction(actionRestore)
	case "D":
		return m, m.runAction(actionDelete)
	case "c":
		return m, m.runAction(actionComment)
	case "o":
		return m, m.runAction(actionOptions)
	case "I":
		return m, m.runAction(actionImprove)
	case "R":
		return m, m.runAction(actionReview)
	case "r":
		return m, m.runAction(actionResume)
	case "p":
		return m, m.runAction(actionNewPaper)
	case "x":
		return m, m.runAction(actionExportMarkdown)
	case "X":
		return m, m.runAction(actionExportHTML)
	case "/":
		return m, m.runAction(actionSearch)
	case "?":
		return m, m.runAction(actionToggleHelp)
	case "ctrl+k":
		m.openPalette()
		return m, m.paletteInput.Focus()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleOptionsKey(key tea.KeyMsg) tea.Cmd {
	rows := len(paper.Criteria) + 2
	if m.customInput.Focused() {
		switch key.Type {
		case tea.KeyEnter, tea.KeyEsc:
			if key.Type == tea.KeyEnter {
				m.opts.CustomInstruction = strings.TrimSpace(m.customInput.Value())
			} else {
				m.customInput.SetValue(m.opts.CustomInstruction)
			}
			m.customInput.Blur()
			return nil
		}
		var cmd tea.Cmd
		m.customInput, cmd = m.customInput.Update(key)
		return cmd
	}
	switch key.String() {
	case "esc", "o", "q":
		m.stage = stageDisplay
		m.infoMessage = "Instruction: " + pipeline.Instruction(m.opts)
	case "up", "k":
		if m.optionCursor > 0 {
			m.optionCursor--
		}
	case "down", "j":
		if m.optionCursor < rows-1 {
			m.optionCursor++
		}
	case " ", "enter":
		m.toggleOption(m.optionCursor)
		if m.optionCursor == rows-1 {
			m.customInput.SetValue(m.opts.CustomInstruction)
			return m.customInput.Focus()
		}
	case "a":
		m.opts.All = !m.opts.All
	}
	return nil
}

// toggleOption flips row: one row per criterion, then "All", then the
// custom instruction row, which toggling leaves alone.
func (m *model) toggleOption(row int) {
	switch {
	case row < len(paper.Criteria):
		paper.Criteria[row].Toggle(&m.opts)
	case row == len(paper.Criteria):
		m.opts.All = !m.opts.All
	}
}

func (m *model) handleSearchKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc:
		m.stage = stageDisplay
		m.searchInput.Blur()
		return nil
	case tea.KeyEnter:
		m.stage = stageDisplay
		m.searchInput.Blur()
		m.applySearch(strings.TrimSpace(m.searchInput.Value()))
		return nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(key)
	return cmd
}

func (m *model) handlePaletteKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc:
		m.closePalette()
		return nil
	case tea.KeyUp:
		if m.paletteCursor > 0 {
			m.paletteCursor--
		}
		return nil
	case tea.KeyDown:
		if m.paletteCursor < len(m.paletteMatches)-1 {
			m.paletteCursor++
		}
		return nil
	case tea.KeyEnter:
		if len(m.paletteMatches) == 0 {
			return nil
		}
		selected := m.paletteMatches[m.paletteCursor].id
		m.closePalette()
		return m.runAction(selected)
	}
	var cmd tea.Cmd
	m.paletteInput, cmd = m.paletteInput.Update(key)
	m.filterPalette(m.paletteInput.Value())
	return cmd
}

func (m *model) openPalette() {
	m.stage = stagePalette
	m.paletteInput.SetValue("")
	m.paletteCursor = 0
	m.filterPalette("")
}

func (m *model) closePalette() {
	m.paletteInput.Blur()
	m.stage = stageDisplay
}

func (m *model) openOptions() {
	m.stage = stageOptions
	m.optionCursor = 0
	m.infoMessage = "Space toggles, a toggles All, Esc closes."
}

// openSavePrompt asks whether to export the current paper before it is
// replaced by a new one.
func (m *model) openSavePrompt() {
	m.stage = stageConfirmNew
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Starting a new paper replaces %s.", m.paper.TitleText())
}

func (m *model) handleConfirmNewKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "s", "enter":
		m.stage = stageDisplay
		m.newAfterExport = true
		return m.startJob(jobKindExport, exportJob(m.config.Session, m.config.ExportDir, false), "Saving before starting a new paper…")
	case "d":
		m.startURLEntry()
	case "esc", "c", "q":
		m.stage = stageDisplay
		m.infoMessage = "New paper cancelled."
	}
	return nil
}

func (m *model) startURLEntry() {
	m.composerMode = composerModeURL
	m.stage = stageInput
	m.urlInput.SetValue("")
	m.urlInput.Focus()
	m.errorMessage = ""
	m.infoMessage = "Paste a GitHub repository to draft a paper from it."
}

func (m *model) startCommentEntry() tea.Cmd {
	m.composerMode = composerModeComment
	m.commentInput.Reset()
	m.infoMessage = fmt.Sprintf("Commenting on %s.", m.cursor.Section)
	return m.commentInput.Focus()
}

func (m *model) submitComment() {
	text := strings.TrimSpace(m.commentInput.Value())
	if text == "" {
		m.errorMessage = "Comment is empty. Esc discards it."
		return
	}
	name := m.cursor.Section
	if _, err := m.config.Session.AddComment(context.Background(), name, text); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.commentInput.Reset()
	m.commentInput.Blur()
	m.composerMode = composerModeIdle
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Comment added to %s.", name)
	m.appendTranscript("comment", fmt.Sprintf("%s: %s", name, text))
	m.reloadPaper()
}

func (m *model) handleRelay(msg tea.Msg) {
	switch msg := msg.(type) {
	case draftProgressMsg:
		ev := msg.event
		switch ev.Kind {
		case pipeline.DraftStarted:
			m.drafting = ev.Section
			m.infoMessage = fmt.Sprintf("Drafting: %s…", ev.Section)
		case pipeline.DraftCompleted:
			m.appendTranscript("draft", fmt.Sprintf("%s drafted (%d chars).", ev.Section, len(ev.Content)))
		}
		m.reloadPaper()
		if m.stage == stageInput && m.paper != nil {
			m.stage = stageDisplay
		}
	case editTokenMsg:
		if m.streaming == nil || *m.streaming != msg.address {
			return
		}
		m.streamBuffer.WriteString(msg.token)
		m.markViewportDirty()
	}
}

func (m *model) handleJobResult(env jobResultEnvelope) tea.Cmd {
	m.recordJob(env.Snapshot)
	m.running = ""
	m.cancel = nil
	m.streaming = nil
	m.drafting = -1
	m.streamBuffer.Reset()

	var err error
	switch payload := env.Payload.(type) {
	case draftResultMsg:
		err = payload.err
		if err == nil {
			m.appendTranscript("draft", "Draft complete.")
		}
	case editResultMsg:
		err = payload.err
		if err == nil {
			r := payload.result
			m.appendTranscript("edit", fmt.Sprintf("%s paragraph %d: %s", r.Address.Section, r.Address.Index+1, previewText(r.After, transcriptPreviewLimit)))
		}
	case improveResultMsg:
		err = payload.err
		if err == nil {
			m.cursor = history.Address{Section: payload.result.Section}
			m.appendTranscript("improve", fmt.Sprintf("Rewrote %s.", payload.result.Section))
		}
	case reviewResultMsg:
		err = payload.err
		if err == nil {
			m.appendTranscript("review", fmt.Sprintf("%s reviewed, %d comments.", payload.result.Section, len(payload.result.Comments)))
		}
	case exportResultMsg:
		err = payload.err
		if err == nil {
			m.appendTranscript("export", "Wrote "+payload.path)
			m.infoMessage = "Exported to " + payload.path
		}
	}
	continueNew := m.newAfterExport && env.Snapshot.Kind == jobKindExport && err == nil
	m.newAfterExport = false

	m.reloadPaper()
	switch {
	case err == nil:
		m.errorMessage = ""
		if env.Snapshot.Kind != jobKindExport {
			m.infoMessage = m.config.Session.Status()
		}
	case errors.Is(err, pipeline.ErrCancelled):
		m.errorMessage = ""
		m.infoMessage = m.config.Session.Status()
		m.appendTranscript("system", m.infoMessage)
	default:
		m.errorMessage = err.Error()
		m.infoMessage = ""
		m.appendTranscript("error", err.Error())
	}
	if continueNew {
		saved := m.infoMessage
		m.startURLEntry()
		m.infoMessage = saved + ". Paste a GitHub repository to draft the next paper."
	} else if m.paper == nil {
		m.startURLEntry()
	} else if m.composerMode != composerModeURL {
		m.stage = stageDisplay
	}
	return nil
}

func (m *model) recordJob(snapshot jobSnapshot) {
	if m.lastJobs == nil {
		m.lastJobs = map[jobKind]jobSnapshot{}
	}
	m.lastJobs[snapshot.Kind] = snapshot
}

func (m *model) appendTranscript(kind, content string) {
	m.transcriptEntries = append(m.transcriptEntries, transcriptEntry{Kind: kind, Content: content, At: time.Now()})
	m.transcriptDirty = true
}

// reloadPaper refreshes the local copy of the session paper and keeps the
// cursor on an existing slot.
func (m *model) reloadPaper() {
	m.paper = m.config.Session.Paper()
	m.clampCursor()
	m.markViewportDirty()
}

// slots lists the cursor positions: every paragraph, plus one position for
// each section without paragraphs (Index -1).
func (m *model) slots() []history.Address {
	if m.paper == nil {
		return nil
	}
	var out []history.Address
	for _, name := range paper.Order {
		section := m.paper.Sections[name]
		if section == nil {
			continue
		}
		n := len(section.Paragraphs())
		if n == 0 {
			out = append(out, history.Address{Section: name, Index: -1})
			continue
		}
		for i := 0; i < n; i++ {
			out = append(out, history.Address{Section: name, Index: i})
		}
	}
	return out
}

func (m *model) currentAddress() (history.Address, bool) {
	if m.paper == nil || m.cursor.Index < 0 {
		return history.Address{}, false
	}
	section := m.paper.Sections[m.cursor.Section]
	if section == nil {
		return history.Address{}, false
	}
	if _, err := section.Paragraph(m.cursor.Index); err != nil {
		return history.Address{}, false
	}
	return m.cursor, true
}

func (m *model) cursorSlot(slots []history.Address) int {
	for i, slot := range slots {
		if slot == m.cursor {
			return i
		}
	}
	return -1
}

func (m *model) clampCursor() {
	slots := m.slots()
	if len(slots) == 0 {
		m.cursor = history.Address{Section: paper.Title, Index: -1}
		return
	}
	if m.cursorSlot(slots) >= 0 {
		return
	}
	// Keep the section and move to its nearest paragraph.
	best := -1
	for i, slot := range slots {
		if slot.Section != m.cursor.Section {
			continue
		}
		if best < 0 || slot.Index <= m.cursor.Index {
			best = i
		}
	}
	if best < 0 {
		best = 0
	}
	m.cursor = slots[best]
}

func (m *model) moveCursor(delta int) {
	slots := m.slots()
	if len(slots) == 0 {
		return
	}
	idx := m.cursorSlot(slots)
	if idx < 0 {
		idx = 0
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(slots) {
		idx = len(slots) - 1
	}
	if slots[idx] == m.cursor {
		return
	}
	m.cursor = slots[idx]
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	m.ensureCursorVisible()
}

func (m *model) jumpToRelativeSection(delta int) {
	current := int(m.cursor.Section)
	target := current + delta
	if target < 0 || target >= len(paper.Order) {
		return
	}
	for _, slot := range m.slots() {
		if slot.Section == paper.Order[target] {
			m.cursor = slot
			break
		}
	}
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	if line, ok := m.sectionAnchors[m.cursor.Section]; ok {
		m.viewport.SetYOffset(m.clampYOffset(line))
	}
	m.infoMessage = fmt.Sprintf("Jumped to %s.", m.cursor.Section)
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if m.viewportDirty {
		m.refreshViewport()
	}
}

func (m *model) refreshViewport() {
	m.viewportDirty = false
	prevYOffset := m.viewport.YOffset
	if m.paper == nil {
		m.viewport.SetContent("")
		m.paragraphSpans = map[history.Address]lineSpan{}
		m.sectionAnchors = map[paper.SectionName]int{}
		m.lineCount = 0
		return
	}
	view := m.buildDisplayContent()
	m.paragraphSpans = view.paragraphs
	m.sectionAnchors = view.anchors
	m.lineCount = len(splitLinesPreserve(view.content))

	content := view.content
	if m.searchQuery != "" {
		m.searchMatches = findMatches(content, m.searchQuery)
		if len(m.searchMatches) == 0 {
			m.searchMatchIdx = -1
		} else if m.searchMatchIdx < 0 || m.searchMatchIdx >= len(m.searchMatches) {
			m.searchMatchIdx = 0
		}
		content = highlightMatches(content, m.searchMatches, m.searchMatchIdx)
	} else {
		m.searchMatches = nil
		m.searchMatchIdx = -1
	}
	span, ok := m.paragraphSpans[m.cursor]
	if !ok {
		if line, found := m.sectionAnchors[m.cursor.Section]; found {
			span, ok = lineSpan{start: line, end: line}, true
		}
	}
	content = applyLineHighlights(content, span, ok)
	m.viewport.SetContent(content)
	m.viewport.SetYOffset(m.clampYOffset(prevYOffset))
}

func (m *model) ensureCursorVisible() {
	span, ok := m.paragraphSpans[m.cursor]
	if !ok {
		line, found := m.sectionAnchors[m.cursor.Section]
		if !found {
			return
		}
		span = lineSpan{start: line, end: line}
	}
	if span.start < m.viewport.YOffset {
		m.viewport.SetYOffset(m.clampYOffset(span.start))
		return
	}
	lowerBound := m.viewport.YOffset + m.viewport.Height - 1
	if span.end > lowerBound {
		target := span.end - m.viewport.Height + 1
		if target > span.start {
			target = span.start
		}
		m.viewport.SetYOffset(m.clampYOffset(target))
	}
}

func (m *model) clampYOffset(offset int) int {
	maxOffset := m.lineCount - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

func (m *model) applySearch(query string) {
	m.searchQuery = query
	m.searchMatchIdx = 0
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	switch {
	case query == "":
		m.infoMessage = "Search cleared."
	case len(m.searchMatches) == 0:
		m.infoMessage = fmt.Sprintf("No matches for %q.", query)
	default:
		m.infoMessage = fmt.Sprintf("%d matches for %q. n / N cycles.", len(m.searchMatches), query)
		m.scrollToCurrentMatch()
	}
}

func (m *model) clearSearch() {
	m.searchQuery = ""
	m.searchMatches = nil
	m.searchMatchIdx = -1
	m.searchInput.SetValue("")
	m.markViewportDirty()
}

func (m *model) advanceSearch(delta int) {
	if len(m.searchMatches) == 0 {
		return
	}
	m.searchMatchIdx = (m.searchMatchIdx + delta + len(m.searchMatches)) % len(m.searchMatches)
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	m.scrollToCurrentMatch()
}

func (m *model) scrollToCurrentMatch() {
	if m.searchMatchIdx < 0 || m.searchMatchIdx >= len(m.searchMatches) {
		return
	}
	view := m.buildDisplayContent()
	line := lineNumberAtOffset(view.content, m.searchMatches[m.searchMatchIdx].start)
	m.viewport.SetYOffset(m.clampYOffset(line - m.viewport.Height/2))
}

func (m *model) searchStatusLine() string {
	if m.searchQuery == "" {
		return ""
	}
	if len(m.searchMatches) == 0 {
		return fmt.Sprintf("Search %q: no matches", m.searchQuery)
	}
	return fmt.Sprintf("Search %q: %d/%d", m.searchQuery, m.searchMatchIdx+1, len(m.searchMatches))
}

func (m *model) refreshTranscriptIfDirty() {
	if !m.transcriptDirty {
		return
	}
	m.transcriptDirty = false
	wrap := m.wrapWidth(4)
	var b strings.Builder
	for idx, entry := range m.transcriptEntries {
		if idx > 0 {
			b.WriteRune('\n')
		}
		label := transcriptLabel(entry.Kind)
		b.WriteString(helperStyle.Render(fmt.Sprintf("%s %s", entry.At.Format("15:04:05"), label)))
		b.WriteRune('\n')
		b.WriteString(indentMultiline(wordwrap.String(entry.Content, wrap), "  ", "  "))
	}
	m.transcriptViewport.SetContent(b.String())
	m.transcriptViewport.GotoBottom()
}
