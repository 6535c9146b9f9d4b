package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/paperdraft/internal/paper"
	"github.com/csheth/paperdraft/internal/pipeline"
)

func (m *model) View() string {
	switch m.stage {
	case stageOptions:
		return joinNonEmpty([]string{m.frameWithHero(m.optionsPanel()), m.footerView()})
	case stageSearch:
		return m.viewSearch()
	case stagePalette:
		return m.viewPalette()
	default:
		return m.viewDisplay()
	}
}

func (m *model) viewDisplay() string {
	m.refreshTranscriptIfDirty()
	m.refreshViewportIfDirty()
	body := m.renderStackedDisplay()
	return joinNonEmpty([]string{body, m.composerPanel(), m.footerView()})
}

func (m *model) renderStackedDisplay() string {
	parts := []string{m.heroView()}
	if m.paper == nil {
		parts = append(parts, m.idleView())
	} else {
		parts = append(parts, m.viewport.View())
	}
	if status := m.searchStatusLine(); status != "" {
		parts = append(parts, helperStyle.Render(status))
	}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.running != "" {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView(), m.helpView())
	}
	return joinNonEmpty(parts)
}

func (m *model) idleView() string {
	lines := []string{
		sectionHeaderStyle.Render("Start from a repository"),
		helperStyle.Render("Paste a GitHub URL or owner/repo below and press Enter."),
		helperStyle.Render("The README, notebooks and PDFs ground every section of the draft."),
	}
	return strings.Join(lines, "\n")
}

func (m *model) composerPanel() string {
	if m.stage == stageConfirmNew {
		return joinNonEmpty([]string{
			sectionHeaderStyle.Render("Save the current paper first?"),
			helperStyle.Render("s: save & continue • d: don't save • Esc: cancel"),
		})
	}
	switch m.composerMode {
	case composerModeURL:
		return joinNonEmpty([]string{
			sectionHeaderStyle.Render("Repository"),
			m.urlInput.View(),
			helperStyle.Render("Enter: draft • Esc: clear"),
		})
	case composerModeComment:
		return joinNonEmpty([]string{
			sectionHeaderStyle.Render("Comment on " + m.cursor.Section.String()),
			m.commentInput.View(),
			helperStyle.Render("Ctrl+S: save • Esc: discard"),
		})
	default:
		return ""
	}
}

func (m *model) footerView() string {
	m.refreshTranscriptIfDirty()
	logBody := strings.TrimSpace(m.transcriptViewport.View())
	if logBody == "" {
		logBody = helperStyle.Render("Activity will appear here once drafting starts.")
	}
	return joinNonEmpty([]string{
		m.sessionMeterView(),
		joinNonEmpty([]string{sectionHeaderStyle.Render("Session Log"), logBody}),
	})
}

func (m *model) optionsPanel() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Editing Options"))
	b.WriteRune('\n')
	row := func(idx int, checked bool, label string) {
		box := "[ ]"
		if checked {
			box = "[x]"
		}
		line := fmt.Sprintf("  %s %s", box, label)
		if idx == m.optionCursor {
			line = currentLineStyle.Render("▸ " + box + " " + label)
		}
		b.WriteString(line)
		b.WriteRune('\n')
	}
	for idx, criterion := range paper.Criteria {
		row(idx, criterion.Enabled(m.opts), criterion.Label)
	}
	row(len(paper.Criteria), m.opts.All, "All of the above")

	customLabel := "Custom instruction"
	if idx := len(paper.Criteria) + 1; idx == m.optionCursor {
		customLabel = currentLineStyle.Render("▸ " + customLabel)
	} else {
		customLabel = "  " + customLabel
	}
	b.WriteString(customLabel)
	b.WriteRune('\n')
	if m.customInput.Focused() {
		b.WriteString(m.customInput.View())
	} else if m.opts.CustomInstruction != "" {
		b.WriteString(helperStyle.Render("    " + m.opts.CustomInstruction))
	} else {
		b.WriteString(helperStyle.Render("    (none, Enter to write one)"))
	}
	b.WriteString("\n\n")
	b.WriteString(helperStyle.Render(wordwrap.String("Instruction: "+pipeline.Instruction(m.opts), m.wrapWidth(4))))
	return b.String()
}

func (m *model) viewSearch() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Search Paper"))
	b.WriteRune('\n')
	b.WriteString(m.searchInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Press Enter to apply search, Esc to cancel."))
	return joinNonEmpty([]string{m.frameWithHero(b.String()), m.footerView()})
}

func (m *model) viewPalette() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Command Palette"))
	b.WriteRune('\n')
	b.WriteString(m.paletteInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Enter to run, Esc to cancel."))
	b.WriteRune('\n')
	b.WriteRune('\n')
	if len(m.paletteMatches) == 0 {
		b.WriteString(helperStyle.Render("No commands match this filter."))
	} else {
		for idx, cmd := range m.paletteMatches {
			shortcut := ""
			if cmd.shortcut != "" {
				shortcut = "  [" + cmd.shortcut + "]"
			}
			label := "  " + cmd.title + shortcut
			if idx == m.paletteCursor {
				label = currentLineStyle.Render("▸ " + cmd.title + shortcut)
			}
			b.WriteString(label)
			b.WriteRune('\n')
			b.WriteString(helperStyle.Render("   " + cmd.description))
			b.WriteRune('\n')
		}
	}
	return joinNonEmpty([]string{m.frameWithHero(b.String()), m.footerView()})
}

func (m *model) heroView() string {
	logo := renderLogo()
	if m.paper == nil {
		return lipgloss.JoinVertical(lipgloss.Left, logo, taglineStyle.Render(heroTagline))
	}
	title := heroTitleStyle.Render(wordwrap.String(m.paper.TitleText(), 48))
	meta := []string{
		helperStyle.Render("Repository: " + m.paper.RepoURL),
		helperStyle.Render(fmt.Sprintf("Drafted: %d/%d sections", m.paper.Drafted(), len(paper.Order))),
	}
	if name := m.config.Session.ClientName(); name != "" {
		meta = append(meta, helperStyle.Render("Model: "+name))
	}
	content := strings.Join(append([]string{title}, meta...), "\n")
	panel := lipgloss.JoinHorizontal(lipgloss.Top, logo, heroSummaryStyle.Render(heroBoxStyle.Render(content)))
	return lipgloss.JoinVertical(lipgloss.Left, panel, taglineStyle.Render(heroTagline))
}

func (m *model) frameWithHero(body string) string {
	return joinNonEmpty([]string{m.heroView(), body})
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func (m *model) sessionMeterView() string {
	stats := []string{}
	if m.paper != nil {
		stats = append(stats, fmt.Sprintf("%s ¶%d", m.cursor.Section, m.cursor.Index+1))
	}
	stats = append(stats, "Focus: "+m.optionsSummary())
	if m.running != "" {
		stats = append(stats, fmt.Sprintf("%s running", m.running))
	}
	stats = append(stats, m.jobStatusBadges()...)
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) optionsSummary() string {
	if m.opts.All {
		return "all criteria"
	}
	var labels []string
	for _, criterion := range paper.Criteria {
		if criterion.Enabled(m.opts) {
			labels = append(labels, criterion.Key)
		}
	}
	if m.opts.CustomInstruction != "" {
		labels = append(labels, "custom")
	}
	if len(labels) == 0 {
		return "overall quality"
	}
	return strings.Join(labels, ",")
}

func (m *model) jobStatusBadges() []string {
	var badges []string
	for _, kind := range []jobKind{jobKindDraft, jobKindEdit, jobKindImprove, jobKindReview, jobKindExport} {
		snapshot, ok := m.lastJobs[kind]
		if !ok || snapshot.Status == jobStatusRunning {
			continue
		}
		badges = append(badges, fmt.Sprintf("%s %s", kind, snapshot.Status))
	}
	return badges
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"↑/↓", "Paragraph"},
		{"[/]", "Section"},
		{"Enter", "Edit"},
		{"Esc", "Cancel"},
		{"u", "Restore"},
		{"D D", "Delete"},
		{"c", "Comment"},
		{"o", "Options"},
		{"I", "Improve"},
		{"R", "Review"},
		{"x/X", "Export"},
		{"Ctrl+K", "Palette"},
	}
	rows := []string{sectionHeaderStyle.Render("Navigation Cheatsheet")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) helpView() string {
	lines := []string{
		sectionHeaderStyle.Render("Working on the draft"),
		helperStyle.Render("• Enter streams a rewrite of the highlighted paragraph; Esc stops it and keeps the old text."),
		helperStyle.Render("• u swaps a paragraph with its text before the last edit; pressing it again swaps back."),
		helperStyle.Render("• o picks the criteria for edits, improvements and reviews."),
		helperStyle.Render("• / searches, n / N cycle matches, p starts a new paper, q quits."),
	}
	return helpBoxStyle.Render(strings.Join(lines, "\n"))
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width++
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}
	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r != ' ' && y+1 < height && x+1 < width {
				grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
			}
		}
	}
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r != ' ' {
				grid[y][x] = cell{r: r, style: logoFaceStyle}
			}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}

var (
	sectionHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	commentStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("179")).Italic(true)
	restorableStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
	searchHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("190"))
	searchCurrentStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("229"))

	heroAccentColor        = lipgloss.Color("#ff8c00")
	heroEmberColor         = lipgloss.Color("#2b1400")
	heroTextColor          = lipgloss.Color("#fff4d0")
	heroSecondaryTextColor = lipgloss.Color("#ffb347")

	heroTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	heroBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Foreground(heroTextColor).Background(heroEmberColor).Padding(1, 2)
	heroSummaryStyle   = lipgloss.NewStyle().PaddingLeft(2)
	taglineStyle       = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	helpBoxStyle       = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	currentLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	logoFaceStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroEmberColor)
	logoShadowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#110600"))
	logoContainerStyle = lipgloss.NewStyle().Padding(0, 1)
	logoArtLines       = []string{
		"██████╗    █████╗   ██████╗   ███████╗  ██████╗   ██████╗   ██████╗    █████╗   ███████╗  ████████╗  ",
		"██╔══██╗  ██╔══██╗  ██╔══██╗  ██╔════╝  ██╔══██╗  ██╔══██╗  ██╔══██╗  ██╔══██╗  ██╔════╝  ╚══██╔══╝  ",
		"██████╔╝  ███████║  ██████╔╝  █████╗    ██████╔╝  ██║  ██║  ██████╔╝  ███████║  █████╗       ██║     ",
		"██╔═══╝   ██╔══██║  ██╔═══╝   ██╔══╝    ██╔══██╗  ██║  ██║  ██╔══██╗  ██╔══██║  ██╔══╝       ██║     ",
		"██║       ██║  ██║  ██║       ███████╗  ██║  ██║  ██████╔╝  ██║  ██║  ██║  ██║  ██║          ██║     ",
		"╚═╝       ╚═╝  ╚═╝  ╚═╝       ╚══════╝  ╚═╝  ╚═╝  ╚═════╝   ╚═╝  ╚═╝  ╚═╝  ╚═╝  ╚═╝          ╚═╝     ",
	}
)
