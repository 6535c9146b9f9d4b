package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/paperdraft/internal/history"
	"github.com/csheth/paperdraft/internal/paper"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
	logHeight      int
	composerHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 20,
		logHeight:      6,
		composerHeight: 3,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	// hero, status bar, section headers and footer help
	const chrome = 10
	usable := height - chrome - l.composerHeight
	if usable < 12 {
		usable = 12
	}
	l.logHeight = usable / 4
	if l.logHeight < 3 {
		l.logHeight = 3
	}
	l.viewportHeight = usable - l.logHeight
	if l.viewportHeight < 6 {
		l.viewportHeight = 6
	}
}

type lineSpan struct {
	start int
	end   int
}

type displayView struct {
	content    string
	paragraphs map[history.Address]lineSpan
	anchors    map[paper.SectionName]int
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

func (m *model) buildDisplayContent() displayView {
	cb := &contentBuilder{}
	anchors := map[paper.SectionName]int{}
	paragraphs := map[history.Address]lineSpan{}
	wrap := m.wrapWidth(4)

	for _, name := range paper.Order {
		section := m.paper.Sections[name]
		if section == nil {
			continue
		}
		if cb.Line() > 0 {
			cb.WriteRune('\n')
		}
		anchors[name] = cb.Line()
		header := name.String()
		if n := len(section.Comments); n > 0 {
			header = fmt.Sprintf("%s  (%d comments)", header, n)
		}
		cb.WriteString(sectionHeaderStyle.Render(header))
		cb.WriteRune('\n')

		body := section.Paragraphs()
		if len(body) == 0 {
			if m.drafting == name && m.running == jobKindDraft {
				cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Drafting…", m.spinner.View())))
			} else {
				cb.WriteString(helperStyle.Render("(Not yet drafted)"))
			}
			cb.WriteRune('\n')
		}
		for idx, text := range body {
			addr := history.Address{Section: name, Index: idx}
			gutter := "  "
			if m.config.Session.HasRestorable(addr) {
				gutter = restorableStyle.Render("↺ ")
			}
			if m.streaming != nil && *m.streaming == addr {
				text = m.streamBuffer.String()
				gutter = fmt.Sprintf("%s ", m.spinner.View())
				if strings.TrimSpace(text) == "" {
					text = "…"
				}
			}
			start := cb.Line()
			cb.WriteString(indentMultiline(wordwrap.String(text, wrap), gutter, "  "))
			cb.WriteRune('\n')
			paragraphs[addr] = lineSpan{start: start, end: cb.Line() - 1}
			if idx < len(body)-1 {
				cb.WriteRune('\n')
			}
		}
		for _, comment := range section.Comments {
			line := fmt.Sprintf("  [%s] %s", comment.Author, comment.Text)
			cb.WriteString(commentStyle.Render(wordwrap.String(line, wrap)))
			cb.WriteRune('\n')
		}
	}
	return displayView{content: cb.String(), paragraphs: paragraphs, anchors: anchors}
}

// indentMultiline prefixes the first line with first and every other line
// with rest.
func indentMultiline(text, first, rest string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i == 0 {
			lines[i] = first + line
			continue
		}
		lines[i] = rest + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func splitLinesPreserve(content string) []string {
	if content == "" {
		return []string{""}
	}
	return strings.Split(content, "\n")
}

type matchRange struct {
	start int
	end   int
}

// findMatches returns the non-overlapping, case-insensitive byte ranges of
// query in content.
func findMatches(content, query string) []matchRange {
	if query == "" {
		return nil
	}
	haystack, needle := strings.ToLower(content), strings.ToLower(query)
	var out []matchRange
	for offset := 0; offset < len(haystack); {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			break
		}
		from := offset + idx
		out = append(out, matchRange{start: from, end: from + len(needle)})
		offset = from + len(needle)
	}
	return out
}

// highlightMatches styles every match, the current one brighter.
func highlightMatches(content string, matches []matchRange, current int) string {
	if len(matches) == 0 {
		return content
	}
	var b strings.Builder
	last := 0
	for idx, r := range matches {
		if r.start < last || r.start > len(content) {
			continue
		}
		end := min(r.end, len(content))
		b.WriteString(content[last:r.start])
		style := searchHighlightStyle
		if idx == current {
			style = searchCurrentStyle
		}
		b.WriteString(style.Render(content[r.start:end]))
		last = end
	}
	b.WriteString(content[last:])
	return b.String()
}

func applyLineHighlights(content string, span lineSpan, active bool) string {
	if content == "" || !active {
		return content
	}
	lines := strings.Split(content, "\n")
	for idx := span.start; idx <= span.end && idx < len(lines); idx++ {
		if idx < 0 {
			continue
		}
		lines[idx] = currentLineStyle.Render(lines[idx])
	}
	return strings.Join(lines, "\n")
}

func lineNumberAtOffset(content string, offset int) int {
	offset = max(0, min(offset, len(content)))
	return strings.Count(content[:offset], "\n")
}

func previewText(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func transcriptLabel(kind string) string {
	switch kind {
	case "comment":
		return "You"
	case "draft", "edit", "improve", "review":
		return "Editor"
	case "restore", "delete", "export", "system":
		return "System"
	case "error":
		return "Error"
	default:
		return kind
	}
}
