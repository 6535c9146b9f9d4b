package tui

import (
	"strings"
	"testing"

	"github.com/csheth/paperdraft/internal/history"
	"github.com/csheth/paperdraft/internal/paper"
)

func TestPageLayoutUpdate(t *testing.T) {
	cases := []struct {
		width, height              int
		vpWidth, vpHeight, logRows int
	}{
		{80, 24, 76, 9, 3},
		{200, 50, 196, 28, 9},
		{20, 10, minViewportWidth, 9, 3},
	}
	for _, tc := range cases {
		l := newPageLayout()
		l.Update(tc.width, tc.height)
		if l.viewportWidth != tc.vpWidth || l.viewportHeight != tc.vpHeight || l.logHeight != tc.logRows {
			t.Fatalf("%dx%d: got width=%d height=%d log=%d", tc.width, tc.height, l.viewportWidth, l.viewportHeight, l.logHeight)
		}
		if l.composerHeight != 3 {
			t.Fatalf("composer height = %d", l.composerHeight)
		}
	}
}

func TestBuildDisplayContentTracksParagraphs(t *testing.T) {
	m := newTestModel(t, true)
	view := m.buildDisplayContent()
	lines := strings.Split(view.content, "\n")

	if len(view.anchors) != len(paper.Order) {
		t.Fatalf("anchors = %d", len(view.anchors))
	}
	intro := view.anchors[paper.Introduction]
	if !strings.Contains(lines[intro], "Introduction") {
		t.Fatalf("anchor line = %q", lines[intro])
	}
	for idx, want := range []string{"First point.", "Second point.", "Third point."} {
		span, ok := view.paragraphs[history.Address{Section: paper.Introduction, Index: idx}]
		if !ok {
			t.Fatalf("paragraph %d missing", idx)
		}
		if !strings.Contains(lines[span.start], want) {
			t.Fatalf("paragraph %d line = %q, want %q", idx, lines[span.start], want)
		}
	}
}

func TestBuildDisplayContentShowsCommentsAndEmptySections(t *testing.T) {
	m := newTestModel(t, true)
	m.paper.Sections[paper.Results].Content = ""
	if _, err := m.paper.Sections[paper.Discussion].AddComment(paper.AuthorAgent, "Tighten the claim."); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	content := m.buildDisplayContent().content
	if !strings.Contains(content, "(Not yet drafted)") {
		t.Fatal("empty section placeholder missing")
	}
	if !strings.Contains(content, "[AI Agent] Tighten the claim.") {
		t.Fatal("comment missing")
	}
	if !strings.Contains(content, "Discussion  (1 comments)") {
		t.Fatal("comment count missing from header")
	}
}

func TestFindAndHighlightMatches(t *testing.T) {
	matches := findMatches("Point, point, POINT", "point")
	if len(matches) != 3 {
		t.Fatalf("matches = %+v", matches)
	}
	if matches[1] != (matchRange{start: 7, end: 12}) {
		t.Fatalf("second match = %+v", matches[1])
	}
	if findMatches("anything", "") != nil {
		t.Fatal("empty query should not match")
	}
	out := highlightMatches("Point, point, POINT", matches, 0)
	if !strings.Contains(out, ", ") {
		t.Fatalf("highlighted output lost separators: %q", out)
	}
}

func TestIndentMultiline(t *testing.T) {
	got := indentMultiline("a\nb\nc", "> ", "  ")
	if got != "> a\n  b\n  c" {
		t.Fatalf("got %q", got)
	}
}

func TestPreviewText(t *testing.T) {
	if got := previewText("  one\n two  three ", 0); got != "one two three" {
		t.Fatalf("got %q", got)
	}
	if got := previewText("abcdefgh", 4); got != "abcd…" {
		t.Fatalf("got %q", got)
	}
}

func TestLineNumberAtOffset(t *testing.T) {
	content := "one\ntwo\nthree"
	if got := lineNumberAtOffset(content, 5); got != 1 {
		t.Fatalf("got %d", got)
	}
	if got := lineNumberAtOffset(content, 100); got != 2 {
		t.Fatalf("got %d", got)
	}
}
