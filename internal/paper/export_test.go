package paper

import (
	"strings"
	"testing"
)

func TestExportLayout(t *testing.T) {
	t.Parallel()

	p := New("https://github.com/acme/widgets")
	p.Sections[Title].Content = "Widgets: A Study"
	p.Sections[Abstract].Content = "We study widgets."

	got := Export(p)
	if !strings.HasPrefix(got, "# Widgets: A Study\n\n## Abstract\n\nWe study widgets.\n\n## Introduction\n\n(Not yet drafted)\n\n") {
		t.Fatalf("unexpected export head: %q", got)
	}
	if strings.Contains(got, "## Title") {
		t.Fatalf("title section should not be rendered as a heading: %q", got)
	}
	if !strings.HasSuffix(got, "## References\n\n(Not yet drafted)\n\n---\n\nSource Repository: https://github.com/acme/widgets\n") {
		t.Fatalf("unexpected export tail: %q", got)
	}
}

func TestExportFilename(t *testing.T) {
	t.Parallel()

	p := New("repo")
	if got := ExportFilename(p); got != "untitled_paper.md" {
		t.Fatalf("unexpected untitled filename: %s", got)
	}
	p.Sections[Title].Content = "LLM Reviews: Weak Spots!"
	if got := ExportFilename(p); got != "llm_reviews__weak_spots_.md" {
		t.Fatalf("unexpected filename: %s", got)
	}
}

func TestExportHTML(t *testing.T) {
	t.Parallel()

	p := New("repo")
	p.Sections[Title].Content = "Widgets"
	p.Sections[Results].Content = "It **works**."
	html, err := ExportHTML(p)
	if err != nil {
		t.Fatalf("ExportHTML() error = %v", err)
	}
	for _, want := range []string{"<h1>Widgets</h1>", "<h2>Results</h2>", "<strong>works</strong>"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in html: %s", want, html)
		}
	}
}

func TestEditingOptionsEmpty(t *testing.T) {
	t.Parallel()

	if !(EditingOptions{}).Empty() {
		t.Fatal("zero options should be empty")
	}
	if (EditingOptions{CustomInstruction: "shorter"}).Empty() {
		t.Fatal("custom instruction should count as a selection")
	}
	if !(EditingOptions{CustomInstruction: "   "}).Empty() {
		t.Fatal("blank instruction should not count as a selection")
	}
	opts := EditingOptions{}
	criterion, ok := CriterionByKey("Unverified Statements")
	if !ok {
		t.Fatal("expected to resolve criterion by label")
	}
	criterion.Toggle(&opts)
	if !opts.HastyStatements || opts.Empty() {
		t.Fatalf("toggle did not set hastyStatements: %+v", opts)
	}
}
