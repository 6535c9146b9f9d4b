package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/csheth/paperdraft/internal/history"
	"github.com/csheth/paperdraft/internal/paper"
)

func draftedPaper(t *testing.T) *paper.Paper {
	t.Helper()
	p := paper.New("https://github.com/acme/widget")
	p.RepoContext = "File: README.md\n\nWidget detects weak spots."
	for _, name := range paper.Order {
		section, _ := p.Section(name)
		section.Content = name.String() + " first.\n\n" + name.String() + " second.\n\n" + name.String() + " third."
	}
	section, _ := p.Section(paper.Title)
	section.Content = "Widget: Finding Weak Spots"
	return p
}

func TestDraftFillsSectionsInOrder(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	for _, name := range paper.Order {
		client.results = append(client.results, generateResult{text: "  draft of " + name.String() + "\n"})
	}
	p := paper.New("https://github.com/acme/widget")
	p.RepoContext = "grounding text"

	var events []DraftEvent
	drafter := &Drafter{Client: client}
	if err := drafter.Draft(context.Background(), p, func(ev DraftEvent) { events = append(events, ev) }); err != nil {
		t.Fatalf("draft failed: %v", err)
	}
	if len(events) != 2*len(paper.Order) {
		t.Fatalf("expected %d events, got %d", 2*len(paper.Order), len(events))
	}
	for i, name := range paper.Order {
		section, _ := p.Section(name)
		if section.Content != "draft of "+name.String() {
			t.Fatalf("unexpected content for %s: %q", name, section.Content)
		}
		if events[2*i].Kind != DraftStarted || events[2*i+1].Kind != DraftCompleted || events[2*i+1].Section != name {
			t.Fatalf("unexpected events around %s: %+v", name, events[2*i:2*i+2])
		}
	}

	first := client.requests[0].Prompt
	if !strings.Contains(first, firstSectionPlaceholder) || !strings.Contains(first, "grounding text") {
		t.Fatalf("first prompt missing placeholder or grounding: %s", first)
	}
	third := client.requests[2].Prompt
	if !strings.Contains(third, "## Abstract\n\ndraft of Abstract") || !strings.Contains(third, "## Introduction\n\n(Not yet drafted)") {
		t.Fatalf("third prompt missing prior sections: %s", third)
	}
}

func TestDraftStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	client := &fakeClient{results: []generateResult{
		{text: "Title text"},
		{text: "Abstract text"},
		{err: errors.New("rate limited")},
		{text: "never used"},
	}}
	p := paper.New("https://github.com/acme/widget")

	err := (&Drafter{Client: client}).Draft(context.Background(), p, nil)
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "Introduction") {
		t.Fatalf("expected failing section in error, got %v", err)
	}
	if len(client.requests) != 3 {
		t.Fatalf("expected 3 generation calls, got %d", len(client.requests))
	}
	for i, name := range paper.Order {
		section, _ := p.Section(name)
		if i < 2 && section.Content == "" {
			t.Fatalf("expected %s to keep its content", name)
		}
		if i >= 2 && section.Content != "" {
			t.Fatalf("expected %s to stay empty, got %q", name, section.Content)
		}
	}
}

func TestDraftRejectsEmptyOutput(t *testing.T) {
	t.Parallel()

	client := &fakeClient{results: []generateResult{{text: "   "}}}
	err := (&Drafter{Client: client}).Draft(context.Background(), paper.New("u"), nil)
	if !errors.Is(err, ErrEmptyGeneration) || !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected empty generation failure, got %v", err)
	}
}

func TestDraftFromResumes(t *testing.T) {
	t.Parallel()

	client := &fakeClient{results: []generateResult{{text: "refs"}}}
	p := paper.New("u")
	if err := (&Drafter{Client: client}).DraftFrom(context.Background(), p, paper.References, nil); err != nil {
		t.Fatalf("draft from failed: %v", err)
	}
	section, _ := p.Section(paper.References)
	if section.Content != "refs" || p.Drafted() != 1 {
		t.Fatalf("expected only references drafted, got %d sections", p.Drafted())
	}
}

func TestDraftCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := (&Drafter{Client: &fakeClient{}}).Draft(ctx, paper.New("u"), nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestEditParagraphCommitsStream(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	hist := history.New()
	client := &fakeClient{tokens: []string{"  Sharper ", "second", " paragraph. "}}
	addr := history.Address{Section: paper.Methodology, Index: 1}

	var streamed []string
	result, err := (&Editor{Client: client}).EditParagraph(context.Background(), p, hist, addr, paper.EditingOptions{Style: true}, func(token string) {
		streamed = append(streamed, token)
	})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if len(streamed) != 3 {
		t.Fatalf("expected every token forwarded, got %v", streamed)
	}
	if result.Before != "Methodology second." || result.After != "Sharper second paragraph." {
		t.Fatalf("unexpected result %+v", result)
	}
	section, _ := p.Section(paper.Methodology)
	want := "Methodology first.\n\nSharper second paragraph.\n\nMethodology third."
	if section.Content != want {
		t.Fatalf("expected %q, got %q", want, section.Content)
	}
	if snapshot, ok := hist.Restore(addr); !ok || snapshot != "Methodology second." {
		t.Fatalf("expected history snapshot, got %q (%v)", snapshot, ok)
	}

	prompt := client.lastRequest().Prompt
	if !strings.Contains(prompt, "criteria: style.") || !strings.Contains(prompt, "**Original Paragraph to Rewrite:**\n---\nMethodology second.") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}
}

func TestEditParagraphEmptyStreamKeepsOriginal(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	hist := history.New()
	addr := history.Address{Section: paper.Results, Index: 0}
	result, err := (&Editor{Client: &fakeClient{tokens: []string{" ", "\n"}}}).EditParagraph(context.Background(), p, hist, addr, paper.EditingOptions{}, nil)
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if result.After != "Results first." {
		t.Fatalf("expected original text as fallback, got %q", result.After)
	}
}

func TestEditParagraphCancelledLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	before, _ := p.Section(paper.Discussion)
	original := before.Content
	hist := history.New()
	addr := history.Address{Section: paper.Discussion, Index: 2}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &fakeClient{tokens: []string{"a", "b", "c", "d"}, cancelAfter: 2, cancel: cancel}

	var streamed int
	_, err := (&Editor{Client: client}).EditParagraph(ctx, p, hist, addr, paper.DefaultEditingOptions(), func(string) { streamed++ })
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if streamed != 2 {
		t.Fatalf("expected 2 tokens before cancellation, got %d", streamed)
	}
	after, _ := p.Section(paper.Discussion)
	if after.Content != original {
		t.Fatalf("expected content unchanged, got %q", after.Content)
	}
	if hist.HasRestorable(addr) || hist.Len() != 0 {
		t.Fatal("expected no history entry after cancellation")
	}
}

func TestEditParagraphCancelledKeepsPriorSnapshot(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	hist := history.New()
	addr := history.Address{Section: paper.Abstract, Index: 0}
	hist.Record(addr, "older text")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &fakeClient{tokens: []string{"x", "y"}, cancelAfter: 1, cancel: cancel}
	if _, err := (&Editor{Client: client}).EditParagraph(ctx, p, hist, addr, paper.EditingOptions{}, nil); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if snapshot, _ := hist.Restore(addr); snapshot != "older text" {
		t.Fatalf("expected prior snapshot preserved, got %q", snapshot)
	}
}

func TestEditParagraphStreamFailureCommitsNothing(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	hist := history.New()
	addr := history.Address{Section: paper.Conclusion, Index: 0}
	client := &fakeClient{tokens: []string{"partial"}, streamErr: errors.New("connection reset")}

	_, err := (&Editor{Client: client}).EditParagraph(context.Background(), p, hist, addr, paper.EditingOptions{}, nil)
	if err == nil || errors.Is(err, ErrCancelled) {
		t.Fatalf("expected failure distinct from cancellation, got %v", err)
	}
	section, _ := p.Section(paper.Conclusion)
	if !strings.HasPrefix(section.Content, "Conclusion first.") || hist.Len() != 0 {
		t.Fatalf("expected nothing committed, got %q / %d", section.Content, hist.Len())
	}
}

func TestEditParagraphNotFound(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	client := &fakeClient{}
	_, err := (&Editor{Client: client}).EditParagraph(context.Background(), p, history.New(), history.Address{Section: paper.Results, Index: 7}, paper.EditingOptions{}, nil)
	if !errors.Is(err, paper.ErrParagraphNotFound) {
		t.Fatalf("expected ErrParagraphNotFound, got %v", err)
	}
	if len(client.requests) != 0 {
		t.Fatal("expected no generation request")
	}
}

func TestRestoreAlternates(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	hist := history.New()
	addr := history.Address{Section: paper.Introduction, Index: 0}
	client := &fakeClient{tokens: []string{"Rewritten intro."}}
	if _, err := (&Editor{Client: client}).EditParagraph(context.Background(), p, hist, addr, paper.EditingOptions{}, nil); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	section, _ := p.Section(paper.Introduction)
	first, err := Restore(p, hist, addr)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if got, _ := section.Paragraph(0); got != "Introduction first." || first.After != got {
		t.Fatalf("expected original paragraph back, got %q", got)
	}
	if _, err := Restore(p, hist, addr); err != nil {
		t.Fatalf("second restore failed: %v", err)
	}
	if got, _ := section.Paragraph(0); got != "Rewritten intro." {
		t.Fatalf("expected second restore to toggle back, got %q", got)
	}
}

func TestEditParagraphMultiParagraphRewriteKeepsAddresses(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	hist := history.New()
	second := history.Address{Section: paper.Introduction, Index: 1}
	first := history.Address{Section: paper.Introduction, Index: 0}

	if _, err := (&Editor{Client: &fakeClient{tokens: []string{"Sharper second."}}}).EditParagraph(context.Background(), p, hist, second, paper.EditingOptions{}, nil); err != nil {
		t.Fatalf("first edit failed: %v", err)
	}
	result, err := (&Editor{Client: &fakeClient{tokens: []string{"A.\n\n", "B."}}}).EditParagraph(context.Background(), p, hist, first, paper.EditingOptions{}, nil)
	if err != nil {
		t.Fatalf("second edit failed: %v", err)
	}
	if result.After != "A.\nB." {
		t.Fatalf("expected rewrite folded into one paragraph, got %q", result.After)
	}

	section, _ := p.Section(paper.Introduction)
	if got := section.Paragraphs(); len(got) != 3 {
		t.Fatalf("expected paragraph count to stay 3, got %q", got)
	}
	restored, err := Restore(p, hist, second)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.Before != "Sharper second." || restored.After != "Introduction second." {
		t.Fatalf("restore hit the wrong paragraph: %+v", restored)
	}
	if got, _ := section.Paragraph(0); got != "A.\nB." {
		t.Fatalf("restore touched the first paragraph: %q", got)
	}
}

func TestRestoreWithoutSnapshot(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	_, err := Restore(p, history.New(), history.Address{Section: paper.Abstract, Index: 0})
	if !errors.Is(err, ErrNothingToRestore) {
		t.Fatalf("expected ErrNothingToRestore, got %v", err)
	}
}

func TestDeleteParagraphShiftsHistory(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	hist := history.New()
	hist.Record(history.Address{Section: paper.Results, Index: 2}, "old third")

	removed, err := DeleteParagraph(p, hist, history.Address{Section: paper.Results, Index: 0})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if removed != "Results first." {
		t.Fatalf("unexpected removed paragraph %q", removed)
	}
	if snapshot, ok := hist.Restore(history.Address{Section: paper.Results, Index: 1}); !ok || snapshot != "old third" {
		t.Fatalf("expected snapshot to follow its paragraph, got %q", snapshot)
	}
}

func TestImproveAppliesChosenSection(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	section, _ := p.Section(paper.Results)
	section.AddComment(paper.AuthorResearcher, "check table 2")
	client := &fakeClient{results: []generateResult{{
		text: "Here you go:\n```json\n{\"sectionToUpdate\": \"Results\", \"newContent\": \"Better results.\"}\n```",
	}}}

	result, err := (&Improver{Client: client}).Improve(context.Background(), p, paper.EditingOptions{Depth: true})
	if err != nil {
		t.Fatalf("improve failed: %v", err)
	}
	if result.Section != paper.Results || result.After != "Better results." {
		t.Fatalf("unexpected result %+v", result)
	}
	if section.Content != "Better results." || len(section.Comments) != 1 {
		t.Fatalf("expected content replaced and comments kept, got %q / %d", section.Content, len(section.Comments))
	}
	req := client.lastRequest()
	if !req.JSON || !strings.Contains(req.Prompt, `"Related Work"`) {
		t.Fatalf("expected JSON request listing section names, got %+v", req)
	}
}

func TestImproveRejectsMalformedResponses(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown section": `{"sectionToUpdate": "Appendix", "newContent": "x"}`,
		"wrong case":      `{"sectionToUpdate": "related work", "newContent": "x"}`,
		"numeric content": `{"sectionToUpdate": "Results", "newContent": 42}`,
		"missing content": `{"sectionToUpdate": "Results"}`,
		"not json":        `I would improve the results section.`,
	}
	for name, raw := range cases {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := draftedPaper(t)
			before := p.Serialize()
			client := &fakeClient{results: []generateResult{{text: raw}}}
			_, err := (&Improver{Client: client}).Improve(context.Background(), p, paper.EditingOptions{})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
			if p.Serialize() != before {
				t.Fatal("expected paper untouched")
			}
		})
	}
}

func TestReviewAddsAgentComments(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	client := &fakeClient{results: []generateResult{{
		text: `{"editedContent": "Reviewed abstract.", "comments": ["Cite the benchmark.", " ", "Quantify the gain."]}`,
	}}}
	result, err := (&Reviewer{Client: client}).Review(context.Background(), p, paper.Abstract, paper.EditingOptions{Rigor: true})
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if result.After != "Reviewed abstract." || len(result.Comments) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	section, _ := p.Section(paper.Abstract)
	if section.Comments[0].Author != paper.AuthorAgent || section.Comments[1].Text != "Quantify the gain." {
		t.Fatalf("unexpected comments %+v", section.Comments)
	}
}

func TestReviewEmptyContentKeepsDraft(t *testing.T) {
	t.Parallel()

	p := draftedPaper(t)
	section, _ := p.Section(paper.Abstract)
	original := section.Content
	client := &fakeClient{results: []generateResult{{text: `{"editedContent": "", "comments": []}`}}}
	if _, err := (&Reviewer{Client: client}).Review(context.Background(), p, paper.Abstract, paper.EditingOptions{}); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if section.Content != original {
		t.Fatalf("expected draft kept, got %q", section.Content)
	}
}
