package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/csheth/paperdraft/internal/llm"
	"github.com/csheth/paperdraft/internal/paper"
)

// DraftEventKind distinguishes progress notifications.
type DraftEventKind int

const (
	DraftStarted DraftEventKind = iota
	DraftCompleted
)

// DraftEvent reports progress on one section. Content is set on completion.
type DraftEvent struct {
	Kind    DraftEventKind
	Section paper.SectionName
	Content string
}

// Drafter generates section content strictly in paper.Order.
type Drafter struct {
	Client llm.Client
	Logger *slog.Logger
	// ContextLimit clips the grounding text, in characters. Zero keeps it whole.
	ContextLimit int
}

// Draft fills every section of p in order.
func (d *Drafter) Draft(ctx context.Context, p *paper.Paper, progress func(DraftEvent)) error {
	return d.DraftFrom(ctx, p, paper.Title, progress)
}

// DraftFrom drafts from the given section to the end of the paper. Content is
// stored on p as soon as each section completes; the first failure aborts
// and leaves later sections untouched.
func (d *Drafter) DraftFrom(ctx context.Context, p *paper.Paper, from paper.SectionName, progress func(DraftEvent)) error {
	if !from.Valid() {
		return fmt.Errorf("invalid section %d", int(from))
	}
	if progress == nil {
		progress = func(DraftEvent) {}
	}
	logger := loggerOrDiscard(d.Logger)
	grounding := clipText(p.RepoContext, d.ContextLimit)

	for _, name := range paper.Order[from:] {
		section, err := p.Section(name)
		if err != nil {
			return err
		}
		progress(DraftEvent{Kind: DraftStarted, Section: name})

		previous := ""
		if p.Drafted() > 0 {
			previous = p.Serialize()
		}
		start := time.Now()
		content, err := d.Client.Generate(ctx, llm.Request{
			System: draftSystemPrompt,
			Prompt: buildDraftPrompt(name, grounding, previous),
		})
		if err != nil {
			if cancelled(ctx, err) {
				return ErrCancelled
			}
			logger.Error("draft section failed", "section", name.String(), "err", err)
			return fmt.Errorf("%w: %s: %w", ErrGenerationFailed, name, err)
		}
		content = strings.TrimSpace(content)
		if content == "" {
			logger.Error("draft section empty", "section", name.String())
			return fmt.Errorf("%w: %s: %w", ErrGenerationFailed, name, ErrEmptyGeneration)
		}
		section.Content = content
		logger.Info("drafted section", "section", name.String(), "chars", len(content), "elapsed", time.Since(start).Round(time.Millisecond))
		progress(DraftEvent{Kind: DraftCompleted, Section: name, Content: content})
	}
	return nil
}
