package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/csheth/paperdraft/internal/history"
	"github.com/csheth/paperdraft/internal/llm"
	"github.com/csheth/paperdraft/internal/paper"
)

// ErrNothingToRestore reports an address without a history snapshot.
var ErrNothingToRestore = errors.New("nothing to restore")

// TokenSink receives every streamed token as it arrives.
type TokenSink func(token string)

// EditResult describes a committed paragraph change.
type EditResult struct {
	Address history.Address
	Before  string
	After   string
}

// Editor rewrites one paragraph at a time through a streamed generation.
type Editor struct {
	Client llm.Client
	Logger *slog.Logger
}

// EditParagraph rewrites the paragraph at addr. Tokens reach sink while the
// stream runs. The paragraph and hist change only after the stream ends
// cleanly; cancellation returns ErrCancelled with both untouched.
func (e *Editor) EditParagraph(ctx context.Context, p *paper.Paper, hist *history.Store, addr history.Address, opts paper.EditingOptions, sink TokenSink) (EditResult, error) {
	section, err := p.Section(addr.Section)
	if err != nil {
		return EditResult{}, err
	}
	original, err := section.Paragraph(addr.Index)
	if err != nil {
		return EditResult{}, err
	}
	if sink == nil {
		sink = func(string) {}
	}
	logger := loggerOrDiscard(e.Logger).With("address", addr.String())

	req := llm.Request{
		System: paragraphSystemPrompt,
		Prompt: buildParagraphPrompt(addr.Section, p.Serialize(), original, opts),
	}
	var buf strings.Builder
	for token, err := range e.Client.Stream(ctx, req) {
		if err != nil {
			if cancelled(ctx, err) {
				logger.Info("paragraph edit cancelled")
				return EditResult{}, ErrCancelled
			}
			logger.Error("paragraph edit failed", "err", err)
			return EditResult{}, fmt.Errorf("edit %s: %w", addr, err)
		}
		buf.WriteString(token)
		sink(token)
	}
	if cancelled(ctx, nil) {
		logger.Info("paragraph edit cancelled")
		return EditResult{}, ErrCancelled
	}

	// A rewrite must stay one paragraph or later indices, and their history
	// snapshots, would shift under the user.
	rewritten := paper.Collapse(buf.String())
	if rewritten == "" {
		rewritten = original
	}
	hist.Record(addr, original)
	if err := section.ReplaceParagraph(addr.Index, rewritten); err != nil {
		return EditResult{}, err
	}
	logger.Info("paragraph edited", "before_chars", len(original), "after_chars", len(rewritten))
	return EditResult{Address: addr, Before: original, After: rewritten}, nil
}

// Restore swaps the paragraph at addr with its history snapshot. The replaced
// text becomes the new snapshot, so restoring twice toggles back.
func Restore(p *paper.Paper, hist *history.Store, addr history.Address) (EditResult, error) {
	section, err := p.Section(addr.Section)
	if err != nil {
		return EditResult{}, err
	}
	current, err := section.Paragraph(addr.Index)
	if err != nil {
		return EditResult{}, err
	}
	previous, ok := hist.Swap(addr, current)
	if !ok {
		return EditResult{}, fmt.Errorf("%s: %w", addr, ErrNothingToRestore)
	}
	if err := section.ReplaceParagraph(addr.Index, previous); err != nil {
		hist.Record(addr, previous)
		return EditResult{}, err
	}
	return EditResult{Address: addr, Before: current, After: previous}, nil
}

// DeleteParagraph removes the paragraph at addr and moves the history
// snapshots of later paragraphs down with it.
func DeleteParagraph(p *paper.Paper, hist *history.Store, addr history.Address) (string, error) {
	section, err := p.Section(addr.Section)
	if err != nil {
		return "", err
	}
	removed, err := section.Paragraph(addr.Index)
	if err != nil {
		return "", err
	}
	if err := section.DeleteParagraph(addr.Index); err != nil {
		return "", err
	}
	hist.Shift(addr.Section, addr.Index)
	return removed, nil
}
