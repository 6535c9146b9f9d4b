package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/csheth/paperdraft/internal/llm"
	"github.com/csheth/paperdraft/internal/paper"
)

// ReviewResult is the outcome of a review round on one section.
type ReviewResult struct {
	Section  paper.SectionName
	Before   string
	After    string
	Comments []paper.Comment
}

// Reviewer rewrites a section against the grounding text and leaves
// comments where claims need the researcher's attention.
type Reviewer struct {
	Client       llm.Client
	Logger       *slog.Logger
	ContextLimit int
}

type reviewPayload struct {
	EditedContent string   `json:"editedContent"`
	Comments      []string `json:"comments"`
}

// Review runs one review round on the named section.
func (r *Reviewer) Review(ctx context.Context, p *paper.Paper, name paper.SectionName, opts paper.EditingOptions) (ReviewResult, error) {
	section, err := p.Section(name)
	if err != nil {
		return ReviewResult{}, err
	}
	logger := loggerOrDiscard(r.Logger).With("section", name.String())

	raw, err := r.Client.Generate(ctx, llm.Request{
		System: reviewSystemPrompt,
		Prompt: buildReviewPrompt(section, clipText(p.RepoContext, r.ContextLimit), opts),
		JSON:   true,
	})
	if err != nil {
		if cancelled(ctx, err) {
			return ReviewResult{}, ErrCancelled
		}
		logger.Error("review failed", "err", err)
		return ReviewResult{}, fmt.Errorf("review %s: %w", name, err)
	}

	var payload reviewPayload
	if err := decodeObject(raw, &payload); err != nil {
		logger.Error("review rejected", "err", err)
		return ReviewResult{}, err
	}

	before := section.Content
	edited := strings.TrimSpace(payload.EditedContent)
	if edited == "" {
		edited = before
	}
	section.Content = edited

	result := ReviewResult{Section: name, Before: before, After: edited}
	for _, text := range payload.Comments {
		if strings.TrimSpace(text) == "" {
			continue
		}
		comment, err := section.AddComment(paper.AuthorAgent, text)
		if err != nil {
			return result, err
		}
		result.Comments = append(result.Comments, comment)
	}
	logger.Info("review applied", "comments", len(result.Comments))
	return result, nil
}
