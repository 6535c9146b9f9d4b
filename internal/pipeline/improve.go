package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/csheth/paperdraft/internal/llm"
	"github.com/csheth/paperdraft/internal/paper"
)

// ImproveResult names the section the service chose and its old and new content.
type ImproveResult struct {
	Section paper.SectionName
	Before  string
	After   string
}

// Improver asks the service to pick one section of the whole paper and
// rewrite it.
type Improver struct {
	Client llm.Client
	Logger *slog.Logger
}

type improvePayload struct {
	SectionToUpdate string          `json:"sectionToUpdate"`
	NewContent      json.RawMessage `json:"newContent"`
}

// Improve runs one global improvement round. p is modified only when the
// response names a known section and carries text content.
func (i *Improver) Improve(ctx context.Context, p *paper.Paper, opts paper.EditingOptions) (ImproveResult, error) {
	logger := loggerOrDiscard(i.Logger)
	raw, err := i.Client.Generate(ctx, llm.Request{
		System: globalSystemPrompt,
		Prompt: buildGlobalPrompt(p.Serialize(), opts),
		JSON:   true,
	})
	if err != nil {
		if cancelled(ctx, err) {
			return ImproveResult{}, ErrCancelled
		}
		logger.Error("global improvement failed", "err", err)
		return ImproveResult{}, fmt.Errorf("global improvement: %w", err)
	}

	name, content, err := parseImprovement(raw)
	if err != nil {
		logger.Error("global improvement rejected", "err", err, "response", clipText(raw, 200))
		return ImproveResult{}, err
	}
	section, err := p.Section(name)
	if err != nil {
		return ImproveResult{}, err
	}
	before := section.Content
	section.Content = content
	logger.Info("global improvement applied", "section", name.String())
	return ImproveResult{Section: name, Before: before, After: content}, nil
}

func parseImprovement(raw string) (paper.SectionName, string, error) {
	var payload improvePayload
	if err := decodeObject(raw, &payload); err != nil {
		return 0, "", err
	}
	name, ok := exactSection(strings.TrimSpace(payload.SectionToUpdate))
	if !ok {
		return 0, "", fmt.Errorf("%w: unknown section %q", ErrMalformedResponse, payload.SectionToUpdate)
	}
	var content string
	if len(payload.NewContent) == 0 || json.Unmarshal(payload.NewContent, &content) != nil {
		return 0, "", fmt.Errorf("%w: newContent is not text", ErrMalformedResponse)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, "", fmt.Errorf("%w: newContent is empty", ErrMalformedResponse)
	}
	return name, content, nil
}
