package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/csheth/paperdraft/internal/history"
	"github.com/csheth/paperdraft/internal/llm"
	"github.com/csheth/paperdraft/internal/paper"
	"github.com/csheth/paperdraft/internal/pipeline"
)

// Start creates a new paper for repoURL, fetches its grounding text and
// drafts every section in order. Each finished section is persisted before
// the next one starts; progress may be nil.
func (s *Session) Start(ctx context.Context, repoURL string, progress func(pipeline.DraftEvent)) error {
	repoURL = strings.TrimSpace(repoURL)
	if repoURL == "" {
		return errors.New("repository URL is required")
	}
	if s.deps.Fetcher == nil {
		return errors.New("session: no repository fetcher configured")
	}
	client, err := s.begin("draft", false)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.hist.Reset()
	s.paper = paper.New(repoURL)
	s.status = "Fetching repository contents..."
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.logger.Info("starting paper", "repo", repoURL, "model", client.Name())

	grounding, err := s.deps.Fetcher.Fetch(ctx, repoURL)
	if err != nil {
		if ctx.Err() != nil {
			err = pipeline.ErrCancelled
		}
		s.logger.Error("fetch repository failed", "repo", repoURL, "err", err)
		return s.finish(err, "Drafting cancelled.", statusReady)
	}

	s.mu.Lock()
	s.paper.RepoContext = grounding
	s.persistLocked(ctx)
	work := s.paper.Clone()
	s.mu.Unlock()

	return s.draft(ctx, client, work, paper.Title, progress)
}

// Resume drafts the sections after the last drafted one, for a draft that
// stopped early.
func (s *Session) Resume(ctx context.Context, progress func(pipeline.DraftEvent)) error {
	client, err := s.begin("draft", true)
	if err != nil {
		return err
	}
	s.mu.Lock()
	work := s.paper.Clone()
	s.mu.Unlock()

	from, ok := firstUndrafted(work)
	if !ok {
		s.end(statusReady)
		return nil
	}
	return s.draft(ctx, client, work, from, progress)
}

func firstUndrafted(p *paper.Paper) (paper.SectionName, bool) {
	for _, name := range paper.Order {
		if section := p.Sections[name]; section == nil || strings.TrimSpace(section.Content) == "" {
			return name, true
		}
	}
	return 0, false
}

func (s *Session) draft(ctx context.Context, client llm.Client, work *paper.Paper, from paper.SectionName, progress func(pipeline.DraftEvent)) error {
	drafter := &pipeline.Drafter{Client: client, Logger: s.logger, ContextLimit: s.deps.ContextLimit}
	err := drafter.DraftFrom(ctx, work, from, func(ev pipeline.DraftEvent) {
		s.mu.Lock()
		switch ev.Kind {
		case pipeline.DraftStarted:
			s.status = fmt.Sprintf("Drafting: %s...", ev.Section)
		case pipeline.DraftCompleted:
			if section := s.paper.Sections[ev.Section]; section != nil {
				section.Content = ev.Content
			}
			s.persistLocked(ctx)
		}
		s.mu.Unlock()
		if progress != nil {
			progress(ev)
		}
	})
	return s.finish(err, "Drafting cancelled.", statusReady)
}

// EditParagraph streams a rewrite of the paragraph at addr. sink receives
// tokens as they arrive; the paragraph changes only when the stream ends.
func (s *Session) EditParagraph(ctx context.Context, addr history.Address, opts paper.EditingOptions, sink pipeline.TokenSink) (pipeline.EditResult, error) {
	client, err := s.begin("edit", true)
	if err != nil {
		return pipeline.EditResult{}, err
	}
	s.mu.Lock()
	s.status = fmt.Sprintf("Editing %s paragraph %d...", addr.Section, addr.Index+1)
	work := s.paper.Clone()
	s.mu.Unlock()

	editor := &pipeline.Editor{Client: client, Logger: s.logger}
	result, err := editor.EditParagraph(ctx, work, s.hist, addr, opts, sink)
	if err == nil {
		s.mu.Lock()
		s.applyContentLocked(work, addr.Section)
		s.persistLocked(ctx)
		s.mu.Unlock()
	}
	return result, s.finish(err, "Editing cancelled.", fmt.Sprintf("Edited %s paragraph %d.", addr.Section, addr.Index+1))
}

// Improve lets the service pick one section and rewrite it.
func (s *Session) Improve(ctx context.Context, opts paper.EditingOptions) (pipeline.ImproveResult, error) {
	client, err := s.begin("improve", true)
	if err != nil {
		return pipeline.ImproveResult{}, err
	}
	s.mu.Lock()
	s.status = "Running global improvement..."
	work := s.paper.Clone()
	s.mu.Unlock()

	improver := &pipeline.Improver{Client: client, Logger: s.logger}
	result, err := improver.Improve(ctx, work, opts)
	done := statusReady
	if err == nil {
		s.mu.Lock()
		s.replaceSectionLocked(work, result.Section)
		s.persistLocked(ctx)
		s.mu.Unlock()
		done = fmt.Sprintf("Improved %s.", result.Section)
	}
	return result, s.finish(err, "Improvement cancelled.", done)
}

// Review runs a review round on one section, adding the service's comments
// to its thread.
func (s *Session) Review(ctx context.Context, name paper.SectionName, opts paper.EditingOptions) (pipeline.ReviewResult, error) {
	if !name.Valid() {
		return pipeline.ReviewResult{}, fmt.Errorf("invalid section %d", int(name))
	}
	client, err := s.begin("review", true)
	if err != nil {
		return pipeline.ReviewResult{}, err
	}
	s.mu.Lock()
	s.status = fmt.Sprintf("Reviewing %s...", name)
	work := s.paper.Clone()
	s.mu.Unlock()

	reviewer := &pipeline.Reviewer{Client: client, Logger: s.logger, ContextLimit: s.deps.ContextLimit}
	result, err := reviewer.Review(ctx, work, name, opts)
	if err == nil {
		s.mu.Lock()
		s.replaceSectionLocked(work, name)
		if section := s.paper.Sections[name]; section != nil {
			section.Comments = append(section.Comments, result.Comments...)
		}
		s.persistLocked(ctx)
		s.mu.Unlock()
	}
	return result, s.finish(err, "Review cancelled.", fmt.Sprintf("Reviewed %s: %d comments.", name, len(result.Comments)))
}

// replaceSectionLocked applies a whole-section rewrite. Paragraph snapshots
// of a changed section point at text that is gone, so they are dropped.
func (s *Session) replaceSectionLocked(work *paper.Paper, name paper.SectionName) {
	if src, dst := work.Sections[name], s.paper.Sections[name]; src != nil && dst != nil && src.Content != dst.Content {
		s.hist.DropSection(name)
	}
	s.applyContentLocked(work, name)
}

// applyContentLocked copies one section's content from work, keeping the
// live comment thread.
func (s *Session) applyContentLocked(work *paper.Paper, name paper.SectionName) {
	src := work.Sections[name]
	dst := s.paper.Sections[name]
	if src == nil || dst == nil {
		return
	}
	dst.Content = src.Content
}

// Restore swaps the paragraph at addr with its undo snapshot.
func (s *Session) Restore(ctx context.Context, addr history.Address) (pipeline.EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.idleLocked("restore"); err != nil {
		return pipeline.EditResult{}, err
	}
	result, err := pipeline.Restore(s.paper, s.hist, addr)
	if err != nil {
		return result, err
	}
	s.persistLocked(ctx)
	s.status = fmt.Sprintf("Restored %s paragraph %d.", addr.Section, addr.Index+1)
	return result, nil
}

// DeleteParagraph removes the paragraph at addr.
func (s *Session) DeleteParagraph(ctx context.Context, addr history.Address) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.idleLocked("delete"); err != nil {
		return "", err
	}
	removed, err := pipeline.DeleteParagraph(s.paper, s.hist, addr)
	if err != nil {
		return "", err
	}
	s.persistLocked(ctx)
	s.status = fmt.Sprintf("Deleted %s paragraph %d.", addr.Section, addr.Index+1)
	return removed, nil
}

// AddComment appends a researcher comment. Comments never touch content, so
// they are accepted while a generation runs.
func (s *Session) AddComment(ctx context.Context, name paper.SectionName, text string) (paper.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paper == nil {
		return paper.Comment{}, ErrNoPaper
	}
	section, err := s.paper.Section(name)
	if err != nil {
		return paper.Comment{}, err
	}
	comment, err := section.AddComment(paper.AuthorResearcher, text)
	if err != nil {
		return paper.Comment{}, err
	}
	s.persistLocked(ctx)
	return comment, nil
}

// Clear drops the paper, its history and its persisted copy.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy != "" {
		return fmt.Errorf("clear: %w (%s)", ErrBusy, s.busy)
	}
	s.paper = nil
	s.hist.Reset()
	s.status = statusReady
	s.persistLocked(ctx)
	return nil
}

// Export renders the paper as markdown, or as HTML when html is set, and
// returns the suggested file name with it.
func (s *Session) Export(html bool) (string, string, error) {
	p := s.Paper()
	if p == nil {
		return "", "", ErrNoPaper
	}
	name := paper.ExportFilename(p)
	if !html {
		return name, paper.Export(p), nil
	}
	rendered, err := paper.ExportHTML(p)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSuffix(name, ".md") + ".html", rendered, nil
}
