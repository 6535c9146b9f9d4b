// Package session owns the working paper, its undo history and its
// persisted copy. The TUI and the CLI go through it for every change.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/csheth/paperdraft/internal/history"
	"github.com/csheth/paperdraft/internal/llm"
	"github.com/csheth/paperdraft/internal/logging"
	"github.com/csheth/paperdraft/internal/paper"
	"github.com/csheth/paperdraft/internal/pipeline"
	"github.com/csheth/paperdraft/internal/store"
)

var (
	// ErrBusy reports that a generation is already running.
	ErrBusy = errors.New("another generation is in progress")
	// ErrNoPaper reports an operation that needs a paper when none is loaded.
	ErrNoPaper = errors.New("no paper loaded")
)

const statusReady = "Ready."

// Fetcher returns the grounding text for a repository locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (string, error)
}

// Deps are the collaborators of a session. NewClient is called lazily so a
// missing credential only blocks operations that need the service.
type Deps struct {
	Store        store.StateStore
	NewClient    func() (llm.Client, error)
	Fetcher      Fetcher
	Logger       *slog.Logger
	ContextLimit int
}

// Session is a single editing session.
type Session struct {
	mu     sync.Mutex
	paper  *paper.Paper
	hist   *history.Store
	busy   string
	status string
	client llm.Client
	deps   Deps
	logger *slog.Logger
}

// Open rehydrates the persisted paper. A stored paper that cannot be decoded
// is logged and treated as absent.
func Open(ctx context.Context, deps Deps) (*Session, error) {
	if deps.Store == nil {
		return nil, errors.New("session: store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Session{
		hist:   history.New(),
		status: statusReady,
		deps:   deps,
		logger: logger,
	}
	p, err := store.LoadPaper(ctx, deps.Store)
	switch {
	case errors.Is(err, store.ErrCorrupt):
		logger.Warn("discarding unreadable saved paper", "err", err)
	case err != nil:
		return nil, fmt.Errorf("session: load paper: %w", err)
	default:
		s.paper = p
	}
	if s.paper != nil {
		logger.Info("session opened", "repo", s.paper.RepoURL, "drafted", s.paper.Drafted())
	}
	return s, nil
}

// Paper returns a copy of the working paper, or nil.
func (s *Session) Paper() *paper.Paper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paper.Clone()
}

// Status returns the current stage or the last terminal message.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Busy reports whether a generation is running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy != ""
}

// HasRestorable reports whether addr has an undo snapshot.
func (s *Session) HasRestorable(addr history.Address) bool {
	return s.hist.HasRestorable(addr)
}

// ClientName names the configured generative service, or "" when it cannot
// be built.
func (s *Session) ClientName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, err := s.clientLocked()
	if err != nil {
		return ""
	}
	return client.Name()
}

func (s *Session) clientLocked() (llm.Client, error) {
	if s.client != nil {
		return s.client, nil
	}
	if s.deps.NewClient == nil {
		return nil, fmt.Errorf("session: %w", llm.ErrMissingCredential)
	}
	client, err := s.deps.NewClient()
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}

// begin marks op as the active generation and returns the client to use.
func (s *Session) begin(op string, needPaper bool) (llm.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy != "" {
		return nil, fmt.Errorf("%s: %w (%s)", op, ErrBusy, s.busy)
	}
	if needPaper && s.paper == nil {
		return nil, ErrNoPaper
	}
	client, err := s.clientLocked()
	if err != nil {
		s.status = "Error: " + err.Error()
		return nil, err
	}
	s.busy = op
	return client, nil
}

func (s *Session) end(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = ""
	s.status = status
}

// finish maps err to the terminal status line and returns it.
func (s *Session) finish(err error, cancelledMsg, doneMsg string) error {
	switch {
	case err == nil:
		s.end(doneMsg)
	case errors.Is(err, pipeline.ErrCancelled):
		s.end(cancelledMsg)
	default:
		s.end("Error: " + err.Error())
	}
	return err
}

// persistLocked writes the paper; callers hold s.mu. Failures are logged and
// do not undo the change.
func (s *Session) persistLocked(ctx context.Context) {
	if err := store.SavePaper(ctx, s.deps.Store, s.paper); err != nil {
		s.logger.Error("persist paper failed", "err", err)
	}
}

// idleLocked rejects structural edits while a generation runs.
func (s *Session) idleLocked(op string) error {
	if s.busy != "" {
		return fmt.Errorf("%s: %w (%s)", op, ErrBusy, s.busy)
	}
	if s.paper == nil {
		return ErrNoPaper
	}
	return nil
}
