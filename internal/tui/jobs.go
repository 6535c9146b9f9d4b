package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/paperdraft/internal/pipeline"
)

type jobKind string

type jobStatus string

const (
	jobKindDraft   jobKind = "draft"
	jobKindEdit    jobKind = "edit"
	jobKindImprove jobKind = "improve"
	jobKindReview  jobKind = "review"
	jobKindExport  jobKind = "export"
)

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
	jobStatusCancelled jobStatus = "cancelled"
)

type jobSnapshot struct {
	ID          string
	Kind        jobKind
	Status      jobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
	Duration    time.Duration
}

type jobSignalMsg struct {
	Snapshot jobSnapshot
}

type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

type jobRunner func(context.Context) (tea.Msg, error)

type jobBus struct {
	counter int64
	logger  *slog.Logger
}

func newJobBus(logger *slog.Logger) *jobBus {
	return &jobBus{logger: logger}
}

func (b *jobBus) nextID(kind jobKind) string {
	idx := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("%s-%d", kind, idx)
}

// Start schedules runner and returns the command plus the function that
// cancels it.
func (b *jobBus) Start(kind jobKind, runner jobRunner) (tea.Cmd, context.CancelFunc) {
	id := b.nextID(kind)
	started := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	startSnapshot := jobSnapshot{ID: id, Kind: kind, Status: jobStatusRunning, StartedAt: started}
	startCmd := func() tea.Msg {
		return jobSignalMsg{Snapshot: startSnapshot}
	}
	runCmd := func() tea.Msg {
		defer cancel()
		return b.execute(ctx, startSnapshot, runner)
	}
	return tea.Sequence(startCmd, runCmd), cancel
}

func (b *jobBus) execute(ctx context.Context, snapshot jobSnapshot, runner jobRunner) jobResultEnvelope {
	payload, err := runner(ctx)
	snapshot.CompletedAt = time.Now()
	switch {
	case err == nil:
		snapshot.Status = jobStatusSucceeded
	case errors.Is(err, pipeline.ErrCancelled):
		snapshot.Status = jobStatusCancelled
	default:
		snapshot.Status = jobStatusFailed
		snapshot.Err = err.Error()
	}
	snapshot.Duration = snapshot.CompletedAt.Sub(snapshot.StartedAt)
	if b.logger != nil {
		b.logger.Info("[jobs] "+string(snapshot.Kind)+" "+string(snapshot.Status),
			"id", snapshot.ID, "duration", snapshot.Duration.Round(time.Millisecond), "err", err)
	}
	return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
}

// relayMsg carries one message from a running job plus the channel it came
// from, so the model can listen for the next one.
type relayMsg struct {
	msg tea.Msg
	ch  <-chan tea.Msg
}

type relayClosedMsg struct{}

func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return relayClosedMsg{}
		}
		return relayMsg{msg: msg, ch: ch}
	}
}
