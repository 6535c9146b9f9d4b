package tui

import (
	"time"

	"github.com/csheth/paperdraft/internal/history"
	"github.com/csheth/paperdraft/internal/pipeline"
)

type stage int

const (
	stageInput stage = iota
	stageDisplay
	stageOptions
	stageSearch
	stagePalette
	stageConfirmNew
)

const heroTagline = "Draft, edit and review papers grounded in a repository."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	transcriptPreviewLimit    = 240
)

type composerMode int

const (
	composerModeIdle composerMode = iota
	composerModeURL
	composerModeComment
)

const (
	composerURLPlaceholder     = "Paste a GitHub repository URL or owner/repo…"
	composerCommentPlaceholder = "Comment on this section. Ctrl+S saves, Esc cancels."
)

type transcriptEntry struct {
	Kind    string
	Content string
	At      time.Time
}

// Messages delivered by job runners and relays.

type draftProgressMsg struct {
	event pipeline.DraftEvent
}

type draftResultMsg struct {
	err error
}

type editTokenMsg struct {
	address history.Address
	token   string
}

type editResultMsg struct {
	result pipeline.EditResult
	err    error
}

type improveResultMsg struct {
	result pipeline.ImproveResult
	err    error
}

type reviewResultMsg struct {
	result pipeline.ReviewResult
	err    error
}

type exportResultMsg struct {
	path string
	err  error
}
