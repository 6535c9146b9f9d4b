// Package pipeline drives the generative service over a paper: sequential
// drafting, streamed paragraph rewrites, whole-paper improvement and the
// section review round.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/csheth/paperdraft/internal/paper"
)

var (
	// ErrCancelled reports that the caller aborted the operation. Nothing was
	// committed.
	ErrCancelled = errors.New("operation cancelled")
	// ErrMalformedResponse reports a structured response that could not be
	// decoded or named an unknown section.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrEmptyGeneration reports a draft call that produced no text.
	ErrEmptyGeneration = errors.New("empty generation")
	// ErrGenerationFailed wraps any failure of a drafting call.
	ErrGenerationFailed = errors.New("generation failed")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return discardLogger()
	}
	return logger
}

// cancelled maps a cancelled context to ErrCancelled. Deadline expiry stays a
// failure.
func cancelled(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return errors.Is(ctx.Err(), context.Canceled)
}

func clipText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// decodeObject unmarshals the first JSON object found in raw into dst.
// Providers sometimes wrap the object in prose or code fences.
func decodeObject(raw string, dst any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	candidates := []string{raw}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			candidates = append(candidates, raw[start:end+1])
		}
	}
	var lastErr error
	for _, candidate := range candidates {
		err := json.Unmarshal([]byte(candidate), dst)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", ErrMalformedResponse, lastErr)
}

// exactSection resolves a section name exactly as displayed.
func exactSection(name string) (paper.SectionName, bool) {
	for _, candidate := range paper.Order {
		if candidate.String() == name {
			return candidate, true
		}
	}
	return 0, false
}
