// Package store persists the working paper as JSON under a single
// well-known key in a local SQLite file.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/csheth/paperdraft/internal/paper"
)

// PaperKey is the key the working paper lives under.
const PaperKey = "pi-paper-state"

var (
	// ErrNotFound reports an absent key.
	ErrNotFound = errors.New("key not found")
	// ErrCorrupt reports a stored paper that could not be decoded.
	ErrCorrupt = errors.New("stored paper is corrupt")
)

// StateStore is a small key/value store.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LoadPaper reads the working paper. An absent key returns (nil, nil).
func LoadPaper(ctx context.Context, s StateStore) (*paper.Paper, error) {
	raw, err := s.Get(ctx, PaperKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p paper.Paper
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return &p, nil
}

// SavePaper writes p, or deletes the key when p is nil.
func SavePaper(ctx context.Context, s StateStore, p *paper.Paper) error {
	if p == nil {
		return s.Delete(ctx, PaperKey)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode paper: %w", err)
	}
	return s.Put(ctx, PaperKey, string(data))
}
