package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/csheth/paperdraft/internal/paper"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Put(ctx, "k", "v1"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || got != "v2" {
		t.Fatalf("expected v2, got %q (%v)", got, err)
	}
	if _, err := s.UpdatedAt(ctx, "k"); err != nil {
		t.Fatalf("updated_at: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPaperRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if p, err := LoadPaper(ctx, s); err != nil || p != nil {
		t.Fatalf("expected no paper, got %v (%v)", p, err)
	}

	p := paper.New("https://github.com/acme/widget")
	p.RepoContext = "File: README.md\n\nhello"
	section, _ := p.Section(paper.RelatedWork)
	section.Content = "Prior work.\n\nMore prior work."
	if _, err := section.AddComment(paper.AuthorResearcher, "needs citations"); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if err := SavePaper(ctx, s, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadPaper(ctx, s)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Serialize() != p.Serialize() || loaded.RepoContext != p.RepoContext {
		t.Fatal("expected loaded paper to match saved paper")
	}
	got, _ := loaded.Section(paper.RelatedWork)
	if len(got.Comments) != 1 || got.Comments[0].Text != "needs citations" {
		t.Fatalf("unexpected comments %+v", got.Comments)
	}

	if err := SavePaper(ctx, s, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if p, err := LoadPaper(ctx, s); err != nil || p != nil {
		t.Fatalf("expected cleared paper, got %v (%v)", p, err)
	}
}

func TestLoadPaperCorrupt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, raw := range []string{`{not json`, `{"repoUrl":"x","sections":{"Title":{"id":"Title","title":"Title"}}}`} {
		if err := s.Put(ctx, PaperKey, raw); err != nil {
			t.Fatalf("put: %v", err)
		}
		if _, err := LoadPaper(ctx, s); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", raw, err)
		}
	}
}
