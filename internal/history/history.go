// Package history keeps the last pre-edit text of every edited paragraph so
// an edit can be undone one step.
package history

import (
	"fmt"
	"sync"

	"github.com/csheth/paperdraft/internal/paper"
)

// Address identifies a paragraph by section and positional index.
type Address struct {
	Section paper.SectionName
	Index   int
}

func (a Address) String() string {
	return fmt.Sprintf("%s-%d", a.Section, a.Index)
}

// Store maps each address to a single snapshot.
type Store struct {
	mu      sync.Mutex
	entries map[Address]string
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: map[Address]string{}}
}

// Record overwrites the snapshot at addr.
func (s *Store) Record(addr Address, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[addr] = text
}

// Restore returns the snapshot at addr without removing it.
func (s *Store) Restore(addr Address) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.entries[addr]
	return text, ok
}

// HasRestorable reports whether addr has a non-empty snapshot.
func (s *Store) HasRestorable(addr Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[addr] != ""
}

// Swap returns the snapshot at addr and stores current in its place, so two
// successive swaps alternate between the same two values.
func (s *Store) Swap(addr Address, current string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, ok := s.entries[addr]
	if !ok || previous == "" {
		return "", false
	}
	s.entries[addr] = current
	return previous, true
}

// Shift re-keys the entries of section after paragraph deleted was removed:
// the deleted entry is dropped and higher indices move down by one.
func (s *Store) Shift(section paper.SectionName, deleted int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shifted := make(map[Address]string, len(s.entries))
	for addr, text := range s.entries {
		switch {
		case addr.Section != section || addr.Index < deleted:
			shifted[addr] = text
		case addr.Index == deleted:
		default:
			shifted[Address{Section: section, Index: addr.Index - 1}] = text
		}
	}
	s.entries = shifted
}

// DropSection forgets every snapshot of section. Called when the section is
// rewritten as a whole and its paragraph indices no longer line up.
func (s *Store) DropSection(section paper.SectionName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for addr := range s.entries {
		if addr.Section == section {
			delete(s.entries, addr)
		}
	}
}

// Reset drops every entry.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[Address]string{}
}

// Len returns the number of addresses holding a snapshot.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
