// Package paper models a paper as a fixed, ordered set of named sections
// whose text is addressed paragraph by paragraph.
package paper

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const notDraftedPlaceholder = "(Not yet drafted)"

// ErrParagraphNotFound is returned when a paragraph index does not exist in
// the current segmentation of a section.
var ErrParagraphNotFound = errors.New("paragraph not found")

// Author identifies who wrote a comment.
type Author string

const (
	AuthorAgent      Author = "AI Agent"
	AuthorResearcher Author = "Researcher"
)

// Comment is one entry of a section's review thread.
type Comment struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Section holds the text of one division of the paper plus its comments.
// Content is the only stored form of the paragraphs.
type Section struct {
	ID       SectionName `json:"id"`
	Title    SectionName `json:"title"`
	Content  string      `json:"content"`
	Comments []Comment   `json:"comments"`
}

// Paper is the root aggregate owned by an editing session.
type Paper struct {
	RepoURL     string                   `json:"repoUrl"`
	RepoContext string                   `json:"repoContext"`
	Sections    map[SectionName]*Section `json:"sections"`
}

// New returns a paper with one empty section per entry in Order.
func New(repoURL string) *Paper {
	sections := make(map[SectionName]*Section, len(Order))
	for _, name := range Order {
		sections[name] = &Section{ID: name, Title: name, Comments: []Comment{}}
	}
	return &Paper{RepoURL: repoURL, Sections: sections}
}

// Validate checks that the section map is exactly the fixed ordering.
func (p *Paper) Validate() error {
	if p == nil {
		return errors.New("paper is nil")
	}
	if len(p.Sections) != len(Order) {
		return fmt.Errorf("paper has %d sections, want %d", len(p.Sections), len(Order))
	}
	for _, name := range Order {
		section, ok := p.Sections[name]
		if !ok || section == nil {
			return fmt.Errorf("paper is missing section %s", name)
		}
		if section.ID != name || section.Title != name {
			return fmt.Errorf("section %s is mislabelled as %s/%s", name, section.ID, section.Title)
		}
	}
	return nil
}

// Section returns the named section or an error for a name outside the set.
func (p *Paper) Section(name SectionName) (*Section, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("invalid section name %d", int(name))
	}
	section, ok := p.Sections[name]
	if !ok || section == nil {
		return nil, fmt.Errorf("paper is missing section %s", name)
	}
	return section, nil
}

// Serialize renders every section in order as generation context.
func (p *Paper) Serialize() string {
	parts := make([]string, 0, len(Order))
	for _, name := range Order {
		section := p.Sections[name]
		if section != nil && section.Content != "" {
			parts = append(parts, fmt.Sprintf("## %s\n\n%s", name, section.Content))
			continue
		}
		parts = append(parts, fmt.Sprintf("## %s\n\n%s", name, notDraftedPlaceholder))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// TitleText returns the drafted title or a placeholder.
func (p *Paper) TitleText() string {
	if section := p.Sections[Title]; section != nil {
		if title := strings.TrimSpace(section.Content); title != "" {
			return title
		}
	}
	return "Untitled Paper"
}

// Drafted counts sections holding content.
func (p *Paper) Drafted() int {
	count := 0
	for _, name := range Order {
		if section := p.Sections[name]; section != nil && strings.TrimSpace(section.Content) != "" {
			count++
		}
	}
	return count
}

// Clone returns a deep copy so callers can read a paper without holding
// the session lock.
func (p *Paper) Clone() *Paper {
	if p == nil {
		return nil
	}
	clone := &Paper{
		RepoURL:     p.RepoURL,
		RepoContext: p.RepoContext,
		Sections:    make(map[SectionName]*Section, len(p.Sections)),
	}
	for name, section := range p.Sections {
		if section == nil {
			continue
		}
		copied := *section
		copied.Comments = append([]Comment{}, section.Comments...)
		clone.Sections[name] = &copied
	}
	return clone
}

// Paragraphs segments the section content into addressable paragraphs.
func (s *Section) Paragraphs() []string {
	return Segment(s.Title, s.Content)
}

// Paragraph returns the paragraph at index.
func (s *Section) Paragraph(index int) (string, error) {
	paragraphs := s.Paragraphs()
	if index < 0 || index >= len(paragraphs) {
		return "", fmt.Errorf("%s paragraph %d: %w", s.Title, index+1, ErrParagraphNotFound)
	}
	return paragraphs[index], nil
}

// ReplaceParagraph swaps the paragraph at index and rejoins the content.
func (s *Section) ReplaceParagraph(index int, text string) error {
	paragraphs := s.Paragraphs()
	if index < 0 || index >= len(paragraphs) {
		return fmt.Errorf("%s paragraph %d: %w", s.Title, index+1, ErrParagraphNotFound)
	}
	paragraphs[index] = text
	s.Content = Join(paragraphs)
	return nil
}

// DeleteParagraph removes the paragraph at index and rejoins the content.
func (s *Section) DeleteParagraph(index int) error {
	paragraphs := s.Paragraphs()
	if index < 0 || index >= len(paragraphs) {
		return fmt.Errorf("%s paragraph %d: %w", s.Title, index+1, ErrParagraphNotFound)
	}
	paragraphs = append(paragraphs[:index], paragraphs[index+1:]...)
	s.Content = Join(paragraphs)
	return nil
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

func newCommentID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

// AddComment appends a comment to the section thread.
func (s *Section) AddComment(author Author, text string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, errors.New("comment text cannot be empty")
	}
	if author != AuthorAgent && author != AuthorResearcher {
		return Comment{}, fmt.Errorf("unknown comment author %q", author)
	}
	now := time.Now().UTC()
	comment := Comment{
		ID:        newCommentID(now),
		Author:    author,
		Text:      text,
		Timestamp: now,
	}
	s.Comments = append(s.Comments, comment)
	return comment, nil
}
