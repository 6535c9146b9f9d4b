package paper

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SectionName enumerates the fixed, ordered divisions of a paper.
type SectionName int

const (
	Title SectionName = iota
	Abstract
	Introduction
	RelatedWork
	Methodology
	Results
	Discussion
	Conclusion
	References
)

// Order is the paper's table of contents. Generation, serialization and
// display all follow it.
var Order = []SectionName{
	Title,
	Abstract,
	Introduction,
	RelatedWork,
	Methodology,
	Results,
	Discussion,
	Conclusion,
	References,
}

var sectionLabels = [...]string{
	Title:        "Title",
	Abstract:     "Abstract",
	Introduction: "Introduction",
	RelatedWork:  "Related Work",
	Methodology:  "Methodology",
	Results:      "Results",
	Discussion:   "Discussion",
	Conclusion:   "Conclusion",
	References:   "References",
}

// Valid reports whether n belongs to the closed set of section names.
func (n SectionName) Valid() bool {
	return n >= Title && n <= References
}

func (n SectionName) String() string {
	if !n.Valid() {
		return fmt.Sprintf("SectionName(%d)", int(n))
	}
	return sectionLabels[n]
}

// ParseSectionName resolves a display name (case-insensitive, surrounding
// whitespace and quotes ignored) into a SectionName.
func ParseSectionName(value string) (SectionName, error) {
	value = strings.Trim(strings.TrimSpace(value), `"'`)
	for _, name := range Order {
		if strings.EqualFold(value, sectionLabels[name]) {
			return name, nil
		}
	}
	// accept identifiers such as "related_work" or "RelatedWork"
	compact := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(value)
	for _, name := range Order {
		if strings.EqualFold(compact, strings.ReplaceAll(sectionLabels[name], " ", "")) {
			return name, nil
		}
	}
	return 0, fmt.Errorf("unknown section %q", value)
}

// SectionNames returns the display names in table-of-contents order.
func SectionNames() []string {
	names := make([]string, 0, len(Order))
	for _, name := range Order {
		names = append(names, name.String())
	}
	return names
}

func (n SectionName) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("invalid section name %d", int(n))
	}
	return []byte(sectionLabels[n]), nil
}

func (n *SectionName) UnmarshalText(text []byte) error {
	parsed, err := ParseSectionName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

var (
	_ json.Marshaler   = (*SectionName)(nil)
	_ json.Unmarshaler = (*SectionName)(nil)
)

func (n SectionName) MarshalJSON() ([]byte, error) {
	text, err := n.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

func (n *SectionName) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	return n.UnmarshalText([]byte(value))
}
