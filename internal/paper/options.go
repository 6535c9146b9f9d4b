package paper

import "strings"

// EditingOptions selects the focus of one edit request.
type EditingOptions struct {
	Formatting        bool   `json:"formatting,omitempty"`
	Style             bool   `json:"style,omitempty"`
	Depth             bool   `json:"depth,omitempty"`
	Rigor             bool   `json:"rigor,omitempty"`
	HastyStatements   bool   `json:"hastyStatements,omitempty"`
	Coherence         bool   `json:"coherence,omitempty"`
	Redundancy        bool   `json:"redundancy,omitempty"`
	References        bool   `json:"references,omitempty"`
	All               bool   `json:"all,omitempty"`
	CustomInstruction string `json:"customInstruction,omitempty"`
}

// Criterion describes one focus flag of EditingOptions.
type Criterion struct {
	Key   string
	Label string
	flag  func(*EditingOptions) *bool
}

// Enabled reports whether the criterion is set on opts.
func (c Criterion) Enabled(opts EditingOptions) bool {
	return *c.flag(&opts)
}

// Toggle flips the criterion on opts.
func (c Criterion) Toggle(opts *EditingOptions) {
	ptr := c.flag(opts)
	*ptr = !*ptr
}

// Criteria lists the focus flags in declaration order.
var Criteria = []Criterion{
	{Key: "formatting", Label: "Formatting", flag: func(o *EditingOptions) *bool { return &o.Formatting }},
	{Key: "style", Label: "Style", flag: func(o *EditingOptions) *bool { return &o.Style }},
	{Key: "depth", Label: "Depth", flag: func(o *EditingOptions) *bool { return &o.Depth }},
	{Key: "rigor", Label: "Rigor", flag: func(o *EditingOptions) *bool { return &o.Rigor }},
	{Key: "hastyStatements", Label: "Unverified Statements", flag: func(o *EditingOptions) *bool { return &o.HastyStatements }},
	{Key: "coherence", Label: "Coherence", flag: func(o *EditingOptions) *bool { return &o.Coherence }},
	{Key: "redundancy", Label: "Redundancy", flag: func(o *EditingOptions) *bool { return &o.Redundancy }},
	{Key: "references", Label: "References", flag: func(o *EditingOptions) *bool { return &o.References }},
}

// CriterionByKey finds a criterion by its key, case-insensitively.
func CriterionByKey(key string) (Criterion, bool) {
	key = strings.TrimSpace(key)
	for _, criterion := range Criteria {
		if strings.EqualFold(criterion.Key, key) || strings.EqualFold(criterion.Label, key) {
			return criterion, true
		}
	}
	return Criterion{}, false
}

// DefaultEditingOptions mirrors the selection the editor opens with.
func DefaultEditingOptions() EditingOptions {
	return EditingOptions{
		Formatting:      true,
		Style:           true,
		HastyStatements: true,
		Coherence:       true,
		Redundancy:      true,
	}
}

// Empty reports whether no criterion, shortcut or instruction is set.
func (o EditingOptions) Empty() bool {
	if o.All || strings.TrimSpace(o.CustomInstruction) != "" {
		return false
	}
	for _, criterion := range Criteria {
		if criterion.Enabled(o) {
			return false
		}
	}
	return true
}
