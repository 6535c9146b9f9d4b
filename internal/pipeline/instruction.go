package pipeline

import (
	"fmt"
	"strings"

	"github.com/csheth/paperdraft/internal/paper"
)

const (
	fallbackInstruction = "Improve the overall quality of the paragraph."
	allInstruction      = "Improve it based on the following criteria: overall quality, including formatting, style, depth, rigor, checking for unverified statements, coherence, redundancy, and references."
	hastyPhrase         = "checking for hasty or unverified statements"
)

// Instruction turns editing options into the directive sent with an edit
// request. The wording is stable; saved prompts depend on it.
func Instruction(opts paper.EditingOptions) string {
	var parts []string
	if opts.All {
		parts = append(parts, allInstruction)
	} else {
		var criteria []string
		for _, criterion := range paper.Criteria {
			if !criterion.Enabled(opts) {
				continue
			}
			if criterion.Key == "hastyStatements" {
				criteria = append(criteria, hastyPhrase)
				continue
			}
			criteria = append(criteria, criterion.Key)
		}
		if len(criteria) > 0 {
			parts = append(parts, fmt.Sprintf("Improve it based on the following criteria: %s.", strings.Join(criteria, ", ")))
		}
	}

	if custom := strings.TrimSpace(opts.CustomInstruction); custom != "" {
		prefix := "Follow this specific instruction"
		if len(parts) > 0 {
			prefix = "Additionally, follow this specific instruction"
		}
		parts = append(parts, prefix+`: "`+custom+`.".`)
	}

	if len(parts) == 0 {
		return fallbackInstruction
	}
	return strings.Join(parts, " ")
}
