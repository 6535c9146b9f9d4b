package pipeline

import (
	"testing"

	"github.com/csheth/paperdraft/internal/paper"
)

func TestInstructionLiteralCases(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		opts paper.EditingOptions
		want string
	}{
		{
			name: "empty",
			opts: paper.EditingOptions{},
			want: "Improve the overall quality of the paragraph.",
		},
		{
			name: "criteria in declaration order",
			opts: paper.EditingOptions{HastyStatements: true, Rigor: true, Style: true},
			want: "Improve it based on the following criteria: style, rigor, checking for hasty or unverified statements.",
		},
		{
			name: "custom only",
			opts: paper.EditingOptions{CustomInstruction: "make it shorter"},
			want: `Follow this specific instruction: "make it shorter.".`,
		},
		{
			name: "criteria and custom",
			opts: paper.EditingOptions{Coherence: true, CustomInstruction: "add a citation"},
			want: `Improve it based on the following criteria: coherence. Additionally, follow this specific instruction: "add a citation.".`,
		},
		{
			name: "blank custom ignored",
			opts: paper.EditingOptions{Style: true, CustomInstruction: "   "},
			want: "Improve it based on the following criteria: style.",
		},
		{
			name: "custom trimmed",
			opts: paper.EditingOptions{CustomInstruction: "  cite the survey \n"},
			want: `Follow this specific instruction: "cite the survey.".`,
		},
		{
			name: "all overrides flags",
			opts: paper.EditingOptions{All: true, Style: true},
			want: allInstruction,
		},
		{
			name: "all with custom",
			opts: paper.EditingOptions{All: true, CustomInstruction: "be brief"},
			want: allInstruction + ` Additionally, follow this specific instruction: "be brief.".`,
		},
		{
			name: "every flag",
			opts: paper.EditingOptions{Formatting: true, Style: true, Depth: true, Rigor: true, HastyStatements: true, Coherence: true, Redundancy: true, References: true},
			want: "Improve it based on the following criteria: formatting, style, depth, rigor, checking for hasty or unverified statements, coherence, redundancy, references.",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Instruction(tc.opts); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
