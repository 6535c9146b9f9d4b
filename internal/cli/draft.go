package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/csheth/paperdraft/internal/paper"
	"github.com/csheth/paperdraft/internal/pipeline"
)

func init() {
	newCmd := &cobra.Command{
		Use:   "new <repo>",
		Short: "Draft a new paper from a GitHub repository",
		Long:  "Fetch the repository's README, notebooks and PDFs and draft every section in order. The saved paper is replaced.",
		Args:  cobra.ExactArgs(1),
		RunE:  runNew,
	}
	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Draft the sections that are still empty",
		Args:  cobra.NoArgs,
		RunE:  runResume,
	}
	RootCmd.AddCommand(newCmd, resumeCmd)
}

func printDraftEvent(ev pipeline.DraftEvent) {
	switch ev.Kind {
	case pipeline.DraftStarted:
		fmt.Fprintf(os.Stderr, "Drafting: %s...\n", ev.Section)
	case pipeline.DraftCompleted:
		fmt.Fprintf(os.Stderr, "  %s done (%d chars)\n", ev.Section, len(ev.Content))
	}
}

func runNew(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer a.Close()

	if err := a.session.Start(cmd.Context(), args[0], printDraftEvent); err != nil {
		return fmt.Errorf("draft: %w", err)
	}
	p := a.session.Paper()
	fmt.Printf("Drafted %q (%d/%d sections).\n", p.TitleText(), p.Drafted(), len(paper.Order))
	return nil
}

func runResume(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer a.Close()

	if err := a.session.Resume(cmd.Context(), printDraftEvent); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	p := a.session.Paper()
	fmt.Printf("Drafted %d/%d sections.\n", p.Drafted(), len(paper.Order))
	return nil
}
