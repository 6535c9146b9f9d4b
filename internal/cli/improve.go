package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csheth/paperdraft/internal/paper"
)

func init() {
	improveCmd := &cobra.Command{
		Use:   "improve",
		Short: "Let the model pick the weakest section and rewrite it",
		Args:  cobra.NoArgs,
		RunE:  runImprove,
	}
	addOptionFlags(improveCmd)

	reviewCmd := &cobra.Command{
		Use:   "review <section>",
		Short: "Rewrite one section and collect review comments",
		Args:  cobra.ExactArgs(1),
		RunE:  runReview,
	}
	addOptionFlags(reviewCmd)
	RootCmd.AddCommand(improveCmd, reviewCmd)
}

func runImprove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer a.Close()

	opts, err := editingOptions(cmd, a.cfg.EditingOptions())
	if err != nil {
		return fmt.Errorf("improve: %w", err)
	}
	result, err := a.session.Improve(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("improve: %w", err)
	}
	fmt.Printf("Improved %s.\n\n%s\n", result.Section, result.After)
	return nil
}

func runReview(cmd *cobra.Command, args []string) error {
	name, err := paper.ParseSectionName(args[0])
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer a.Close()

	opts, err := editingOptions(cmd, a.cfg.EditingOptions())
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}
	result, err := a.session.Review(cmd.Context(), name, opts)
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}
	fmt.Printf("Reviewed %s.\n\n%s\n", result.Section, result.After)
	for _, c := range result.Comments {
		fmt.Printf("- [%s] %s\n", c.Author, c.Text)
	}
	return nil
}
