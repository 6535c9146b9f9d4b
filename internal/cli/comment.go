package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/csheth/paperdraft/internal/paper"
)

func init() {
	cmd := &cobra.Command{
		Use:   "comment <section> <text...>",
		Short: "Add a researcher comment to a section",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runComment,
	}
	RootCmd.AddCommand(cmd)
}

func runComment(cmd *cobra.Command, args []string) error {
	name, err := paper.ParseSectionName(args[0])
	if err != nil {
		return fmt.Errorf("comment: %w", err)
	}
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer a.Close()

	c, err := a.session.AddComment(cmd.Context(), name, strings.Join(args[1:], " "))
	if err != nil {
		return fmt.Errorf("comment: %w", err)
	}
	fmt.Printf("Added comment %s to %s.\n", c.ID, name)
	return nil
}
