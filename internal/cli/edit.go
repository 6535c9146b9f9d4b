package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/csheth/paperdraft/internal/history"
	"github.com/csheth/paperdraft/internal/paper"
	"github.com/csheth/paperdraft/internal/pipeline"
)

func init() {
	editCmd := &cobra.Command{
		Use:   "edit <section> <paragraph>",
		Short: "Stream a rewrite of one paragraph",
		Long:  "Rewrite the numbered paragraph (as listed by show) using the configured editing criteria.",
		Args:  cobra.ExactArgs(2),
		RunE:  runEdit,
	}
	addOptionFlags(editCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <section> <paragraph>",
		Short: "Remove one paragraph",
		Args:  cobra.ExactArgs(2),
		RunE:  runDelete,
	}
	RootCmd.AddCommand(editCmd, deleteCmd)
}

// parseAddress reads a section name and a 1-based paragraph number.
func parseAddress(section, index string) (history.Address, error) {
	name, err := paper.ParseSectionName(section)
	if err != nil {
		return history.Address{}, err
	}
	n, err := strconv.Atoi(index)
	if err != nil || n < 1 {
		return history.Address{}, fmt.Errorf("paragraph must be a number from 1, got %q", index)
	}
	return history.Address{Section: name, Index: n - 1}, nil
}

func addOptionFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("focus", nil, "Editing criteria to use instead of the configured ones (e.g. rigor,coherence)")
	cmd.Flags().Bool("all", false, "Apply every criterion")
	cmd.Flags().String("instruction", "", "Extra free-form instruction")
}

func editingOptions(cmd *cobra.Command, base paper.EditingOptions) (paper.EditingOptions, error) {
	opts := base
	if focus, _ := cmd.Flags().GetStringSlice("focus"); len(focus) > 0 {
		opts = paper.EditingOptions{CustomInstruction: base.CustomInstruction}
		for _, key := range focus {
			criterion, ok := paper.CriterionByKey(key)
			if !ok {
				return opts, fmt.Errorf("unknown editing criterion %q", key)
			}
			if !criterion.Enabled(opts) {
				criterion.Toggle(&opts)
			}
		}
	}
	if all, _ := cmd.Flags().GetBool("all"); all {
		opts.All = true
	}
	if instruction, _ := cmd.Flags().GetString("instruction"); instruction != "" {
		opts.CustomInstruction = instruction
	}
	return opts, nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0], args[1])
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer a.Close()

	opts, err := editingOptions(cmd, a.cfg.EditingOptions())
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	a.logger.Debug("editing", "address", addr.String(), "instruction", pipeline.Instruction(opts))
	_, err = a.session.EditParagraph(cmd.Context(), addr, opts, func(token string) {
		fmt.Print(token)
	})
	fmt.Println()
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0], args[1])
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer a.Close()

	removed, err := a.session.DeleteParagraph(cmd.Context(), addr)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	fmt.Printf("Deleted %s paragraph %d: %s\n", addr.Section, addr.Index+1, removed)
	return nil
}
