package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/csheth/paperdraft/internal/paper"
	"github.com/csheth/paperdraft/internal/session"
	"github.com/csheth/paperdraft/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show [section]",
		Short: "Print the paper, or one section with numbered paragraphs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runShow,
	}
	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer a.Close()

	p := a.session.Paper()
	if p == nil {
		return fmt.Errorf("show: %w", session.ErrNoPaper)
	}
	if len(args) == 0 {
		if at, err := a.store.UpdatedAt(cmd.Context(), store.PaperKey); err == nil {
			fmt.Fprintf(os.Stderr, "saved %s\n", at.Local().Format(time.DateTime))
		}
		fmt.Print(paper.Export(p))
		return nil
	}
	name, err := paper.ParseSectionName(args[0])
	if err != nil {
		return fmt.Errorf("show: %w", err)
	}
	section, err := p.Section(name)
	if err != nil {
		return fmt.Errorf("show: %w", err)
	}
	fmt.Printf("## %s\n\n", name)
	paragraphs := section.Paragraphs()
	if len(paragraphs) == 0 {
		fmt.Println("(Not yet drafted)")
	}
	for i, text := range paragraphs {
		fmt.Printf("[%d] %s\n\n", i+1, text)
	}
	for _, c := range section.Comments {
		fmt.Printf("- [%s] %s\n", c.Author, c.Text)
	}
	return nil
}
