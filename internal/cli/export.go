package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the paper as markdown (or HTML)",
		Long:  "Write the paper to <title>.md in the output directory. Use --stdout to print it instead.",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	exportCmd.Flags().Bool("html", false, "Render HTML instead of markdown")
	exportCmd.Flags().StringP("out", "o", ".", "Output directory")
	exportCmd.Flags().Bool("stdout", false, "Print to stdout instead of writing a file")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard the saved paper",
		Args:  cobra.NoArgs,
		RunE:  runClear,
	}
	RootCmd.AddCommand(exportCmd, clearCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	html, _ := cmd.Flags().GetBool("html")
	out, _ := cmd.Flags().GetString("out")
	toStdout, _ := cmd.Flags().GetBool("stdout")

	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer a.Close()

	name, body, err := a.session.Export(html)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if toStdout {
		fmt.Print(body)
		return nil
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	path := filepath.Join(out, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Println(path)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer a.Close()

	if err := a.session.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	fmt.Println("Paper cleared.")
	return nil
}
