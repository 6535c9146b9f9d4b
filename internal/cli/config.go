package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csheth/paperdraft/internal/config"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config.yaml",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings (secrets hidden)",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
	configCmd.AddCommand(initCmd, showCmd)
	RootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	path, err := config.WriteDefault(dataDir, force)
	if err != nil {
		return fmt.Errorf("config init: %w", err)
	}
	fmt.Println(path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	key := "(unset)"
	if cfg.APIKey != "" {
		key = "(set)"
	}
	fmt.Printf("config:   %s\n", cfg.Path())
	fmt.Printf("state:    %s\n", cfg.DBPath())
	fmt.Printf("provider: %s\n", cfg.Provider)
	fmt.Printf("model:    %s\n", cfg.Model)
	fmt.Printf("api key:  %s\n", key)
	fmt.Printf("criteria: %v\n", cfg.Editing.Criteria)
	return nil
}
