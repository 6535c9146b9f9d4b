// Package cli implements the paperdraft commands.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/csheth/paperdraft/internal/config"
	"github.com/csheth/paperdraft/internal/llm"
	"github.com/csheth/paperdraft/internal/logging"
	"github.com/csheth/paperdraft/internal/nets"
	"github.com/csheth/paperdraft/internal/repo"
	"github.com/csheth/paperdraft/internal/session"
	"github.com/csheth/paperdraft/internal/store"
	"github.com/csheth/paperdraft/internal/tui"
)

const (
	llmHTTPTimeout   = 5 * time.Minute
	fetchHTTPTimeout = time.Minute
)

var (
	dataDir      string
	verbose      bool
	providerFlag string
	modelFlag    string
)

// RootCmd is the top-level command. Without a subcommand it opens the TUI.
// Commands return their errors so deferred cleanup runs; the caller of
// Execute prints them.
var RootCmd = &cobra.Command{
	Use:   "paperdraft",
	Short: "Draft a research paper from a GitHub repository",
	Long: "paperdraft reads a repository's README, notebooks and PDFs, drafts every section of a paper " +
		"with a generative model, and lets you edit it paragraph by paragraph.",
	RunE:          runRoot,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: $PAPERDRAFT_DATA_DIR or the user config dir)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also log to stderr (headless commands only)")
	RootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "Generative service: openai, gemini or ollama")
	RootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model name override")
	RootCmd.Flags().Bool("no-alt-screen", false, "Render inline instead of in the alternate screen")
}

// app bundles everything a command needs and releases it on Close.
type app struct {
	cfg     config.Config
	logger  *logging.Logger
	store   *store.SQLiteStore
	session *session.Session
}

func loadConfig() (config.Config, error) {
	if providerFlag != "" {
		os.Setenv("PAPERDRAFT_PROVIDER", providerFlag)
	}
	cfg, err := config.Load(dataDir)
	if err != nil {
		return config.Config{}, err
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	return cfg, nil
}

// openApp loads the configuration and opens the persisted session. terminal
// is false for the TUI, which owns stderr.
func openApp(ctx context.Context, terminal bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Dir:     cfg.DataDir,
		Level:   cfg.Log.Level,
		Verbose: verbose && terminal,
		Journal: cfg.Log.Journal,
	})
	if err != nil {
		return nil, err
	}
	st, err := store.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("open state: %w", err)
	}

	llmHTTP, err := nets.NewHTTPClient(llmHTTPTimeout, cfg.Proxy)
	if err != nil {
		st.Close()
		logger.Close()
		return nil, err
	}
	fetchHTTP, err := nets.NewHTTPClient(fetchHTTPTimeout, cfg.Proxy)
	if err != nil {
		st.Close()
		logger.Close()
		return nil, err
	}
	llmDial, err := nets.NewDialContext(cfg.Proxy)
	if err != nil {
		st.Close()
		logger.Close()
		return nil, err
	}
	fetcher := newFetcher(cfg, fetchHTTP, logger)

	s, err := session.Open(ctx, session.Deps{
		Store: st,
		NewClient: func() (llm.Client, error) {
			llmCfg := cfg.LLM()
			llmCfg.HTTPClient = llmHTTP
			llmCfg.DialContext = llmDial
			return llm.New(llmCfg)
		},
		Fetcher:      fetcher,
		Logger:       logger.Logger,
		ContextLimit: cfg.ContextLimit,
	})
	if err != nil {
		st.Close()
		logger.Close()
		return nil, err
	}
	logger.Debug("paperdraft started", "data_dir", cfg.DataDir, "provider", cfg.Provider)
	return &app{cfg: cfg, logger: logger, store: st, session: s}, nil
}

func newFetcher(cfg config.Config, client *http.Client, logger *logging.Logger) *repo.Fetcher {
	f := repo.NewFetcher(cfg.GitHub.Token, client, logger.Logger)
	f.Branch = cfg.GitHub.Branch
	f.CacheDir = filepath.Join(cfg.DataDir, "cache")
	return f
}

func (a *app) Close() {
	a.store.Close()
	a.logger.Close()
}

func runRoot(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer a.Close()

	exportDir, _ := os.Getwd()
	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if noAlt, _ := cmd.Flags().GetBool("no-alt-screen"); !noAlt {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(tui.New(tui.Config{
		Session:   a.session,
		Options:   a.cfg.EditingOptions(),
		ExportDir: exportDir,
		Logger:    a.logger.Logger,
	}), opts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
