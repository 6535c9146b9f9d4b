// Package config loads paperdraft settings from config.yaml in the data
// directory, then overlays environment variables. Flags are applied by the
// caller last.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/csheth/paperdraft/internal/llm"
	"github.com/csheth/paperdraft/internal/nets"
	"github.com/csheth/paperdraft/internal/paper"
)

const (
	// FileName is the config file inside the data directory.
	FileName = "config.yaml"
	// DBName is the SQLite state file inside the data directory.
	DBName = "state.db"

	dataDirEnvVar = "PAPERDRAFT_DATA_DIR"
)

const defaultConfigYAML = `# paperdraft configuration
#
# Environment variables override these values:
#   PAPERDRAFT_PROVIDER, OPENAI_API_KEY, GEMINI_API_KEY (or API_KEY),
#   OLLAMA_HOST, OLLAMA_MODEL, GITHUB_TOKEN, ALL_PROXY.

# Generative service: openai, gemini or ollama.
provider: openai
# Leave empty for the provider default (gpt-4o-mini, gemini-2.5-flash, ministral-3:latest).
model: ""
# Base URL override, e.g. an OpenAI-compatible gateway or a remote Ollama host.
endpoint: ""
# Prefer the environment for secrets.
api_key: ""
temperature: 0.5

github:
  # Optional token; raises the API rate limit.
  token: ""
  branch: main

# http(s) or socks5 proxy for every outbound request.
proxy: ""

# Grounding text is clipped to this many characters per prompt (0 keeps it whole).
context_limit: 0

editing:
  # Criteria the editor starts with: formatting, style, depth, rigor,
  # hastyStatements, coherence, redundancy, references.
  criteria: [formatting, style, hastyStatements, coherence, redundancy]

log:
  level: info
  # Also send records to the systemd journal.
  journal: false
`

// GitHubConfig configures the repository fetcher.
type GitHubConfig struct {
	Token  string `yaml:"token"`
	Branch string `yaml:"branch"`
}

// EditingConfig holds the initial editing selection.
type EditingConfig struct {
	Criteria []string `yaml:"criteria"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level   string `yaml:"level"`
	Journal bool   `yaml:"journal"`
}

// Config is the merged runtime configuration.
type Config struct {
	DataDir string `yaml:"-"`

	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	Endpoint     string        `yaml:"endpoint"`
	APIKey       string        `yaml:"api_key"`
	Temperature  float64       `yaml:"temperature"`
	GitHub       GitHubConfig  `yaml:"github"`
	Proxy        string        `yaml:"proxy"`
	ContextLimit int           `yaml:"context_limit"`
	Editing      EditingConfig `yaml:"editing"`
	Log          LogConfig     `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:    llm.ProviderOpenAI,
		Temperature: 0.5,
		GitHub:      GitHubConfig{Branch: "main"},
		Editing:     EditingConfig{Criteria: []string{"formatting", "style", "hastyStatements", "coherence", "redundancy"}},
		Log:         LogConfig{Level: "info"},
	}
}

// DefaultDataDir returns $PAPERDRAFT_DATA_DIR or the per-user config dir.
func DefaultDataDir() string {
	if dir := strings.TrimSpace(os.Getenv(dataDirEnvVar)); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".paperdraft")
	}
	return filepath.Join(base, "paperdraft")
}

// Load reads dataDir/config.yaml (a missing file means defaults) and
// overlays the environment. An empty dataDir uses DefaultDataDir.
func Load(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		dataDir = DefaultDataDir()
	}
	cfg := Default()
	cfg.DataDir = dataDir

	data, err := os.ReadFile(cfg.Path())
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("config: read %s: %w", cfg.Path(), err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", cfg.Path(), err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg.
func (c *Config) ApplyEnv() {
	if provider := os.Getenv("PAPERDRAFT_PROVIDER"); provider != "" {
		c.Provider = provider
	}
	switch strings.ToLower(c.Provider) {
	case "", llm.ProviderOpenAI:
		c.APIKey = firstNonEmpty(os.Getenv("OPENAI_API_KEY"), c.APIKey)
		c.Endpoint = firstNonEmpty(os.Getenv("OPENAI_BASE_URL"), c.Endpoint)
	case llm.ProviderGemini:
		c.APIKey = firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY"), c.APIKey)
	case llm.ProviderOllama:
		c.Endpoint = firstNonEmpty(os.Getenv("OLLAMA_HOST"), c.Endpoint)
		c.Model = firstNonEmpty(os.Getenv("OLLAMA_MODEL"), c.Model)
	}
	c.GitHub.Token = firstNonEmpty(os.Getenv("GITHUB_TOKEN"), c.GitHub.Token)
	c.Proxy = firstNonEmpty(c.Proxy, nets.ProxyFromEnv())
}

// Validate rejects settings that cannot work regardless of credentials.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case "", llm.ProviderOpenAI, llm.ProviderGemini, llm.ProviderOllama:
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config: temperature %.2f out of range", c.Temperature)
	}
	for _, key := range c.Editing.Criteria {
		if _, ok := paper.CriterionByKey(key); !ok {
			return fmt.Errorf("config: unknown editing criterion %q", key)
		}
	}
	return nil
}

// Path is the config file location.
func (c Config) Path() string {
	return filepath.Join(c.DataDir, FileName)
}

// DBPath is the state database location.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, DBName)
}

// LLM converts the settings into an llm.Config.
func (c Config) LLM() llm.Config {
	return llm.Config{
		Provider:    c.Provider,
		Model:       c.Model,
		Endpoint:    c.Endpoint,
		APIKey:      c.APIKey,
		Temperature: c.Temperature,
	}
}

// EditingOptions returns the initial selection for the editor.
func (c Config) EditingOptions() paper.EditingOptions {
	if len(c.Editing.Criteria) == 0 {
		return paper.DefaultEditingOptions()
	}
	var opts paper.EditingOptions
	for _, key := range c.Editing.Criteria {
		if criterion, ok := paper.CriterionByKey(key); ok && !criterion.Enabled(opts) {
			criterion.Toggle(&opts)
		}
	}
	return opts
}

// WriteDefault writes the commented default config to dataDir. An existing
// file is kept unless force is set.
func WriteDefault(dataDir string, force bool) (string, error) {
	if strings.TrimSpace(dataDir) == "" {
		dataDir = DefaultDataDir()
	}
	path := filepath.Join(dataDir, FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("config: %s already exists", path)
		}
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("config: ensure %s: %w", dataDir, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o600); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
