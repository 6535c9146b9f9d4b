package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/csheth/paperdraft/internal/paper"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PAPERDRAFT_PROVIDER", "OPENAI_API_KEY", "OPENAI_BASE_URL", "GEMINI_API_KEY", "API_KEY",
		"OLLAMA_HOST", "OLLAMA_MODEL", "GITHUB_TOKEN", "ALL_PROXY", "all_proxy", "SOCKS_PROXY", "socks_proxy",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider != "openai" || cfg.Temperature != 0.5 || cfg.GitHub.Branch != "main" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.DBPath() != filepath.Join(dir, DBName) {
		t.Fatalf("unexpected db path %s", cfg.DBPath())
	}
	if cfg.EditingOptions() != paper.DefaultEditingOptions() {
		t.Fatalf("expected default editing selection, got %+v", cfg.EditingOptions())
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path, err := WriteDefault(dir, false)
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if _, err := WriteDefault(dir, false); err == nil {
		t.Fatal("expected existing config to be kept")
	}
	if _, err := WriteDefault(dir, true); err != nil {
		t.Fatalf("forced WriteDefault() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "# paperdraft configuration") {
		t.Fatalf("expected commented config, got %s", data)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defaults := Default()
	if cfg.Provider != defaults.Provider || cfg.Log.Level != "info" || len(cfg.Editing.Criteria) != 5 {
		t.Fatalf("expected written file to match defaults, got %+v", cfg)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yaml := "provider: ollama\nmodel: llama3\ngithub:\n  token: from-file\nediting:\n  criteria: [depth, references]\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	t.Setenv("GITHUB_TOKEN", "from-env")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Endpoint != "http://gpu-box:11434" || cfg.Model != "llama3" {
		t.Fatalf("unexpected ollama settings %+v", cfg)
	}
	if cfg.GitHub.Token != "from-env" {
		t.Fatalf("expected env token, got %q", cfg.GitHub.Token)
	}
	want := paper.EditingOptions{Depth: true, References: true}
	if cfg.EditingOptions() != want {
		t.Fatalf("expected %+v, got %+v", want, cfg.EditingOptions())
	}
	llmCfg := cfg.LLM()
	if llmCfg.Provider != "ollama" || llmCfg.Endpoint != "http://gpu-box:11434" {
		t.Fatalf("unexpected llm config %+v", llmCfg)
	}
}

func TestGeminiKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("PAPERDRAFT_PROVIDER", "gemini")
	t.Setenv("API_KEY", "fallback-key")
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "fallback-key" {
		t.Fatalf("expected fallback key, got %q", cfg.APIKey)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	clearEnv(t)
	cases := []string{
		"provider: claude\n",
		"temperature: 7\n",
		"editing:\n  criteria: [vibes]\n",
		"provider: [not, a, string]\n",
	}
	for _, body := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := Load(dir); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestDefaultDataDirHonorsEnv(t *testing.T) {
	t.Setenv("PAPERDRAFT_DATA_DIR", "/tmp/paperdraft-test")
	if got := DefaultDataDir(); got != "/tmp/paperdraft-test" {
		t.Fatalf("expected env data dir, got %s", got)
	}
}
