package main

import (
	"os"
	"path/filepath"
	"testing"
)

func setMinimalValidConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GOOGLE_API_KEY", "test-key")
}

func TestLoadConfigFromEnvWithDefaults(t *testing.T) {
	setMinimalValidConfigEnv(t)

	cfg := LoadConfig()

	if cfg.Provider != "gemini" {
		t.Fatalf("unexpected provider: %q", cfg.Provider)
	}
	if cfg.GoogleAPIKey != "test-key" {
		t.Fatalf("unexpected api key: %q", cfg.GoogleAPIKey)
	}
	if cfg.Model != "gemini-1.5-flash" {
		t.Fatalf("unexpected model default: %q", cfg.Model)
	}
	if cfg.MaxRetries != 7 {
		t.Fatalf("unexpected retry default: %d", cfg.MaxRetries)
	}
	if cfg.InitialDelaySec != 1.0 {
		t.Fatalf("unexpected delay default: %f", cfg.InitialDelaySec)
	}
	if cfg.SummarySample != 100 || cfg.ChatContext != 50 {
		t.Fatalf("unexpected sampling defaults: %d/%d", cfg.SummarySample, cfg.ChatContext)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr default: %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "./feedbacklens.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.SessionTTLMinutes != 120 {
		t.Fatalf("unexpected session ttl default: %d", cfg.SessionTTLMinutes)
	}
	if cfg.RetentionDays != 30 || cfg.RetentionSchedule != "0 3 * * *" {
		t.Fatalf("unexpected retention defaults: %d %q", cfg.RetentionDays, cfg.RetentionSchedule)
	}
	if len(cfg.PreferredModels) == 0 {
		t.Fatal("expected preferred model defaults")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	setMinimalValidConfigEnv(t)
	t.Setenv("LLM_MODEL", "gemini-2.0-flash")
	t.Setenv("LLM_MAX_RETRIES", "3")
	t.Setenv("LLM_INITIAL_DELAY_SECONDS", "0.5")
	t.Setenv("SUMMARY_SAMPLE_SIZE", "10")
	t.Setenv("CHAT_CONTEXT_SIZE", "5")
	t.Setenv("LEMMATIZE", "true")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("PREFERRED_MODELS", "gemini-2.0-flash, gemini-1.5-pro")

	cfg := LoadConfig()

	if cfg.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected model: %q", cfg.Model)
	}
	if cfg.MaxRetries != 3 || cfg.InitialDelaySec != 0.5 {
		t.Fatalf("unexpected retry settings: %d %f", cfg.MaxRetries, cfg.InitialDelaySec)
	}
	if cfg.SummarySample != 10 || cfg.ChatContext != 5 {
		t.Fatalf("unexpected sampling: %d/%d", cfg.SummarySample, cfg.ChatContext)
	}
	if !cfg.Lemmatize {
		t.Fatal("expected lemmatize enabled")
	}
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("unexpected addr: %q", cfg.HTTPAddr)
	}
	want := []string{"gemini-2.0-flash", "gemini-1.5-pro"}
	if len(cfg.PreferredModels) != 2 || cfg.PreferredModels[0] != want[0] || cfg.PreferredModels[1] != want[1] {
		t.Fatalf("unexpected preferred models: %v", cfg.PreferredModels)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yaml := `
llm_provider: anthropic
anthropic_api_key: test-anthropic-key
llm_model: claude-sonnet-4-5-20250929
summary_sample_size: 25
db_path: /tmp/custom.db
`
	if err := os.WriteFile(configPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing config failed: %v", err)
	}
	t.Setenv("CONFIG_PATH", configPath)
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg := LoadConfig()

	if cfg.Provider != "anthropic" {
		t.Fatalf("unexpected provider: %q", cfg.Provider)
	}
	if cfg.AnthropicAPIKey != "test-anthropic-key" {
		t.Fatalf("unexpected api key: %q", cfg.AnthropicAPIKey)
	}
	if cfg.SummarySample != 25 {
		t.Fatalf("unexpected summary sample: %d", cfg.SummarySample)
	}
	if cfg.DBPath != "/tmp/custom.db" {
		t.Fatalf("unexpected db path: %q", cfg.DBPath)
	}
}

func TestLoadConfigEnvBeatsYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yaml := `
llm_provider: gemini
google_api_key: yaml-key
llm_model: gemini-1.0-pro
`
	if err := os.WriteFile(configPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing config failed: %v", err)
	}
	t.Setenv("CONFIG_PATH", configPath)
	t.Setenv("GOOGLE_API_KEY", "env-key")
	t.Setenv("LLM_MODEL", "gemini-1.5-flash")

	cfg := LoadConfig()

	if cfg.GoogleAPIKey != "env-key" {
		t.Fatalf("env override lost: %q", cfg.GoogleAPIKey)
	}
	if cfg.Model != "gemini-1.5-flash" {
		t.Fatalf("env override lost: %q", cfg.Model)
	}
}
