package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Provider        string `yaml:"llm_provider"` // "gemini" or "anthropic"
	GoogleAPIKey    string `yaml:"google_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	Model           string   `yaml:"llm_model"`
	PreferredModels []string `yaml:"preferred_models"`
	MaxRetries      int      `yaml:"llm_max_retries"`
	InitialDelaySec float64  `yaml:"llm_initial_delay_seconds"`

	SummarySample int  `yaml:"summary_sample_size"`
	ChatContext   int  `yaml:"chat_context_size"`
	Lemmatize     bool `yaml:"lemmatize"`

	HTTPAddr          string `yaml:"http_addr"`
	DBPath            string `yaml:"db_path"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
	RetentionDays     int    `yaml:"retention_days"`
	RetentionSchedule string `yaml:"retention_schedule"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`
}

func LoadConfig() Config {
	var cfg Config

	// .env first so the env-var overrides below can see it.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.Provider, "LLM_PROVIDER")
	envOverride(&cfg.GoogleAPIKey, "GOOGLE_API_KEY")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.Model, "LLM_MODEL")
	envOverrideInt(&cfg.MaxRetries, "LLM_MAX_RETRIES")
	envOverrideFloat(&cfg.InitialDelaySec, "LLM_INITIAL_DELAY_SECONDS")
	envOverrideInt(&cfg.SummarySample, "SUMMARY_SAMPLE_SIZE")
	envOverrideInt(&cfg.ChatContext, "CHAT_CONTEXT_SIZE")
	envOverrideBool(&cfg.Lemmatize, "LEMMATIZE")
	envOverride(&cfg.HTTPAddr, "HTTP_ADDR")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideInt(&cfg.SessionTTLMinutes, "SESSION_TTL_MINUTES")
	envOverrideInt(&cfg.RetentionDays, "RETENTION_DAYS")
	envOverride(&cfg.RetentionSchedule, "RETENTION_SCHEDULE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")

	if names := os.Getenv("PREFERRED_MODELS"); names != "" {
		cfg.PreferredModels = nil
		for _, name := range strings.Split(names, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				cfg.PreferredModels = append(cfg.PreferredModels, name)
			}
		}
	}

	// Defaults
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	if cfg.Model == "" {
		switch cfg.Provider {
		case "anthropic":
			cfg.Model = "claude-sonnet-4-5-20250929"
		default:
			cfg.Model = "gemini-1.5-flash"
		}
	}
	if len(cfg.PreferredModels) == 0 {
		cfg.PreferredModels = []string{"gemini-1.5-flash", "gemini-1.0-pro"}
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 7
	}
	if cfg.InitialDelaySec == 0 {
		cfg.InitialDelaySec = 1.0
	}
	if cfg.SummarySample == 0 {
		cfg.SummarySample = 100
	}
	if cfg.ChatContext == 0 {
		cfg.ChatContext = 50
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./feedbacklens.db"
	}
	if cfg.SessionTTLMinutes == 0 {
		cfg.SessionTTLMinutes = 120
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 30
	}
	if cfg.RetentionSchedule == "" {
		cfg.RetentionSchedule = "0 3 * * *"
	}

	// Validate required fields
	switch cfg.Provider {
	case "gemini":
		if cfg.GoogleAPIKey == "" {
			log.Fatalf("GOOGLE_API_KEY not found. Please set it in your .env file or config.yaml")
		}
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	default:
		log.Fatalf("llm_provider must be 'gemini' or 'anthropic', got '%s'", cfg.Provider)
	}

	if cfg.MaxRetries < 1 {
		log.Fatalf("invalid llm_max_retries '%d': must be >= 1", cfg.MaxRetries)
	}
	if cfg.InitialDelaySec <= 0 {
		log.Fatalf("invalid llm_initial_delay_seconds '%f': must be > 0", cfg.InitialDelaySec)
	}
	if cfg.SummarySample < 1 {
		log.Fatalf("invalid summary_sample_size '%d': must be >= 1", cfg.SummarySample)
	}
	if cfg.ChatContext < 1 {
		log.Fatalf("invalid chat_context_size '%d': must be >= 1", cfg.ChatContext)
	}
	if cfg.SessionTTLMinutes < 1 {
		log.Fatalf("invalid session_ttl_minutes '%d': must be >= 1", cfg.SessionTTLMinutes)
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
