package main

import (
	"context"
	"log"
	"time"
)

func main() {
	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	provider := NewProvider(cfg)
	if gemini, ok := provider.(*GeminiProvider); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		model := gemini.ResolveModel(ctx, cfg.PreferredModels)
		cancel()
		log.Printf("Using gemini model: %s", model)
	}

	caller := NewCaller(provider, cfg.MaxRetries, time.Duration(cfg.InitialDelaySec*float64(time.Second)))
	analyzer := NewAnalyzer(caller, cfg.SummarySample, cfg.ChatContext)
	store := NewSessionStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)

	StartRetentionScheduler(cfg, db)

	srv := NewServer(cfg, store, analyzer, provider, db)
	log.Printf("Starting AI Customer Feedback Analyzer on %s (provider=%s)", cfg.HTTPAddr, provider.Name())
	if err := srv.App().Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}

// NewProvider picks the configured LLM backend.
func NewProvider(cfg Config) Provider {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.Model)
	default:
		return NewGeminiProvider(cfg.GoogleAPIKey, cfg.Model)
	}
}
