package backend

import (
	"context"
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/narration"
	"fintrack/internal/narration/gemini"
	"fintrack/internal/narration/openai"
)

// NewGenerator builds the text generator selected by AI_PROVIDER. Without
// an API key it returns nil, which disables narration.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *log.Logger) (narration.Generator, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentBackend)

	if !cfg.AIEnabled() {
		logger.WarnContext(ctx, "AI API key is not set, AI features will be disabled")
		return nil, nil
	}

	switch cfg.AIProvider {
	case config.ProviderGemini:
		c, err := gemini.New(ctx, cfg.AIAPIKey, cfg.AIModel)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "Initialized narration generator",
			log.FieldProvider, cfg.AIProvider,
			log.FieldModel, c.Model())
		return c, nil
	case config.ProviderOpenAI:
		c, err := openai.New(cfg.AIAPIKey, cfg.AIModel, cfg.AIBaseURL)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "Initialized narration generator",
			log.FieldProvider, cfg.AIProvider,
			log.FieldModel, c.Model())
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.AIProvider)
	}
}
