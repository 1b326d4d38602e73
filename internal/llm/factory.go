package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/pratszszszzz/Courtify/internal/config"
	"github.com/pratszszszzz/Courtify/internal/domain"
)

// FromConfig builds the generator selected by configuration.
func FromConfig(ctx context.Context, cfg config.GeneratorConfig) (domain.Generator, error) {
	switch cfg.Type {
	case "openai", "deepseek":
		return NewOpenAIClient(OpenAIConfig{
			BaseURL:   cfg.BaseURL,
			APIKeyEnv: cfg.APIKeyEnv,
			Model:     cfg.Model,
			Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
		})
	case "gemini":
		gc := cfg.Gemini
		if gc == nil {
			gc = &config.GeminiConfig{}
		}
		return NewGemini(ctx, gc.APIKeyEnv, gc.Model)
	default:
		return nil, fmt.Errorf("unknown generator type %q", cfg.Type)
	}
}
