package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/pratszszszzz/Courtify/internal/config"
	"github.com/pratszszszzz/Courtify/internal/domain"
)

// FromConfig builds the embedder selected by configuration.
func FromConfig(ctx context.Context, cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf":
		return NewTFIDF(), nil
	case "openai":
		oc := cfg.OpenAI
		if oc == nil {
			oc = &config.OpenAIEmbedderConfig{}
		}
		return NewOpenAIClient(OpenAIConfig{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
			BatchSize: oc.BatchSize,
		})
	case "gemini":
		gc := cfg.Gemini
		if gc == nil {
			gc = &config.GeminiConfig{}
		}
		return NewGemini(ctx, gc.APIKeyEnv, gc.Model)
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
	}
}
