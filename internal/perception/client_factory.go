package perception

import (
	"context"
	"fmt"
	"time"

	"github.com/anselale/Salience/internal/config"
)

// NewClient builds the LLM client named by the config's provider.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		})
	case "openai":
		oc := DefaultOpenAIConfig(cfg.APIKey)
		if cfg.Timeout != "" {
			d, err := time.ParseDuration(cfg.Timeout)
			if err != nil {
				return nil, fmt.Errorf("invalid llm timeout %q: %w", cfg.Timeout, err)
			}
			oc.Timeout = d
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		oc.Temperature = cfg.Temperature
		return NewOpenAIClient(oc), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}
