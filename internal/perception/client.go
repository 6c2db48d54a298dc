// Package perception provides the LLM clients the agents complete through.
package perception

import (
	"context"
	"time"
)

// LLMClient defines the interface for completion providers.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// minRequestInterval is the courtesy gap between consecutive requests to
// the same provider.
const minRequestInterval = 600 * time.Millisecond
