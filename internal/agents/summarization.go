package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/anselale/Salience/internal/perception"
	"github.com/anselale/Salience/internal/prompt"
	"github.com/anselale/Salience/internal/store"
)

// ResultsCollection holds prior execution results for retrieval.
const ResultsCollection = "results"

// SummarizationAgent condenses prior results, either from direct text or
// from a relevance query against the results collection.
type SummarizationAgent struct {
	llm        perception.LLMClient
	store      *store.Store
	maxResults int
	log        *zap.Logger
}

// NewSummarizationAgent creates the agent. maxResults bounds how many
// stored results a query draws on.
func NewSummarizationAgent(llm perception.LLMClient, s *store.Store, maxResults int, log *zap.Logger) *SummarizationAgent {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &SummarizationAgent{llm: llm, store: s, maxResults: maxResults, log: log}
}

// SummarizeQuery searches the results collection and summarizes the hits.
// No hits yields an empty summary and no error.
func (a *SummarizationAgent) SummarizeQuery(ctx context.Context, query string) (string, error) {
	hits, err := a.store.QueryMemory(ctx, ResultsCollection, query, a.maxResults)
	if err != nil {
		return "", fmt.Errorf("failed to search results: %w", err)
	}
	if len(hits) == 0 {
		return "", nil
	}

	docs := make([]string, len(hits))
	for i, hit := range hits {
		docs[i] = hit.Document
	}
	return a.Summarize(ctx, strings.Join(docs, "\n"))
}

// Summarize condenses the given text.
func (a *SummarizationAgent) Summarize(ctx context.Context, text string) (string, error) {
	system, user := prompt.Summarization.RenderSystemUser(prompt.Vars{
		"text": text,
	})

	completion, err := a.llm.CompleteWithSystem(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("summarization completion failed: %w", err)
	}

	var parsed struct {
		Summary string `yaml:"summary"`
	}
	if err := unmarshalCompletion(completion, &parsed); err != nil || parsed.Summary == "" {
		// The raw completion is still a usable summary.
		a.log.Debug("summary was not valid YAML, using raw completion")
		return strings.TrimSpace(completion), nil
	}
	return strings.TrimSpace(parsed.Summary), nil
}
