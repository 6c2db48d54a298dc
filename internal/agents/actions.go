package agents

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/anselale/Salience/internal/store"
)

// ActionsCollection holds the registered actions.
const ActionsCollection = "actions"

// Action is a concrete capability the loop can run instead of a plain LLM
// execution, such as refreshing the managed environment.
type Action struct {
	Name        string
	Description string

	// Profile names a bootstrap profile to run when the action fires.
	Profile string
}

// Record converts the action to its stored form. The document is the
// searchable text the selection query matches against.
func (a Action) Record() store.Record {
	return store.Record{
		ID:       a.Name,
		Document: a.Name + ": " + a.Description,
		Metadata: map[string]any{
			"Name":        a.Name,
			"Description": a.Description,
			"Profile":     a.Profile,
		},
	}
}

// ActionSelectionAgent picks an action relevant to the current task, if
// any clears the similarity threshold. The threshold loosens as the loop's
// frustration rises.
type ActionSelectionAgent struct {
	store *store.Store
	log   *zap.Logger

	mu        sync.Mutex
	threshold float64
}

// NewActionSelectionAgent creates the agent with an initial threshold.
func NewActionSelectionAgent(s *store.Store, threshold float64, log *zap.Logger) *ActionSelectionAgent {
	return &ActionSelectionAgent{store: s, threshold: threshold, log: log}
}

// SetThreshold updates the selection threshold.
func (a *ActionSelectionAgent) SetThreshold(threshold float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.threshold = threshold
}

// Register saves actions into the actions collection.
func (a *ActionSelectionAgent) Register(ctx context.Context, actions []Action) error {
	records := make([]store.Record, len(actions))
	for i, action := range actions {
		records[i] = action.Record()
	}
	return a.store.SaveMemory(ctx, ActionsCollection, records)
}

// Select returns the best-matching action for the task description when
// its match score clears 1 - threshold, and nil otherwise. A raised
// threshold therefore admits looser matches.
func (a *ActionSelectionAgent) Select(ctx context.Context, taskDescription string) (*Action, error) {
	hits, err := a.store.QueryMemory(ctx, ActionsCollection, taskDescription, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	a.mu.Lock()
	cutoff := 1 - a.threshold
	a.mu.Unlock()

	hit := hits[0]
	if hit.Score < cutoff {
		a.log.Debug("no action cleared the threshold",
			zap.Float64("score", hit.Score), zap.Float64("cutoff", cutoff))
		return nil, nil
	}

	action, err := actionFromRecord(hit.Record)
	if err != nil {
		return nil, err
	}
	a.log.Info("action selected",
		zap.String("action", action.Name), zap.Float64("score", hit.Score))
	return action, nil
}

func actionFromRecord(rec store.Record) (*Action, error) {
	name, _ := rec.Metadata["Name"].(string)
	if name == "" {
		return nil, fmt.Errorf("action %s has no name", rec.ID)
	}
	desc, _ := rec.Metadata["Description"].(string)
	profile, _ := rec.Metadata["Profile"].(string)
	return &Action{Name: name, Description: desc, Profile: profile}, nil
}
