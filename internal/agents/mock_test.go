package agents

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anselale/Salience/internal/logging"
	"github.com/anselale/Salience/internal/store"
	"github.com/anselale/Salience/internal/task"
)

// scriptedLLM returns canned completions in order and records the prompts
// it was given.
type scriptedLLM struct {
	responses []string
	calls     int

	systems []string
	users   []string
}

func (m *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *scriptedLLM) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if m.calls >= len(m.responses) {
		return "", fmt.Errorf("no scripted response for call %d", m.calls)
	}
	m.systems = append(m.systems, systemPrompt)
	m.users = append(m.users, userPrompt)
	resp := m.responses[m.calls]
	m.calls++
	return resp, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestHandler(t *testing.T, s *store.Store) *task.Handler {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "task_results.txt")
	return task.NewHandler(s, logPath, logging.Nop())
}
