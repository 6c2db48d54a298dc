package agents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anselale/Salience/internal/logging"
	"github.com/anselale/Salience/internal/task"
)

func TestStatusRun(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, completion string) (*StatusAgent, *task.Handler, string, task.Task) {
		s := newTestStore(t)
		logPath := filepath.Join(t.TempDir(), "task_results.txt")
		handler := task.NewHandler(s, logPath, logging.Nop())
		require.NoError(t, handler.Seed(ctx, []string{"draft the report"}))

		current, err := handler.Current(ctx)
		require.NoError(t, err)
		require.NotNil(t, current)

		llm := &scriptedLLM{responses: []string{completion}}
		return NewStatusAgent(llm, handler, logging.Nop()), handler, logPath, *current
	}

	t.Run("completed marks the task and logs the result", func(t *testing.T) {
		agent, handler, logPath, current := setup(t, "status: Completed\nreason: the report covers everything\n")

		report, err := agent.Run(ctx, current, "the finished report")
		require.NoError(t, err)
		assert.Equal(t, task.StatusCompleted, report.Status)
		assert.Equal(t, "the report covers everything", report.Reason)

		next, err := handler.Current(ctx)
		require.NoError(t, err)
		assert.Nil(t, next)

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Task: draft the report")
		assert.Contains(t, string(data), "the finished report")
	})

	t.Run("not completed keeps the task pending", func(t *testing.T) {
		agent, handler, logPath, current := setup(t, "status: not completed\nreason: the summary section is missing\n")

		report, err := agent.Run(ctx, current, "a partial report")
		require.NoError(t, err)
		assert.Equal(t, task.StatusNotCompleted, report.Status)

		next, err := handler.Current(ctx)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, current.ID, next.ID)

		_, err = os.ReadFile(logPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("unparseable completion errors", func(t *testing.T) {
		agent, _, _, current := setup(t, "looks good to me")

		_, err := agent.Run(ctx, current, "result")
		assert.Error(t, err)
	})

	t.Run("unexpected status value errors", func(t *testing.T) {
		agent, _, _, current := setup(t, "status: almost\nreason: nearly there\n")

		_, err := agent.Run(ctx, current, "result")
		assert.Error(t, err)
	})
}

func TestStatusRunFencedCompletion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	handler := task.NewHandler(s, filepath.Join(t.TempDir(), "log.txt"), logging.Nop())
	require.NoError(t, handler.Save(ctx, task.New(1, "a task")))

	llm := &scriptedLLM{responses: []string{"```yaml\nstatus: completed\nreason: done\n```"}}
	agent := NewStatusAgent(llm, handler, logging.Nop())

	report, err := agent.Run(ctx, task.New(1, "a task"), "result")
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, report.Status)
}
