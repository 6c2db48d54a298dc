package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anselale/Salience/internal/logging"
)

// fakeExecutor records commands and replies with scripted exit codes.
type fakeExecutor struct {
	exitCodes map[string]int
	executed  []Command
	names     []string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, cmd Command) (StepResult, error) {
	f.executed = append(f.executed, cmd)
	f.names = append(f.names, name)
	return StepResult{
		Name:     name,
		ExitCode: f.exitCodes[name],
		Output:   "output of " + name,
	}, nil
}

func TestRunnerRun(t *testing.T) {
	ctx := context.Background()

	t.Run("runs every step in order with the activated environment", func(t *testing.T) {
		exec := &fakeExecutor{exitCodes: map[string]int{}}
		runner := NewRunner(exec, logging.Nop())

		report, err := runner.Run(ctx, testProfile())
		require.NoError(t, err)

		assert.Equal(t, []string{"upgrade agentforge", "discover tests"}, exec.names)
		assert.Equal(t, 0, report.ExitCode)
		require.Len(t, report.Steps, 2)

		for _, cmd := range exec.executed {
			assert.Equal(t, time.Minute, cmd.Timeout)
			found := false
			for _, kv := range cmd.Env {
				if kv == "VIRTUAL_ENV="+mustAbs(t, "venv") {
					found = true
				}
			}
			assert.True(t, found, "VIRTUAL_ENV must be set for every step")
		}
	})

	t.Run("a failing step does not stop the sequence", func(t *testing.T) {
		exec := &fakeExecutor{exitCodes: map[string]int{
			"upgrade agentforge": 1,
			"discover tests":     0,
		}}
		runner := NewRunner(exec, logging.Nop())

		report, err := runner.Run(ctx, testProfile())
		require.NoError(t, err)

		require.Len(t, report.Steps, 2)
		assert.Equal(t, 1, report.Steps[0].ExitCode)
		// batch semantics: the last step's code wins
		assert.Equal(t, 0, report.ExitCode)
	})

	t.Run("the last step's failure becomes the exit code", func(t *testing.T) {
		exec := &fakeExecutor{exitCodes: map[string]int{
			"discover tests": 5,
		}}
		runner := NewRunner(exec, logging.Nop())

		report, err := runner.Run(ctx, testProfile())
		require.NoError(t, err)
		assert.Equal(t, 5, report.ExitCode)
	})

	t.Run("a missing environment fails the step but the sequence continues", func(t *testing.T) {
		p := testProfile()
		p.VenvPath = filepath.Join(t.TempDir(), "no-such-venv")
		runner := NewRunner(NewDirectExecutor(time.Minute), logging.Nop())

		report, err := runner.Run(ctx, p)
		require.NoError(t, err)

		require.Len(t, report.Steps, 2)
		assert.NotZero(t, report.Steps[0].ExitCode)
		assert.Contains(t, report.Steps[0].Output, "no-such-venv")
		// the last step still ran and its code is the report's
		assert.Equal(t, report.Steps[1].ExitCode, report.ExitCode)
		assert.NotZero(t, report.ExitCode)
	})
}

func mustAbs(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}
