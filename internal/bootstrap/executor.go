// Package bootstrap runs the environment setup sequence: activate the
// virtual environment, upgrade the agent framework, discover and run the
// test suite, deactivate. Steps run in fixed order with batch-file
// semantics: every step executes regardless of earlier failures, and the
// sequence's exit code is the last step's exit code.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"
)

// Command describes one subprocess to run.
type Command struct {
	Binary  string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// StepResult captures one executed step.
type StepResult struct {
	Name     string
	ExitCode int
	Output   string
	Duration time.Duration
}

// Executor runs commands. Execution failures, including commands that
// cannot be started, are reported through the StepResult's exit code, not
// the error; the error is reserved for a malformed command.
type Executor interface {
	Execute(ctx context.Context, name string, cmd Command) (StepResult, error)
}

// DirectExecutor runs commands directly on the host with os/exec.
type DirectExecutor struct {
	DefaultTimeout time.Duration
}

// NewDirectExecutor creates an executor with a default per-step timeout.
func NewDirectExecutor(defaultTimeout time.Duration) *DirectExecutor {
	if defaultTimeout <= 0 {
		defaultTimeout = 5 * time.Minute
	}
	return &DirectExecutor{DefaultTimeout: defaultTimeout}
}

// Execute runs one command, capturing combined output and the exit code.
func (e *DirectExecutor) Execute(ctx context.Context, name string, cmd Command) (StepResult, error) {
	if cmd.Binary == "" {
		return StepResult{}, fmt.Errorf("step %s: binary is required", name)
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = e.DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(execCtx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env

	start := time.Now()
	output, err := c.CombinedOutput()
	result := StepResult{
		Name:     name,
		Output:   string(output),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		result.ExitCode = 0
	case isExitError(err):
		result.ExitCode = c.ProcessState.ExitCode()
	default:
		// The command never started (missing binary, absent environment).
		// Batch shells report command-not-found as a failed command and
		// keep going, so it surfaces through the exit code.
		result.ExitCode = notFoundExitCode()
		result.Output = err.Error()
	}
	return result, nil
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// notFoundExitCode is what the native shell reports for a command it
// cannot start: 9009 for cmd.exe, 127 elsewhere.
func notFoundExitCode() int {
	if runtime.GOOS == "windows" {
		return 9009
	}
	return 127
}
