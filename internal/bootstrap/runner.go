package bootstrap

import (
	"context"
	"os"

	"go.uber.org/zap"
)

// Report is the outcome of running a profile.
type Report struct {
	Profile string
	Steps   []StepResult

	// ExitCode is the last step's exit code, matching the batch scripts
	// this replaces: no interpretation, no early exit.
	ExitCode int
}

// Runner executes a profile's steps in order.
type Runner struct {
	exec Executor
	log  *zap.Logger
}

// NewRunner creates a runner on the given executor.
func NewRunner(exec Executor, log *zap.Logger) *Runner {
	return &Runner{exec: exec, log: log}
}

// Run activates the profile's environment, executes every step in order
// regardless of individual failures, and deactivates by discarding the
// environment. A step whose command cannot start counts as a failed step,
// not an error; the returned error covers only malformed commands.
func (r *Runner) Run(ctx context.Context, p Profile) (*Report, error) {
	env := p.Environ(os.Environ())
	r.log.Info("activated virtual environment",
		zap.String("profile", p.Name),
		zap.String("venv", p.VenvPath))

	report := &Report{Profile: p.Name}
	for _, step := range p.Steps() {
		result, err := r.exec.Execute(ctx, step.Name, Command{
			Binary:  step.Binary,
			Args:    step.Args,
			Env:     env,
			Timeout: p.StepTimeout,
		})
		if err != nil {
			return report, err
		}

		r.log.Info("step finished",
			zap.String("step", result.Name),
			zap.Int("exit_code", result.ExitCode),
			zap.Duration("duration", result.Duration))

		report.Steps = append(report.Steps, result)
		report.ExitCode = result.ExitCode
	}

	r.log.Info("deactivated virtual environment", zap.String("profile", p.Name))
	return report, nil
}
