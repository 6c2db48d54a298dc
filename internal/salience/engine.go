// Package salience runs the task loop: board, summary, action selection or
// execution, grading, frustration.
package salience

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anselale/Salience/internal/agents"
	"github.com/anselale/Salience/internal/bootstrap"
	"github.com/anselale/Salience/internal/config"
	"github.com/anselale/Salience/internal/perception"
	"github.com/anselale/Salience/internal/store"
	"github.com/anselale/Salience/internal/task"
)

// Engine owns one agent instance: its storage, its agents and its
// frustration state. The loop is strictly sequential.
type Engine struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
	tasks *task.Handler

	creation      *agents.TaskCreationAgent
	execution     *agents.ExecutionAgent
	summarization *agents.SummarizationAgent
	status        *agents.StatusAgent
	selection     *agents.ActionSelectionAgent

	runner   *bootstrap.Runner
	profiles map[string]bootstrap.Profile

	objective   string
	frustration float64
	lastReason  string

	// stdin is swappable for tests.
	stdin  io.Reader
	reader *bufio.Reader
}

// New wires an engine from config. The store must already be open; the
// engine seeds the task collection from the persona when it is empty and
// registers the built-in environment actions.
func New(ctx context.Context, cfg *config.Config, s *store.Store, llm perception.LLMClient, log *zap.Logger) (*Engine, error) {
	tasks := task.NewHandler(s, cfg.Salience.ResultsLog, log)

	stepTimeout, err := cfg.StepTimeout()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:           cfg,
		log:           log,
		store:         s,
		tasks:         tasks,
		creation:      agents.NewTaskCreationAgent(llm, tasks, log),
		execution:     agents.NewExecutionAgent(llm, log),
		summarization: agents.NewSummarizationAgent(llm, s, cfg.Salience.MaxResults, log),
		status:        agents.NewStatusAgent(llm, tasks, log),
		selection:     agents.NewActionSelectionAgent(s, cfg.Salience.MinFrustration, log),
		runner:        bootstrap.NewRunner(bootstrap.NewDirectExecutor(stepTimeout), log),
		profiles:      bootstrap.Profiles(cfg.Bootstrap, stepTimeout),
		objective:     cfg.Persona.Objective,
		frustration:   cfg.Salience.MinFrustration,
		stdin:         os.Stdin,
	}

	if err := e.seed(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// seed prefills the task collection from the persona when empty and
// registers one action per setup profile.
func (e *Engine) seed(ctx context.Context) error {
	count, err := e.store.CountCollection(ctx, task.Collection)
	if err != nil {
		return err
	}
	if count == 0 && len(e.cfg.Persona.Tasks) > 0 {
		if err := e.tasks.Seed(ctx, e.cfg.Persona.Tasks); err != nil {
			return fmt.Errorf("failed to seed tasks: %w", err)
		}
		e.log.Info("seeded persona tasks", zap.Int("count", len(e.cfg.Persona.Tasks)))
	}

	actions := make([]agents.Action, 0, len(e.profiles))
	for name, p := range e.profiles {
		actions = append(actions, agents.Action{
			Name:        "refresh environment (" + name + ")",
			Description: fmt.Sprintf("upgrade the %s package in the managed virtual environment and run test discovery", p.Package),
			Profile:     name,
		})
	}
	if err := e.selection.Register(ctx, actions); err != nil {
		return fmt.Errorf("failed to register actions: %w", err)
	}
	return nil
}

// PrepareObjective asks the user for an objective override. An empty answer
// keeps the persona default; a new objective regenerates the task list.
func (e *Engine) PrepareObjective(ctx context.Context) error {
	if e.cfg.Salience.NoInput {
		return nil
	}

	fmt.Print("\nDefine Objective (leave empty to use defaults): ")
	line, err := e.readLine()
	if err != nil {
		return err
	}
	if line == "" {
		return nil
	}

	e.objective = line
	if _, err := e.creation.Run(ctx, e.objective); err != nil {
		return err
	}
	return nil
}

// Loop runs cycles until the task list completes or ctx is cancelled.
func (e *Engine) Loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			e.log.Info("loop interrupted")
			return ctx.Err()
		default:
		}

		done, err := e.RunOnce(ctx)
		if err != nil {
			return err
		}
		if done {
			e.log.Info("task list has been completed")
			return nil
		}
	}
}

// RunOnce performs one cycle. It reports done when no task remains.
func (e *Engine) RunOnce(ctx context.Context) (bool, error) {
	if _, err := e.tasks.Board(ctx, "Salience", e.objective); err != nil {
		return false, err
	}

	current, err := e.tasks.Current(ctx)
	if err != nil {
		return false, err
	}
	if current == nil {
		return true, nil
	}

	feedback, err := e.fetchFeedback()
	if err != nil {
		return false, err
	}

	summary, err := e.summarization.SummarizeQuery(ctx, current.Description)
	if err != nil {
		return false, err
	}
	if summary != "" {
		e.log.Debug("summary prepared", zap.String("summary", summary))
	}

	result, err := e.executeCurrent(ctx, *current, summary, feedback)
	if err != nil {
		return false, err
	}
	if err := e.saveResult(ctx, *current, result); err != nil {
		return false, err
	}

	report, err := e.status.Run(ctx, *current, result)
	if err != nil {
		return false, err
	}
	fmt.Printf("\nStatus: %s\n\nReason: %s\n", report.Status, report.Reason)

	e.handleFrustration(report)
	return false, nil
}

// executeCurrent runs the selected action if one clears the threshold, and
// the execution agent otherwise.
func (e *Engine) executeCurrent(ctx context.Context, t task.Task, summary, feedback string) (string, error) {
	action, err := e.selection.Select(ctx, t.Description)
	if err != nil {
		return "", err
	}
	if action != nil {
		return e.executeAction(ctx, *action)
	}

	return e.execution.Run(ctx, agents.ExecutionInputs{
		Objective: e.objective,
		Task:      t.Description,
		Summary:   summary,
		Context:   e.lastReason,
		Feedback:  feedback,
	})
}

// executeAction runs the action's bootstrap profile and formats the step
// outputs for grading.
func (e *Engine) executeAction(ctx context.Context, action agents.Action) (string, error) {
	profile, ok := e.profiles[action.Profile]
	if !ok {
		return "", fmt.Errorf("action %q names unknown profile %q", action.Name, action.Profile)
	}

	report, err := e.runner.Run(ctx, profile)
	if err != nil {
		return "", err
	}
	return formatActionResults(report.Steps), nil
}

// saveResult appends the execution result to the results collection so
// later cycles can retrieve and summarize it.
func (e *Engine) saveResult(ctx context.Context, t task.Task, result string) error {
	rec := store.Record{
		ID:       uuid.NewString(),
		Document: result,
		Metadata: map[string]any{
			"Task":  t.Description,
			"Order": t.Order,
		},
	}
	return e.store.SaveMemory(ctx, agents.ResultsCollection, []store.Record{rec})
}

// handleFrustration raises the selection threshold after a failed attempt
// and resets it after a completed one. The last reason carries over as
// context only while the task remains incomplete.
func (e *Engine) handleFrustration(report *agents.StatusReport) {
	if report.Status == task.StatusCompleted {
		e.frustration = e.cfg.Salience.MinFrustration
		e.selection.SetThreshold(e.frustration)
		e.lastReason = ""
		return
	}

	e.lastReason = report.Reason
	if e.frustration < e.cfg.Salience.MaxFrustration {
		e.frustration = min(e.frustration+e.cfg.Salience.FrustrationStep, e.cfg.Salience.MaxFrustration)
		e.selection.SetThreshold(e.frustration)
		e.log.Info("increased frustration level", zap.Float64("frustration", e.frustration))
	} else {
		e.log.Info("max frustration level reached", zap.Float64("frustration", e.frustration))
	}
}

// Frustration exposes the current level, mainly for tests and status output.
func (e *Engine) Frustration() float64 {
	return e.frustration
}

// fetchFeedback reads one optional line of user feedback.
func (e *Engine) fetchFeedback() (string, error) {
	if e.cfg.Salience.NoInput {
		return "", nil
	}
	fmt.Print("\nFeedback (leave empty to skip): ")
	return e.readLine()
}

func (e *Engine) readLine() (string, error) {
	if e.reader == nil {
		e.reader = bufio.NewReader(e.stdin)
	}
	line, err := e.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// formatActionResults renders step outputs into one graded result block.
func formatActionResults(steps []bootstrap.StepResult) string {
	parts := make([]string, len(steps))
	for i, step := range steps {
		parts[i] = fmt.Sprintf("%s (exit %d):\n%s\n\n---\n", step.Name, step.ExitCode, strings.TrimSpace(step.Output))
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.Join(parts, "\n"), "---\n"))
}
