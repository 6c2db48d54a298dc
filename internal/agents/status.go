package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/anselale/Salience/internal/perception"
	"github.com/anselale/Salience/internal/prompt"
	"github.com/anselale/Salience/internal/task"
)

// StatusReport is the graded outcome of a task attempt.
type StatusReport struct {
	Task   task.Task
	Status task.Status
	Reason string
}

// StatusAgent grades a task result, records completed results and persists
// the task's new status.
type StatusAgent struct {
	llm   perception.LLMClient
	tasks *task.Handler
	log   *zap.Logger
}

// NewStatusAgent creates the agent.
func NewStatusAgent(llm perception.LLMClient, tasks *task.Handler, log *zap.Logger) *StatusAgent {
	return &StatusAgent{llm: llm, tasks: tasks, log: log}
}

// Run grades the result of attempting t. On a completed verdict the result
// is appended to the results log and the task marked completed in storage;
// otherwise the task is saved unchanged and the reason becomes context for
// the next attempt.
func (a *StatusAgent) Run(ctx context.Context, t task.Task, result string) (*StatusReport, error) {
	system, user := prompt.Status.RenderSystemUser(prompt.Vars{
		"task":   t.Description,
		"result": result,
	})

	completion, err := a.llm.CompleteWithSystem(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("status completion failed: %w", err)
	}

	var parsed struct {
		Status string `yaml:"status"`
		Reason string `yaml:"reason"`
	}
	if err := unmarshalCompletion(completion, &parsed); err != nil {
		a.log.Error("status agent returned unparseable output",
			zap.String("completion", completion), zap.Error(err))
		return nil, fmt.Errorf("invalid status YAML: %w", err)
	}

	status := task.Status(strings.ToLower(strings.TrimSpace(parsed.Status)))
	if status != task.StatusCompleted && status != task.StatusNotCompleted {
		return nil, fmt.Errorf("unexpected status %q", parsed.Status)
	}

	report := &StatusReport{
		Task:   t,
		Status: status,
		Reason: strings.TrimSpace(parsed.Reason),
	}

	if status == task.StatusCompleted {
		if err := a.tasks.AppendResult(t, result); err != nil {
			a.log.Warn("failed to log task result", zap.Error(err))
		}
		if err := a.tasks.MarkCompleted(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to mark task completed: %w", err)
		}
	} else {
		if err := a.tasks.Save(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to save task status: %w", err)
		}
	}

	a.log.Info("task graded",
		zap.String("task", t.Description),
		zap.String("status", string(status)))
	return report, nil
}
