package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/anselale/Salience/internal/perception"
	"github.com/anselale/Salience/internal/prompt"
	"github.com/anselale/Salience/internal/task"
)

// TaskCreationAgent turns an objective into a fresh ordered task list and
// replaces the stored one with it.
type TaskCreationAgent struct {
	llm   perception.LLMClient
	tasks *task.Handler
	log   *zap.Logger
}

// NewTaskCreationAgent creates the agent.
func NewTaskCreationAgent(llm perception.LLMClient, tasks *task.Handler, log *zap.Logger) *TaskCreationAgent {
	return &TaskCreationAgent{llm: llm, tasks: tasks, log: log}
}

// Run generates tasks for the objective and replaces the task collection.
// On any parse failure the stored collection is left untouched.
func (a *TaskCreationAgent) Run(ctx context.Context, objective string) ([]task.Task, error) {
	system, user := prompt.TaskCreation.RenderSystemUser(prompt.Vars{
		"objective": objective,
	})

	completion, err := a.llm.CompleteWithSystem(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("task creation completion failed: %w", err)
	}

	tasks, err := parseTaskList(completion)
	if err != nil {
		a.log.Error("task creation returned unparseable output",
			zap.String("completion", completion), zap.Error(err))
		return nil, err
	}

	if err := a.tasks.Replace(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to save tasks: %w", err)
	}
	a.log.Info("task list created", zap.Int("count", len(tasks)))
	return tasks, nil
}

// parseTaskList extracts the ordered tasks from a YAML completion.
func parseTaskList(completion string) ([]task.Task, error) {
	var parsed struct {
		Tasks []string `yaml:"tasks"`
	}
	if err := unmarshalCompletion(completion, &parsed); err != nil {
		return nil, fmt.Errorf("invalid task list YAML: %w", err)
	}
	if len(parsed.Tasks) == 0 {
		return nil, fmt.Errorf("no 'tasks' key found in completion")
	}

	tasks := make([]task.Task, len(parsed.Tasks))
	for i, desc := range parsed.Tasks {
		tasks[i] = task.New(i+1, desc)
	}
	return tasks, nil
}
