package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/anselale/Salience/internal/perception"
	"github.com/anselale/Salience/internal/prompt"
)

// ExecutionInputs carries everything the execution agent may draw on.
// Summary, Context and Feedback are optional and drop out of the prompt
// when empty.
type ExecutionInputs struct {
	Objective string
	Task      string
	Summary   string
	Context   string
	Feedback  string
}

// ExecutionAgent performs the current task through the LLM.
type ExecutionAgent struct {
	llm perception.LLMClient
	log *zap.Logger
}

// NewExecutionAgent creates the agent.
func NewExecutionAgent(llm perception.LLMClient, log *zap.Logger) *ExecutionAgent {
	return &ExecutionAgent{llm: llm, log: log}
}

// Run executes the task and returns the raw result text.
func (a *ExecutionAgent) Run(ctx context.Context, in ExecutionInputs) (string, error) {
	if in.Task == "" {
		return "", fmt.Errorf("execution requires a task")
	}

	system, user := prompt.Execution.RenderSystemUser(prompt.Vars{
		"objective": in.Objective,
		"task":      in.Task,
		"summary":   in.Summary,
		"context":   in.Context,
		"feedback":  in.Feedback,
	})

	completion, err := a.llm.CompleteWithSystem(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("execution completion failed: %w", err)
	}
	a.log.Debug("task executed", zap.String("task", in.Task))
	return strings.TrimSpace(completion), nil
}
