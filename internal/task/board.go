package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	boardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	completedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pendingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Board renders the objective and task list to the terminal, appends the
// plain-text form to the results log, and returns it.
func (h *Handler) Board(ctx context.Context, title, objective string) (string, error) {
	tasks, err := h.Ordered(ctx)
	if err != nil {
		return "", err
	}

	var styled, plain strings.Builder

	styled.WriteString(boardTitleStyle.Render(fmt.Sprintf("***** %s - TASK LIST *****", title)))
	styled.WriteString("\n")
	styled.WriteString(boardTitleStyle.Render("Objective: " + objective))
	styled.WriteString("\n")

	plain.WriteString("Objective: " + objective + "\n\nTasks:\n")

	for _, t := range tasks {
		status := pendingStyle.Render(string(StatusNotCompleted))
		if t.Status == StatusCompleted {
			status = completedStyle.Render(string(StatusCompleted))
		}
		styled.WriteString(fmt.Sprintf("%d: %s - %s\n", t.Order, t.Description, status))
		plain.WriteString(fmt.Sprintf("\n%d: %s", t.Order, t.Description))
	}

	styled.WriteString(boardTitleStyle.Render("*****"))
	styled.WriteString("\n")
	fmt.Print(styled.String())

	if err := h.LogText(plain.String()); err != nil {
		h.log.Warn("failed to log task board", zap.Error(err))
	}
	return plain.String(), nil
}
