package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/anselale/Salience/internal/store"
)

// resultSeparator divides appended entries in the results log.
const resultSeparator = "\n\n\n\n---\n\n\n\n"

// Handler owns task persistence and the results log.
type Handler struct {
	store   *store.Store
	logPath string
	log     *zap.Logger
}

// NewHandler creates a task handler writing completed results to logPath.
func NewHandler(s *store.Store, logPath string, log *zap.Logger) *Handler {
	return &Handler{store: s, logPath: logPath, log: log}
}

// Seed replaces the task collection with fresh tasks built from the given
// descriptions, in order.
func (h *Handler) Seed(ctx context.Context, descriptions []string) error {
	tasks := make([]Task, len(descriptions))
	for i, desc := range descriptions {
		tasks[i] = New(i+1, desc)
	}
	return h.Replace(ctx, tasks)
}

// Replace swaps the entire task collection for the given tasks.
func (h *Handler) Replace(ctx context.Context, tasks []Task) error {
	if err := h.store.DeleteCollection(ctx, Collection); err != nil {
		return err
	}
	records := make([]store.Record, len(tasks))
	for i, t := range tasks {
		records[i] = t.Record()
	}
	return h.store.SaveMemory(ctx, Collection, records)
}

// Save upserts a single task.
func (h *Handler) Save(ctx context.Context, t Task) error {
	return h.store.SaveMemory(ctx, Collection, []store.Record{t.Record()})
}

// Ordered returns all tasks sorted by their order.
func (h *Handler) Ordered(ctx context.Context) ([]Task, error) {
	records, err := h.store.LoadCollection(ctx, Collection)
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(records))
	for _, rec := range records {
		t, err := FromRecord(rec)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Order < tasks[j].Order
	})
	return tasks, nil
}

// Current returns the first task in order that is not completed, or nil
// when the list is finished.
func (h *Handler) Current(ctx context.Context) (*Task, error) {
	tasks, err := h.Ordered(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].Status != StatusCompleted {
			return &tasks[i], nil
		}
	}
	return nil, nil
}

// MarkCompleted sets a task's status to completed and persists it.
func (h *Handler) MarkCompleted(ctx context.Context, t Task) error {
	t.Status = StatusCompleted
	return h.Save(ctx, t)
}

// AppendResult appends a completed task's output to the results log.
func (h *Handler) AppendResult(t Task, result string) error {
	entry := resultSeparator + "\nTask: " + t.Description + "\n\n" + result
	return h.appendLog(entry)
}

// LogText appends arbitrary text (such as a rendered board) to the
// results log.
func (h *Handler) LogText(text string) error {
	return h.appendLog(text)
}

func (h *Handler) appendLog(text string) error {
	if h.logPath == "" {
		return nil
	}
	if dir := filepath.Dir(h.logPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}
	f, err := os.OpenFile(h.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open results log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("failed to write results log: %w", err)
	}
	return nil
}
