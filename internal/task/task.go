// Package task manages the persistent ordered task list.
package task

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/anselale/Salience/internal/store"
)

// Collection is the store collection tasks live in.
const Collection = "tasks"

// Status is a task's completion state.
type Status string

const (
	StatusNotCompleted Status = "not completed"
	StatusCompleted    Status = "completed"
)

// Task is one entry in the agent's task list.
type Task struct {
	ID          string
	Description string
	Order       int
	Status      Status
	ListID      string
}

// New builds a fresh task at the given position (1-based).
func New(order int, description string) Task {
	return Task{
		ID:          strconv.Itoa(order),
		Description: description,
		Order:       order,
		Status:      StatusNotCompleted,
		ListID:      uuid.NewString(),
	}
}

// Record converts the task to its stored form. Metadata key spelling is
// kept from the original data files.
func (t Task) Record() store.Record {
	return store.Record{
		ID:       t.ID,
		Document: t.Description,
		Metadata: map[string]any{
			"Status":      string(t.Status),
			"Description": t.Description,
			"Order":       t.Order,
			"List_ID":     t.ListID,
		},
	}
}

// FromRecord rebuilds a task from its stored form.
func FromRecord(rec store.Record) (Task, error) {
	t := Task{
		ID:          rec.ID,
		Description: rec.Document,
		Status:      StatusNotCompleted,
	}
	if desc, ok := rec.Metadata["Description"].(string); ok && desc != "" {
		t.Description = desc
	}
	if status, ok := rec.Metadata["Status"].(string); ok && status != "" {
		t.Status = Status(status)
	}
	if listID, ok := rec.Metadata["List_ID"].(string); ok {
		t.ListID = listID
	}

	order, err := asInt(rec.Metadata["Order"])
	if err != nil {
		return Task{}, fmt.Errorf("task %s has invalid order: %w", rec.ID, err)
	}
	t.Order = order
	return t, nil
}

// asInt handles the numeric types JSON metadata round-trips through.
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unsupported order type %T", v)
	}
}
