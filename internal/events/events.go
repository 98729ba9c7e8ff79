// Package events decouples task-lifecycle notifications from the components
// that react to them (currently the websocket hub).
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskCompletionEvent is published when a task reaches a terminal state.
type TaskCompletionEvent struct {
	// TaskID is the registry handle id.
	TaskID uuid.UUID `json:"task_id"`

	// Name is the human task-type name.
	Name string `json:"name"`

	// State is the terminal state, "SUCCESS" or "FAILURE".
	State string `json:"state"`

	// Owner is the submitting username; notification fan-out filters on it.
	Owner string `json:"owner"`

	CompletedAt time.Time `json:"completed_at"`
}

// EventHandler reacts to completion events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *TaskCompletionEvent) error
}

// EventEmitter publishes completion events to registered handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskCompletionEvent) error
}
