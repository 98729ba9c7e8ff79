package task

import "errors"

var (
	// ErrUnknownType is returned for task-type names outside the closed set.
	ErrUnknownType = errors.New("unknown task type")

	// ErrNotFound is returned when no handle exists for an id, including
	// handles already revoked.
	ErrNotFound = errors.New("task not found")

	// ErrInvalidTransition is returned when a state change would leave a
	// terminal state or skip backwards.
	ErrInvalidTransition = errors.New("invalid task state transition")

	// ErrQueueUnavailable is returned when a job cannot be enqueued. No
	// partial state survives a failed submission.
	ErrQueueUnavailable = errors.New("task queue unavailable")

	// ErrNoResult marks the fatal inconsistency of a successful task without
	// a result payload.
	ErrNoResult = errors.New("task succeeded without a result")
)
