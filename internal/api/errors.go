package api

import (
	"errors"
	"net/http"

	"github.com/stashsuite/stashweb/internal/backend"
	"github.com/stashsuite/stashweb/internal/service/auth"
	"github.com/stashsuite/stashweb/internal/store"
	"github.com/stashsuite/stashweb/internal/task"
)

// API-level sentinel errors for conditions the lower layers do not model.
var (
	// ErrTaskNotOwned is returned when a caller fails the ownership check on
	// a task or its result.
	ErrTaskNotOwned = errors.New("task not owned by caller")

	// ErrBackupRunning rejects a client deletion while that client is being
	// backed up.
	ErrBackupRunning = errors.New("a backup is currently running for this client")

	// ErrTaskNotReady is returned when a result is fetched before the task
	// reached a terminal state.
	ErrTaskNotReady = errors.New("task has not completed yet")

	// ErrRelayFailed is returned when the remote-relay socket cannot be
	// opened or dies before the first payload byte. Unlike an engine query
	// failure this is a fault of the fetch itself, not of the upstream.
	ErrRelayFailed = errors.New("failed to relay remote archive")
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, ErrTaskNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, task.ErrNotFound),
		errors.Is(err, store.ErrTaskRecordNotFound),
		errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Capability errors
	case errors.Is(err, backend.ErrNotSupported):
		return http.StatusMethodNotAllowed

	// Conflict errors
	case errors.Is(err, ErrBackupRunning):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, task.ErrUnknownType),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, ErrTaskNotReady):
		return http.StatusBadRequest

	// Overload
	case errors.Is(err, task.ErrQueueUnavailable):
		return http.StatusServiceUnavailable

	// Upstream failures
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusBadGateway

	// Relay failures surface as our own fault
	case errors.Is(err, ErrRelayFailed):
		return http.StatusInternalServerError

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, ErrTaskNotOwned):
		return "You are not allowed to access this task"

	case errors.Is(err, task.ErrNotFound),
		errors.Is(err, store.ErrTaskRecordNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, backend.ErrNotSupported):
		return "Operation not supported by this node"

	case errors.Is(err, ErrBackupRunning):
		return "A backup is currently running for this client"

	case errors.Is(err, ErrTaskNotReady):
		return "Task has not completed yet"

	case errors.Is(err, task.ErrUnknownType):
		return "Unknown task type"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, task.ErrQueueUnavailable):
		return "Task queue is full, try again later"

	case errors.Is(err, backend.ErrUnavailable):
		return "Backup engine unavailable"

	case errors.Is(err, ErrRelayFailed):
		return "Failed to retrieve archive from remote node"

	default:
		return "An unexpected error occurred"
	}
}
