package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stashsuite/stashweb/internal/backend"
	"github.com/stashsuite/stashweb/internal/service/auth"
	"github.com/stashsuite/stashweb/internal/store"
	"github.com/stashsuite/stashweb/internal/task"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"not owned", ErrTaskNotOwned, http.StatusForbidden},
		{"task not found", task.ErrNotFound, http.StatusNotFound},
		{"record not found", store.ErrTaskRecordNotFound, http.StatusNotFound},
		{"not supported", backend.ErrNotSupported, http.StatusMethodNotAllowed},
		{"backup running", ErrBackupRunning, http.StatusConflict},
		{"not ready", ErrTaskNotReady, http.StatusBadRequest},
		{"unknown type", task.ErrUnknownType, http.StatusBadRequest},
		{"queue full", task.ErrQueueUnavailable, http.StatusServiceUnavailable},
		{"engine down", backend.ErrUnavailable, http.StatusBadGateway},
		{"relay failed", ErrRelayFailed, http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("submit: %w", task.ErrQueueUnavailable), http.StatusServiceUnavailable},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"credentials", auth.ErrInvalidCredentials, "Invalid credentials"},
		{"not owned", ErrTaskNotOwned, "You are not allowed to access this task"},
		{"task not found", task.ErrNotFound, "Task not found"},
		{"queue full", task.ErrQueueUnavailable, "Task queue is full, try again later"},
		{"engine down", backend.ErrUnavailable, "Backup engine unavailable"},
		{"relay failed", ErrRelayFailed, "Failed to retrieve archive from remote node"},
		{"nil", nil, "An unexpected error occurred"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}

	t.Run("internal detail never leaks", func(t *testing.T) {
		t.Parallel()
		msg := GetSafeErrorMessage(errors.New("pq: connection refused on 10.0.0.3"))
		assert.NotContains(t, msg, "10.0.0.3")
	})
}
