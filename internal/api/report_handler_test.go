package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stashsuite/stashweb/internal/api/shared"
	"github.com/stashsuite/stashweb/internal/backend"
	"github.com/stashsuite/stashweb/internal/service/auth"
	"github.com/stashsuite/stashweb/internal/webcache"
)

// authedGet builds a GET request carrying the given identity, the way the
// auth middleware would have left it.
func authedGet(target string, identity auth.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	ctx := context.WithValue(req.Context(), shared.IdentityContextKey, identity)
	return req.WithContext(ctx)
}

func TestReportHandler_BackupRunning(t *testing.T) {
	t.Parallel()

	t.Run("answers from the engine and fills the cache", func(t *testing.T) {
		t.Parallel()

		calls := 0
		be := &backend.MockBackend{
			IsOneBackupRunningFn: func(ctx context.Context, node string) (bool, error) {
				calls++
				return true, nil
			},
		}
		handler := NewReportHandler(be, webcache.New(8, time.Minute))

		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			handler.BackupRunning(rec, authedGet("/api/tasks/backup-running", alice()))
			require.Equal(t, http.StatusOK, rec.Code)

			var resp BackupRunningResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.True(t, resp.Running)
		}

		// Only the first request reached the engine.
		assert.Equal(t, 1, calls)
	})

	t.Run("nodes are cached independently", func(t *testing.T) {
		t.Parallel()

		be := &backend.MockBackend{
			IsOneBackupRunningFn: func(ctx context.Context, node string) (bool, error) {
				return node == "remote1", nil
			},
		}
		handler := NewReportHandler(be, webcache.New(8, time.Minute))

		rec := httptest.NewRecorder()
		handler.BackupRunning(rec, authedGet("/api/tasks/backup-running?serverName=remote1", alice()))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "true")

		rec = httptest.NewRecorder()
		handler.BackupRunning(rec, authedGet("/api/tasks/backup-running", alice()))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "false")
	})

	t.Run("engine failure maps to bad gateway", func(t *testing.T) {
		t.Parallel()

		be := &backend.MockBackend{
			IsOneBackupRunningFn: func(ctx context.Context, node string) (bool, error) {
				return false, backend.ErrUnavailable
			},
		}
		handler := NewReportHandler(be, webcache.New(8, time.Minute))

		rec := httptest.NewRecorder()
		handler.BackupRunning(rec, authedGet("/api/tasks/backup-running", alice()))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestReportHandler_Report(t *testing.T) {
	t.Parallel()

	t.Run("serves the aggregate report and caches it", func(t *testing.T) {
		t.Parallel()

		calls := 0
		be := &backend.MockBackend{
			ClientsReportFn: func(ctx context.Context, node string) (*backend.Report, error) {
				calls++
				return &backend.Report{Clients: []backend.ClientStats{
					{Name: "alice", Backups: 3, Total: 120, TotSize: 4096},
				}}, nil
			},
		}
		handler := NewReportHandler(be, webcache.New(8, time.Minute))

		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			handler.Report(rec, authedGet("/api/tasks/report", alice()))
			require.Equal(t, http.StatusOK, rec.Code)

			var resp backend.Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Len(t, resp.Clients, 1)
			assert.Equal(t, "alice", resp.Clients[0].Name)
		}

		assert.Equal(t, 1, calls)
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		t.Parallel()

		handler := NewReportHandler(&backend.MockBackend{}, webcache.New(8, time.Minute))

		rec := httptest.NewRecorder()
		handler.Report(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/report", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
