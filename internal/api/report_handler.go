package api

import (
	"net/http"

	"github.com/stashsuite/stashweb/internal/api/shared"
	"github.com/stashsuite/stashweb/internal/backend"
	"github.com/stashsuite/stashweb/internal/webcache"
)

// ReportHandler serves the aggregate engine views the dashboard polls on
// every page load, answered from the web cache whenever possible.
type ReportHandler struct {
	backend backend.Backend
	cache   *webcache.Cache
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(be backend.Backend, cache *webcache.Cache) *ReportHandler {
	return &ReportHandler{backend: be, cache: cache}
}

// BackupRunning handles GET /api/tasks/backup-running.
func (h *ReportHandler) BackupRunning(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	node := targetNode(r)
	key := webcache.KeyBackupRunning + ":" + node

	if cached, ok := h.cache.Get(key); ok {
		if running, ok := cached.(bool); ok {
			shared.RespondWithJSON(w, r, http.StatusOK, BackupRunningResponse{Running: running})
			return
		}
	}

	running, err := h.backend.IsOneBackupRunning(r.Context(), node)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.cache.Set(key, running)
	shared.RespondWithJSON(w, r, http.StatusOK, BackupRunningResponse{Running: running})
}

// Report handles GET /api/tasks/report.
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	node := targetNode(r)
	key := webcache.KeyClientsReport + ":" + node

	if cached, ok := h.cache.Get(key); ok {
		if report, ok := cached.(*backend.Report); ok {
			shared.RespondWithJSON(w, r, http.StatusOK, report)
			return
		}
	}

	report, err := h.backend.ClientsReport(r.Context(), node)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.cache.Set(key, report)
	shared.RespondWithJSON(w, r, http.StatusOK, report)
}
