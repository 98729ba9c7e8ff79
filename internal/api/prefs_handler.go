package api

import (
	"net/http"

	"github.com/stashsuite/stashweb/internal/api/shared"
	"github.com/stashsuite/stashweb/internal/store"
)

// PrefsHandler serves per-user UI preferences.
type PrefsHandler struct {
	prefs store.PrefsStore
}

// NewPrefsHandler creates a PrefsHandler.
func NewPrefsHandler(prefs store.PrefsStore) *PrefsHandler {
	return &PrefsHandler{prefs: prefs}
}

// Get handles GET /api/prefs.
func (h *PrefsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	prefs, err := h.prefs.Get(r.Context(), identity.Username)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load preferences")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PrefsResponse{
		Username:   prefs.Username,
		PageLength: prefs.PageLength,
		DarkMode:   prefs.DarkMode,
	})
}

// Put handles PUT /api/prefs.
func (h *PrefsHandler) Put(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req PrefsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	prefs := &store.Prefs{
		Username:   identity.Username,
		PageLength: req.PageLength,
		DarkMode:   req.DarkMode,
	}
	if err := h.prefs.Put(r.Context(), prefs); err != nil {
		HandleAPIError(w, r, err, "Failed to save preferences")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PrefsResponse{
		Username:   prefs.Username,
		PageLength: prefs.PageLength,
		DarkMode:   prefs.DarkMode,
	})
}
