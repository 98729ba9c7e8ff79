package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stashsuite/stashweb/internal/api/middleware"
	"github.com/stashsuite/stashweb/internal/api/shared"
	"github.com/stashsuite/stashweb/internal/service/auth"
)

// HandleAPIError writes the response for err using the shared status and
// message mapping. An empty userMessage falls back to the safe message for
// the error type.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// requireIdentity extracts the authenticated caller, writing the error
// response itself when the middleware did not run or the context is broken.
func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return auth.Identity{}, false
	}
	return identity, true
}

// pathUUID extracts and parses a UUID path parameter.
func pathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s parameter", paramName)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s parameter: %w", paramName, err)
	}
	return id, nil
}

// targetNode returns the node the request addresses; empty means the local
// engine.
func targetNode(r *http.Request) string {
	return r.URL.Query().Get("serverName")
}
