package api

import (
	"errors"
	"net/http"

	"github.com/stashsuite/stashweb/internal/api/shared"
	"github.com/stashsuite/stashweb/internal/platform/logger"
	"github.com/stashsuite/stashweb/internal/service/auth"
	"github.com/stashsuite/stashweb/internal/store"
)

// sessionCookieName carries the browser session id so the cache-busting
// counter can be attributed without re-reading the token.
const sessionCookieName = "sid"

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userStore        store.UserStore
	sessionStore     store.SessionStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	sessionStore store.SessionStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
) *AuthHandler {
	return &AuthHandler{
		userStore:        userStore,
		sessionStore:     sessionStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
	}
}

// Login handles the /api/auth/login endpoint. A successful login opens a
// browser session row and issues a token bound to it.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userStore.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Same response as a wrong password; account names are not
			// probeable.
			HandleAPIError(w, r, auth.ErrInvalidCredentials, "")
			return
		}
		log.Error("failed to look up user", "error", err, "username", req.Username)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to authenticate user")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		HandleAPIError(w, r, auth.ErrInvalidCredentials, "")
		return
	}

	session, err := h.sessionStore.Create(r.Context(), user.Username)
	if err != nil {
		log.Error("failed to create session", "error", err, "username", user.Username)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create session")
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), auth.Identity{
		Username:  user.Username,
		Admin:     user.Admin,
		SessionID: session.ID,
	})
	if err != nil {
		log.Error("failed to generate token", "error", err, "username", user.Username)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("user logged in", "username", user.Username, "session_id", session.ID)

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		Token:    token,
		Username: user.Username,
		Admin:    user.Admin,
	})
}
