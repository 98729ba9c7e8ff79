package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stashsuite/stashweb/internal/config"
	"github.com/stashsuite/stashweb/internal/service/auth"
	"github.com/stashsuite/stashweb/internal/store"
)

// fakeUsers is an in-memory store.UserStore.
type fakeUsers struct {
	users map[string]*store.User
}

var _ store.UserStore = (*fakeUsers)(nil)

func (s *fakeUsers) GetByUsername(ctx context.Context, username string) (*store.User, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func newAuthHandlerUnderTest(t *testing.T) (*AuthHandler, *fakeSessions) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &fakeUsers{users: map[string]*store.User{
		"alice": {
			Username:       "alice",
			HashedPassword: string(hash),
			Admin:          false,
			CreatedAt:      time.Now().UTC(),
		},
	}}
	sessions := newFakeSessions()

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "0123456789abcdef0123456789abcdef",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	return NewAuthHandler(users, sessions, jwtService, auth.NewBcryptVerifier()), sessions
}

func postLogin(handler *AuthHandler, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)
	return rec
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	t.Run("success issues a token and a session", func(t *testing.T) {
		t.Parallel()

		handler, sessions := newAuthHandlerUnderTest(t)
		rec := postLogin(handler, LoginRequest{Username: "alice", Password: "correct horse"})

		require.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "alice", resp.Username)
		assert.False(t, resp.Admin)

		// A session row was opened and its id travels in the sid cookie.
		assert.Len(t, sessions.extras, 1)
		cookie := rec.Header().Get("Set-Cookie")
		assert.True(t, strings.HasPrefix(cookie, "sid="))
		assert.Contains(t, cookie, "HttpOnly")
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		handler, _ := newAuthHandlerUnderTest(t)
		rec := postLogin(handler, LoginRequest{Username: "alice", Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user looks like wrong password", func(t *testing.T) {
		t.Parallel()

		handler, _ := newAuthHandlerUnderTest(t)
		rec := postLogin(handler, LoginRequest{Username: "mallory", Password: "whatever"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotContains(t, rec.Body.String(), "not found")
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()

		handler, _ := newAuthHandlerUnderTest(t)
		rec := postLogin(handler, LoginRequest{Username: "alice"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
