// Package auth provides token-based authentication for the console API.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Identity is the authenticated caller as seen by every handler. It travels
// through the request context instead of any ambient global.
type Identity struct {
	// Username is the console account name; task ownership is matched
	// against it.
	Username string

	// Admin grants access to every task result and to client deletion.
	Admin bool

	// SessionID identifies the browser session carrying the cache-busting
	// counter.
	SessionID uuid.UUID
}

// JWTService defines operations for managing JWT access tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for the given identity.
	GenerateToken(ctx context.Context, identity Identity) (string, error)

	// ValidateToken validates the provided token string and extracts the
	// claims. Returns ErrExpiredToken or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the application view of a validated token.
type Claims struct {
	Username  string
	Admin     bool
	SessionID uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity converts the claims back into the caller identity.
func (c *Claims) Identity() Identity {
	return Identity{
		Username:  c.Username,
		Admin:     c.Admin,
		SessionID: c.SessionID,
	}
}
