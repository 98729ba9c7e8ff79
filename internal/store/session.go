package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is a browser session row. Extra is the client-observable
// cache-busting counter: clients append it to asset URLs, so bumping it
// invalidates their local caches.
type Session struct {
	ID        uuid.UUID
	Username  string
	Extra     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionStore persists browser sessions and their cache-busting counters.
type SessionStore interface {
	// Create inserts a new session for the given user.
	Create(ctx context.Context, username string) (*Session, error)

	// Get returns the session with the given id, or ErrSessionNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)

	// BumpExtra atomically increments the session's counter by one and
	// returns the new value.
	BumpExtra(ctx context.Context, id uuid.UUID) (int64, error)
}
