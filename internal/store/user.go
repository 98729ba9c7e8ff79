package store

import (
	"context"
	"time"
)

// User is a console account. Admin grants access to every task result and to
// the client-deletion endpoint.
type User struct {
	Username       string
	HashedPassword string
	Admin          bool
	CreatedAt      time.Time
}

// UserStore looks up console accounts for authentication.
type UserStore interface {
	// GetByUsername returns the user with the given name, or ErrUserNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// Prefs holds per-user UI preferences.
type Prefs struct {
	Username   string
	PageLength int
	DarkMode   bool
	UpdatedAt  time.Time
}

// PrefsStore persists per-user UI preferences. Get on a user without saved
// preferences returns the defaults rather than an error.
type PrefsStore interface {
	Get(ctx context.Context, username string) (*Prefs, error)
	Put(ctx context.Context, prefs *Prefs) error
}
