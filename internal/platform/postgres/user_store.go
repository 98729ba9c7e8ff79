package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stashsuite/stashweb/internal/store"
)

// UserStore implements store.UserStore using PostgreSQL.
type UserStore struct {
	db store.DBTX
}

// NewUserStore creates a new PostgreSQL implementation of the UserStore
// interface.
func NewUserStore(db store.DBTX) *UserStore {
	return &UserStore{db: db}
}

// Ensure UserStore implements store.UserStore
var _ store.UserStore = (*UserStore)(nil)

// GetByUsername implements store.UserStore.GetByUsername
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT username, hashed_password, admin, created_at
		FROM users
		WHERE username = $1
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).
		Scan(&user.Username, &user.HashedPassword, &user.Admin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", mapError(err))
	}
	return &user, nil
}

// PrefsStore implements store.PrefsStore using PostgreSQL.
type PrefsStore struct {
	db store.DBTX
}

// NewPrefsStore creates a new PostgreSQL implementation of the PrefsStore
// interface.
func NewPrefsStore(db store.DBTX) *PrefsStore {
	return &PrefsStore{db: db}
}

// Ensure PrefsStore implements store.PrefsStore
var _ store.PrefsStore = (*PrefsStore)(nil)

// defaultPrefs are served for users who never saved any.
func defaultPrefs(username string) *store.Prefs {
	return &store.Prefs{
		Username:   username,
		PageLength: 10,
		DarkMode:   false,
	}
}

// Get implements store.PrefsStore.Get
func (s *PrefsStore) Get(ctx context.Context, username string) (*store.Prefs, error) {
	query := `
		SELECT username, page_length, dark_mode, updated_at
		FROM user_prefs
		WHERE username = $1
	`
	var prefs store.Prefs
	err := s.db.QueryRowContext(ctx, query, username).
		Scan(&prefs.Username, &prefs.PageLength, &prefs.DarkMode, &prefs.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return defaultPrefs(username), nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", mapError(err))
	}
	return &prefs, nil
}

// Put implements store.PrefsStore.Put
func (s *PrefsStore) Put(ctx context.Context, prefs *store.Prefs) error {
	query := `
		INSERT INTO user_prefs (username, page_length, dark_mode, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE
		SET page_length = EXCLUDED.page_length,
		    dark_mode = EXCLUDED.dark_mode,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		prefs.Username, prefs.PageLength, prefs.DarkMode, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", mapError(err))
	}
	return nil
}
