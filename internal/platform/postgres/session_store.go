package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stashsuite/stashweb/internal/store"
)

// SessionStore implements store.SessionStore using PostgreSQL.
type SessionStore struct {
	db store.DBTX
}

// NewSessionStore creates a new PostgreSQL implementation of the
// SessionStore interface.
func NewSessionStore(db store.DBTX) *SessionStore {
	return &SessionStore{db: db}
}

// Ensure SessionStore implements store.SessionStore
var _ store.SessionStore = (*SessionStore)(nil)

// Create implements store.SessionStore.Create
func (s *SessionStore) Create(ctx context.Context, username string) (*store.Session, error) {
	now := time.Now().UTC()
	session := &store.Session{
		ID:        uuid.New(),
		Username:  username,
		Extra:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO sessions (id, username, extra, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID, session.Username, session.Extra, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", mapError(err))
	}
	return session, nil
}

// Get implements store.SessionStore.Get
func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (*store.Session, error) {
	query := `
		SELECT id, username, extra, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`
	var session store.Session
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&session.ID, &session.Username, &session.Extra,
			&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", mapError(err))
	}
	return &session, nil
}

// BumpExtra implements store.SessionStore.BumpExtra. The increment happens
// in the database so concurrent bumps serialize there.
func (s *SessionStore) BumpExtra(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `
		UPDATE sessions
		SET extra = extra + 1, updated_at = $2
		WHERE id = $1
		RETURNING extra
	`
	var extra int64
	err := s.db.QueryRowContext(ctx, query, id, time.Now().UTC()).Scan(&extra)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrSessionNotFound
		}
		return 0, fmt.Errorf("failed to bump session counter: %w", mapError(err))
	}
	return extra, nil
}
