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

// TaskRecordStore implements store.TaskRecordStore using PostgreSQL.
type TaskRecordStore struct {
	db store.DBTX
}

// NewTaskRecordStore creates a new PostgreSQL implementation of the
// TaskRecordStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewTaskRecordStore(db store.DBTX) *TaskRecordStore {
	return &TaskRecordStore{db: db}
}

// Ensure TaskRecordStore implements store.TaskRecordStore
var _ store.TaskRecordStore = (*TaskRecordStore)(nil)

// Create implements store.TaskRecordStore.Create
func (s *TaskRecordStore) Create(ctx context.Context, rec *store.TaskRecord) error {
	query := `
		INSERT INTO task_records (id, name, owner, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Owner, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create task record: %w", mapError(err))
	}
	return nil
}

// Get implements store.TaskRecordStore.Get
func (s *TaskRecordStore) Get(ctx context.Context, id uuid.UUID) (*store.TaskRecord, error) {
	query := `
		SELECT id, name, owner, created_at, expires_at
		FROM task_records
		WHERE id = $1
	`
	var rec store.TaskRecord
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&rec.ID, &rec.Name, &rec.Owner, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskRecordNotFound
		}
		return nil, fmt.Errorf("failed to get task record: %w", mapError(err))
	}
	return &rec, nil
}

// Delete implements store.TaskRecordStore.Delete. Deleting a missing record
// is a no-op so cleanup stays idempotent.
func (s *TaskRecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM task_records WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete task record: %w", mapError(err))
	}
	return nil
}

// ListExpired implements store.TaskRecordStore.ListExpired
func (s *TaskRecordStore) ListExpired(ctx context.Context, now time.Time) ([]*store.TaskRecord, error) {
	query := `
		SELECT id, name, owner, created_at, expires_at
		FROM task_records
		WHERE expires_at <= $1
		ORDER BY expires_at
	`
	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired task records: %w", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []*store.TaskRecord
	for rows.Next() {
		var rec store.TaskRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Owner, &rec.CreatedAt, &rec.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan task record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task records: %w", err)
	}
	return records, nil
}

// WithTx implements store.TaskRecordStore.WithTx
func (s *TaskRecordStore) WithTx(tx *sql.Tx) store.TaskRecordStore {
	return &TaskRecordStore{db: tx}
}
