package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TaskRecord is the durable bookkeeping row tracking an asynchronous task
// independently of the in-memory registry. It exists so that an external
// reaper can find tasks whose results were never consumed.
type TaskRecord struct {
	// ID is shared with the registry handle id.
	ID uuid.UUID

	// Name is the human task-type name ("perform_restore", "load_all_tree",
	// "delete_client").
	Name string

	// Owner is the username of the submitter.
	Owner string

	CreatedAt time.Time

	// ExpiresAt is CreatedAt plus the submission timeout; past this point the
	// reaper may discard the record and any temporary files.
	ExpiresAt time.Time
}

// TaskRecordStore persists durable task records. Writes are best-effort from
// the caller's point of view: a bookkeeping failure must never block the
// primary task flow.
type TaskRecordStore interface {
	// Create inserts a new record.
	Create(ctx context.Context, rec *TaskRecord) error

	// Get returns the record for the given task id, or ErrTaskRecordNotFound.
	Get(ctx context.Context, id uuid.UUID) (*TaskRecord, error)

	// Delete removes the record for the given task id. Deleting a record that
	// does not exist is not an error; cleanup must stay idempotent.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListExpired returns records whose expiry has elapsed at the given
	// instant. Consumed by the external reaper, not by this core.
	ListExpired(ctx context.Context, now time.Time) ([]*TaskRecord, error)

	// WithTx returns a store bound to the provided transaction.
	WithTx(tx *sql.Tx) TaskRecordStore
}
