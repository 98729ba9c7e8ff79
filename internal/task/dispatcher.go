package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stashsuite/stashweb/internal/platform/logger"
	"github.com/stashsuite/stashweb/internal/store"
)

// queued pairs a job with its assigned handle id on the worker channel.
type queued struct {
	id  uuid.UUID
	job *Job
}

// Dispatcher accepts typed job descriptions and hands them to the worker
// pool without blocking. Submission returns a fresh handle id immediately;
// callers poll the registry for progress.
type Dispatcher struct {
	registry *Registry
	queue    chan queued
	records  store.TaskRecordStore
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher feeding a buffered queue of the given
// size. records may be nil when durable bookkeeping is disabled.
func NewDispatcher(registry *Registry, queueSize int, records store.TaskRecordStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		queue:    make(chan queued, queueSize),
		records:  records,
		logger:   logger.With(slog.String("component", "task_dispatcher")),
	}
}

// Submit registers a handle for the job and enqueues it for out-of-band
// execution. timeout bounds the durable record's expiry. If the queue cannot
// accept the job, no state is left behind and ErrQueueUnavailable is
// returned.
func (d *Dispatcher) Submit(ctx context.Context, job *Job, timeout time.Duration) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	id := uuid.New()
	d.registry.Register(id, job)

	select {
	case d.queue <- queued{id: id, job: job}:
	default:
		d.registry.Revoke(id)
		return uuid.Nil, ErrQueueUnavailable
	}

	log.Info("task submitted",
		"task_id", id,
		"task_type", job.Type.String(),
		"task_name", job.Type.JobName(),
		"owner", job.Owner,
		"node", job.Node)

	// Durable bookkeeping is best-effort: a record failure must never undo
	// an accepted submission. The reaper relies on these rows, nothing in
	// the primary flow does.
	if d.records != nil {
		now := time.Now().UTC()
		rec := &store.TaskRecord{
			ID:        id,
			Name:      job.Type.JobName(),
			Owner:     job.Owner,
			CreatedAt: now,
			ExpiresAt: now.Add(timeout),
		}
		if err := d.records.Create(ctx, rec); err != nil {
			log.Warn("failed to create durable task record",
				"task_id", id,
				"error", err)
		}
	}

	return id, nil
}

// Queue exposes the read side of the job channel to the runner.
func (d *Dispatcher) Queue() <-chan queued {
	return d.queue
}
