package task

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Snapshot is a consistent view of a handle at one instant.
type Snapshot struct {
	ID    uuid.UUID
	Type  Type
	State State

	// Owner and Node are recorded at submission. They back the cancellation
	// check while no result exists yet.
	Owner string
	Node  string

	// Result is set once State is StateSuccess.
	Result *Result

	// Err is set once State is StateFailure.
	Err error
}

// Registry tracks in-flight and completed task handles in memory. State
// transitions are driven exclusively by the runner; consumers only read and,
// exactly once, revoke.
type Registry struct {
	mu      sync.RWMutex
	handles map[uuid.UUID]*handle
}

type handle struct {
	typ    Type
	owner  string
	node   string
	state  State
	result *Result
	err    error
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[uuid.UUID]*handle),
	}
}

// Register creates a pending handle for a freshly submitted job.
func (r *Registry) Register(id uuid.UUID, job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[id] = &handle{
		typ:   job.Type,
		owner: job.Owner,
		node:  job.Node,
		state: StatePending,
	}
}

// Status returns a snapshot of the handle, or ErrNotFound for unknown or
// revoked ids.
func (r *Registry) Status(id uuid.UUID) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Snapshot{
		ID:     id,
		Type:   h.typ,
		State:  h.state,
		Owner:  h.owner,
		Node:   h.node,
		Result: h.result,
		Err:    h.err,
	}, nil
}

// SetRunning marks a pending handle as running.
func (r *Registry) SetRunning(id uuid.UUID) error {
	return r.transition(id, StateRunning, nil, nil)
}

// SetSuccess marks a handle terminal with the given result.
func (r *Registry) SetSuccess(id uuid.UUID, result *Result) error {
	return r.transition(id, StateSuccess, result, nil)
}

// SetFailure marks a handle terminal with the given error.
func (r *Registry) SetFailure(id uuid.UUID, err error) error {
	return r.transition(id, StateFailure, nil, err)
}

func (r *Registry) transition(id uuid.UUID, to State, result *Result, taskErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if !ok {
		return ErrNotFound
	}
	// Terminal states are never left, and states never move backwards.
	if h.state.Terminal() || to <= h.state {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, h.state, to)
	}
	h.state = to
	h.result = result
	h.err = taskErr
	return nil
}

// Revoke releases the handle. Revoking an unknown or already-revoked id is a
// no-op: consumers on both the fetch and cancel paths call it without
// coordinating.
func (r *Registry) Revoke(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, id)
}

// Len reports how many handles are live; it bounds result-backend memory.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
