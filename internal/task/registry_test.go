package task

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("register and read back", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		id := uuid.New()
		r.Register(id, &Job{Type: TypeBrowse, Owner: "alice", Node: "node1"})

		snap, err := r.Status(id)
		require.NoError(t, err)
		assert.Equal(t, TypeBrowse, snap.Type)
		assert.Equal(t, StatePending, snap.State)
		assert.Equal(t, "alice", snap.Owner)
		assert.Equal(t, "node1", snap.Node)
		assert.Nil(t, snap.Result)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		_, err := r.Status(uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("success path", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		id := uuid.New()
		r.Register(id, &Job{Type: TypeRestore, Owner: "alice"})

		require.NoError(t, r.SetRunning(id))
		require.NoError(t, r.SetSuccess(id, &Result{Owner: "alice", Path: "/tmp/a.zip"}))

		snap, err := r.Status(id)
		require.NoError(t, err)
		assert.Equal(t, StateSuccess, snap.State)
		require.NotNil(t, snap.Result)
		assert.Equal(t, "/tmp/a.zip", snap.Result.Path)
	})

	t.Run("failure path", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		id := uuid.New()
		r.Register(id, &Job{Type: TypeDelete, Owner: "bob"})

		require.NoError(t, r.SetRunning(id))
		cause := errors.New("engine exploded")
		require.NoError(t, r.SetFailure(id, cause))

		snap, err := r.Status(id)
		require.NoError(t, err)
		assert.Equal(t, StateFailure, snap.State)
		assert.ErrorIs(t, snap.Err, cause)
	})
}

func TestRegistry_TransitionsAreMonotonic(t *testing.T) {
	t.Parallel()

	t.Run("terminal state never changes", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		id := uuid.New()
		r.Register(id, &Job{Type: TypeBrowse, Owner: "alice"})
		require.NoError(t, r.SetRunning(id))
		require.NoError(t, r.SetSuccess(id, &Result{Owner: "alice"}))

		assert.ErrorIs(t, r.SetRunning(id), ErrInvalidTransition)
		assert.ErrorIs(t, r.SetFailure(id, errors.New("late")), ErrInvalidTransition)

		snap, err := r.Status(id)
		require.NoError(t, err)
		assert.Equal(t, StateSuccess, snap.State)
	})

	t.Run("no backwards transition", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		id := uuid.New()
		r.Register(id, &Job{Type: TypeBrowse, Owner: "alice"})
		require.NoError(t, r.SetRunning(id))

		assert.ErrorIs(t, r.SetRunning(id), ErrInvalidTransition)
	})

	t.Run("transition on unknown id", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		assert.ErrorIs(t, r.SetRunning(uuid.New()), ErrNotFound)
	})
}

func TestRegistry_Revoke(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	id := uuid.New()
	r.Register(id, &Job{Type: TypeRestore, Owner: "alice"})
	require.Equal(t, 1, r.Len())

	r.Revoke(id)
	assert.Equal(t, 0, r.Len())

	_, err := r.Status(id)
	assert.ErrorIs(t, err, ErrNotFound)

	// Revoking again must stay a no-op.
	r.Revoke(id)
	assert.Equal(t, 0, r.Len())
}
