package webcache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stashsuite/stashweb/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCache(t *testing.T) {
	t.Parallel()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		c := New(8, time.Minute)
		c.Set(KeyBackupRunning, true)

		got, ok := c.Get(KeyBackupRunning)
		require.True(t, ok)
		assert.Equal(t, true, got)
	})

	t.Run("miss", func(t *testing.T) {
		t.Parallel()

		c := New(8, time.Minute)
		_, ok := c.Get("absent")
		assert.False(t, ok)
	})

	t.Run("purge drops everything", func(t *testing.T) {
		t.Parallel()

		c := New(8, time.Minute)
		c.Set(KeyBackupRunning, true)
		c.Set(KeyClientsReport, "report")
		require.Equal(t, 2, c.Len())

		c.Purge()
		assert.Equal(t, 0, c.Len())
	})

	t.Run("entries expire", func(t *testing.T) {
		t.Parallel()

		c := New(8, 20*time.Millisecond)
		c.Set(KeyBackupRunning, true)

		time.Sleep(60 * time.Millisecond)
		_, ok := c.Get(KeyBackupRunning)
		assert.False(t, ok)
	})
}

// fakeSessions implements store.SessionStore in memory.
type fakeSessions struct {
	extras   map[uuid.UUID]int64
	failBump bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{extras: make(map[uuid.UUID]int64)}
}

var _ store.SessionStore = (*fakeSessions)(nil)

func (s *fakeSessions) Create(ctx context.Context, username string) (*store.Session, error) {
	id := uuid.New()
	s.extras[id] = 0
	return &store.Session{ID: id, Username: username}, nil
}

func (s *fakeSessions) Get(ctx context.Context, id uuid.UUID) (*store.Session, error) {
	extra, ok := s.extras[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return &store.Session{ID: id, Extra: extra}, nil
}

func (s *fakeSessions) BumpExtra(ctx context.Context, id uuid.UUID) (int64, error) {
	if s.failBump {
		return 0, errors.New("session store down")
	}
	s.extras[id]++
	return s.extras[id], nil
}

// fakeKicker counts refresh requests.
type fakeKicker struct {
	kicks int
}

func (k *fakeKicker) KickNow() { k.kicks++ }

func TestInvalidator_OnClientDeleted(t *testing.T) {
	t.Parallel()

	t.Run("purges cache, bumps counter and kicks refresh", func(t *testing.T) {
		t.Parallel()

		cache := New(8, time.Minute)
		cache.Set(KeyClientsReport, "stale")
		sessions := newFakeSessions()
		session, err := sessions.Create(context.Background(), "alice")
		require.NoError(t, err)
		kicker := &fakeKicker{}

		inv := NewInvalidator(cache, sessions, kicker, discardLogger())
		inv.OnClientDeleted(context.Background(), session.ID, false)

		assert.Equal(t, 0, cache.Len())
		got, err := sessions.Get(context.Background(), session.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Extra)
		assert.Equal(t, 1, kicker.kicks)
	})

	t.Run("keepconf leaves everything alone", func(t *testing.T) {
		t.Parallel()

		cache := New(8, time.Minute)
		cache.Set(KeyClientsReport, "still valid")
		sessions := newFakeSessions()
		session, err := sessions.Create(context.Background(), "alice")
		require.NoError(t, err)
		kicker := &fakeKicker{}

		inv := NewInvalidator(cache, sessions, kicker, discardLogger())
		inv.OnClientDeleted(context.Background(), session.ID, true)

		assert.Equal(t, 1, cache.Len())
		got, err := sessions.Get(context.Background(), session.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Extra)
		assert.Equal(t, 0, kicker.kicks)
	})

	t.Run("bump failure is swallowed", func(t *testing.T) {
		t.Parallel()

		cache := New(8, time.Minute)
		cache.Set(KeyClientsReport, "stale")
		sessions := newFakeSessions()
		sessions.failBump = true
		kicker := &fakeKicker{}

		inv := NewInvalidator(cache, sessions, kicker, discardLogger())
		inv.OnClientDeleted(context.Background(), uuid.New(), false)

		// The purge and the refresh still happened.
		assert.Equal(t, 0, cache.Len())
		assert.Equal(t, 1, kicker.kicks)
	})
}
