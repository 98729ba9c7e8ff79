package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stashsuite/stashweb/internal/api/shared"
	"github.com/stashsuite/stashweb/internal/events"
	"github.com/stashsuite/stashweb/internal/service/auth"
	"github.com/stashsuite/stashweb/internal/task"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completionEvent(owner string) *events.TaskCompletionEvent {
	return &events.TaskCompletionEvent{
		TaskID:      uuid.New(),
		Name:        "load_all_tree",
		State:       task.StateSuccess.String(),
		Owner:       owner,
		CompletedAt: time.Now().UTC(),
	}
}

func TestHub_HandleEvent_NoClients(t *testing.T) {
	t.Parallel()

	hub := NewHub(discardLogger())
	require.NoError(t, hub.HandleEvent(context.Background(), completionEvent("alice")))
	assert.Equal(t, 0, hub.Len())
}

func TestHub_HandleEvent_FanOut(t *testing.T) {
	t.Parallel()

	hub := NewHub(discardLogger())

	owner := &client{send: make(chan *events.TaskCompletionEvent, 1), username: "alice"}
	other := &client{send: make(chan *events.TaskCompletionEvent, 1), username: "bob"}
	root := &client{send: make(chan *events.TaskCompletionEvent, 1), username: "root", admin: true}
	for _, c := range []*client{owner, other, root} {
		hub.clients[c] = struct{}{}
	}

	require.NoError(t, hub.HandleEvent(context.Background(), completionEvent("alice")))

	assert.Len(t, owner.send, 1, "the owner hears about their own task")
	assert.Len(t, other.send, 0, "unrelated users hear nothing")
	assert.Len(t, root.send, 1, "admins hear about every task")
}

func TestHub_HandleEvent_SlowClientSkipped(t *testing.T) {
	t.Parallel()

	hub := NewHub(discardLogger())

	slow := &client{send: make(chan *events.TaskCompletionEvent), username: "alice"}
	hub.clients[slow] = struct{}{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.HandleEvent(context.Background(), completionEvent("alice"))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("HandleEvent blocked on a full send buffer")
	}
}

func TestHub_ServeHTTP(t *testing.T) {
	t.Parallel()

	t.Run("rejects unauthenticated requests", func(t *testing.T) {
		t.Parallel()

		hub := NewHub(discardLogger())
		rec := httptest.NewRecorder()
		hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("round trip delivers events", func(t *testing.T) {
		t.Parallel()

		hub := NewHub(discardLogger())

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.Identity{Username: "alice", SessionID: uuid.New()}
			ctx := context.WithValue(r.Context(), shared.IdentityContextKey, identity)
			hub.ServeHTTP(w, r.WithContext(ctx))
		}))
		defer srv.Close()

		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool { return hub.Len() == 1 },
			time.Second, 10*time.Millisecond)

		event := completionEvent("alice")
		require.NoError(t, hub.HandleEvent(context.Background(), event))

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		var got events.TaskCompletionEvent
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, event.TaskID, got.TaskID)
		assert.Equal(t, "load_all_tree", got.Name)

		conn.Close()
		require.Eventually(t, func() bool { return hub.Len() == 0 },
			time.Second, 10*time.Millisecond)
	})
}
