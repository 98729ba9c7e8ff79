package webcache

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stashsuite/stashweb/internal/platform/logger"
	"github.com/stashsuite/stashweb/internal/store"
)

// Kicker requests an immediate out-of-band refresh of cached aggregates.
type Kicker interface {
	KickNow()
}

// Invalidator reacts to a client being removed from the backup engine: the
// cached aggregates no longer describe reality, the caller's session counter
// is bumped so its UI re-renders, and a refresh is kicked off right away.
type Invalidator struct {
	cache    *Cache
	sessions store.SessionStore
	kicker   Kicker
	logger   *slog.Logger
}

// NewInvalidator creates an Invalidator. The kicker may be nil when no
// scheduler is wired.
func NewInvalidator(cache *Cache, sessions store.SessionStore, kicker Kicker, logger *slog.Logger) *Invalidator {
	return &Invalidator{
		cache:    cache,
		sessions: sessions,
		kicker:   kicker,
		logger:   logger.With(slog.String("component", "cache_invalidator")),
	}
}

// OnClientDeleted runs the post-deletion housekeeping. When the deletion
// kept the client's configuration nothing about the aggregates changed, so
// nothing happens. Session bookkeeping failures are logged and swallowed;
// the deletion itself already succeeded.
func (i *Invalidator) OnClientDeleted(ctx context.Context, sessionID uuid.UUID, keepconf bool) {
	if keepconf {
		return
	}

	log := logger.FromContextOrDefault(ctx, i.logger)

	i.cache.Purge()

	if i.sessions != nil {
		if _, err := i.sessions.BumpExtra(ctx, sessionID); err != nil {
			log.Warn("failed to bump session counter after client deletion",
				"session_id", sessionID, "error", err)
		}
	}

	if i.kicker != nil {
		i.kicker.KickNow()
	}
}
