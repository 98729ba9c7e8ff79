// Package sched runs the periodic refresh of cached engine aggregates and
// lets other components request an immediate refresh out of band.
package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RefreshFunc repopulates whatever the scheduler is responsible for keeping
// fresh. Errors are logged and the schedule continues.
type RefreshFunc func(ctx context.Context) error

// Scheduler runs refresh on a fixed interval and whenever KickNow is called.
type Scheduler struct {
	interval   time.Duration
	refresh    RefreshFunc
	kick       chan struct{}
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// New creates a Scheduler. A non-positive interval defaults to five minutes.
func New(interval time.Duration, refresh RefreshFunc, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		interval:   interval,
		refresh:    refresh,
		kick:       make(chan struct{}, 1),
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With(slog.String("component", "scheduler")),
	}
}

// Start launches the refresh loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop halts the loop and waits for any in-flight refresh to finish.
func (s *Scheduler) Stop() {
	s.cancelFunc()
	s.wg.Wait()
}

// KickNow requests an immediate refresh. It never blocks; if a kick is
// already pending the request coalesces with it.
func (s *Scheduler) KickNow() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runRefresh()
		case <-s.kick:
			s.runRefresh()
		}
	}
}

func (s *Scheduler) runRefresh() {
	if err := s.refresh(s.ctx); err != nil {
		s.logger.Error("scheduled refresh failed", "error", err)
		return
	}
	s.logger.Debug("scheduled refresh completed")
}
