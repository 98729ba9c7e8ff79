package sched

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_KickNow(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	s := New(time.Hour, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, discardLogger())
	s.Start()
	defer s.Stop()

	s.KickNow()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestScheduler_PeriodicRefresh(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	s := New(20*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, discardLogger())
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, calls.Load(), int64(2))
}

func TestScheduler_StopHaltsLoop(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	s := New(10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, discardLogger())
	s.Start()
	s.Stop()

	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}
