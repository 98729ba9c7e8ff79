package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/stashsuite/stashweb/internal/events"
)

// RunnerConfig holds configuration for the background worker pool.
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs.
	WorkerCount int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{WorkerCount: 2}
}

// Runner drains the dispatcher queue with a pool of workers and records each
// outcome on the registry. Completion events are emitted after the terminal
// state is visible so that a notified client always observes it.
type Runner struct {
	registry   *Registry
	dispatcher *Dispatcher
	executor   *Executor
	emitter    events.EventEmitter
	config     RunnerConfig
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewRunner creates a Runner. The emitter may be nil when completion
// notifications are not wired.
func NewRunner(
	registry *Registry,
	dispatcher *Dispatcher,
	executor *Executor,
	emitter events.EventEmitter,
	config RunnerConfig,
	logger *slog.Logger,
) *Runner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultRunnerConfig().WorkerCount
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		registry:   registry,
		dispatcher: dispatcher,
		executor:   executor,
		emitter:    emitter,
		config:     config,
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With(slog.String("component", "task_runner")),
	}
}

// Start launches the worker pool.
func (r *Runner) Start() {
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
}

// Stop cancels in-flight work and waits for all workers to exit.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

// worker processes jobs from the dispatcher queue until shutdown.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case item, ok := <-r.dispatcher.Queue():
			if !ok {
				r.logger.Debug("queue closed, stopping worker", "worker_id", id)
				return
			}
			r.processJob(item, id)
		}
	}
}

// processJob handles execution of a single job.
func (r *Runner) processJob(item queued, workerID int) {
	logger := r.logger.With(
		"task_id", item.id,
		"task_type", item.job.Type.String(),
		"worker_id", workerID,
	)

	if err := r.registry.SetRunning(item.id); err != nil {
		// A revoked or already-terminal task is not an anomaly: the owner
		// may have cancelled it while it sat in the queue.
		logger.Debug("skipping job no longer runnable", "error", err)
		return
	}

	logger.Info("processing task")

	result, err := r.executor.Execute(r.ctx, item.id, item.job)

	if err != nil {
		logger.Error("task execution failed", "error", err)
		if terr := r.registry.SetFailure(item.id, err); terr != nil {
			logger.Debug("failed to record task failure", "error", terr)
		}
		r.emit(item, StateFailure)
		return
	}

	logger.Info("task completed successfully")
	if terr := r.registry.SetSuccess(item.id, result); terr != nil {
		logger.Debug("failed to record task success", "error", terr)
		return
	}
	r.emit(item, StateSuccess)
}

func (r *Runner) emit(item queued, state State) {
	if r.emitter == nil {
		return
	}
	event := &events.TaskCompletionEvent{
		TaskID:      item.id,
		Name:        item.job.Type.JobName(),
		State:       state.String(),
		Owner:       item.job.Owner,
		CompletedAt: time.Now().UTC(),
	}
	if err := r.emitter.EmitEvent(r.ctx, event); err != nil {
		r.logger.Debug("failed to emit completion event",
			"task_id", item.id, "error", err)
	}
}
