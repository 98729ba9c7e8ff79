package task

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/stashsuite/stashweb/internal/backend"
	"github.com/stashsuite/stashweb/internal/platform/logger"
)

// Executor runs one job to completion against the backup engine. It is the
// only component that drives handle state and the only producer of results.
type Executor struct {
	backend  backend.Backend
	spoolDir string
	logger   *slog.Logger
}

// NewExecutor creates an executor spooling restore archives under spoolDir.
func NewExecutor(b backend.Backend, spoolDir string, logger *slog.Logger) *Executor {
	return &Executor{
		backend:  b,
		spoolDir: spoolDir,
		logger:   logger.With(slog.String("component", "task_executor")),
	}
}

// Execute dispatches on the job's type. The switch is exhaustive over the
// closed Type set.
func (e *Executor) Execute(ctx context.Context, id uuid.UUID, job *Job) (*Result, error) {
	switch job.Type {
	case TypeRestore:
		return e.restore(ctx, id, job)
	case TypeBrowse:
		return e.browse(ctx, job)
	case TypeDelete:
		return e.delete(ctx, job)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(job.Type))
}

func (e *Executor) restore(ctx context.Context, id uuid.UUID, job *Job) (*Result, error) {
	spec := job.Restore
	if spec == nil {
		return nil, fmt.Errorf("restore job without restore spec")
	}

	result := &Result{
		Owner:      job.Owner,
		OriginNode: job.Node,
		Admin:      job.OwnerAdmin,
	}

	req := backend.RestoreRequest{
		Client:   spec.Client,
		Backup:   spec.Backup,
		Files:    spec.Files,
		Strip:    spec.Strip,
		Format:   spec.Format,
		Password: spec.Password,
	}

	if job.Node != "" {
		// The agent on the target node restores and spools the archive on
		// its own disk; the artifact will be relayed at fetch time.
		path, filename, err := e.backend.RestoreRemote(ctx, job.Node, req)
		if err != nil {
			return nil, fmt.Errorf("remote restore on %s: %w", job.Node, err)
		}
		result.Path = path
		result.Filename = filename
		return result, nil
	}

	stream, err := e.backend.RestoreLocal(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("local restore: %w", err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			logger.FromContextOrDefault(ctx, e.logger).
				Debug("failed to close restore stream", "error", err)
		}
	}()

	filename := archiveFilename(spec.Client, spec.Backup, spec.Format)
	path := filepath.Join(e.spoolDir, id.String()+archiveExt(spec.Format))

	if err := writeArchive(path, spec.Format, stream); err != nil {
		return nil, fmt.Errorf("failed to spool archive: %w", err)
	}

	result.Path = path
	result.Filename = filename
	return result, nil
}

func (e *Executor) browse(ctx context.Context, job *Job) (*Result, error) {
	spec := job.Browse
	if spec == nil {
		return nil, fmt.Errorf("browse job without browse spec")
	}

	tree, err := e.backend.ClientTreeAll(ctx, spec.Client, spec.Backup, job.Node)
	if err != nil {
		return nil, fmt.Errorf("tree enumeration for %s: %w", spec.Client, err)
	}

	return &Result{
		Owner:      job.Owner,
		OriginNode: job.Node,
		Admin:      job.OwnerAdmin,
		Tree:       tree,
	}, nil
}

func (e *Executor) delete(ctx context.Context, job *Job) (*Result, error) {
	spec := job.Delete
	if spec == nil {
		return nil, fmt.Errorf("delete job without delete spec")
	}

	outcome, err := e.backend.DeleteClient(ctx, spec.Client, spec.Options, job.Node)
	if err != nil {
		return nil, fmt.Errorf("client deletion for %s: %w", spec.Client, err)
	}

	return &Result{
		Owner:      job.Owner,
		OriginNode: job.Node,
		Admin:      job.OwnerAdmin,
		Client:     spec.Client,
		Options:    spec.Options,
		Outcome:    outcome,
	}, nil
}

// archiveFilename suggests a download name carrying client, backup number
// and date.
func archiveFilename(client string, backup int, format string) string {
	return fmt.Sprintf("restoration_%d_%s_%s%s",
		backup, client, time.Now().Format("2006-01-02"), archiveExt(format))
}
