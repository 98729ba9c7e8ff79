package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/adler32"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stashsuite/stashweb/internal/api/shared"
	"github.com/stashsuite/stashweb/internal/backend"
	"github.com/stashsuite/stashweb/internal/platform/logger"
	"github.com/stashsuite/stashweb/internal/relay"
	"github.com/stashsuite/stashweb/internal/service/auth"
	"github.com/stashsuite/stashweb/internal/store"
	"github.com/stashsuite/stashweb/internal/task"
	"github.com/stashsuite/stashweb/internal/webcache"
)

// TaskHandler exposes the asynchronous task lifecycle: submission, status
// polling, cancellation and one-shot result consumption.
type TaskHandler struct {
	registry       *task.Registry
	dispatcher     *task.Dispatcher
	backend        backend.Backend
	db             *sql.DB
	records        store.TaskRecordStore
	invalidator    *webcache.Invalidator
	defaultTimeout time.Duration
}

// NewTaskHandler creates a TaskHandler. records and invalidator may be nil
// when the matching subsystems are not wired; db must be set whenever
// records is.
func NewTaskHandler(
	registry *task.Registry,
	dispatcher *task.Dispatcher,
	be backend.Backend,
	db *sql.DB,
	records store.TaskRecordStore,
	invalidator *webcache.Invalidator,
	defaultTimeout time.Duration,
) *TaskHandler {
	return &TaskHandler{
		registry:       registry,
		dispatcher:     dispatcher,
		backend:        be,
		db:             db,
		records:        records,
		invalidator:    invalidator,
		defaultTimeout: defaultTimeout,
	}
}

// SubmitArchive handles POST /api/tasks/archive/{client}/{backup}: it
// enqueues an online restoration building a downloadable archive.
func (h *TaskHandler) SubmitArchive(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	client := chi.URLParam(r, "client")
	backupNum, err := strconv.Atoi(chi.URLParam(r, "backup"))
	if err != nil || backupNum <= 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid backup number")
		return
	}
	if !h.mayActOnClient(identity, client) {
		HandleAPIError(w, r, ErrTaskNotOwned, "")
		return
	}

	var req ArchiveRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	format := "zip"
	if strings.EqualFold(req.Format, "tar.gz") {
		format = "tar.gz"
	}

	job := &task.Job{
		Type:       task.TypeRestore,
		Owner:      identity.Username,
		OwnerAdmin: identity.Admin,
		Node:       targetNode(r),
		Restore: &task.RestoreSpec{
			Client:   client,
			Backup:   backupNum,
			Files:    req.Files,
			Strip:    req.Strip,
			Format:   format,
			Password: req.Password,
		},
	}

	h.submit(w, r, job)
}

// SubmitBrowse handles POST /api/tasks/browseall/{client}/{backup}: it
// enqueues a whole-backup tree enumeration.
func (h *TaskHandler) SubmitBrowse(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	client := chi.URLParam(r, "client")
	backupNum, err := strconv.Atoi(chi.URLParam(r, "backup"))
	if err != nil || backupNum <= 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid backup number")
		return
	}
	if !h.mayActOnClient(identity, client) {
		HandleAPIError(w, r, ErrTaskNotOwned, "")
		return
	}

	node := targetNode(r)
	if !h.backend.BatchListSupported(node) {
		HandleAPIError(w, r, backend.ErrNotSupported,
			"Node cannot enumerate a whole backup in one pass")
		return
	}

	job := &task.Job{
		Type:       task.TypeBrowse,
		Owner:      identity.Username,
		OwnerAdmin: identity.Admin,
		Node:       node,
		Browse: &task.BrowseSpec{
			Client: client,
			Backup: backupNum,
		},
	}

	h.submit(w, r, job)
}

// SubmitDelete handles DELETE /api/tasks/config/{client}: it enqueues the
// removal of a client from the engine configuration. Admin only, and refused
// while the client is being backed up.
func (h *TaskHandler) SubmitDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if !identity.Admin {
		HandleAPIError(w, r, ErrTaskNotOwned, "Only administrators may delete clients")
		return
	}

	client := chi.URLParam(r, "client")
	node := targetNode(r)

	running, err := h.backend.IsBackupRunning(r.Context(), client, node)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if running {
		HandleAPIError(w, r, ErrBackupRunning, "")
		return
	}

	// Flags arrive as query parameters so the request needs no body.
	q := r.URL.Query()
	job := &task.Job{
		Type:       task.TypeDelete,
		Owner:      identity.Username,
		OwnerAdmin: identity.Admin,
		Node:       node,
		Delete: &task.DeleteSpec{
			Client: client,
			Options: backend.DeleteOptions{
				Keepconf: boolParam(q.Get("keepconf")),
				Delcert:  boolParam(q.Get("delcert")),
				Revoke:   boolParam(q.Get("revoke")),
				Template: boolParam(q.Get("template")),
				Delete:   boolParam(q.Get("delete")),
			},
		},
	}

	h.submit(w, r, job)
}

// submit runs the shared tail of every submission endpoint.
func (h *TaskHandler) submit(w http.ResponseWriter, r *http.Request, job *task.Job) {
	id, err := h.dispatcher.Submit(r.Context(), job, h.timeout(r))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitResponse{
		ID:   id.String(),
		Name: job.Type.JobName(),
	})
}

// Status handles GET /api/tasks/status/{type}/{id}.
func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	snap, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if !task.Authorized(identity.Username, snap.Owner, targetNode(r), snap.Node, identity.Admin) {
		HandleAPIError(w, r, ErrTaskNotOwned, "")
		return
	}

	switch snap.State {
	case task.StateFailure:
		// A failure observation consumes the task: the handle and the
		// durable record are released before the reply goes out.
		h.cleanup(r, snap, false)
		shared.RespondWithJSON(w, r, http.StatusBadGateway, StatusResponse{
			State: snap.State.String(),
			Error: failureDetail(snap.Err, identity),
		})

	case task.StateSuccess:
		if snap.Result == nil {
			HandleAPIError(w, r, task.ErrNoResult, "")
			return
		}
		location := snap.Type.CallbackPath(snap.ID.String())
		if snap.Result.OriginNode != "" {
			location += "?serverName=" + snap.Result.OriginNode
		}
		shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{
			State:    snap.State.String(),
			Location: location,
		})

	default:
		shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{
			State: snap.State.String(),
		})
	}
}

// Cancel handles DELETE /api/tasks/status/{type}/{id}. Cancelling releases
// the handle, the durable record and any spooled artifact.
func (h *TaskHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	snap, ok := h.lookup(w, r)
	if !ok {
		return
	}

	owner, originNode := snap.Owner, snap.Node
	if snap.Result != nil {
		owner, originNode = snap.Result.Owner, snap.Result.OriginNode
	}
	if !task.Authorized(identity.Username, owner, targetNode(r), originNode, identity.Admin) {
		HandleAPIError(w, r, ErrTaskNotOwned, "")
		return
	}

	h.cleanup(r, snap, true)
	shared.RespondWithJSON(w, r, http.StatusCreated, map[string]string{"id": snap.ID.String()})
}

// FetchArchive handles GET /api/tasks/get/{id}: it streams the restored
// archive exactly once and removes it.
func (h *TaskHandler) FetchArchive(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	result, ok := h.lookupResult(w, r, task.TypeRestore, identity)
	if !ok {
		return
	}

	if result.OriginNode != "" {
		h.relayArchive(w, r, result)
		return
	}

	log := logger.FromContext(r.Context())
	id, _ := pathUUID(r, "id")

	f, err := os.Open(result.Path)
	if err != nil {
		log.Error("spooled archive missing", "path", result.Path, "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Archive no longer available")
		return
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Archive no longer available")
		return
	}

	setDownloadHeaders(w, result.Filename, info.Size())
	w.WriteHeader(http.StatusOK)

	_, copyErr := io.Copy(w, f)
	f.Close()
	if copyErr != nil {
		log.Debug("archive download interrupted", "task_id", id, "error", copyErr)
	}

	// Delete on send: the artifact is gone whether or not the client kept
	// the whole stream.
	if err := os.Remove(result.Path); err != nil {
		log.Warn("failed to remove spooled archive", "path", result.Path, "error", err)
	}
	h.release(r, id)
}

// relayArchive pipes a remote node's spooled archive through this process
// without touching the local disk.
func (h *TaskHandler) relayArchive(w http.ResponseWriter, r *http.Request, result *task.Result) {
	log := logger.FromContext(r.Context())
	id, _ := pathUUID(r, "id")

	conn, err := h.backend.GetFile(r.Context(), result.Path, result.OriginNode)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %v", ErrRelayFailed, err), "")
		return
	}

	length, err := relay.ReadLength(conn)
	if err != nil {
		conn.Close()
		HandleAPIError(w, r, fmt.Errorf("%w: %v", ErrRelayFailed, err), "")
		return
	}

	setDownloadHeaders(w, result.Filename, length)
	w.WriteHeader(http.StatusOK)

	if err := relay.Stream(w, conn, length); err != nil {
		// Headers are long gone; all that is left is to cut the stream and
		// leave the task consumable again.
		log.Error("archive relay failed", "task_id", id, "node", result.OriginNode, "error", err)
		return
	}

	h.release(r, id)
}

// FetchBrowse handles GET /api/tasks/get-browse/{id}: it serves the
// enumerated tree exactly once.
func (h *TaskHandler) FetchBrowse(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	result, ok := h.lookupResult(w, r, task.TypeBrowse, identity)
	if !ok {
		return
	}

	id, _ := pathUUID(r, "id")
	shared.RespondWithJSON(w, r, http.StatusOK, BrowseResponse{Results: result.Tree})
	h.release(r, id)
}

// FetchDeleteOutcome handles GET /api/tasks/completed/config/{id}: it
// reports what the deletion did and triggers the cache housekeeping.
func (h *TaskHandler) FetchDeleteOutcome(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	result, ok := h.lookupResult(w, r, task.TypeDelete, identity)
	if !ok {
		return
	}

	id, _ := pathUUID(r, "id")
	shared.RespondWithJSON(w, r, http.StatusOK, DeleteOutcomeResponse{
		Client:  result.Client,
		Options: result.Options,
		Outcome: result.Outcome,
	})

	if h.invalidator != nil {
		h.invalidator.OnClientDeleted(r.Context(), identity.SessionID, result.Options.Keepconf)
	}
	h.release(r, id)
}

// lookup parses the type and id path parameters and resolves the handle.
// A handle whose type does not match the path reads as absent, so ids do not
// leak across task kinds.
func (h *TaskHandler) lookup(w http.ResponseWriter, r *http.Request) (*task.Snapshot, bool) {
	typ, err := task.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return nil, false
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task id")
		return nil, false
	}

	snap, err := h.registry.Status(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return nil, false
	}
	if snap.Type != typ {
		HandleAPIError(w, r, task.ErrNotFound, "")
		return nil, false
	}
	return snap, true
}

// lookupResult resolves a fetch endpoint's handle and authorizes the caller
// against the result. Only successful tasks have consumable results.
func (h *TaskHandler) lookupResult(
	w http.ResponseWriter,
	r *http.Request,
	typ task.Type,
	identity auth.Identity,
) (*task.Result, bool) {
	id, err := pathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task id")
		return nil, false
	}

	snap, err := h.registry.Status(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return nil, false
	}
	if snap.Type != typ {
		HandleAPIError(w, r, task.ErrNotFound, "")
		return nil, false
	}

	switch snap.State {
	case task.StateFailure:
		// Same redaction rule as Status: admins and encryption failures see
		// the real error, everyone else a generic one.
		shared.RespondWithError(w, r, http.StatusInternalServerError,
			failureDetail(snap.Err, identity))
		return nil, false
	case task.StateSuccess:
	default:
		HandleAPIError(w, r, ErrTaskNotReady, "")
		return nil, false
	}

	if snap.Result == nil {
		HandleAPIError(w, r, task.ErrNoResult, "")
		return nil, false
	}

	if !task.Authorized(identity.Username, snap.Result.Owner, targetNode(r),
		snap.Result.OriginNode, identity.Admin) {
		HandleAPIError(w, r, ErrTaskNotOwned, "")
		return nil, false
	}

	return snap.Result, true
}

// cleanup consumes a handle: revoke, drop the durable record, and optionally
// remove a spooled artifact that will never be downloaded.
func (h *TaskHandler) cleanup(r *http.Request, snap *task.Snapshot, removeArtifact bool) {
	log := logger.FromContext(r.Context())

	if removeArtifact && snap.Result != nil &&
		snap.Result.OriginNode == "" && snap.Result.Path != "" {
		if err := os.Remove(snap.Result.Path); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove spooled archive",
				"path", snap.Result.Path, "error", err)
		}
	}
	h.release(r, snap.ID)
}

// release drops the handle and its durable record. The record delete runs
// in its own short transaction; failures roll back and are only logged, so
// bookkeeping never blocks result delivery.
func (h *TaskHandler) release(r *http.Request, id uuid.UUID) {
	h.registry.Revoke(id)
	if h.records == nil {
		return
	}

	err := store.RunInTransaction(r.Context(), h.db,
		func(ctx context.Context, tx *sql.Tx) error {
			return h.records.WithTx(tx).Delete(ctx, id)
		})
	if err != nil {
		logger.FromContext(r.Context()).
			Warn("failed to delete task record", "task_id", id, "error", err)
	}
}

// mayActOnClient is the submission-side ownership rule: non-admin accounts
// only operate on the client that carries their own name.
func (h *TaskHandler) mayActOnClient(identity auth.Identity, client string) bool {
	return identity.Admin || identity.Username == client
}

// timeout reads the optional per-request bookkeeping timeout in minutes.
func (h *TaskHandler) timeout(r *http.Request) time.Duration {
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
	}
	return h.defaultTimeout
}

// failureDetail decides how much of an execution error a caller may see.
// Encryption failures pass through because the client needs to prompt for a
// password; everything else is only shown to administrators.
func failureDetail(err error, identity auth.Identity) string {
	if err == nil {
		return "Task failed"
	}
	if identity.Admin || errors.Is(err, backend.ErrEncrypted) {
		return err.Error()
	}
	return "Task failed"
}

// setDownloadHeaders marks the response as a one-shot archive download. The
// fileDownload cookie lets the browser front end detect stream completion.
func setDownloadHeaders(w http.ResponseWriter, filename string, length int64) {
	contentType := "application/zip"
	if strings.HasSuffix(filename, ".tar.gz") {
		contentType = "application/x-gzip"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.Header().Set("ETag", downloadETag(filename, length))
	http.SetCookie(w, &http.Cookie{Name: "fileDownload", Value: "true", Path: "/"})
}

// downloadETag builds a weak identity for a one-shot download: issue time,
// payload length and a checksum of the filename.
func downloadETag(filename string, length int64) string {
	return fmt.Sprintf("stashweb-%d-%d-%d",
		time.Now().Unix(), length, adler32.Checksum([]byte(filename)))
}

// boolParam parses the loose boolean formats browsers send.
func boolParam(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
