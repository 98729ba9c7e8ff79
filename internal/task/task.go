// Package task implements the asynchronous task subsystem: submission,
// state tracking, execution and result bookkeeping for long-running backup
// operations.
package task

import (
	"fmt"

	"github.com/stashsuite/stashweb/internal/backend"
)

// Type is the closed set of task kinds the console dispatches. Every switch
// over Type must handle all three.
type Type int

const (
	TypeRestore Type = iota
	TypeBrowse
	TypeDelete
)

// String returns the wire name used in status URLs.
func (t Type) String() string {
	switch t {
	case TypeRestore:
		return "restore"
	case TypeBrowse:
		return "browse"
	case TypeDelete:
		return "delete"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// JobName returns the human task-type name recorded in durable records and
// submission responses.
func (t Type) JobName() string {
	switch t {
	case TypeRestore:
		return "perform_restore"
	case TypeBrowse:
		return "load_all_tree"
	case TypeDelete:
		return "delete_client"
	}
	return "unknown"
}

// CallbackPath returns the fetch endpoint a successful task's status reply
// points the client at.
func (t Type) CallbackPath(id string) string {
	switch t {
	case TypeRestore:
		return "/api/tasks/get/" + id
	case TypeBrowse:
		return "/api/tasks/get-browse/" + id
	case TypeDelete:
		return "/api/tasks/completed/config/" + id
	}
	return ""
}

// ParseType maps a wire name back to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "restore":
		return TypeRestore, nil
	case "browse":
		return TypeBrowse, nil
	case "delete":
		return TypeDelete, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// State is the lifecycle position of a task handle. Transitions are strictly
// monotonic: Pending → Running → Success|Failure, and terminal states never
// change.
type State int

const (
	StatePending State = iota
	StateRunning
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateRunning:
		return "RUNNING"
	case StateSuccess:
		return "SUCCESS"
	case StateFailure:
		return "FAILURE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// RestoreSpec carries the parameters of a restore job.
type RestoreSpec struct {
	Client   string
	Backup   int
	Files    []string
	Strip    int
	Format   string
	Password string
}

// BrowseSpec carries the parameters of a tree-enumeration job.
type BrowseSpec struct {
	Client string
	Backup int
}

// DeleteSpec carries the parameters of a client-deletion job.
type DeleteSpec struct {
	Client  string
	Options backend.DeleteOptions
}

// Job is a typed description of work to run out of band. Exactly one of the
// spec fields matching Type is set. The requester identity is part of the
// job: the executor copies it into the result so consumption can be
// authorized later, possibly by a different process.
type Job struct {
	Type Type

	// Owner is the submitting username. The authorization decision for
	// submitting was already made by the HTTP layer; the dispatcher performs
	// no checks of its own.
	Owner string

	// OwnerAdmin preserves whether the submitter was an administrator, for
	// failure-detail redaction at fetch time.
	OwnerAdmin bool

	// Node is the target backend node, empty in single-node mode.
	Node string

	Restore *RestoreSpec
	Browse  *BrowseSpec
	Delete  *DeleteSpec
}

// Result is the structured payload a successful executor run produces.
type Result struct {
	// Owner and OriginNode drive the ownership guard at consumption time.
	// OriginNode is empty when the task executed on the local engine.
	Owner      string
	OriginNode string
	Admin      bool

	// Restore fields.
	Path     string
	Filename string

	// Browse fields.
	Tree []backend.TreeNode

	// Delete fields.
	Client  string
	Options backend.DeleteOptions
	Outcome string
}
