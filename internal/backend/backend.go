// Package backend abstracts the stash backup engine. The console never
// touches backup data directly; every operation goes through a Backend, which
// talks either to the local engine or to an agent process on a remote node.
package backend

import (
	"context"
	"errors"
	"net"
)

// Sentinel errors surfaced by backends.
var (
	// ErrEncrypted indicates a restore touched an encrypted backup and no
	// (or a wrong) password was supplied. Its text may be shown to
	// non-admin users; other restore errors may not.
	ErrEncrypted = errors.New("encrypted")

	// ErrUnavailable indicates the engine or agent could not be reached.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrNotSupported indicates the backend lacks the requested capability.
	ErrNotSupported = errors.New("operation not supported by backend")
)

// RestoreRequest describes an online restoration.
type RestoreRequest struct {
	Client   string
	Backup   int
	Files    []string
	Strip    int
	Format   string // "zip" or "tar.gz"
	Password string
}

// FileEntry is one restored file yielded by a RestoreStream.
type FileEntry struct {
	// Path is the entry path inside the archive, already stripped.
	Path string
	Size int64
	Data []byte
}

// RestoreStream iterates the files produced by a local restoration.
// Next returns io.EOF after the last entry.
type RestoreStream interface {
	Next() (*FileEntry, error)
	Close() error
}

// DeleteOptions mirrors the flags of a client-deletion request. They are
// echoed back in the task result.
type DeleteOptions struct {
	Keepconf bool `json:"keepconf"`
	Delcert  bool `json:"delcert"`
	Revoke   bool `json:"revoke"`
	Template bool `json:"template"`
	Delete   bool `json:"delete"`
}

// TreeNode is one entry of an enumerated backup tree.
type TreeNode struct {
	Name   string `json:"name"`
	Parent string `json:"parent"`
	Type   string `json:"type"`
	Mode   string `json:"mode"`
	UID    string `json:"uid"`
	GID    string `json:"gid"`
	Size   int64  `json:"size"`
	Date   string `json:"date"`
	Folder bool   `json:"folder"`
}

// ClientStats is one client's slice of the aggregate report.
type ClientStats struct {
	Name    string `json:"name"`
	Backups int    `json:"backups"`
	Total   int64  `json:"total"`
	TotSize int64  `json:"totsize"`
}

// Report is the aggregate view over all clients of a node.
type Report struct {
	Clients []ClientStats `json:"clients"`
}

// Backend is the capability surface the console consumes. The node argument
// selects a remote agent in multi-node mode; the empty string means the local
// engine.
type Backend interface {
	// IsBackupRunning reports whether a backup is currently in progress for
	// the given client.
	IsBackupRunning(ctx context.Context, client, node string) (bool, error)

	// IsOneBackupRunning reports whether any backup is in progress.
	IsOneBackupRunning(ctx context.Context, node string) (bool, error)

	// BatchListSupported reports whether the node's engine can enumerate a
	// whole backup in one pass.
	BatchListSupported(node string) bool

	// RestoreLocal performs a restoration on the local engine, yielding the
	// restored files for archiving. Only valid with single-node targets.
	RestoreLocal(ctx context.Context, req RestoreRequest) (RestoreStream, error)

	// RestoreRemote asks the agent on the given node to perform the
	// restoration and build the archive there. Returns the path of the
	// archive on the remote node's disk and the suggested filename.
	RestoreRemote(ctx context.Context, node string, req RestoreRequest) (path, filename string, err error)

	// ClientTreeAll enumerates every node of the given backup.
	ClientTreeAll(ctx context.Context, client string, backup int, node string) ([]TreeNode, error)

	// DeleteClient removes a client from the engine configuration and
	// returns a human-readable outcome.
	DeleteClient(ctx context.Context, client string, opts DeleteOptions, node string) (string, error)

	// GetFile opens the byte socket serving the given remote artifact. The
	// caller owns the connection and must complete the transfer handshake.
	GetFile(ctx context.Context, path, node string) (net.Conn, error)

	// ClientsReport builds the aggregate report for a node.
	ClientsReport(ctx context.Context, node string) (*Report, error)
}
