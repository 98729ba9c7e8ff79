package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/stashsuite/stashweb/internal/config"
	"github.com/stashsuite/stashweb/internal/platform/logger"
)

// Client is the TCP implementation of Backend. It speaks the engine's
// line-oriented status protocol: one colon-separated query line out, one JSON
// document line back. Artifact bytes travel on a separate socket opened by
// GetFile.
type Client struct {
	addr    string
	nodes   map[string]string
	timeout time.Duration
	dialer  net.Dialer
	logger  *slog.Logger
}

// Ensure Client implements Backend.
var _ Backend = (*Client)(nil)

// NewClient creates a backend client from configuration.
func NewClient(cfg config.BackendConfig, logger *slog.Logger) *Client {
	return &Client{
		addr:    cfg.Addr,
		nodes:   cfg.Nodes,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		logger:  logger.With(slog.String("component", "backend_client")),
	}
}

// resolve maps a node identifier to a dialable address.
func (c *Client) resolve(node string) (string, error) {
	if node == "" {
		return c.addr, nil
	}
	addr, ok := c.nodes[node]
	if !ok {
		return "", fmt.Errorf("%w: unknown node %q", ErrUnavailable, node)
	}
	return addr, nil
}

// dial opens a deadline-bounded connection to the given node.
func (c *Client) dial(ctx context.Context, node string) (net.Conn, error) {
	addr, err := c.resolve(node)
	if err != nil {
		return nil, err
	}
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return conn, nil
}

// query sends a single status query and decodes the JSON line that comes
// back. The connection is closed before returning.
func (c *Client) query(ctx context.Context, node, q string, out interface{}) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	conn, err := c.dial(ctx, node)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Debug("failed to close status connection", "error", err)
		}
	}()

	if !strings.HasSuffix(q, "\n") {
		q += "\n"
	}

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("failed to set status deadline: %w", err)
	}
	if _, err := io.WriteString(conn, q); err != nil {
		return fmt.Errorf("%w: failed to send query: %v", ErrUnavailable, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return fmt.Errorf("%w: failed to read reply: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(line, out); err != nil {
		return fmt.Errorf("invalid engine reply: %w", err)
	}
	return nil
}

// clientStatus is the engine's per-client status entry.
type clientStatus struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	Backups int    `json:"backups"`
	Total   int64  `json:"total"`
	TotSize int64  `json:"totsize"`
}

type statusReply struct {
	Clients []clientStatus `json:"clients"`
}

// IsBackupRunning reports whether a backup is in progress for the client.
func (c *Client) IsBackupRunning(ctx context.Context, client, node string) (bool, error) {
	var reply statusReply
	if err := c.query(ctx, node, "c:"+client, &reply); err != nil {
		return false, err
	}
	for _, cl := range reply.Clients {
		if cl.Name == client && cl.Running {
			return true, nil
		}
	}
	return false, nil
}

// IsOneBackupRunning reports whether any backup is in progress on the node.
func (c *Client) IsOneBackupRunning(ctx context.Context, node string) (bool, error) {
	var reply statusReply
	if err := c.query(ctx, node, "c:", &reply); err != nil {
		return false, err
	}
	for _, cl := range reply.Clients {
		if cl.Running {
			return true, nil
		}
	}
	return false, nil
}

// BatchListSupported is true for every engine the TCP protocol reaches;
// older engines without batch enumeration are not speaking this protocol at
// all.
func (c *Client) BatchListSupported(node string) bool {
	return true
}

type treeReply struct {
	Entries []TreeNode `json:"entries"`
}

// ClientTreeAll enumerates every node of the given backup in one pass.
func (c *Client) ClientTreeAll(ctx context.Context, client string, backup int, node string) ([]TreeNode, error) {
	var reply treeReply
	q := fmt.Sprintf("tree:%s:%d", client, backup)
	if err := c.query(ctx, node, q, &reply); err != nil {
		return nil, err
	}
	return reply.Entries, nil
}

type deleteReply struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error"`
}

// DeleteClient removes a client from the engine configuration.
func (c *Client) DeleteClient(ctx context.Context, client string, opts DeleteOptions, node string) (string, error) {
	q := fmt.Sprintf("delete:%s:keepconf=%t:delcert=%t:revoke=%t:template=%t:delete=%t",
		client, opts.Keepconf, opts.Delcert, opts.Revoke, opts.Template, opts.Delete)

	var reply deleteReply
	if err := c.query(ctx, node, q, &reply); err != nil {
		return "", err
	}
	if reply.Error != "" {
		return "", fmt.Errorf("engine refused deletion: %s", reply.Error)
	}
	return reply.Outcome, nil
}

// ClientsReport builds the aggregate report for a node from the engine's
// client list.
func (c *Client) ClientsReport(ctx context.Context, node string) (*Report, error) {
	var reply statusReply
	if err := c.query(ctx, node, "c:", &reply); err != nil {
		return nil, err
	}
	report := &Report{Clients: make([]ClientStats, 0, len(reply.Clients))}
	for _, cl := range reply.Clients {
		report.Clients = append(report.Clients, ClientStats{
			Name:    cl.Name,
			Backups: cl.Backups,
			Total:   cl.Total,
			TotSize: cl.TotSize,
		})
	}
	return report, nil
}

// restoreQuery renders a restore command line.
func restoreQuery(req RestoreRequest, spool bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "restore:%s:%d:strip=%d:format=%s:spool=%t",
		req.Client, req.Backup, req.Strip, req.Format, spool)
	if req.Password != "" {
		fmt.Fprintf(&b, ":pass=%s", req.Password)
	}
	for _, f := range req.Files {
		fmt.Fprintf(&b, ":f=%s", f)
	}
	return b.String()
}

// restoreHeader precedes each file's raw bytes on a local restore stream.
// A final header with an empty path and Done set terminates the stream; an
// Error field carries engine-side failures, with "encrypted" reserved for
// password problems on encrypted backups.
type restoreHeader struct {
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// tcpRestoreStream reads (JSON header, raw bytes) records off the restore
// connection.
type tcpRestoreStream struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
}

func (s *tcpRestoreStream) Next() (*FileEntry, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return nil, fmt.Errorf("failed to set restore deadline: %w", err)
	}

	line, err := s.r.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, fmt.Errorf("%w: restore stream broke: %v", ErrUnavailable, err)
	}

	var hdr restoreHeader
	if err := json.Unmarshal(line, &hdr); err != nil {
		return nil, fmt.Errorf("invalid restore header: %w", err)
	}
	if hdr.Error != "" {
		if hdr.Error == "encrypted" {
			return nil, ErrEncrypted
		}
		return nil, fmt.Errorf("restore failed: %s", hdr.Error)
	}
	if hdr.Done {
		return nil, io.EOF
	}

	data := make([]byte, hdr.Size)
	if _, err := io.ReadFull(s.r, data); err != nil {
		return nil, fmt.Errorf("%w: short read on restore stream: %v", ErrUnavailable, err)
	}
	return &FileEntry{Path: hdr.Path, Size: hdr.Size, Data: data}, nil
}

func (s *tcpRestoreStream) Close() error {
	return s.conn.Close()
}

// RestoreLocal performs a restoration on the local engine, yielding restored
// files for archiving here.
func (c *Client) RestoreLocal(ctx context.Context, req RestoreRequest) (RestoreStream, error) {
	conn, err := c.dial(ctx, "")
	if err != nil {
		return nil, err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set restore deadline: %w", err)
	}
	if _, err := io.WriteString(conn, restoreQuery(req, false)+"\n"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to send restore query: %v", ErrUnavailable, err)
	}
	return &tcpRestoreStream{conn: conn, r: bufio.NewReader(conn), timeout: c.timeout}, nil
}

type spoolReply struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// RestoreRemote asks the agent on the given node to perform the restoration
// and spool the archive on its own disk.
func (c *Client) RestoreRemote(ctx context.Context, node string, req RestoreRequest) (string, string, error) {
	var reply spoolReply
	if err := c.query(ctx, node, restoreQuery(req, true), &reply); err != nil {
		return "", "", err
	}
	if reply.Error != "" {
		if reply.Error == "encrypted" {
			return "", "", ErrEncrypted
		}
		return "", "", fmt.Errorf("remote restore failed: %s", reply.Error)
	}
	return reply.Path, reply.Filename, nil
}

// GetFile opens the byte socket serving a spooled remote artifact. The agent
// answers with an 8-byte big-endian length followed by the payload; the
// caller relays those bytes and completes the transfer handshake.
func (c *Client) GetFile(ctx context.Context, path, node string) (net.Conn, error) {
	conn, err := c.dial(ctx, node)
	if err != nil {
		return nil, err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set get_file deadline: %w", err)
	}
	if _, err := io.WriteString(conn, "get_file:"+path+"\n"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to request file: %v", ErrUnavailable, err)
	}
	return conn, nil
}
