package backend

import (
	"context"
	"io"
	"net"
)

// MockBackend is a configurable Backend for tests. Unset function fields
// yield zero values.
type MockBackend struct {
	IsBackupRunningFn    func(ctx context.Context, client, node string) (bool, error)
	IsOneBackupRunningFn func(ctx context.Context, node string) (bool, error)
	BatchListSupportedFn func(node string) bool
	RestoreLocalFn       func(ctx context.Context, req RestoreRequest) (RestoreStream, error)
	RestoreRemoteFn      func(ctx context.Context, node string, req RestoreRequest) (string, string, error)
	ClientTreeAllFn      func(ctx context.Context, client string, backup int, node string) ([]TreeNode, error)
	DeleteClientFn       func(ctx context.Context, client string, opts DeleteOptions, node string) (string, error)
	GetFileFn            func(ctx context.Context, path, node string) (net.Conn, error)
	ClientsReportFn      func(ctx context.Context, node string) (*Report, error)
}

var _ Backend = (*MockBackend)(nil)

func (m *MockBackend) IsBackupRunning(ctx context.Context, client, node string) (bool, error) {
	if m.IsBackupRunningFn != nil {
		return m.IsBackupRunningFn(ctx, client, node)
	}
	return false, nil
}

func (m *MockBackend) IsOneBackupRunning(ctx context.Context, node string) (bool, error) {
	if m.IsOneBackupRunningFn != nil {
		return m.IsOneBackupRunningFn(ctx, node)
	}
	return false, nil
}

func (m *MockBackend) BatchListSupported(node string) bool {
	if m.BatchListSupportedFn != nil {
		return m.BatchListSupportedFn(node)
	}
	return true
}

func (m *MockBackend) RestoreLocal(ctx context.Context, req RestoreRequest) (RestoreStream, error) {
	if m.RestoreLocalFn != nil {
		return m.RestoreLocalFn(ctx, req)
	}
	return &SliceRestoreStream{}, nil
}

func (m *MockBackend) RestoreRemote(ctx context.Context, node string, req RestoreRequest) (string, string, error) {
	if m.RestoreRemoteFn != nil {
		return m.RestoreRemoteFn(ctx, node, req)
	}
	return "", "", nil
}

func (m *MockBackend) ClientTreeAll(ctx context.Context, client string, backup int, node string) ([]TreeNode, error) {
	if m.ClientTreeAllFn != nil {
		return m.ClientTreeAllFn(ctx, client, backup, node)
	}
	return nil, nil
}

func (m *MockBackend) DeleteClient(ctx context.Context, client string, opts DeleteOptions, node string) (string, error) {
	if m.DeleteClientFn != nil {
		return m.DeleteClientFn(ctx, client, opts, node)
	}
	return "", nil
}

func (m *MockBackend) GetFile(ctx context.Context, path, node string) (net.Conn, error) {
	if m.GetFileFn != nil {
		return m.GetFileFn(ctx, path, node)
	}
	return nil, ErrNotSupported
}

func (m *MockBackend) ClientsReport(ctx context.Context, node string) (*Report, error) {
	if m.ClientsReportFn != nil {
		return m.ClientsReportFn(ctx, node)
	}
	return &Report{}, nil
}

// SliceRestoreStream is a RestoreStream backed by an in-memory slice.
type SliceRestoreStream struct {
	Entries []FileEntry
	pos     int
	Closed  bool
}

var _ RestoreStream = (*SliceRestoreStream)(nil)

func (s *SliceRestoreStream) Next() (*FileEntry, error) {
	if s.pos >= len(s.Entries) {
		return nil, io.EOF
	}
	entry := s.Entries[s.pos]
	s.pos++
	return &entry, nil
}

func (s *SliceRestoreStream) Close() error {
	s.Closed = true
	return nil
}
