package api

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// noopDriver is a database/sql driver whose connections only know how to
// begin, commit and roll back transactions. Handler tests run their record
// bookkeeping against in-memory fakes, so the transaction plumbing is all
// they need from the database handle.
type noopDriver struct{}

func (noopDriver) Open(string) (driver.Conn, error) { return noopConn{}, nil }

type noopConn struct{}

func (noopConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("statements are not supported")
}
func (noopConn) Close() error              { return nil }
func (noopConn) Begin() (driver.Tx, error) { return noopTx{}, nil }

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

func init() {
	sql.Register("noop-tx", noopDriver{})
}

func newNoopDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("noop-tx", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
