package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"sync"
	"time"
)

// fakeDB is a database/sql driver that answers by statement prefix and
// records what happened to each transaction.
type fakeDB struct {
	insertID        int64
	storedCreate    time.Time
	storedUpdate    time.Time
	rowsAffectedErr error

	mu        sync.Mutex
	commits   int
	rollbacks int
	execs     []string
}

func newFakeDB(f *fakeDB) *sql.DB {
	return sql.OpenDB(fakeConnector{db: f})
}

type fakeConnector struct{ db *fakeDB }

func (c fakeConnector) Connect(context.Context) (driver.Conn, error) { return fakeConn(c), nil }

func (c fakeConnector) Driver() driver.Driver { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return nil, driver.ErrSkip }

type fakeConn struct{ db *fakeDB }

func (c fakeConn) Prepare(query string) (driver.Stmt, error) {
	return fakeStmt{db: c.db, query: strings.TrimSpace(query)}, nil
}

func (c fakeConn) Close() error { return nil }

func (c fakeConn) Begin() (driver.Tx, error) { return fakeTx(c), nil }

type fakeTx struct{ db *fakeDB }

func (t fakeTx) Commit() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.commits++
	return nil
}

func (t fakeTx) Rollback() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.rollbacks++
	return nil
}

type fakeStmt struct {
	db    *fakeDB
	query string
}

func (s fakeStmt) Close() error { return nil }

func (s fakeStmt) NumInput() int { return -1 }

func (s fakeStmt) Exec([]driver.Value) (driver.Result, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.execs = append(s.db.execs, s.query)
	return fakeResult{err: s.db.rowsAffectedErr}, nil
}

func (s fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	switch {
	case strings.HasPrefix(s.query, "INSERT"):
		return &fakeRows{columns: []string{"id"}, values: []driver.Value{s.db.insertID}}, nil
	case strings.HasPrefix(s.query, "UPDATE"):
		return &fakeRows{
			columns: []string{"create_time", "update_time"},
			values:  []driver.Value{s.db.storedCreate, s.db.storedUpdate},
		}, nil
	}
	return &fakeRows{}, nil
}

type fakeResult struct{ err error }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }

func (r fakeResult) RowsAffected() (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return 1, nil
}

type fakeRows struct {
	columns []string
	values  []driver.Value
	done    bool
}

func (r *fakeRows) Columns() []string { return r.columns }

func (r *fakeRows) Close() error { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.done || r.values == nil {
		return io.EOF
	}
	r.done = true
	copy(dest, r.values)
	return nil
}
