package sqlutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// txDriver is a database/sql driver that only supports transactions.
type txDriver struct {
	mu          sync.Mutex
	beginErr    error
	commitErr   error
	rollbackErr error
	commits     int
	rollbacks   int
}

func (d *txDriver) Open(string) (driver.Conn, error) { return &txConn{d: d}, nil }

type txConn struct{ d *txDriver }

func (c *txConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (c *txConn) Close() error                        { return nil }

func (c *txConn) Begin() (driver.Tx, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	if c.d.beginErr != nil {
		return nil, c.d.beginErr
	}
	return &txTx{d: c.d}, nil
}

type txTx struct{ d *txDriver }

func (t *txTx) Commit() error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	t.d.commits++
	return t.d.commitErr
}

func (t *txTx) Rollback() error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	t.d.rollbacks++
	return t.d.rollbackErr
}

type queries struct{ tx *sql.Tx }

func newQueries(tx *sql.Tx) *queries { return &queries{tx: tx} }

func openTxDB(t *testing.T, d *txDriver) *sql.DB {
	t.Helper()
	name := "sqlutil-tx-" + t.Name()
	sql.Register(name, d)
	db, err := sql.Open(name, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunCommits(t *testing.T) {
	d := &txDriver{}
	db := openTxDB(t, d)

	err := Run(context.Background(), db, newQueries, func(q *queries) error {
		assert.NotNil(t, q.tx)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, d.commits)
	assert.Equal(t, 0, d.rollbacks)
}

func TestRunRollsBackOnError(t *testing.T) {
	d := &txDriver{}
	db := openTxDB(t, d)
	boom := errors.New("boom")

	err := Run(context.Background(), db, newQueries, func(*queries) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, d.commits)
	assert.Equal(t, 1, d.rollbacks)
}

func TestRunWrapsErrors(t *testing.T) {
	noop := func(*queries) error { return nil }

	t.Run("begin", func(t *testing.T) {
		beginErr := errors.New("no connection")
		db := openTxDB(t, &txDriver{beginErr: beginErr})

		err := Run(context.Background(), db, newQueries, noop)
		assert.ErrorIs(t, err, beginErr)
		assert.Contains(t, err.Error(), "begin transaction")
	})

	t.Run("commit", func(t *testing.T) {
		commitErr := errors.New("serialization failure")
		db := openTxDB(t, &txDriver{commitErr: commitErr})

		err := Run(context.Background(), db, newQueries, noop)
		assert.ErrorIs(t, err, commitErr)
		assert.Contains(t, err.Error(), "commit transaction")
	})

	t.Run("rollback", func(t *testing.T) {
		rbErr := errors.New("connection reset")
		boom := errors.New("boom")
		db := openTxDB(t, &txDriver{rollbackErr: rbErr})

		err := Run(context.Background(), db, newQueries, func(*queries) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, rbErr)
	})
}
