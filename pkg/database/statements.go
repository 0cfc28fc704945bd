package database

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// StatementCache maps a logical name to a compiled prepared statement so hot
// SQL text is parsed once per engine lifetime. The cache is append-only:
// entries are never invalidated except at Close, and callers bind fresh
// parameter values on every execution.
type StatementCache struct {
	db *bun.DB

	mu    sync.Mutex
	stmts map[string]*sql.Stmt
	texts map[string]string
}

func NewStatementCache(db *bun.DB) *StatementCache {
	return &StatementCache{
		db:    db,
		stmts: map[string]*sql.Stmt{},
		texts: map[string]string{},
	}
}

// Prepare returns the cached statement for name, compiling query on first use.
func (c *StatementCache) Prepare(ctx context.Context, name, query string) (*sql.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stmt, ok := c.stmts[name]; ok {
		return stmt, nil
	}

	stmt, err := c.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to prepare statement %q", name)
	}
	c.stmts[name] = stmt.Stmt
	c.texts[name] = query
	return stmt.Stmt, nil
}

// Exec executes the named statement, compiling it on first use. If the
// underlying connection reports it was closed mid-operation, the statement is
// recompiled and retried once; a second failure is propagated.
func (c *StatementCache) Exec(ctx context.Context, name, query string, args ...interface{}) (sql.Result, error) {
	stmt, err := c.Prepare(ctx, name, query)
	if err != nil {
		return nil, err
	}

	res, err := stmt.ExecContext(ctx, args...)
	if err != nil && isClosedConnError(err) {
		stmt, err = c.reprepare(ctx, name)
		if err != nil {
			return nil, err
		}
		res, err = stmt.ExecContext(ctx, args...)
	}
	return res, errors.WithStack(err)
}

// QueryInt64 runs the named single-value statement and returns the first
// column of the first row, with found=false when no row matches. The same
// closed-connection retry as Exec applies.
func (c *StatementCache) QueryInt64(ctx context.Context, name, query string, args ...interface{}) (value int64, found bool, err error) {
	stmt, err := c.Prepare(ctx, name, query)
	if err != nil {
		return 0, false, err
	}

	err = stmt.QueryRowContext(ctx, args...).Scan(&value)
	if err != nil && isClosedConnError(err) {
		stmt, err = c.reprepare(ctx, name)
		if err != nil {
			return 0, false, err
		}
		err = stmt.QueryRowContext(ctx, args...).Scan(&value)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.WithStack(err)
	}
	return value, true, nil
}

// reprepare drops the cached statement and compiles it again against a fresh
// connection.
func (c *StatementCache) reprepare(ctx context.Context, name string) (*sql.Stmt, error) {
	c.mu.Lock()
	query, ok := c.texts[name]
	if ok {
		if old := c.stmts[name]; old != nil {
			_ = old.Close()
		}
		delete(c.stmts, name)
	}
	c.mu.Unlock()
	if !ok {
		return nil, errors.Errorf("unknown statement %q", name)
	}
	return c.Prepare(ctx, name, query)
}

// Close releases every compiled statement. Called at store close only.
func (c *StatementCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for name, stmt := range c.stmts {
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "failed to close statement %q", name)
		}
	}
	c.stmts = map[string]*sql.Stmt{}
	c.texts = map[string]string{}
	return firstErr
}

func isClosedConnError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "connection is already closed") ||
		strings.Contains(msg, "statement is closed")
}
