package database

import (
	"context"
	"database/sql/driver"
	"math/rand"
	"strings"
	"time"
)

// backoffConnector wraps a driver.Connector and retries connections and
// statements that fail with SQLITE_BUSY / SQLITE_LOCKED.
type backoffConnector struct {
	connector  driver.Connector
	maxRetries int
}

func newBackoffConnector(connector driver.Connector, maxRetries int) *backoffConnector {
	return &backoffConnector{connector: connector, maxRetries: maxRetries}
}

func (bc *backoffConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := bc.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &backoffConn{conn: conn, maxRetries: bc.maxRetries}, nil
}

func (bc *backoffConnector) Driver() driver.Driver {
	return bc.connector.Driver()
}

// isBusyError checks if the error is a SQLite BUSY or LOCKED error. Works with
// both mattn/go-sqlite3 and modernc.org/sqlite drivers.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "(5)") || // SQLITE_BUSY error code
		strings.Contains(msg, "(6)") // SQLITE_LOCKED error code
}

// retryBusy executes fn with exponential backoff while it returns a busy error.
func retryBusy(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	baseDelay := 50 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil || !isBusyError(err) {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		delay := baseDelay * time.Duration(1<<attempt)
		// Add jitter (up to 25% of delay)
		delay += time.Duration(rand.Int63n(int64(delay / 4)))
		if delay > 2*time.Second {
			delay = 2 * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return err
}

type backoffConn struct {
	conn       driver.Conn
	maxRetries int
}

func (c *backoffConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &backoffStmt{stmt: stmt, maxRetries: c.maxRetries}, nil
}

func (c *backoffConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if cpc, ok := c.conn.(driver.ConnPrepareContext); ok {
		stmt, err := cpc.PrepareContext(ctx, query)
		if err != nil {
			return nil, err
		}
		return &backoffStmt{stmt: stmt, maxRetries: c.maxRetries}, nil
	}
	return c.Prepare(query)
}

func (c *backoffConn) Close() error {
	return c.conn.Close()
}

func (c *backoffConn) Begin() (driver.Tx, error) {
	var tx driver.Tx
	err := retryBusy(context.Background(), c.maxRetries, func() error {
		var innerErr error
		tx, innerErr = c.conn.Begin() //nolint:staticcheck // deprecated but required for interface
		return innerErr
	})
	return tx, err
}

func (c *backoffConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if cbt, ok := c.conn.(driver.ConnBeginTx); ok {
		var tx driver.Tx
		err := retryBusy(ctx, c.maxRetries, func() error {
			var innerErr error
			tx, innerErr = cbt.BeginTx(ctx, opts)
			return innerErr
		})
		return tx, err
	}
	return c.Begin()
}

func (c *backoffConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	ec, ok := c.conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var result driver.Result
	err := retryBusy(ctx, c.maxRetries, func() error {
		var innerErr error
		result, innerErr = ec.ExecContext(ctx, query, args)
		return innerErr
	})
	return result, err
}

func (c *backoffConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	qc, ok := c.conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var rows driver.Rows
	err := retryBusy(ctx, c.maxRetries, func() error {
		var innerErr error
		rows, innerErr = qc.QueryContext(ctx, query, args)
		return innerErr
	})
	return rows, err
}

func (c *backoffConn) Ping(ctx context.Context) error {
	if pinger, ok := c.conn.(driver.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

func (c *backoffConn) ResetSession(ctx context.Context) error {
	if resetter, ok := c.conn.(driver.SessionResetter); ok {
		return resetter.ResetSession(ctx)
	}
	return nil
}

func (c *backoffConn) IsValid() bool {
	if validator, ok := c.conn.(driver.Validator); ok {
		return validator.IsValid()
	}
	return true
}

type backoffStmt struct {
	stmt       driver.Stmt
	maxRetries int
}

func (s *backoffStmt) Close() error {
	return s.stmt.Close()
}

func (s *backoffStmt) NumInput() int {
	return s.stmt.NumInput()
}

func (s *backoffStmt) Exec(args []driver.Value) (driver.Result, error) {
	var result driver.Result
	err := retryBusy(context.Background(), s.maxRetries, func() error {
		var innerErr error
		result, innerErr = s.stmt.Exec(args) //nolint:staticcheck // deprecated but required for interface
		return innerErr
	})
	return result, err
}

func (s *backoffStmt) Query(args []driver.Value) (driver.Rows, error) {
	var rows driver.Rows
	err := retryBusy(context.Background(), s.maxRetries, func() error {
		var innerErr error
		rows, innerErr = s.stmt.Query(args) //nolint:staticcheck // deprecated but required for interface
		return innerErr
	})
	return rows, err
}

func (s *backoffStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if sec, ok := s.stmt.(driver.StmtExecContext); ok {
		var result driver.Result
		err := retryBusy(ctx, s.maxRetries, func() error {
			var innerErr error
			result, innerErr = sec.ExecContext(ctx, args)
			return innerErr
		})
		return result, err
	}

	values := make([]driver.Value, len(args))
	for i, arg := range args {
		values[i] = arg.Value
	}
	return s.Exec(values)
}

func (s *backoffStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if sqc, ok := s.stmt.(driver.StmtQueryContext); ok {
		var rows driver.Rows
		err := retryBusy(ctx, s.maxRetries, func() error {
			var innerErr error
			rows, innerErr = sqc.QueryContext(ctx, args)
			return innerErr
		})
		return rows, err
	}

	values := make([]driver.Value, len(args))
	for i, arg := range args {
		values[i] = arg.Value
	}
	return s.Query(values)
}
