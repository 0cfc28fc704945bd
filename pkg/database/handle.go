package database

import (
	"github.com/shelfmark/shelfmark/pkg/config"
	"github.com/uptrace/bun"
)

// Handle bundles the single connection with its access coordinator and
// statement cache. One long-lived Handle is built at startup and injected
// into every service; nothing reaches the connection through package state.
type Handle struct {
	DB    *bun.DB
	Guard *Guard
	Stmts *StatementCache
}

func NewHandle(db *bun.DB) *Handle {
	return &Handle{
		DB:    db,
		Guard: NewGuard(),
		Stmts: NewStatementCache(db),
	}
}

// Open connects per cfg and wraps the connection in a fresh Handle.
func Open(cfg *config.Config) (*Handle, error) {
	db, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return NewHandle(db), nil
}

// Close releases cached statements before the connection itself.
func (h *Handle) Close() error {
	if err := h.Stmts.Close(); err != nil {
		_ = h.DB.Close()
		return err
	}
	return h.DB.Close()
}
