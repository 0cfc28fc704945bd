package database

import "sync"

// Guard is the process-wide reader/writer coordination point for the single
// SQLite connection. SQLite permits many concurrent readers but only one
// writer, so every mutation entry point acquires the write side for its whole
// statement sequence; fetches acquire the read side and may run concurrently.
//
// A Guard is injected into every service alongside the *bun.DB rather than
// living in package-level state, so tests can run isolated engines in
// parallel.
type Guard struct {
	mu sync.RWMutex
}

// ReleaseFunc releases an acquired scope. It must be called exactly once,
// normally via defer.
type ReleaseFunc func()

func NewGuard() *Guard {
	return &Guard{}
}

// AcquireRead blocks until no writer holds the guard and returns the release
// for the read scope. Multiple readers may hold the guard at once.
func (g *Guard) AcquireRead() ReleaseFunc {
	g.mu.RLock()
	return g.mu.RUnlock
}

// AcquireWrite blocks until the guard is free of readers and writers and
// returns the release for the exclusive scope. Bulk operations (merges, index
// rebuilds) hold one write scope across all of their statements so a
// partially-applied state is never observable.
func (g *Guard) AcquireWrite() ReleaseFunc {
	g.mu.Lock()
	return g.mu.Unlock
}
