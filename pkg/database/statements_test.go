package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestCache(t *testing.T) (*StatementCache, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// A second pooled connection would see a different empty in-memory DB.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.Exec("CREATE TABLE things (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)")
	require.NoError(t, err)

	cache := NewStatementCache(db)
	t.Cleanup(func() {
		_ = cache.Close()
		_ = db.Close()
	})
	return cache, db
}

func TestPrepareReturnsSameStatement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cache, _ := newTestCache(t)

	first, err := cache.Prepare(ctx, "thing_by_name", "SELECT id FROM things WHERE name = ?")
	require.NoError(t, err)
	second, err := cache.Prepare(ctx, "thing_by_name", "SELECT id FROM things WHERE name = ?")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestExecAndQueryInt64(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cache, _ := newTestCache(t)

	res, err := cache.Exec(ctx, "insert_thing", "INSERT INTO things (name) VALUES (?)", "widget")
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	id, found, err := cache.QueryInt64(ctx, "thing_by_name", "SELECT id FROM things WHERE name = ?", "widget")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1), id)

	_, found, err = cache.QueryInt64(ctx, "thing_by_name", "SELECT id FROM things WHERE name = ?", "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCloseClearsStatements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cache, _ := newTestCache(t)

	_, err := cache.Prepare(ctx, "thing_by_name", "SELECT id FROM things WHERE name = ?")
	require.NoError(t, err)
	require.NoError(t, cache.Close())

	// The cache compiles fresh statements after Close.
	_, found, err := cache.QueryInt64(ctx, "thing_by_name", "SELECT id FROM things WHERE name = ?", "missing")
	require.NoError(t, err)
	assert.False(t, found)
}
