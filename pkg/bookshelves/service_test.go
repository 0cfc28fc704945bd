package bookshelves

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shelfmark/shelfmark/pkg/database"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/migrations"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *database.Handle {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// A second pooled connection would see a different empty in-memory DB.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	models.Register(db)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	handle := database.NewHandle(db)
	t.Cleanup(func() {
		handle.Close()
	})
	return handle
}

func TestCreateAndRetrieveBookshelf(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	shelf, err := svc.CreateBookshelf(ctx, "  Science Fiction ")
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", shelf.Name)

	name := "science fiction"
	found, err := svc.RetrieveBookshelf(ctx, RetrieveBookshelfOptions{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, shelf.ID, found.ID)

	_, err = svc.CreateBookshelf(ctx, "")
	assert.Error(t, err)

	missing := 9999
	_, err = svc.RetrieveBookshelf(ctx, RetrieveBookshelfOptions{ID: &missing})
	assert.ErrorIs(t, err, errcodes.NotFound("Bookshelf"))
}

func TestListBookshelvesWithBookCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	fiction, err := svc.CreateBookshelf(ctx, "Fiction")
	require.NoError(t, err)
	_, err = svc.CreateBookshelf(ctx, "Reference")
	require.NoError(t, err)

	book := &models.Book{UUID: "uuid-dune", Title: "Dune"}
	_, err = handle.DB.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)
	_, err = handle.DB.ExecContext(ctx,
		"INSERT INTO book_bookshelves (book_id, bookshelf_id) VALUES (?, ?)", book.ID, fiction.ID)
	require.NoError(t, err)

	shelves, err := svc.ListBookshelves(ctx, ListBookshelvesOptions{WithBookCount: true})
	require.NoError(t, err)
	require.Len(t, shelves, 2)
	assert.Equal(t, "Fiction", shelves[0].Name)
	assert.Equal(t, 1, shelves[0].BookCount)
	assert.Equal(t, 0, shelves[1].BookCount)

	search := "fic"
	shelves, err = svc.ListBookshelves(ctx, ListBookshelvesOptions{Search: &search})
	require.NoError(t, err)
	require.Len(t, shelves, 1)
	assert.Equal(t, "Fiction", shelves[0].Name)
}

func TestDeleteBookshelfRemovesMemberships(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	shelf, err := svc.CreateBookshelf(ctx, "Fiction")
	require.NoError(t, err)

	book := &models.Book{UUID: "uuid-dune", Title: "Dune"}
	_, err = handle.DB.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)
	_, err = handle.DB.ExecContext(ctx,
		"INSERT INTO book_bookshelves (book_id, bookshelf_id) VALUES (?, ?)", book.ID, shelf.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBookshelf(ctx, shelf.ID))

	var memberships int
	err = handle.DB.NewRaw("SELECT count(*) FROM book_bookshelves").Scan(ctx, &memberships)
	require.NoError(t, err)
	assert.Equal(t, 0, memberships)

	var books int
	err = handle.DB.NewRaw("SELECT count(*) FROM books").Scan(ctx, &books)
	require.NoError(t, err)
	assert.Equal(t, 1, books)

	assert.ErrorIs(t, svc.DeleteBookshelf(ctx, shelf.ID), errcodes.NotFound("Bookshelf"))
}

func TestRenameBookshelf(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	shelf, err := svc.CreateBookshelf(ctx, "Fiction")
	require.NoError(t, err)

	require.NoError(t, svc.RenameBookshelf(ctx, shelf.ID, "Novels"))

	name := "Novels"
	found, err := svc.RetrieveBookshelf(ctx, RetrieveBookshelfOptions{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, shelf.ID, found.ID)

	assert.Error(t, svc.RenameBookshelf(ctx, shelf.ID, " "))
	assert.ErrorIs(t, svc.RenameBookshelf(ctx, shelf.ID+1, "Other"), errcodes.NotFound("Bookshelf"))
}
