package search

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shelfmark/shelfmark/pkg/database"
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

func createBook(t *testing.T, db *bun.DB, title, author string, fields func(*models.Book)) int {
	t.Helper()
	ctx := context.Background()

	book := &models.Book{UUID: title + "-uuid", Title: title}
	if fields != nil {
		fields(book)
	}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	if author != "" {
		a := &models.Author{FamilyName: author}
		_, err = db.NewInsert().Model(a).Exec(ctx)
		require.NoError(t, err)
		link := &models.BookAuthor{BookID: book.ID, AuthorID: a.ID, Position: 1}
		_, err = db.NewInsert().Model(link).Exec(ctx)
		require.NoError(t, err)
	}
	return book.ID
}

func TestIndexAndSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	id := createBook(t, handle.DB, "Dune", "Herbert", func(b *models.Book) {
		b.Publisher = "Chilton"
		b.ISBN = "9780441172719"
	})
	require.NoError(t, svc.IndexBook(ctx, handle.DB, id))

	ids, err := svc.Search(ctx, "", "", "dune")
	require.NoError(t, err)
	assert.Equal(t, []int{id}, ids)

	ids, err = svc.Search(ctx, "herbert", "", "")
	require.NoError(t, err)
	assert.Equal(t, []int{id}, ids)

	ids, err = svc.Search(ctx, "", "dune", "")
	require.NoError(t, err)
	assert.Equal(t, []int{id}, ids)

	// Publisher only matches the anywhere terms, not the title scope.
	ids, err = svc.Search(ctx, "", "chilton", "")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = svc.Search(ctx, "", "", "chilton")
	require.NoError(t, err)
	assert.Equal(t, []int{id}, ids)
}

func TestSearchEmptyTermsMatchNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	id := createBook(t, handle.DB, "Dune", "Herbert", nil)
	require.NoError(t, svc.IndexBook(ctx, handle.DB, id))

	ids, err := svc.Search(ctx, "", "", "")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = svc.Search(ctx, "", "", "!!!")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUpdateBookReindexes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	id := createBook(t, handle.DB, "Dune", "Herbert", nil)
	require.NoError(t, svc.IndexBook(ctx, handle.DB, id))

	_, err := handle.DB.NewUpdate().Model((*models.Book)(nil)).
		Set("notes = ?", "signed first edition").
		Where("id = ?", id).
		Exec(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateBook(ctx, handle.DB, id))

	ids, err := svc.Search(ctx, "", "", "signed first")
	require.NoError(t, err)
	assert.Equal(t, []int{id}, ids)
}

func TestDeleteBookRemovesRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	id := createBook(t, handle.DB, "Dune", "Herbert", nil)
	require.NoError(t, svc.IndexBook(ctx, handle.DB, id))
	require.NoError(t, svc.DeleteBook(ctx, handle.DB, id))

	ids, err := svc.Search(ctx, "", "", "dune")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAnthologyEntriesAreSearchable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	id := createBook(t, handle.DB, "Dangerous Visions", "Ellison", nil)

	storyAuthor := &models.Author{FamilyName: "Dick", GivenNames: "Philip K."}
	_, err := handle.DB.NewInsert().Model(storyAuthor).Exec(ctx)
	require.NoError(t, err)
	entry := &models.AnthologyTitle{BookID: id, AuthorID: storyAuthor.ID, Title: "Faith of Our Fathers", Position: 1}
	_, err = handle.DB.NewInsert().Model(entry).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.IndexBook(ctx, handle.DB, id))

	// The story title lands in the title field, its author in the authors field.
	ids, err := svc.Search(ctx, "", "fathers", "")
	require.NoError(t, err)
	assert.Equal(t, []int{id}, ids)

	ids, err = svc.Search(ctx, "dick", "", "")
	require.NoError(t, err)
	assert.Equal(t, []int{id}, ids)
}

func TestRebuildAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	// Two books, neither ever indexed incrementally.
	dune := createBook(t, handle.DB, "Dune", "Herbert", nil)
	hobbit := createBook(t, handle.DB, "The Hobbit", "Tolkien", nil)

	require.NoError(t, svc.RebuildAll(ctx))

	ids, err := svc.Search(ctx, "", "", "dune")
	require.NoError(t, err)
	assert.Equal(t, []int{dune}, ids)

	ids, err = svc.Search(ctx, "tolkien", "", "")
	require.NoError(t, err)
	assert.Equal(t, []int{hobbit}, ids)
}
