package books

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shelfmark/shelfmark/pkg/anthology"
	"github.com/shelfmark/shelfmark/pkg/authors"
	"github.com/shelfmark/shelfmark/pkg/database"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/migrations"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/search"
	"github.com/shelfmark/shelfmark/pkg/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestService(t *testing.T) (*Service, *database.Handle) {
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

	authorSvc := authors.NewService(handle)
	seriesSvc := series.NewService(handle)
	anthologySvc := anthology.NewService(handle)
	searchSvc := search.NewService(handle)
	return NewService(handle, authorSvc, seriesSvc, anthologySvc, searchSvc), handle
}

func TestCreateBookRequiresAuthor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := setupTestService(t)

	_, err := svc.CreateBook(ctx, SaveBookOptions{
		Fields: map[string]interface{}{"title": "Dune"},
	})
	assert.ErrorIs(t, err, errcodes.ValidationError("a book requires at least one author"))
}

func TestCreateBookDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := setupTestService(t)

	book, err := svc.CreateBook(ctx, SaveBookOptions{
		Fields:  map[string]interface{}{"title": "Dune"},
		Authors: []string{"Herbert, Frank"},
	})
	require.NoError(t, err)

	assert.NotZero(t, book.ID)
	assert.NotEmpty(t, book.UUID)
	assert.False(t, book.DateAdded.IsZero())
	assert.False(t, book.LastUpdateDate.IsZero())
	require.Len(t, book.Authors, 1)
	assert.Equal(t, "Herbert", book.Authors[0].FamilyName)
	assert.Equal(t, "Frank", book.Authors[0].GivenNames)
}

func TestCreateBookDropsUnknownFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := setupTestService(t)

	book, err := svc.CreateBook(ctx, SaveBookOptions{
		Fields: map[string]interface{}{
			"title":       "Dune",
			"id":          999,
			"nonexistent": "value",
		},
		Authors: []string{"Frank Herbert"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, 999, book.ID)
}

func TestCreateBookLinkPositions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, handle := setupTestService(t)

	book, err := svc.CreateBook(ctx, SaveBookOptions{
		Fields:  map[string]interface{}{"title": "Good Omens"},
		Authors: []string{"Pratchett, Terry", "Gaiman, Neil", "Pratchett, Terry"},
		Series:  []SeriesRef{{Name: "Standalone", Number: "1"}},
	})
	require.NoError(t, err)

	// The duplicate author collapses; positions stay contiguous.
	links := []*models.BookAuthor{}
	err = handle.DB.NewSelect().Model(&links).Where("ba.book_id = ?", book.ID).OrderExpr("ba.position").Scan(ctx)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, 1, links[0].Position)
	assert.Equal(t, 2, links[1].Position)

	require.Len(t, book.Authors, 2)
	assert.Equal(t, "Pratchett", book.Authors[0].FamilyName)
	assert.Equal(t, "Gaiman", book.Authors[1].FamilyName)
}

func TestRetrieveBookByUUIDAndRemoteID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := setupTestService(t)

	remoteID := int64(424242)
	created, err := svc.CreateBook(ctx, SaveBookOptions{
		Fields: map[string]interface{}{
			"title":     "Dune",
			"book_uuid": "dune-uuid",
			"remote_id": remoteID,
		},
		Authors: []string{"Frank Herbert"},
	})
	require.NoError(t, err)

	uuid := "dune-uuid"
	byUUID, err := svc.RetrieveBook(ctx, RetrieveBookOptions{UUID: &uuid})
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUUID.ID)

	byRemote, err := svc.RetrieveBook(ctx, RetrieveBookOptions{RemoteID: &remoteID})
	require.NoError(t, err)
	assert.Equal(t, created.ID, byRemote.ID)

	missing := "missing-uuid"
	_, err = svc.RetrieveBook(ctx, RetrieveBookOptions{UUID: &missing})
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))
}

func TestRetrieveBookByAlternateISBN(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := setupTestService(t)

	created, err := svc.CreateBook(ctx, SaveBookOptions{
		Fields: map[string]interface{}{
			"title": "Dune",
			"isbn":  "9780441172719",
		},
		Authors: []string{"Frank Herbert"},
	})
	require.NoError(t, err)

	// Looking up by the 10-digit form finds the 13-digit record.
	isbn10 := "0441172717"
	book, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ISBN: &isbn10})
	require.NoError(t, err)
	assert.Equal(t, created.ID, book.ID)
}

func TestUpdateBookReplacesRelationsAndPurges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, handle := setupTestService(t)

	book, err := svc.CreateBook(ctx, SaveBookOptions{
		Fields:  map[string]interface{}{"title": "Dune"},
		Authors: []string{"Herbert, Frank"},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateBook(ctx, book.ID, SaveBookOptions{
		Fields:  map[string]interface{}{"read": true},
		Authors: []string{"Asimov, Isaac"},
	})
	require.NoError(t, err)
	assert.True(t, updated.Read)
	require.Len(t, updated.Authors, 1)
	assert.Equal(t, "Asimov", updated.Authors[0].FamilyName)

	// Herbert lost his only book and was purged.
	count, err := handle.DB.NewSelect().Model((*models.Author)(nil)).Where("family_name = ?", "Herbert").Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateBookNilRelationsUntouched(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := setupTestService(t)

	book, err := svc.CreateBook(ctx, SaveBookOptions{
		Fields:  map[string]interface{}{"title": "Dune"},
		Authors: []string{"Herbert, Frank"},
		Series:  []SeriesRef{{Name: "Dune Chronicles", Number: "1"}},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateBook(ctx, book.ID, SaveBookOptions{
		Fields: map[string]interface{}{"notes": "first edition"},
	})
	require.NoError(t, err)
	assert.Equal(t, "first edition", updated.Notes)
	require.Len(t, updated.Authors, 1)
	require.Len(t, updated.Series, 1)
}

func TestDeleteBookCascadesAndPurges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, handle := setupTestService(t)

	_, err := handle.DB.Exec("PRAGMA foreign_keys=ON")
	require.NoError(t, err)

	book, err := svc.CreateBook(ctx, SaveBookOptions{
		Fields:  map[string]interface{}{"title": "Dangerous Visions", "anthology": true},
		Authors: []string{"Ellison, Harlan"},
		Entries: []AnthologyRef{{Author: "Philip K. Dick", Title: "Faith of Our Fathers"}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(ctx, book.ID))

	for _, table := range []string{"book_authors", "anthology_titles"} {
		count := 0
		err = handle.DB.NewRaw("SELECT count(*) FROM "+table).Scan(ctx, &count)
		require.NoError(t, err)
		assert.Zero(t, count, table)
	}

	authorCount, err := handle.DB.NewSelect().Model((*models.Author)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, authorCount)

	assert.ErrorIs(t, svc.DeleteBook(ctx, book.ID), errcodes.NotFound("Book"))
}

func TestExists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := setupTestService(t)

	book, err := svc.CreateBook(ctx, SaveBookOptions{
		Fields:  map[string]interface{}{"title": "Dune"},
		Authors: []string{"Frank Herbert"},
	})
	require.NoError(t, err)

	ok, err := svc.Exists(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, book.ID+1000)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListValuesAndReplaceValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := setupTestService(t)

	for _, b := range []struct{ title, publisher string }{
		{"Dune", "Chilton"},
		{"Dune Messiah", "Putnam"},
		{"Children of Dune", "Putnam"},
	} {
		_, err := svc.CreateBook(ctx, SaveBookOptions{
			Fields:  map[string]interface{}{"title": b.title, "publisher": b.publisher},
			Authors: []string{"Frank Herbert"},
		})
		require.NoError(t, err)
	}

	values, err := svc.ListValues(ctx, "publisher")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chilton", "Putnam"}, values)

	pos, err := svc.ValuePosition(ctx, "publisher", "Putnam")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	affected, err := svc.ReplaceValue(ctx, "publisher", "Putnam", "G. P. Putnam's Sons")
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	values, err = svc.ListValues(ctx, "publisher")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chilton", "G. P. Putnam's Sons"}, values)

	_, err = svc.ListValues(ctx, "title")
	assert.Error(t, err)
}
