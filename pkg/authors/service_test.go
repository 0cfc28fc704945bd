package authors

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

func createBook(t *testing.T, db *bun.DB, title string) int {
	t.Helper()

	book := &models.Book{UUID: title + "-uuid", Title: title}
	_, err := db.NewInsert().Model(book).Exec(context.Background())
	require.NoError(t, err)
	return book.ID
}

func linkAuthor(t *testing.T, db *bun.DB, bookID, authorID, position int) {
	t.Helper()

	link := &models.BookAuthor{BookID: bookID, AuthorID: authorID, Position: position}
	_, err := db.NewInsert().Model(link).Exec(context.Background())
	require.NoError(t, err)
}

func TestFindOrCreateAuthor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	first, err := svc.FindOrCreateAuthor(ctx, "Herbert", "Frank")
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	// Same name, any case, resolves to the same row.
	second, err := svc.FindOrCreateAuthor(ctx, "HERBERT", "frank")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = svc.FindOrCreateAuthor(ctx, "", "Frank")
	assert.Error(t, err)
}

func TestFindOrCreateByName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	author, err := svc.FindOrCreateByName(ctx, "Ursula Le Guin")
	require.NoError(t, err)
	assert.Equal(t, "Le Guin", author.FamilyName)
	assert.Equal(t, "Ursula", author.GivenNames)
}

func TestPurgeKeepsReferencedAuthors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	linked, err := svc.FindOrCreateAuthor(ctx, "Herbert", "Frank")
	require.NoError(t, err)
	anthologyOnly, err := svc.FindOrCreateAuthor(ctx, "Dick", "Philip K.")
	require.NoError(t, err)
	orphan, err := svc.FindOrCreateAuthor(ctx, "Nobody", "")
	require.NoError(t, err)

	bookID := createBook(t, handle.DB, "Dune")
	linkAuthor(t, handle.DB, bookID, linked.ID, 1)

	entry := &models.AnthologyTitle{BookID: bookID, AuthorID: anthologyOnly.ID, Title: "Story", Position: 1}
	_, err = handle.DB.NewInsert().Model(entry).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Purge(ctx))

	_, err = svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &linked.ID})
	assert.NoError(t, err)
	// An author referenced only through anthology entries survives.
	_, err = svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &anthologyOnly.ID})
	assert.NoError(t, err)
	_, err = svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &orphan.ID})
	assert.ErrorIs(t, err, errcodes.NotFound("Author"))
}

// The duplicate-author scenario: two books under the canonical name, a third
// under a duplicate spelling. After the merge every book carries the single
// surviving author at position 1 and the duplicate row is gone.
func TestReplaceMergesDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	canonical, err := svc.FindOrCreateAuthor(ctx, "Herbert", "Frank")
	require.NoError(t, err)
	duplicate, err := svc.FindOrCreateAuthor(ctx, "Herbert", "F.")
	require.NoError(t, err)

	dune := createBook(t, handle.DB, "Dune")
	messiah := createBook(t, handle.DB, "Dune Messiah")
	children := createBook(t, handle.DB, "Children of Dune")
	linkAuthor(t, handle.DB, dune, canonical.ID, 1)
	linkAuthor(t, handle.DB, messiah, canonical.ID, 1)
	linkAuthor(t, handle.DB, children, duplicate.ID, 1)

	require.NoError(t, svc.Replace(ctx, duplicate.ID, canonical.ID))

	links := []*models.BookAuthor{}
	err = handle.DB.NewSelect().Model(&links).OrderExpr("ba.book_id").Scan(ctx)
	require.NoError(t, err)
	require.Len(t, links, 3)
	for _, link := range links {
		assert.Equal(t, canonical.ID, link.AuthorID)
		assert.Equal(t, 1, link.Position)
	}

	_, err = svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &duplicate.ID})
	assert.ErrorIs(t, err, errcodes.NotFound("Author"))
}

func TestReplaceCollisionKeepsProminentSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	canonical, err := svc.FindOrCreateAuthor(ctx, "Pratchett", "Terry")
	require.NoError(t, err)
	duplicate, err := svc.FindOrCreateAuthor(ctx, "Pratchett", "T.")
	require.NoError(t, err)
	other, err := svc.FindOrCreateAuthor(ctx, "Gaiman", "Neil")
	require.NoError(t, err)

	// Duplicate leads at position 1, the canonical row trails at 3.
	book := createBook(t, handle.DB, "Good Omens")
	linkAuthor(t, handle.DB, book, duplicate.ID, 1)
	linkAuthor(t, handle.DB, book, other.ID, 2)
	linkAuthor(t, handle.DB, book, canonical.ID, 3)

	require.NoError(t, svc.Replace(ctx, duplicate.ID, canonical.ID))

	links := []*models.BookAuthor{}
	err = handle.DB.NewSelect().Model(&links).Where("ba.book_id = ?", book).OrderExpr("ba.position").Scan(ctx)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, canonical.ID, links[0].AuthorID)
	assert.Equal(t, 1, links[0].Position)
	assert.Equal(t, other.ID, links[1].AuthorID)
	assert.Equal(t, 2, links[1].Position)
}

func TestReplaceRepointsAnthologyEntries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	canonical, err := svc.FindOrCreateAuthor(ctx, "Dick", "Philip K.")
	require.NoError(t, err)
	duplicate, err := svc.FindOrCreateAuthor(ctx, "Dick", "P. K.")
	require.NoError(t, err)

	bookID := createBook(t, handle.DB, "Dangerous Visions")
	entry := &models.AnthologyTitle{BookID: bookID, AuthorID: duplicate.ID, Title: "Faith of Our Fathers", Position: 1}
	_, err = handle.DB.NewInsert().Model(entry).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Replace(ctx, duplicate.ID, canonical.ID))

	got := &models.AnthologyTitle{}
	err = handle.DB.NewSelect().Model(got).Where("at.id = ?", entry.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, canonical.ID, got.AuthorID)
}

func TestListAuthorsAndPosition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	handle := setupTestDB(t)
	svc := NewService(handle)

	for _, name := range [][2]string{{"Asimov", "Isaac"}, {"Herbert", "Frank"}, {"Le Guin", "Ursula"}} {
		a, err := svc.FindOrCreateAuthor(ctx, name[0], name[1])
		require.NoError(t, err)
		bookID := createBook(t, handle.DB, "A book by "+name[0])
		linkAuthor(t, handle.DB, bookID, a.ID, 1)
	}

	search := "guin"
	list, err := svc.ListAuthors(ctx, ListAuthorsOptions{Search: &search, WithBookCount: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Le Guin", list[0].FamilyName)
	assert.Equal(t, 1, list[0].BookCount)

	pos, err := svc.Position(ctx, "Herbert", "Frank", "")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
}
