// Package search keeps one derived index row per book synchronized with the
// catalogue and answers free-text queries against it. The index is a
// convenience structure: it may briefly lag the row data, and callers treat
// maintenance failures as non-fatal.
package search

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/database"
	"github.com/uptrace/bun"
)

const ftsColumns = "authors, title, description, notes, publisher, genre, location, isbn"

type Service struct {
	handle *database.Handle
}

func NewService(handle *database.Handle) *Service {
	return &Service{handle}
}

// document is the flattened text indexed for one book.
type document struct {
	BookID      int
	Authors     string
	Title       string
	Description string
	Notes       string
	Publisher   string
	Genre       string
	Location    string
	ISBN        string
}

type bookText struct {
	ID          int    `bun:"id"`
	Title       string `bun:"title"`
	Description string `bun:"description"`
	Notes       string `bun:"notes"`
	Publisher   string `bun:"publisher"`
	Genre       string `bun:"genre"`
	Location    string `bun:"location"`
	ISBN        string `bun:"isbn"`
}

// buildDocument flattens a book and its relations for indexing. Anthology
// authors fold into the authors field and anthology titles into the title
// field, so a collection is findable by any story it contains. Series names
// ride along with the description.
func buildDocument(ctx context.Context, db bun.IDB, book bookText) (document, error) {
	doc := document{
		BookID:    book.ID,
		Notes:     book.Notes,
		Publisher: book.Publisher,
		Genre:     book.Genre,
		Location:  book.Location,
		ISBN:      book.ISBN,
	}

	authors := []string{}
	err := db.NewRaw(`
		SELECT a.given_names || ' ' || a.family_name
		FROM book_authors ba
		JOIN authors a ON a.id = ba.author_id
		WHERE ba.book_id = ?
		ORDER BY ba.position
	`, book.ID).Scan(ctx, &authors)
	if err != nil {
		return doc, errors.WithStack(err)
	}

	series := []string{}
	err = db.NewRaw(`
		SELECT s.name || ' ' || coalesce(bse.series_number, '')
		FROM book_series bse
		JOIN series s ON s.id = bse.series_id
		WHERE bse.book_id = ?
		ORDER BY bse.position
	`, book.ID).Scan(ctx, &series)
	if err != nil {
		return doc, errors.WithStack(err)
	}

	entries := []struct {
		Author string `bun:"author"`
		Title  string `bun:"title"`
	}{}
	err = db.NewRaw(`
		SELECT a.given_names || ' ' || a.family_name AS author, at.title AS title
		FROM anthology_titles at
		JOIN authors a ON a.id = at.author_id
		WHERE at.book_id = ?
		ORDER BY at.position
	`, book.ID).Scan(ctx, &entries)
	if err != nil {
		return doc, errors.WithStack(err)
	}

	titles := []string{book.Title}
	for _, e := range entries {
		authors = append(authors, e.Author)
		titles = append(titles, e.Title)
	}

	doc.Authors = strings.Join(authors, "; ")
	doc.Title = strings.Join(titles, "; ")
	doc.Description = strings.TrimSpace(book.Description + " " + strings.Join(series, "; "))
	return doc, nil
}

func fetchBookText(ctx context.Context, db bun.IDB, bookID int) (bookText, error) {
	book := bookText{}
	err := db.NewRaw(`
		SELECT id, title, description, notes, publisher, genre, location, isbn
		FROM books WHERE id = ?
	`, bookID).Scan(ctx, &book)
	return book, errors.WithStack(err)
}

func insertDocument(ctx context.Context, db bun.IDB, table string, doc document) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO "+table+" (rowid, "+ftsColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		doc.BookID, doc.Authors, doc.Title, doc.Description, doc.Notes,
		doc.Publisher, doc.Genre, doc.Location, doc.ISBN,
	)
	return errors.WithStack(err)
}

// IndexBook inserts the index row for a newly created book. Callers run it
// inside the same exclusive scope as the row mutation it follows.
func (svc *Service) IndexBook(ctx context.Context, db bun.IDB, bookID int) error {
	book, err := fetchBookText(ctx, db, bookID)
	if err != nil {
		return err
	}
	doc, err := buildDocument(ctx, db, book)
	if err != nil {
		return err
	}
	return insertDocument(ctx, db, "books_fts", doc)
}

// UpdateBook recomputes the index row for an existing book in place.
func (svc *Service) UpdateBook(ctx context.Context, db bun.IDB, bookID int) error {
	book, err := fetchBookText(ctx, db, bookID)
	if err != nil {
		return err
	}
	doc, err := buildDocument(ctx, db, book)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		UPDATE books_fts
		SET authors = ?, title = ?, description = ?, notes = ?, publisher = ?, genre = ?, location = ?, isbn = ?
		WHERE rowid = ?
	`, doc.Authors, doc.Title, doc.Description, doc.Notes, doc.Publisher, doc.Genre, doc.Location, doc.ISBN, doc.BookID)
	return errors.WithStack(err)
}

// DeleteBook removes a book's index row.
func (svc *Service) DeleteBook(ctx context.Context, db bun.IDB, bookID int) error {
	_, err := db.ExecContext(ctx, "DELETE FROM books_fts WHERE rowid = ?", bookID)
	return errors.WithStack(err)
}

// RebuildAll reindexes every book into a shadow table and swaps it in for
// the live one. The swap uses renames, which SQLite refuses for virtual
// tables inside a transaction, so the population runs transactionally but
// the swap happens outside. A failed rebuild discards the shadow table and
// leaves the live index untouched.
func (svc *Service) RebuildAll(ctx context.Context) error {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	db := svc.handle.DB

	_, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS books_fts_rebuild")
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = db.ExecContext(ctx, "CREATE VIRTUAL TABLE books_fts_rebuild USING fts5("+ftsColumns+")")
	if err != nil {
		return errors.WithStack(err)
	}

	err = db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		books := []bookText{}
		err := tx.NewRaw(`
			SELECT id, title, description, notes, publisher, genre, location, isbn
			FROM books
		`).Scan(ctx, &books)
		if err != nil {
			return errors.WithStack(err)
		}
		for _, book := range books {
			doc, err := buildDocument(ctx, tx, book)
			if err != nil {
				return err
			}
			err = insertDocument(ctx, tx, "books_fts_rebuild", doc)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS books_fts_rebuild")
		return err
	}

	_, err = db.ExecContext(ctx, "DROP TABLE books_fts")
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = db.ExecContext(ctx, "ALTER TABLE books_fts_rebuild RENAME TO books_fts")
	return errors.WithStack(err)
}

// Search returns the ids of books matching the given author, title, and
// anywhere terms. All-empty term sets match nothing, not everything.
func (svc *Service) Search(ctx context.Context, author, title, anywhere string) ([]int, error) {
	match := BuildMatch(author, title, anywhere)
	if match == "" {
		return []int{}, nil
	}

	release := svc.handle.Guard.AcquireRead()
	defer release()

	ids := []int{}
	err := svc.handle.DB.NewRaw(
		"SELECT rowid FROM books_fts WHERE books_fts MATCH ?", match,
	).Scan(ctx, &ids)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ids, nil
}
