package books

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfmark/shelfmark/pkg/anthology"
	"github.com/shelfmark/shelfmark/pkg/authorname"
	"github.com/shelfmark/shelfmark/pkg/authors"
	"github.com/shelfmark/shelfmark/pkg/database"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/relink"
	"github.com/shelfmark/shelfmark/pkg/search"
	"github.com/shelfmark/shelfmark/pkg/series"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID   *int
	UUID *string
	// ISBN matches exactly or via the alternate 10/13 digit form.
	ISBN *string
	// RemoteID is the id assigned by an external catalogue service.
	RemoteID *int64
}

// SeriesRef names a series membership on save.
type SeriesRef struct {
	Name   string
	Number string
}

// AnthologyRef names one story on save. Author is free-form and goes through
// the usual name splitting.
type AnthologyRef struct {
	Author string
	Title  string
}

// SaveBookOptions carries everything a create or update can set. Fields maps
// column names to values; unknown keys are dropped. On update, nil Authors,
// Series, or Entries leave that relation untouched, while an empty non-nil
// slice clears it (except Authors, which may never go empty).
type SaveBookOptions struct {
	Fields  map[string]interface{}
	Authors []string
	Series  []SeriesRef
	Entries []AnthologyRef

	// SkipPurge defers orphan cleanup; bulk imports set it per book and purge
	// once at the end, so a shared author is never briefly orphaned mid-batch.
	SkipPurge bool
}

type Service struct {
	handle       *database.Handle
	authorSvc    *authors.Service
	seriesSvc    *series.Service
	anthologySvc *anthology.Service
	searchSvc    *search.Service
}

func NewService(handle *database.Handle, authorSvc *authors.Service, seriesSvc *series.Service, anthologySvc *anthology.Service, searchSvc *search.Service) *Service {
	return &Service{
		handle:       handle,
		authorSvc:    authorSvc,
		seriesSvc:    seriesSvc,
		anthologySvc: anthologySvc,
		searchSvc:    searchSvc,
	}
}

// Exists reports whether a book id is present. Hot path for importers, so it
// runs through the statement cache.
func (svc *Service) Exists(ctx context.Context, id int) (bool, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	count, _, err := svc.handle.Stmts.QueryInt64(ctx, "book_exists",
		"SELECT count(*) FROM books WHERE id = ?", id)
	return count > 0, err
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	return svc.retrieveBook(ctx, svc.handle.DB, opts)
}

func (svc *Service) retrieveBook(ctx context.Context, db bun.IDB, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := db.
		NewSelect().
		Model(book).
		Relation("Loan")

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.UUID != nil {
		q = q.Where("b.book_uuid = ?", *opts.UUID)
	}
	if opts.ISBN != nil {
		if alt := alternateISBN(*opts.ISBN); alt != "" {
			q = q.Where("b.isbn IN (?, ?)", *opts.ISBN, alt)
		} else {
			q = q.Where("b.isbn = ?", *opts.ISBN)
		}
		q = q.OrderExpr("b.id").Limit(1)
	}
	if opts.RemoteID != nil {
		q = q.Where("b.remote_id = ?", *opts.RemoteID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	err = svc.loadRelations(ctx, db, book)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// loadRelations fills the ordered relations by hand, since the join models
// carry positions the m2m loader would not sort by.
func (svc *Service) loadRelations(ctx context.Context, db bun.IDB, book *models.Book) error {
	book.Authors = []*models.Author{}
	err := db.NewRaw(`
		SELECT a.*
		FROM book_authors ba
		JOIN authors a ON a.id = ba.author_id
		WHERE ba.book_id = ?
		ORDER BY ba.position
	`, book.ID).Scan(ctx, &book.Authors)
	if err != nil {
		return errors.WithStack(err)
	}

	book.Series = []*models.Series{}
	err = db.NewRaw(`
		SELECT s.*
		FROM book_series bse
		JOIN series s ON s.id = bse.series_id
		WHERE bse.book_id = ?
		ORDER BY bse.position
	`, book.ID).Scan(ctx, &book.Series)
	if err != nil {
		return errors.WithStack(err)
	}

	book.Bookshelves = []*models.Bookshelf{}
	err = db.NewRaw(`
		SELECT bs.*
		FROM book_bookshelves bbs
		JOIN bookshelves bs ON bs.id = bbs.bookshelf_id
		WHERE bbs.book_id = ?
		ORDER BY Upper(bs.name)
	`, book.ID).Scan(ctx, &book.Bookshelves)
	if err != nil {
		return errors.WithStack(err)
	}

	book.Titles = []*models.AnthologyTitle{}
	err = db.
		NewSelect().
		Model(&book.Titles).
		Relation("Author").
		Where("at.book_id = ?", book.ID).
		OrderExpr("at.position").
		Scan(ctx)
	return errors.WithStack(err)
}

// CreateBook inserts a book from a field map plus its ordered relations. At
// least one author is required: a book with no author is malformed, not a
// default.
func (svc *Service) CreateBook(ctx context.Context, opts SaveBookOptions) (*models.Book, error) {
	if len(opts.Authors) == 0 {
		return nil, errcodes.ValidationError("a book requires at least one author")
	}

	release := svc.handle.Guard.AcquireWrite()
	defer release()

	var id int
	err := svc.handle.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		fields := sanitizeFields(opts.Fields, true)
		_, err := tx.NewInsert().Model(&fields).TableExpr("books").Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		err = tx.NewRaw("SELECT last_insert_rowid()").Scan(ctx, &id)
		if err != nil {
			return errors.WithStack(err)
		}

		err = svc.replaceAuthors(ctx, tx, id, opts.Authors)
		if err != nil {
			return err
		}
		err = svc.replaceSeries(ctx, tx, id, opts.Series)
		if err != nil {
			return err
		}
		err = svc.replaceEntries(ctx, tx, id, opts.Entries)
		if err != nil {
			return err
		}

		svc.syncIndex(ctx, tx, id, svc.searchSvc.IndexBook)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.retrieveBook(ctx, svc.handle.DB, RetrieveBookOptions{ID: &id})
}

// UpdateBook applies a field map and, where provided, replaces the ordered
// relations wholesale.
func (svc *Service) UpdateBook(ctx context.Context, id int, opts SaveBookOptions) (*models.Book, error) {
	if opts.Authors != nil && len(opts.Authors) == 0 {
		return nil, errcodes.ValidationError("a book requires at least one author")
	}

	release := svc.handle.Guard.AcquireWrite()
	defer release()

	err := svc.handle.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Table("books").Where("id = ?", id).Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		fields := sanitizeFields(opts.Fields, false)
		_, err = tx.NewUpdate().Model(&fields).TableExpr("books").Where("id = ?", id).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if opts.Authors != nil {
			_, err = tx.ExecContext(ctx, "DELETE FROM book_authors WHERE book_id = ?", id)
			if err != nil {
				return errors.WithStack(err)
			}
			err = svc.replaceAuthors(ctx, tx, id, opts.Authors)
			if err != nil {
				return err
			}
		}
		if opts.Series != nil {
			_, err = tx.ExecContext(ctx, "DELETE FROM book_series WHERE book_id = ?", id)
			if err != nil {
				return errors.WithStack(err)
			}
			err = svc.replaceSeries(ctx, tx, id, opts.Series)
			if err != nil {
				return err
			}
		}
		if opts.Entries != nil {
			err = svc.anthologySvc.DeleteForBookIn(ctx, tx, id)
			if err != nil {
				return err
			}
			err = svc.replaceEntries(ctx, tx, id, opts.Entries)
			if err != nil {
				return err
			}
		}

		if !opts.SkipPurge {
			err = svc.purgeIn(ctx, tx)
			if err != nil {
				return err
			}
		}

		svc.syncIndex(ctx, tx, id, svc.searchSvc.UpdateBook)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.retrieveBook(ctx, svc.handle.DB, RetrieveBookOptions{ID: &id})
}

// DeleteBook removes a book. Link rows, loans, and anthology entries go with
// it through the foreign keys; authors and series it alone referenced are
// purged afterwards.
func (svc *Service) DeleteBook(ctx context.Context, id int) error {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	return svc.handle.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errcodes.NotFound("Book")
		}

		err = svc.purgeIn(ctx, tx)
		if err != nil {
			return err
		}

		svc.syncIndex(ctx, tx, id, svc.searchSvc.DeleteBook)
		return nil
	})
}

// Purge runs the orphan cleanup once; the closing step of a bulk import that
// created books with SkipPurge.
func (svc *Service) Purge(ctx context.Context) error {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	return svc.purgeIn(ctx, svc.handle.DB)
}

func (svc *Service) purgeIn(ctx context.Context, db bun.IDB) error {
	err := svc.authorSvc.PurgeIn(ctx, db)
	if err != nil {
		return err
	}
	return svc.seriesSvc.PurgeIn(ctx, db)
}

// RepairLinkPositions renumbers every book's author and series links back to
// a contiguous 1..N. Catalogues written before position repair shipped can
// carry gaps at slot 1; this is the maintenance call that closes them.
func (svc *Service) RepairLinkPositions(ctx context.Context) error {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	return svc.handle.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := relink.RepairPositions(ctx, tx, relink.BookAuthors)
		if err != nil {
			return err
		}
		return relink.RepairPositions(ctx, tx, relink.BookSeries)
	})
}

// AddToBookshelf places a book on a shelf; already shelved is a no-op.
func (svc *Service) AddToBookshelf(ctx context.Context, bookID, bookshelfID int) error {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	link := &models.BookBookshelf{BookID: bookID, BookshelfID: bookshelfID}
	_, err := svc.handle.DB.
		NewInsert().
		Model(link).
		On("CONFLICT (book_id, bookshelf_id) DO NOTHING").
		Exec(ctx)
	return errors.WithStack(err)
}

// RemoveFromBookshelf takes a book off a shelf.
func (svc *Service) RemoveFromBookshelf(ctx context.Context, bookID, bookshelfID int) error {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	_, err := svc.handle.DB.ExecContext(ctx,
		"DELETE FROM book_bookshelves WHERE book_id = ? AND bookshelf_id = ?", bookID, bookshelfID)
	return errors.WithStack(err)
}

// syncIndex runs one search-index maintenance call. The index is derived
// data: a failure is logged and swallowed so it never blocks the row
// mutation it follows.
func (svc *Service) syncIndex(ctx context.Context, db bun.IDB, bookID int, fn func(context.Context, bun.IDB, int) error) {
	if err := fn(ctx, db, bookID); err != nil {
		log := logger.FromContext(ctx)
		log.Warn("failed to sync search index for book", logger.Data{"book_id": bookID, "error": err.Error()})
	}
}

func (svc *Service) replaceAuthors(ctx context.Context, db bun.IDB, bookID int, names []string) error {
	seen := map[int]bool{}
	position := 0
	for _, name := range names {
		family, given := authorname.Parse(name)
		author, err := svc.authorSvc.FindOrCreateAuthorIn(ctx, db, family, given)
		if err != nil {
			return err
		}
		if seen[author.ID] {
			continue
		}
		seen[author.ID] = true
		position++

		link := &models.BookAuthor{BookID: bookID, AuthorID: author.ID, Position: position}
		_, err = db.NewInsert().Model(link).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (svc *Service) replaceSeries(ctx context.Context, db bun.IDB, bookID int, refs []SeriesRef) error {
	seen := map[int]bool{}
	position := 0
	for _, ref := range refs {
		s, err := svc.seriesSvc.FindOrCreateSeriesIn(ctx, db, ref.Name)
		if err != nil {
			return err
		}
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		position++

		link := &models.BookSeries{BookID: bookID, SeriesID: s.ID, SeriesNumber: ref.Number, Position: position}
		_, err = db.NewInsert().Model(link).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (svc *Service) replaceEntries(ctx context.Context, db bun.IDB, bookID int, refs []AnthologyRef) error {
	for _, ref := range refs {
		family, given := authorname.Parse(ref.Author)
		author, err := svc.authorSvc.FindOrCreateAuthorIn(ctx, db, family, given)
		if err != nil {
			return err
		}
		_, err = svc.anthologySvc.CreateEntryIn(ctx, db, bookID, author.ID, ref.Title, true)
		if err != nil {
			return err
		}
	}
	return nil
}
