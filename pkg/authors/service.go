package authors

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/authorname"
	"github.com/shelfmark/shelfmark/pkg/database"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/filter"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/relink"
	"github.com/uptrace/bun"
)

type RetrieveAuthorOptions struct {
	ID *int
	// FamilyName/GivenNames match together, case-insensitively.
	FamilyName *string
	GivenNames *string
}

type ListAuthorsOptions struct {
	Limit     *int
	Offset    *int
	Search    *string
	Bookshelf *string
	// WithBookCount adds the number of referencing books to each row.
	WithBookCount bool
}

type Service struct {
	handle *database.Handle
}

func NewService(handle *database.Handle) *Service {
	return &Service{handle}
}

func (svc *Service) RetrieveAuthor(ctx context.Context, opts RetrieveAuthorOptions) (*models.Author, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	return svc.retrieveAuthor(ctx, svc.handle.DB, opts)
}

func (svc *Service) retrieveAuthor(ctx context.Context, db bun.IDB, opts RetrieveAuthorOptions) (*models.Author, error) {
	author := &models.Author{}

	q := db.
		NewSelect().
		Model(author)

	if opts.ID != nil {
		q = q.Where("a.id = ?", *opts.ID)
	}
	if opts.FamilyName != nil && opts.GivenNames != nil {
		q = q.Where("LOWER(a.family_name) = LOWER(?) AND LOWER(a.given_names) = LOWER(?)", *opts.FamilyName, *opts.GivenNames)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Author")
		}
		return nil, errors.WithStack(err)
	}

	return author, nil
}

// FindOrCreateAuthor resolves a family/given pair to an author id, creating
// the row on first sight.
func (svc *Service) FindOrCreateAuthor(ctx context.Context, familyName, givenNames string) (*models.Author, error) {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	return svc.findOrCreateAuthor(ctx, svc.handle.DB, familyName, givenNames)
}

func (svc *Service) findOrCreateAuthor(ctx context.Context, db bun.IDB, familyName, givenNames string) (*models.Author, error) {
	familyName = strings.TrimSpace(familyName)
	givenNames = strings.TrimSpace(givenNames)
	if familyName == "" {
		return nil, errors.New("author family name cannot be empty")
	}

	author, err := svc.retrieveAuthor(ctx, db, RetrieveAuthorOptions{
		FamilyName: &familyName,
		GivenNames: &givenNames,
	})
	if err == nil {
		return author, nil
	}
	if !errors.Is(err, errcodes.NotFound("Author")) {
		return nil, err
	}

	author = &models.Author{
		FamilyName: familyName,
		GivenNames: givenNames,
	}
	_, err = db.NewInsert().Model(author).Returning("*").Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return author, nil
}

// FindOrCreateAuthorIn is FindOrCreateAuthor for callers already holding the
// exclusive scope, running against their transaction.
func (svc *Service) FindOrCreateAuthorIn(ctx context.Context, db bun.IDB, familyName, givenNames string) (*models.Author, error) {
	return svc.findOrCreateAuthor(ctx, db, familyName, givenNames)
}

// FindOrCreateByName splits a free-form name before resolving it.
func (svc *Service) FindOrCreateByName(ctx context.Context, name string) (*models.Author, error) {
	family, given := authorname.Parse(name)
	return svc.FindOrCreateAuthor(ctx, family, given)
}

func (svc *Service) ListAuthors(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	authors := []*models.Author{}

	q := svc.handle.DB.
		NewSelect().
		Model(&authors)

	if opts.WithBookCount {
		q = q.ColumnExpr("a.*").
			ColumnExpr("(SELECT count(*) FROM book_authors ba WHERE ba.author_id = a.id) AS book_count")
	}
	if opts.Search != nil {
		where, args := filter.SQL(filter.Or(
			filter.Contains("a.family_name", *opts.Search),
			filter.Contains("a.given_names", *opts.Search),
		))
		q = q.Where(where, args...)
	}
	if opts.Bookshelf != nil && *opts.Bookshelf != "" {
		where, args := filter.SQL(onBookshelf(*opts.Bookshelf))
		q = q.Where(where, args...)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	q = q.OrderExpr("Upper(a.family_name), Upper(a.given_names)")

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return authors, nil
}

// Position returns the zero-based count of authors sorting before the given
// one under the same order as ListAuthors, optionally within a bookshelf.
// Used to scroll a listing to a newly added author.
func (svc *Service) Position(ctx context.Context, familyName, givenNames, bookshelf string) (int, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	before := filter.Or(
		filter.Raw("Upper(a.family_name) < Upper(?)", familyName),
		filter.And(
			filter.Raw("Upper(a.family_name) = Upper(?)", familyName),
			filter.Raw("Upper(a.given_names) < Upper(?)", givenNames),
		),
	)
	expr := before
	if bookshelf != "" {
		expr = filter.And(before, onBookshelf(bookshelf))
	}
	where, args := filter.SQL(expr)

	count, err := svc.handle.DB.
		NewSelect().
		Model((*models.Author)(nil)).
		Where(where, args...).
		Count(ctx)
	return count, errors.WithStack(err)
}

// onBookshelf restricts authors to those with at least one book on the named
// shelf. An empty shelf name means no restriction and is handled by callers.
func onBookshelf(name string) filter.Expr {
	return filter.Exists(`
		SELECT 1 FROM book_authors ba
		JOIN book_bookshelves bbs ON bbs.book_id = ba.book_id
		JOIN bookshelves bs ON bs.id = bbs.bookshelf_id
		WHERE ba.author_id = a.id AND LOWER(bs.name) = LOWER(?)
	`, name)
}

// Replace merges the duplicate author oldID into newID: anthology entries are
// repointed in one update, the positioned book links go through the merge
// planner, and the duplicate is purged once everything commits. The whole
// sequence holds the exclusive scope so no reader observes a half-applied
// merge.
func (svc *Service) Replace(ctx context.Context, oldID, newID int) error {
	if oldID == newID {
		return nil
	}

	release := svc.handle.Guard.AcquireWrite()
	defer release()

	err := svc.handle.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE anthology_titles SET author_id = ? WHERE author_id = ?", newID, oldID)
		if err != nil {
			return errors.WithStack(err)
		}
		return relink.Merge(ctx, tx, relink.BookAuthors, oldID, newID)
	})
	if err != nil {
		return err
	}

	return svc.purge(ctx, svc.handle.DB)
}

// Purge deletes authors no book or anthology entry references anymore.
func (svc *Service) Purge(ctx context.Context) error {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	return svc.purge(ctx, svc.handle.DB)
}

// PurgeIn is Purge for callers already holding the exclusive scope. Bulk
// imports skip the per-row purge and run this once at the end.
func (svc *Service) PurgeIn(ctx context.Context, db bun.IDB) error {
	return svc.purge(ctx, db)
}

func (svc *Service) purge(ctx context.Context, db bun.IDB) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM authors
		WHERE id NOT IN (SELECT author_id FROM book_authors)
		AND id NOT IN (SELECT author_id FROM anthology_titles)
	`)
	return errors.WithStack(err)
}
