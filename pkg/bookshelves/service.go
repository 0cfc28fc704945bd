package bookshelves

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/database"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/filter"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveBookshelfOptions struct {
	ID *int
	// Name matches case-insensitively.
	Name *string
}

type ListBookshelvesOptions struct {
	Limit         *int
	Offset        *int
	Search        *string
	WithBookCount bool
}

// Service manages shelves. "show everything" is expressed by filtering book
// listings with no shelf at all, so no catch-all shelf row ever exists.
type Service struct {
	handle *database.Handle
}

func NewService(handle *database.Handle) *Service {
	return &Service{handle}
}

func (svc *Service) CreateBookshelf(ctx context.Context, name string) (*models.Bookshelf, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("bookshelf name cannot be empty")
	}

	release := svc.handle.Guard.AcquireWrite()
	defer release()

	shelf := &models.Bookshelf{Name: name}
	_, err := svc.handle.DB.NewInsert().Model(shelf).Returning("*").Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return shelf, nil
}

func (svc *Service) RetrieveBookshelf(ctx context.Context, opts RetrieveBookshelfOptions) (*models.Bookshelf, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	shelf := &models.Bookshelf{}

	q := svc.handle.DB.
		NewSelect().
		Model(shelf)

	if opts.ID != nil {
		q = q.Where("bs.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("LOWER(bs.name) = LOWER(?)", *opts.Name)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Bookshelf")
		}
		return nil, errors.WithStack(err)
	}

	return shelf, nil
}

func (svc *Service) ListBookshelves(ctx context.Context, opts ListBookshelvesOptions) ([]*models.Bookshelf, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	shelves := []*models.Bookshelf{}

	q := svc.handle.DB.
		NewSelect().
		Model(&shelves)

	if opts.WithBookCount {
		q = q.ColumnExpr("bs.*").
			ColumnExpr("(SELECT count(*) FROM book_bookshelves bbs WHERE bbs.bookshelf_id = bs.id) AS book_count")
	}
	if opts.Search != nil {
		where, args := filter.SQL(filter.Contains("bs.name", *opts.Search))
		q = q.Where(where, args...)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	q = q.OrderExpr("Upper(bs.name)")

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return shelves, nil
}

// DeleteBookshelf removes a shelf and its membership rows. Books themselves
// are untouched.
func (svc *Service) DeleteBookshelf(ctx context.Context, id int) error {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	return svc.handle.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM book_bookshelves WHERE bookshelf_id = ?", id)
		if err != nil {
			return errors.WithStack(err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM bookshelves WHERE id = ?", id)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errcodes.NotFound("Bookshelf")
		}
		return nil
	})
}

// RenameBookshelf updates a shelf's name in place; memberships follow the id.
func (svc *Service) RenameBookshelf(ctx context.Context, id int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("bookshelf name cannot be empty")
	}

	release := svc.handle.Guard.AcquireWrite()
	defer release()

	res, err := svc.handle.DB.ExecContext(ctx, "UPDATE bookshelves SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Bookshelf")
	}
	return nil
}
