package series

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/database"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/filter"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/relink"
	"github.com/uptrace/bun"
)

type RetrieveSeriesOptions struct {
	ID *int
	// Name matches case-insensitively.
	Name *string
}

type ListSeriesOptions struct {
	Limit         *int
	Offset        *int
	Search        *string
	WithBookCount bool
}

type Service struct {
	handle *database.Handle
}

func NewService(handle *database.Handle) *Service {
	return &Service{handle}
}

func (svc *Service) RetrieveSeries(ctx context.Context, opts RetrieveSeriesOptions) (*models.Series, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	return svc.retrieveSeries(ctx, svc.handle.DB, opts)
}

func (svc *Service) retrieveSeries(ctx context.Context, db bun.IDB, opts RetrieveSeriesOptions) (*models.Series, error) {
	series := &models.Series{}

	q := db.
		NewSelect().
		Model(series)

	if opts.ID != nil {
		q = q.Where("s.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("LOWER(s.name) = LOWER(?)", *opts.Name)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Series")
		}
		return nil, errors.WithStack(err)
	}

	return series, nil
}

// FindOrCreateSeries resolves a name to a series id, creating the row on
// first sight.
func (svc *Service) FindOrCreateSeries(ctx context.Context, name string) (*models.Series, error) {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	return svc.findOrCreateSeries(ctx, svc.handle.DB, name)
}

// FindOrCreateSeriesIn is FindOrCreateSeries for callers already holding the
// exclusive scope, running against their transaction.
func (svc *Service) FindOrCreateSeriesIn(ctx context.Context, db bun.IDB, name string) (*models.Series, error) {
	return svc.findOrCreateSeries(ctx, db, name)
}

func (svc *Service) findOrCreateSeries(ctx context.Context, db bun.IDB, name string) (*models.Series, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("series name cannot be empty")
	}

	series, err := svc.retrieveSeries(ctx, db, RetrieveSeriesOptions{Name: &name})
	if err == nil {
		return series, nil
	}
	if !errors.Is(err, errcodes.NotFound("Series")) {
		return nil, err
	}

	series = &models.Series{Name: name}
	_, err = db.NewInsert().Model(series).Returning("*").Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return series, nil
}

func (svc *Service) ListSeries(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	series := []*models.Series{}

	q := svc.handle.DB.
		NewSelect().
		Model(&series)

	if opts.WithBookCount {
		q = q.ColumnExpr("s.*").
			ColumnExpr("(SELECT count(*) FROM book_series bse WHERE bse.series_id = s.id) AS book_count")
	}
	if opts.Search != nil {
		where, args := filter.SQL(filter.Contains("s.name", *opts.Search))
		q = q.Where(where, args...)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	q = q.OrderExpr("Upper(s.name)")

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return series, nil
}

// Position returns the zero-based count of series sorting before the given
// name under the same order as ListSeries.
func (svc *Service) Position(ctx context.Context, name string) (int, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	where, args := filter.SQL(filter.Raw("Upper(s.name) < Upper(?)", name))
	count, err := svc.handle.DB.
		NewSelect().
		Model((*models.Series)(nil)).
		Where(where, args...).
		Count(ctx)
	return count, errors.WithStack(err)
}

// Replace merges the duplicate series oldID into newID through the merge
// planner, then purges the duplicate. See authors.Service.Replace for the
// scope discipline.
func (svc *Service) Replace(ctx context.Context, oldID, newID int) error {
	if oldID == newID {
		return nil
	}

	release := svc.handle.Guard.AcquireWrite()
	defer release()

	err := svc.handle.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return relink.Merge(ctx, tx, relink.BookSeries, oldID, newID)
	})
	if err != nil {
		return err
	}

	return svc.purge(ctx, svc.handle.DB)
}

// Purge deletes series no book references anymore.
func (svc *Service) Purge(ctx context.Context) error {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	return svc.purge(ctx, svc.handle.DB)
}

// PurgeIn is Purge for callers already holding the exclusive scope.
func (svc *Service) PurgeIn(ctx context.Context, db bun.IDB) error {
	return svc.purge(ctx, db)
}

func (svc *Service) purge(ctx context.Context, db bun.IDB) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM series
		WHERE id NOT IN (SELECT series_id FROM book_series)
	`)
	return errors.WithStack(err)
}
