package books

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
)

// flatColumns are the plain-string book columns that support distinct-value
// listing and global replacement. They have no linking table, so a merge is
// a single update.
var flatColumns = map[string]bool{
	"publisher": true,
	"genre":     true,
	"format":    true,
	"language":  true,
	"location":  true,
}

// ListValues returns the distinct non-empty values of a flat column, for
// autocompletes and as the input to ReplaceValue.
func (svc *Service) ListValues(ctx context.Context, column string) ([]string, error) {
	if !flatColumns[column] {
		return nil, errcodes.ValidationError(fmt.Sprintf("column %q does not support value listing", column))
	}

	release := svc.handle.Guard.AcquireRead()
	defer release()

	values := []string{}
	q := fmt.Sprintf("SELECT DISTINCT %s FROM books WHERE %s <> '' ORDER BY Upper(%s)", column, column, column)
	err := svc.handle.DB.NewRaw(q).Scan(ctx, &values)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return values, nil
}

// ValuePosition reports the zero-based index of a value within the ordered
// distinct listing ListValues returns, so a picker can scroll straight to it.
func (svc *Service) ValuePosition(ctx context.Context, column, value string) (int, error) {
	if !flatColumns[column] {
		return 0, errcodes.ValidationError(fmt.Sprintf("column %q does not support value listing", column))
	}

	release := svc.handle.Guard.AcquireRead()
	defer release()

	var count int
	q := fmt.Sprintf(
		"SELECT count(DISTINCT %s) FROM books WHERE %s <> '' AND Upper(%s) < Upper(?)",
		column, column, column)
	err := svc.handle.DB.NewRaw(q, value).Scan(ctx, &count)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// ReplaceValue rewrites every book carrying the old value of a flat column.
// Unlike author and series merges there are no link rows to repair. The
// search index picks the change up on its next rebuild.
func (svc *Service) ReplaceValue(ctx context.Context, column, oldValue, newValue string) (int64, error) {
	if !flatColumns[column] {
		return 0, errcodes.ValidationError(fmt.Sprintf("column %q does not support global replace", column))
	}
	if oldValue == newValue {
		return 0, nil
	}

	release := svc.handle.Guard.AcquireWrite()
	defer release()

	q := fmt.Sprintf("UPDATE books SET %s = ?, last_update_date = CURRENT_TIMESTAMP WHERE %s = ?", column, column)
	res, err := svc.handle.DB.ExecContext(ctx, q, newValue, oldValue)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	return affected, errors.WithStack(err)
}
