package loans

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/database"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/models"
)

type ListLoansOptions struct {
	Limit  *int
	Offset *int
	// LoanedTo restricts to one borrower, matched case-insensitively.
	LoanedTo *string
}

type Service struct {
	handle *database.Handle
}

func NewService(handle *database.Handle) *Service {
	return &Service{handle}
}

// Lend records that a book left the shelves. A book can only be out once; a
// second loan replaces the first.
func (svc *Service) Lend(ctx context.Context, bookID int, loanedTo string) (*models.Loan, error) {
	loanedTo = strings.TrimSpace(loanedTo)
	if loanedTo == "" {
		return nil, errors.New("loanee cannot be empty")
	}

	release := svc.handle.Guard.AcquireWrite()
	defer release()

	loan := &models.Loan{
		BookID:   bookID,
		LoanedTo: loanedTo,
		LoanedAt: time.Now(),
	}
	_, err := svc.handle.DB.
		NewInsert().
		Model(loan).
		On("CONFLICT (book_id) DO UPDATE").
		Set("loaned_to = EXCLUDED.loaned_to, loaned_at = EXCLUDED.loaned_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return loan, nil
}

// Return clears the loan on a book.
func (svc *Service) Return(ctx context.Context, bookID int) error {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	_, err := svc.handle.DB.ExecContext(ctx, "DELETE FROM loans WHERE book_id = ?", bookID)
	return errors.WithStack(err)
}

// Loanee reports who currently has a book, or not-found when it is on the
// shelves.
func (svc *Service) Loanee(ctx context.Context, bookID int) (string, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	loan := &models.Loan{}
	err := svc.handle.DB.
		NewSelect().
		Model(loan).
		Where("l.book_id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errcodes.NotFound("Loan")
		}
		return "", errors.WithStack(err)
	}
	return loan.LoanedTo, nil
}

func (svc *Service) ListLoans(ctx context.Context, opts ListLoansOptions) ([]*models.Loan, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	loans := []*models.Loan{}

	q := svc.handle.DB.
		NewSelect().
		Model(&loans)

	if opts.LoanedTo != nil {
		q = q.Where("LOWER(l.loaned_to) = LOWER(?)", *opts.LoanedTo)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	q = q.OrderExpr("Upper(l.loaned_to), l.loaned_at")

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return loans, nil
}

// ListLoanees returns the distinct borrowers, for autocompleting the lend
// form.
func (svc *Service) ListLoanees(ctx context.Context) ([]string, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	loanees := []string{}
	err := svc.handle.DB.NewRaw(
		"SELECT DISTINCT loaned_to FROM loans ORDER BY Upper(loaned_to)",
	).Scan(ctx, &loanees)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return loanees, nil
}

// Sweep deletes invalid loans: rows whose book is gone or whose loanee is
// blank. Kept as a maintenance call for catalogues written before the
// foreign key and the loanee check were enforced.
func (svc *Service) Sweep(ctx context.Context) (int64, error) {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	res, err := svc.handle.DB.ExecContext(ctx, `
		DELETE FROM loans
		WHERE book_id NOT IN (SELECT id FROM books)
		OR loaned_to IS NULL
		OR loaned_to = ''
	`)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	return affected, errors.WithStack(err)
}
