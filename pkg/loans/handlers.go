package loans

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
)

type handler struct {
	loanService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListLoansQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	loans, err := h.loanService.ListLoans(ctx, ListLoansOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		LoanedTo: params.LoanedTo,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{"loans": loans}))
}

func (h *handler) loanees(c echo.Context) error {
	ctx := c.Request().Context()

	loanees, err := h.loanService.ListLoanees(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{"loanees": loanees}))
}

func (h *handler) lend(c echo.Context) error {
	ctx := c.Request().Context()

	params := LendPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	loan, err := h.loanService.Lend(ctx, params.BookID, params.LoanedTo)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, loan))
}

func (h *handler) returnLoan(c echo.Context) error {
	ctx := c.Request().Context()
	bookID, err := strconv.Atoi(c.Param("bookID"))
	if err != nil {
		return errcodes.NotFound("Loan")
	}

	if err := h.loanService.Return(ctx, bookID); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) loanee(c echo.Context) error {
	ctx := c.Request().Context()
	bookID, err := strconv.Atoi(c.Param("bookID"))
	if err != nil {
		return errcodes.NotFound("Loan")
	}

	loanee, err := h.loanService.Loanee(ctx, bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"loaned_to": loanee}))
}

func (h *handler) sweep(c echo.Context) error {
	ctx := c.Request().Context()

	affected, err := h.loanService.Sweep(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int64{"removed": affected}))
}
