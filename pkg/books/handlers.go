package books

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
)

type handler struct {
	bookService *Service
}

var orderColumns = map[string]string{
	"date_added":       "b.date_added",
	"last_update_date": "b.last_update_date",
	"rating":           "b.rating DESC, Upper(b.title)",
	"pages":            "b.pages",
}

func (q ListBooksQuery) options() ListBooksOptions {
	opts := ListBooksOptions{
		Bookshelf: q.Bookshelf,
		Search:    q.Search,
		LoanedTo:  q.LoanedTo,
		Series:    q.Series,
		Limit:     &q.Limit,
		Offset:    &q.Offset,
	}
	// "title" and the empty string both take the default title order.
	opts.OrderBy = orderColumns[q.OrderBy]
	return opts
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	rows, err := h.bookService.ListBooks(ctx, params.options())
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{"books": rows}))
}

// export returns every book row with its first author, series, and loanee in
// one unpaged fetch, for backup and sync callers.
func (h *handler) export(c echo.Context) error {
	ctx := c.Request().Context()

	rows, err := h.bookService.ListBooks(ctx, ListBooksOptions{})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{"books": rows}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

// lookup fetches a single book by one of its alternate identities: UUID,
// ISBN (either 10 or 13 digit form), or remote catalogue id.
func (h *handler) lookup(c echo.Context) error {
	ctx := c.Request().Context()

	params := LookupBookQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if params.UUID == nil && params.ISBN == nil && params.RemoteID == nil {
		return errcodes.ValidationError("one of uuid, isbn, or remote_id is required")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		UUID:     params.UUID,
		ISBN:     params.ISBN,
		RemoteID: params.RemoteID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

// position reports how many entries precede the given title in the listing
// described by the remaining criteria. Scroll restoration uses it to land on
// a book without paging through the whole list.
func (h *handler) position(c echo.Context) error {
	ctx := c.Request().Context()

	params := PositionQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	pos, err := h.bookService.Position(ctx, params.Title, ListBooksOptions{
		Bookshelf: params.Bookshelf,
		Search:    params.Search,
		LoanedTo:  params.LoanedTo,
		Series:    params.Series,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"position": pos}))
}

func (p SaveBookPayload) options() SaveBookOptions {
	opts := SaveBookOptions{
		Fields:    p.Fields,
		Authors:   p.Authors,
		SkipPurge: p.SkipPurge,
	}
	if p.Series != nil {
		opts.Series = make([]SeriesRef, len(p.Series))
		for i, s := range p.Series {
			opts.Series[i] = SeriesRef{Name: s.Name, Number: s.Number}
		}
	}
	if p.Entries != nil {
		opts.Entries = make([]AnthologyRef, len(p.Entries))
		for i, e := range p.Entries {
			opts.Entries[i] = AnthologyRef{Author: e.Author, Title: e.Title}
		}
	}
	return opts
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := SaveBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.CreateBook(ctx, params.options())
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := SaveBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.UpdateBook(ctx, id, params.options())
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) deleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) addToBookshelf(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}
	shelfID, err := strconv.Atoi(c.Param("bookshelfID"))
	if err != nil {
		return errcodes.NotFound("Bookshelf")
	}

	if err := h.bookService.AddToBookshelf(ctx, id, shelfID); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) removeFromBookshelf(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}
	shelfID, err := strconv.Atoi(c.Param("bookshelfID"))
	if err != nil {
		return errcodes.NotFound("Bookshelf")
	}

	if err := h.bookService.RemoveFromBookshelf(ctx, id, shelfID); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) listValues(c echo.Context) error {
	ctx := c.Request().Context()

	values, err := h.bookService.ListValues(ctx, c.Param("column"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{"values": values}))
}

func (h *handler) valuePosition(c echo.Context) error {
	ctx := c.Request().Context()

	params := ValuePositionQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	pos, err := h.bookService.ValuePosition(ctx, c.Param("column"), params.Value)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"position": pos}))
}

func (h *handler) replaceValue(c echo.Context) error {
	ctx := c.Request().Context()

	params := ReplaceValuePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	affected, err := h.bookService.ReplaceValue(ctx, c.Param("column"), params.Old, params.New)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int64{"updated": affected}))
}

func (h *handler) purge(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.bookService.Purge(ctx); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) repairPositions(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.bookService.RepairLinkPositions(ctx); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
