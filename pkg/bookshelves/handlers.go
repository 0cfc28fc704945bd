package bookshelves

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
)

type handler struct {
	bookshelfService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBookshelvesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	shelves, err := h.bookshelfService.ListBookshelves(ctx, ListBookshelvesOptions{
		Limit:         &params.Limit,
		Offset:        &params.Offset,
		Search:        params.Search,
		WithBookCount: params.WithBookCount,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{"bookshelves": shelves}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Bookshelf")
	}

	shelf, err := h.bookshelfService.RetrieveBookshelf(ctx, RetrieveBookshelfOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, shelf))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookshelfPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	shelf, err := h.bookshelfService.CreateBookshelf(ctx, params.Name)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, shelf))
}

func (h *handler) rename(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Bookshelf")
	}

	params := RenameBookshelfPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.bookshelfService.RenameBookshelf(ctx, id, params.Name); err != nil {
		return errors.WithStack(err)
	}

	shelf, err := h.bookshelfService.RetrieveBookshelf(ctx, RetrieveBookshelfOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, shelf))
}

func (h *handler) deleteBookshelf(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Bookshelf")
	}

	if err := h.bookshelfService.DeleteBookshelf(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
