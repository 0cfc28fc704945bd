package anthology

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/authors"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
)

type handler struct {
	anthologyService *Service
	authorService    *authors.Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListEntriesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entries, err := h.anthologyService.ListEntries(ctx, params.BookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{"titles": entries}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("AnthologyTitle")
	}

	entry, err := h.anthologyService.RetrieveEntry(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, entry))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateEntryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	author, err := h.authorService.FindOrCreateByName(ctx, params.Author)
	if err != nil {
		return errors.WithStack(err)
	}

	entry, err := h.anthologyService.CreateEntry(ctx, params.BookID, author.ID, params.Title, params.AllowExisting)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, entry))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("AnthologyTitle")
	}

	params := UpdateEntryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	author, err := h.authorService.FindOrCreateByName(ctx, params.Author)
	if err != nil {
		return errors.WithStack(err)
	}

	entry, err := h.anthologyService.UpdateEntry(ctx, id, author.ID, params.Title)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, entry))
}

func (h *handler) deleteEntry(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("AnthologyTitle")
	}

	if err := h.anthologyService.DeleteEntry(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
