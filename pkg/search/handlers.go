package search

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	searchService *Service
}

func (h *handler) search(c echo.Context) error {
	ctx := c.Request().Context()

	params := SearchQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	ids, err := h.searchService.Search(ctx, params.Author, params.Title, params.Any)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{"book_ids": ids}))
}

// rebuild regenerates the whole index from the canonical tables. Unlike the
// per-book sync on mutations, a rebuild failure is surfaced to the caller.
func (h *handler) rebuild(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.searchService.RebuildAll(ctx); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
