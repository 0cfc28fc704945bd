package authors

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
)

type handler struct {
	authorService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListAuthorsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	authorsList, err := h.authorService.ListAuthors(ctx, ListAuthorsOptions{
		Limit:         &params.Limit,
		Offset:        &params.Offset,
		Search:        params.Search,
		Bookshelf:     params.Bookshelf,
		WithBookCount: params.WithBookCount,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{"authors": authorsList}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	author, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author))
}

func (h *handler) findOrCreate(c echo.Context) error {
	ctx := c.Request().Context()

	params := FindOrCreateAuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	author, err := h.authorService.FindOrCreateByName(ctx, params.Name)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author))
}

func (h *handler) position(c echo.Context) error {
	ctx := c.Request().Context()

	params := AuthorPositionQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	pos, err := h.authorService.Position(ctx, params.FamilyName, params.GivenNames, params.Bookshelf)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"position": pos}))
}

// merge folds the source author into this one: every book and anthology entry
// is repointed, then the emptied source row is purged.
func (h *handler) merge(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	params := MergeAuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.authorService.Replace(ctx, params.SourceID, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) purge(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.authorService.Purge(ctx); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
