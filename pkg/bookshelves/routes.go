package bookshelves

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfmark/shelfmark/pkg/database"
)

// RegisterRoutesWithGroup registers bookshelf routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, handle *database.Handle) {
	h := &handler{
		bookshelfService: NewService(handle),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create)
	g.PATCH("/:id", h.rename)
	g.DELETE("/:id", h.deleteBookshelf)
}
