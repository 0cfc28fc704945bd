package anthology

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfmark/shelfmark/pkg/authors"
	"github.com/shelfmark/shelfmark/pkg/database"
)

// RegisterRoutesWithGroup registers anthology-title routes on a pre-configured
// group.
func RegisterRoutesWithGroup(g *echo.Group, handle *database.Handle) {
	h := &handler{
		anthologyService: NewService(handle),
		authorService:    authors.NewService(handle),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.deleteEntry)
}
