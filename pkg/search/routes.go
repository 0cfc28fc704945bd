package search

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfmark/shelfmark/pkg/database"
)

// RegisterRoutesWithGroup registers search routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, handle *database.Handle) {
	h := &handler{
		searchService: NewService(handle),
	}

	g.GET("", h.search)
	g.POST("/rebuild", h.rebuild)
}
