package authors

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfmark/shelfmark/pkg/database"
)

// RegisterRoutesWithGroup registers author routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, handle *database.Handle) {
	h := &handler{
		authorService: NewService(handle),
	}

	g.GET("", h.list)
	g.GET("/position", h.position)
	g.GET("/:id", h.retrieve)
	g.POST("", h.findOrCreate)
	g.POST("/:id/merge", h.merge)
	g.POST("/purge", h.purge)
}
