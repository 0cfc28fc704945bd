package books

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfmark/shelfmark/pkg/anthology"
	"github.com/shelfmark/shelfmark/pkg/authors"
	"github.com/shelfmark/shelfmark/pkg/database"
	"github.com/shelfmark/shelfmark/pkg/search"
	"github.com/shelfmark/shelfmark/pkg/series"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, handle *database.Handle) {
	authorService := authors.NewService(handle)
	seriesService := series.NewService(handle)
	anthologyService := anthology.NewService(handle)
	searchService := search.NewService(handle)
	bookService := NewService(handle, authorService, seriesService, anthologyService, searchService)

	h := &handler{
		bookService: bookService,
	}

	g.GET("", h.list)
	g.GET("/export", h.export)
	g.GET("/lookup", h.lookup)
	g.GET("/position", h.position)
	g.GET("/values/:column", h.listValues)
	g.GET("/values/:column/position", h.valuePosition)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.deleteBook)
	g.PUT("/:id/bookshelves/:bookshelfID", h.addToBookshelf)
	g.DELETE("/:id/bookshelves/:bookshelfID", h.removeFromBookshelf)
	g.POST("/values/:column/replace", h.replaceValue)
	g.POST("/purge", h.purge)
	g.POST("/repair-positions", h.repairPositions)
}
