package loans

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfmark/shelfmark/pkg/database"
)

// RegisterRoutesWithGroup registers loan routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, handle *database.Handle) {
	h := &handler{
		loanService: NewService(handle),
	}

	g.GET("", h.list)
	g.GET("/loanees", h.loanees)
	g.GET("/books/:bookID", h.loanee)
	g.POST("", h.lend)
	g.DELETE("/books/:bookID", h.returnLoan)
	g.POST("/sweep", h.sweep)
}
