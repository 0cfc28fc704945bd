package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/shelfmark/shelfmark/pkg/anthology"
	"github.com/shelfmark/shelfmark/pkg/authors"
	"github.com/shelfmark/shelfmark/pkg/binder"
	"github.com/shelfmark/shelfmark/pkg/books"
	"github.com/shelfmark/shelfmark/pkg/bookshelves"
	"github.com/shelfmark/shelfmark/pkg/config"
	"github.com/shelfmark/shelfmark/pkg/database"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/loans"
	"github.com/shelfmark/shelfmark/pkg/search"
	"github.com/shelfmark/shelfmark/pkg/series"
)

func New(cfg *config.Config, handle *database.Handle) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	registerRoutes(e, handle)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func registerRoutes(e *echo.Echo, handle *database.Handle) {
	books.RegisterRoutesWithGroup(e.Group("/books"), handle)
	authors.RegisterRoutesWithGroup(e.Group("/authors"), handle)
	series.RegisterRoutesWithGroup(e.Group("/series"), handle)
	bookshelves.RegisterRoutesWithGroup(e.Group("/bookshelves"), handle)
	loans.RegisterRoutesWithGroup(e.Group("/loans"), handle)
	anthology.RegisterRoutesWithGroup(e.Group("/anthology-titles"), handle)
	search.RegisterRoutesWithGroup(e.Group("/search"), handle)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
