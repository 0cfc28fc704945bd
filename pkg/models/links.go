package models

import (
	"github.com/uptrace/bun"
)

// Link tables carry a 1-based position so the order authors and series were
// attached in survives round trips. Positions for a given book are unique and
// contiguous.

type BookAuthor struct {
	bun.BaseModel `bun:"table:book_authors,alias:ba"`

	ID       int     `bun:",pk,nullzero" json:"id"`
	BookID   int     `bun:"book_id,nullzero" json:"book_id"`
	Book     *Book   `bun:"rel:belongs-to,join:book_id=id" json:"-"`
	AuthorID int     `bun:"author_id,nullzero" json:"author_id"`
	Author   *Author `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Position int     `bun:"position,nullzero" json:"position"`
}

type BookSeries struct {
	bun.BaseModel `bun:"table:book_series,alias:bse"`

	ID           int     `bun:",pk,nullzero" json:"id"`
	BookID       int     `bun:"book_id,nullzero" json:"book_id"`
	Book         *Book   `bun:"rel:belongs-to,join:book_id=id" json:"-"`
	SeriesID     int     `bun:"series_id,nullzero" json:"series_id"`
	Series       *Series `bun:"rel:belongs-to,join:series_id=id" json:"series,omitempty"`
	SeriesNumber string  `bun:"series_number" json:"series_number"`
	Position     int     `bun:"position,nullzero" json:"position"`
}

type BookBookshelf struct {
	bun.BaseModel `bun:"table:book_bookshelves,alias:bbs"`

	ID          int        `bun:",pk,nullzero" json:"id"`
	BookID      int        `bun:"book_id,nullzero" json:"book_id"`
	Book        *Book      `bun:"rel:belongs-to,join:book_id=id" json:"-"`
	BookshelfID int        `bun:"bookshelf_id,nullzero" json:"bookshelf_id"`
	Bookshelf   *Bookshelf `bun:"rel:belongs-to,join:bookshelf_id=id" json:"bookshelf,omitempty"`
}

// Register wires the many-to-many join models into bun so relation loading on
// Book works. Must run once per DB handle before any relation query.
func Register(db *bun.DB) {
	db.RegisterModel(
		(*BookAuthor)(nil),
		(*BookSeries)(nil),
		(*BookBookshelf)(nil),
	)
}
