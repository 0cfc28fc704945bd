package models

import (
	"github.com/uptrace/bun"
)

type Bookshelf struct {
	bun.BaseModel `bun:"table:bookshelves,alias:bs"`

	ID        int    `bun:",pk,nullzero" json:"id"`
	Name      string `bun:",nullzero" json:"name"`
	BookCount int    `bun:",scanonly" json:"book_count,omitempty"`
}
