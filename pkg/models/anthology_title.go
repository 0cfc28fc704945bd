package models

import (
	"github.com/uptrace/bun"
)

type AnthologyTitle struct {
	bun.BaseModel `bun:"table:anthology_titles,alias:at"`

	ID       int     `bun:",pk,nullzero" json:"id"`
	BookID   int     `bun:"book_id,nullzero" json:"book_id"`
	AuthorID int     `bun:"author_id,nullzero" json:"author_id"`
	Author   *Author `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Title    string  `bun:",nullzero" json:"title"`
	Position int     `bun:"position,nullzero" json:"position"`
}
