package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID             int       `bun:",pk,nullzero" json:"id"`
	UUID           string    `bun:"book_uuid,nullzero" json:"uuid"`
	Title          string    `bun:",nullzero" json:"title"`
	ISBN           string    `bun:"isbn" json:"isbn"`
	Publisher      string    `bun:"publisher" json:"publisher"`
	Genre          string    `bun:"genre" json:"genre"`
	Language       string    `bun:"language" json:"language"`
	Format         string    `bun:"format" json:"format"`
	Location       string    `bun:"location" json:"location"`
	Description    string    `bun:"description" json:"description"`
	Notes          string    `bun:"notes" json:"notes"`
	Rating         float64   `bun:"rating" json:"rating"`
	Pages          int       `bun:"pages" json:"pages"`
	Read           bool      `bun:"read" json:"read"`
	Signed         bool      `bun:"signed" json:"signed"`
	Anthology      bool      `bun:"anthology" json:"anthology"`
	DatePublished  *string   `bun:"date_published" json:"date_published,omitempty"`
	ReadStart      *string   `bun:"read_start" json:"read_start,omitempty"`
	ReadEnd        *string   `bun:"read_end" json:"read_end,omitempty"`
	RemoteID       *int64    `bun:"remote_id" json:"remote_id,omitempty"`
	DateAdded      time.Time `bun:"date_added,nullzero,notnull,default:current_timestamp" json:"date_added"`
	LastUpdateDate time.Time `bun:"last_update_date,nullzero,notnull,default:current_timestamp" json:"last_update_date"`

	Authors     []*Author     `bun:"m2m:book_authors,join:Book=Author" json:"authors,omitempty"`
	Series      []*Series     `bun:"m2m:book_series,join:Book=Series" json:"series,omitempty"`
	Bookshelves []*Bookshelf  `bun:"m2m:book_bookshelves,join:Book=Bookshelf" json:"bookshelves,omitempty"`
	Loan        *Loan         `bun:"rel:has-one,join:id=book_id" json:"loan,omitempty"`
	Titles      []*AnthologyTitle `bun:"rel:has-many,join:id=book_id" json:"titles,omitempty"`
}
