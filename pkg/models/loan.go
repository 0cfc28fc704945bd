package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Loan struct {
	bun.BaseModel `bun:"table:loans,alias:l"`

	ID       int       `bun:",pk,nullzero" json:"id"`
	BookID   int       `bun:"book_id,nullzero" json:"book_id"`
	LoanedTo string    `bun:"loaned_to,nullzero" json:"loaned_to"`
	LoanedAt time.Time `bun:"loaned_at,nullzero,notnull,default:current_timestamp" json:"loaned_at"`
}
