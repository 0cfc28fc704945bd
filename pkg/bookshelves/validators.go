package bookshelves

type ListBookshelvesQuery struct {
	Limit         int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=500"`
	Offset        int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search        *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
	WithBookCount bool    `query:"with_book_count" json:"with_book_count,omitempty"`
}

type CreateBookshelfPayload struct {
	Name string `json:"name" mod:"trim" validate:"required,max=100"`
}

type RenameBookshelfPayload struct {
	Name string `json:"name" mod:"trim" validate:"required,max=100"`
}
