package anthology

type ListEntriesQuery struct {
	BookID int `query:"book_id" json:"book_id" validate:"required,min=1"`
}

type CreateEntryPayload struct {
	BookID int    `json:"book_id" validate:"required,min=1"`
	Author string `json:"author" mod:"trim" validate:"required,max=200"`
	Title  string `json:"title" mod:"trim" validate:"required,max=500"`

	// AllowExisting returns the already-catalogued entry instead of a conflict
	// when the same (book, author, title) is submitted twice.
	AllowExisting bool `json:"allow_existing,omitempty"`
}

type UpdateEntryPayload struct {
	Author string `json:"author" mod:"trim" validate:"required,max=200"`
	Title  string `json:"title" mod:"trim" validate:"required,max=500"`
}
