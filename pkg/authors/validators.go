package authors

type ListAuthorsQuery struct {
	Limit         int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=500"`
	Offset        int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search        *string `query:"search" json:"search,omitempty" validate:"omitempty,max=200"`
	Bookshelf     *string `query:"bookshelf" json:"bookshelf,omitempty" validate:"omitempty,max=100"`
	WithBookCount bool    `query:"with_book_count" json:"with_book_count,omitempty"`
}

type FindOrCreateAuthorPayload struct {
	// Name is a display-form name ("Ursula K. Le Guin" or "Le Guin, Ursula K.")
	// split with the family/given heuristic.
	Name string `json:"name" validate:"required,max=200"`
}

type AuthorPositionQuery struct {
	FamilyName string `query:"family_name" json:"family_name" validate:"required,max=100"`
	GivenNames string `query:"given_names" json:"given_names,omitempty" validate:"omitempty,max=100"`
	Bookshelf  string `query:"bookshelf" json:"bookshelf,omitempty" validate:"omitempty,max=100"`
}

type MergeAuthorPayload struct {
	SourceID int `json:"source_id" validate:"required,min=1"`
}
