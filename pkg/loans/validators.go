package loans

type ListLoansQuery struct {
	Limit    int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=500"`
	Offset   int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	LoanedTo *string `query:"loaned_to" json:"loaned_to,omitempty" validate:"omitempty,max=100"`
}

type LendPayload struct {
	BookID   int    `json:"book_id" validate:"required,min=1"`
	LoanedTo string `json:"loaned_to" mod:"trim" validate:"required,max=100"`
}
