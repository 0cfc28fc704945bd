package books

type ListBooksQuery struct {
	Limit     int    `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=500"`
	Offset    int    `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Bookshelf string `query:"bookshelf" json:"bookshelf,omitempty" validate:"omitempty,max=100"`
	Search    string `query:"search" json:"search,omitempty" validate:"omitempty,max=200"`
	LoanedTo  string `query:"loaned_to" json:"loaned_to,omitempty" validate:"omitempty,max=100"`
	Series    string `query:"series" json:"series,omitempty" validate:"omitempty,max=300"`
	OrderBy   string `query:"order_by" json:"order_by,omitempty" validate:"omitempty,oneof=title date_added last_update_date rating pages"`
}

type LookupBookQuery struct {
	UUID     *string `query:"uuid" json:"uuid,omitempty" validate:"omitempty,max=64"`
	ISBN     *string `query:"isbn" json:"isbn,omitempty" validate:"omitempty,max=20"`
	RemoteID *int64  `query:"remote_id" json:"remote_id,omitempty" validate:"omitempty,min=1"`
}

type PositionQuery struct {
	Title     string `query:"title" json:"title" validate:"required,max=500"`
	Bookshelf string `query:"bookshelf" json:"bookshelf,omitempty" validate:"omitempty,max=100"`
	Search    string `query:"search" json:"search,omitempty" validate:"omitempty,max=200"`
	LoanedTo  string `query:"loaned_to" json:"loaned_to,omitempty" validate:"omitempty,max=100"`
	Series    string `query:"series" json:"series,omitempty" validate:"omitempty,max=300"`
}

type SeriesRefPayload struct {
	Name   string `json:"name" validate:"required,max=300"`
	Number string `json:"number,omitempty" validate:"omitempty,max=20"`
}

type AnthologyRefPayload struct {
	Author string `json:"author" validate:"required,max=200"`
	Title  string `json:"title" validate:"required,max=500"`
}

type SaveBookPayload struct {
	Fields  map[string]interface{} `json:"fields,omitempty"`
	Authors []string               `json:"authors,omitempty" validate:"omitempty,dive,max=200"`
	Series  []SeriesRefPayload     `json:"series,omitempty" validate:"omitempty,dive"`
	Entries []AnthologyRefPayload  `json:"entries,omitempty" validate:"omitempty,dive"`

	SkipPurge bool `json:"skip_purge,omitempty"`
}

type ValuePositionQuery struct {
	Value string `query:"value" json:"value" validate:"required,max=300"`
}

type ReplaceValuePayload struct {
	Old string `json:"old" validate:"required,max=300"`
	New string `json:"new" validate:"required,max=300"`
}
