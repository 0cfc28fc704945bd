package series

type ListSeriesQuery struct {
	Limit         int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=500"`
	Offset        int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search        *string `query:"search" json:"search,omitempty" validate:"omitempty,max=200"`
	WithBookCount bool    `query:"with_book_count" json:"with_book_count,omitempty"`
}

type FindOrCreateSeriesPayload struct {
	Name string `json:"name" validate:"required,max=300"`
}

type SeriesPositionQuery struct {
	Name string `query:"name" json:"name" validate:"required,max=300"`
}

type MergeSeriesPayload struct {
	SourceID int `json:"source_id" validate:"required,min=1"`
}
