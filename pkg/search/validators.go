package search

type SearchQuery struct {
	Author string `query:"author" json:"author,omitempty" validate:"omitempty,max=200"`
	Title  string `query:"title" json:"title,omitempty" validate:"omitempty,max=200"`
	Any    string `query:"q" json:"q,omitempty" validate:"omitempty,max=200"`
}
