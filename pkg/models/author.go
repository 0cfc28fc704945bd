package models

import (
	"strings"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID         int    `bun:",pk,nullzero" json:"id"`
	FamilyName string `bun:"family_name,nullzero" json:"family_name"`
	GivenNames string `bun:"given_names" json:"given_names"`
	BookCount  int    `bun:",scanonly" json:"book_count,omitempty"`
}

// DisplayName renders the author in reading order ("given family").
func (a *Author) DisplayName() string {
	if a.GivenNames == "" {
		return a.FamilyName
	}
	return a.GivenNames + " " + a.FamilyName
}

// SortName renders the author in catalogue order ("family, given").
func (a *Author) SortName() string {
	if a.GivenNames == "" {
		return a.FamilyName
	}
	return a.FamilyName + ", " + a.GivenNames
}

// Matches reports whether two authors refer to the same name, ignoring case.
func (a *Author) Matches(other *Author) bool {
	return strings.EqualFold(a.FamilyName, other.FamilyName) &&
		strings.EqualFold(a.GivenNames, other.GivenNames)
}
