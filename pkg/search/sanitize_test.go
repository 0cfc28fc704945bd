package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanupCriterion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"empty", "", ""},
		{"single word", "dune", "dune*"},
		{"two words", "frank herbert", "frank* herbert*"},
		{"apostrophe and interior hyphen break tokens", "O'Brien-Smith", "O* Brien* Smith*"},
		{"hyphen after whitespace negates", "dune -messiah", "dune* -messiah*"},
		{"leading hyphen negates", "-messiah", "-messiah*"},
		{"interior hyphen is a break", "science-fiction", "science* fiction*"},
		{"all punctuation", "!!! ... ???", ""},
		{"digits kept", "isbn 978", "isbn* 978*"},
		{"lone hyphen keeps no wildcard", "a - b", "a* - b*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.out, CleanupCriterion(tt.in))
		})
	}
}

func TestBuildMatch(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", BuildMatch("", "", ""))
	assert.Equal(t, "", BuildMatch("", "", "..."))
	assert.Equal(t, "dune*", BuildMatch("", "", "dune"))
	assert.Equal(t, "authors:herbert*", BuildMatch("herbert", "", ""))
	assert.Equal(t, "sand* authors:herbert* title:dune*", BuildMatch("herbert", "dune", "sand"))
	assert.Equal(t, "dune* NOT messiah*", BuildMatch("", "", "dune -messiah"))

	// A purely negated query has nothing to subtract from.
	assert.Equal(t, "", BuildMatch("", "", "-messiah"))
}
