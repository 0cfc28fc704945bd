package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlternateISBN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"13 to 10", "9780441172719", "0441172717"},
		{"10 to 13", "0441172717", "9780441172719"},
		{"hyphenated input", "978-0-441-17271-9", "0441172717"},
		{"10 digit with X check", "097522980X", "9780975229804"},
		{"979 prefix has no 10 digit form", "9798886451740", ""},
		{"not an isbn", "hello", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.out, alternateISBN(tt.in))
		})
	}
}
