package authorname

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		family string
		given  string
	}{
		{"given family", "Isaac Asimov", "Asimov", "Isaac"},
		{"family comma given", "Asimov, Isaac", "Asimov", "Isaac"},
		{"comma with spaces", "Herbert ,  Frank ", "Herbert", "Frank"},
		{"single word", "Homer", "Homer", ""},
		{"middle names", "Philip Kirkpatrick Dick", "Dick", "Philip Kirkpatrick"},
		{"le particle", "Ursula Le Guin", "Le Guin", "Ursula"},
		{"de particle", "Marianne De Pierres", "De Pierres", "Marianne"},
		{"lowercase particle", "Walter de Camp", "de Camp", "Walter"},
		{"junior suffix", "Sammy Davis Jr", "Davis Jr", "Sammy"},
		{"senior suffix", "Harry Connick Senior", "Connick Senior", "Harry"},
		{"two words no particle", "Frank Herbert", "Herbert", "Frank"},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			family, given := Parse(tt.in)
			assert.Equal(t, tt.family, family)
			assert.Equal(t, tt.given, given)
		})
	}
}

func TestParseParticleNeedsThreeWords(t *testing.T) {
	t.Parallel()

	// With only two words the particle rule does not apply.
	family, given := Parse("Le Guin")
	assert.Equal(t, "Guin", family)
	assert.Equal(t, "Le", given)
}
