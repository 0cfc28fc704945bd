// Package authorname splits a free-form author name into family and given
// parts. The heuristic is English-only and intentionally frozen: catalogues
// imported under the old splitting must keep resolving to the same authors,
// so it is preserved as-is rather than extended for other locales.
package authorname

import (
	"regexp"
	"strings"
)

var (
	particleRe = regexp.MustCompile(`^[LlDd]e$`)
	suffixRe   = regexp.MustCompile(`^(?:[Jj]r|[Jj]unior|[Ss]r|[Ss]enior)$`)
)

// Parse accepts either "family, given" or "given family" order, e.g.
// "Asimov, Isaac" or "Isaac Asimov", and returns the family and given parts.
// Without a comma, the last word is the family name, extended to two words
// for a Le/De particle ("Ursula Le Guin") or a generational suffix
// ("Sammy Davis Jr").
func Parse(name string) (family, given string) {
	if idx := strings.Index(name, ","); idx > 0 {
		return strings.TrimSpace(name[:idx]), strings.TrimSpace(name[idx+1:])
	}

	names := strings.Split(name, " ")
	flen := 1
	if len(names) > 2 {
		if particleRe.MatchString(names[len(names)-2]) {
			family = names[len(names)-2] + " "
			flen = 2
		}
		if suffixRe.MatchString(names[len(names)-1]) {
			family = names[len(names)-2] + " "
			flen = 2
		}
	}
	family += names[len(names)-1]

	sb := strings.Builder{}
	for i := 0; i < len(names)-flen; i++ {
		sb.WriteString(names[i])
		sb.WriteString(" ")
	}
	return strings.TrimSpace(family), strings.TrimSpace(sb.String())
}
