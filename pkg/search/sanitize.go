package search

import (
	"strings"
	"unicode"
)

// CleanupCriterion rewrites user search text into FTS match tokens. Letters
// and digits pass through. A hyphen survives only when it directly follows
// whitespace, where it marks a negated token. Every other character becomes a
// token break, and each non-negated token gets a trailing wildcard so partial
// words still match.
func CleanupCriterion(criterion string) string {
	if criterion == "" {
		return criterion
	}

	out := strings.Builder{}
	prev := ' '

	for _, curr := range criterion {
		switch {
		case unicode.IsLetter(curr) || unicode.IsDigit(curr):
			out.WriteRune(curr)
		case curr == '-' && unicode.IsSpace(prev):
			out.WriteRune(curr)
		default:
			curr = ' '
			if !unicode.IsSpace(prev) {
				if prev != '-' {
					out.WriteRune('*')
				}
				out.WriteRune(' ')
			}
		}
		prev = curr
	}
	if !unicode.IsSpace(prev) && prev != '-' {
		out.WriteRune('*')
	}

	return out.String()
}

// BuildMatch assembles the MATCH expression for a search. Author and title
// terms are scoped to their columns; anywhere terms match any column. Tokens
// the sanitizer marked with a leading hyphen become NOT clauses, since FTS5
// has no hyphen-negation syntax. The result is empty when every input
// sanitizes away to nothing, or when only negated tokens remain.
func BuildMatch(author, title, anywhere string) string {
	included := []string{}
	excluded := []string{}

	collect := func(sanitized, column string) {
		for _, w := range strings.Split(sanitized, " ") {
			if w == "" || w == "-" {
				continue
			}
			negated := strings.HasPrefix(w, "-")
			if negated {
				w = w[1:]
			}
			if column != "" {
				w = column + ":" + w
			}
			if negated {
				excluded = append(excluded, w)
			} else {
				included = append(included, w)
			}
		}
	}
	collect(CleanupCriterion(anywhere), "")
	collect(CleanupCriterion(author), "authors")
	collect(CleanupCriterion(title), "title")

	// Negation needs something to subtract from.
	if len(included) == 0 {
		return ""
	}

	expr := strings.Join(included, " ")
	for _, w := range excluded {
		expr += " NOT " + w
	}
	return expr
}
