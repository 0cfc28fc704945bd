package books

import (
	"strings"
)

// alternateISBN converts between the 10 and 13 digit forms of the same ISBN
// so a lookup matches however the book was catalogued. Returns "" when the
// input is not a convertible ISBN. Only the 978 bookland prefix has a
// 10-digit form.
func alternateISBN(isbn string) string {
	isbn = normalizeISBN(isbn)
	switch len(isbn) {
	case 10:
		return isbn10to13(isbn)
	case 13:
		return isbn13to10(isbn)
	}
	return ""
}

func normalizeISBN(isbn string) string {
	out := strings.Builder{}
	for _, r := range isbn {
		if r >= '0' && r <= '9' || r == 'X' || r == 'x' {
			out.WriteRune(r)
		}
	}
	return strings.ToUpper(out.String())
}

func isbn10to13(isbn string) string {
	body := "978" + isbn[:9]
	if !allDigits(body) {
		return ""
	}
	sum := 0
	for i, r := range body {
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	return body + string(rune('0'+check))
}

func isbn13to10(isbn string) string {
	if !strings.HasPrefix(isbn, "978") {
		return ""
	}
	body := isbn[3:12]
	if !allDigits(body) {
		return ""
	}
	sum := 0
	for i, r := range body {
		sum += (10 - i) * int(r-'0')
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return body + "X"
	}
	return body + string(rune('0'+check))
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
