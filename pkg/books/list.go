package books

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/filter"
)

// EmptySeries is the reserved series name selecting books with no series
// membership at all. It suppresses the normal series match and filters for
// "no linking row exists" instead.
const EmptySeries = "<Empty Series>"

// ListBooksOptions are the composable listing criteria. Every set criterion
// is ANDed with the others.
type ListBooksOptions struct {
	// Bookshelf restricts to one shelf by name, case-insensitively. Empty
	// means every book.
	Bookshelf string
	// Search matches case-insensitive substrings against the book's own text
	// fields or any associated series, author, or anthology entry.
	Search string
	// LoanedTo restricts to books currently out to one borrower.
	LoanedTo string
	// Series restricts to one series by exact name, or to books with no
	// series when set to EmptySeries.
	Series string
	// AuthorFilter and BookFilter are extra predicates over the authors (a.)
	// and books (b.) columns.
	AuthorFilter filter.Expr
	BookFilter   filter.Expr
	// OrderBy is a raw ORDER BY column list; default is case-insensitive
	// title order.
	OrderBy string
	Limit   *int
	Offset  *int
}

// BookRow is the canonical listing projection: the book's own columns plus
// the first author, the first series, and enough counts to render "et al."
type BookRow struct {
	ID             int       `bun:"id" json:"id"`
	UUID           string    `bun:"book_uuid" json:"uuid"`
	Title          string    `bun:"title" json:"title"`
	ISBN           string    `bun:"isbn" json:"isbn"`
	Publisher      string    `bun:"publisher" json:"publisher"`
	Genre          string    `bun:"genre" json:"genre"`
	Language       string    `bun:"language" json:"language"`
	Format         string    `bun:"format" json:"format"`
	Location       string    `bun:"location" json:"location"`
	Rating         float64   `bun:"rating" json:"rating"`
	Pages          int       `bun:"pages" json:"pages"`
	Read           bool      `bun:"read" json:"read"`
	Signed         bool      `bun:"signed" json:"signed"`
	Anthology      bool      `bun:"anthology" json:"anthology"`
	DatePublished  *string   `bun:"date_published" json:"date_published,omitempty"`
	DateAdded      time.Time `bun:"date_added" json:"date_added"`
	LastUpdateDate time.Time `bun:"last_update_date" json:"last_update_date"`

	AuthorID         int    `bun:"author_id" json:"author_id"`
	AuthorFamilyName string `bun:"author_family_name" json:"author_family_name"`
	AuthorGivenNames string `bun:"author_given_names" json:"author_given_names"`
	AuthorCount      int    `bun:"author_count" json:"author_count"`

	SeriesID     *int    `bun:"series_id" json:"series_id,omitempty"`
	SeriesName   *string `bun:"series_name" json:"series_name,omitempty"`
	SeriesNumber *string `bun:"series_number" json:"series_number,omitempty"`
	SeriesCount  int     `bun:"series_count" json:"series_count"`

	LoanedTo *string `bun:"loaned_to" json:"loaned_to,omitempty"`
}

// SeriesText renders the first series with its number, marking further
// memberships with "et. al." the way the listing UI shows them.
func (r *BookRow) SeriesText() string {
	if r.SeriesName == nil {
		return ""
	}
	text := *r.SeriesName
	if r.SeriesNumber != nil && *r.SeriesNumber != "" {
		text += " #" + *r.SeriesNumber
	}
	if r.SeriesCount >= 2 {
		text += " et. al."
	}
	return text
}

const listBooksSelect = `
SELECT b.id, b.book_uuid, b.title, b.isbn, b.publisher, b.genre, b.language,
	b.format, b.location, b.rating, b.pages, b.read, b.signed, b.anthology,
	b.date_published, b.date_added, b.last_update_date,
	a.id AS author_id, a.family_name AS author_family_name, a.given_names AS author_given_names,
	(SELECT count(*) FROM book_authors x WHERE x.book_id = b.id) AS author_count,
	s.id AS series_id, s.name AS series_name, bse.series_number AS series_number,
	(SELECT count(*) FROM book_series x WHERE x.book_id = b.id) AS series_count,
	l.loaned_to AS loaned_to
FROM books b
JOIN book_authors ba ON ba.book_id = b.id AND ba.position = 1
JOIN authors a ON a.id = ba.author_id
LEFT JOIN book_series bse ON bse.book_id = b.id AND bse.position = 1
LEFT JOIN series s ON s.id = bse.series_id
LEFT JOIN loans l ON l.book_id = b.id
`

// ListBooks runs the composed listing query.
func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*BookRow, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	where, args := filter.SQL(listPredicate(opts))

	q := listBooksSelect
	if where != "" {
		q += "WHERE " + where + "\n"
	}
	if opts.OrderBy != "" {
		q += "ORDER BY " + opts.OrderBy
	} else {
		q += "ORDER BY Upper(b.title)"
	}
	if opts.Limit != nil {
		q += "\nLIMIT ?"
		args = append(args, *opts.Limit)
	}
	if opts.Offset != nil {
		q += "\nOFFSET ?"
		args = append(args, *opts.Offset)
	}

	rows := []*BookRow{}
	err := svc.handle.DB.NewRaw(q, args...).Scan(ctx, &rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return rows, nil
}

// Position returns the zero-based count of books whose title sorts before
// the given one under the same criteria as ListBooks with the default order.
func (svc *Service) Position(ctx context.Context, title string, opts ListBooksOptions) (int, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	expr := filter.And(
		listPredicate(opts),
		filter.Raw("Upper(b.title) < Upper(?)", title),
	)
	where, args := filter.SQL(expr)

	q := "SELECT count(*) FROM books b JOIN book_authors ba ON ba.book_id = b.id AND ba.position = 1 JOIN authors a ON a.id = ba.author_id"
	if where != "" {
		q += " WHERE " + where
	}

	count := 0
	err := svc.handle.DB.NewRaw(q, args...).Scan(ctx, &count)
	return count, errors.WithStack(err)
}

// listPredicate composes every active criterion into one expression tree.
func listPredicate(opts ListBooksOptions) filter.Expr {
	exprs := []filter.Expr{opts.BookFilter}

	if opts.AuthorFilter != nil {
		sub, args := filter.SQL(opts.AuthorFilter)
		exprs = append(exprs, filter.Exists(
			"SELECT 1 FROM book_authors xba JOIN authors a ON a.id = xba.author_id WHERE xba.book_id = b.id AND "+sub,
			args...,
		))
	}
	if opts.Bookshelf != "" {
		exprs = append(exprs, filter.Exists(`
			SELECT 1 FROM book_bookshelves bbs
			JOIN bookshelves bs ON bs.id = bbs.bookshelf_id
			WHERE bbs.book_id = b.id AND LOWER(bs.name) = LOWER(?)
		`, opts.Bookshelf))
	}
	if opts.Search != "" {
		exprs = append(exprs, searchPredicate(opts.Search))
	}
	if opts.LoanedTo != "" {
		exprs = append(exprs, filter.Exists(
			"SELECT 1 FROM loans xl WHERE xl.book_id = b.id AND LOWER(xl.loaned_to) = LOWER(?)",
			opts.LoanedTo,
		))
	}
	switch opts.Series {
	case "":
	case EmptySeries:
		exprs = append(exprs, filter.NotExists(
			"SELECT 1 FROM book_series xbs WHERE xbs.book_id = b.id",
		))
	default:
		exprs = append(exprs, filter.Exists(`
			SELECT 1 FROM book_series xbs
			JOIN series xs ON xs.id = xbs.series_id
			WHERE xbs.book_id = b.id AND LOWER(xs.name) = LOWER(?)
		`, opts.Series))
	}

	return filter.And(exprs...)
}

// searchPredicate matches free text against the book's own fields or any
// associated series, author, or anthology entry.
func searchPredicate(text string) filter.Expr {
	seriesSub, seriesArgs := filter.SQL(filter.Contains("xs.name", text))
	authorSub, authorArgs := filter.SQL(filter.Or(
		filter.Contains("xa.family_name", text),
		filter.Contains("xa.given_names", text),
	))
	anthologySub, anthologyArgs := filter.SQL(filter.Or(
		filter.Contains("xat.title", text),
		filter.Contains("xaa.family_name", text),
		filter.Contains("xaa.given_names", text),
	))

	return filter.Or(
		filter.Contains("b.title", text),
		filter.Contains("b.isbn", text),
		filter.Contains("b.publisher", text),
		filter.Contains("b.notes", text),
		filter.Contains("b.location", text),
		filter.Contains("b.description", text),
		filter.Exists(
			"SELECT 1 FROM book_series xbs JOIN series xs ON xs.id = xbs.series_id WHERE xbs.book_id = b.id AND "+seriesSub,
			seriesArgs...,
		),
		filter.Exists(
			"SELECT 1 FROM book_authors xba JOIN authors xa ON xa.id = xba.author_id WHERE xba.book_id = b.id AND "+authorSub,
			authorArgs...,
		),
		filter.Exists(
			"SELECT 1 FROM anthology_titles xat JOIN authors xaa ON xaa.id = xat.author_id WHERE xat.book_id = b.id AND "+anthologySub,
			anthologyArgs...,
		),
	)
}
