package anthology

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/database"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/relink"
	"github.com/uptrace/bun"
)

// Service manages the ordered stories inside a collection. Every entry pairs
// a story title with its own author, which may differ from the book's
// authors.
type Service struct {
	handle *database.Handle
}

func NewService(handle *database.Handle) *Service {
	return &Service{handle}
}

const (
	existingIDQuery = "SELECT id FROM anthology_titles WHERE book_id = ? AND author_id = ? AND title = ? COLLATE NOCASE"
	entryCountQuery = "SELECT count(*) FROM anthology_titles WHERE book_id = ?"
)

// existingID returns the id of a matching (book, author, title) entry, or
// found=false. Title matching is case-insensitive. These lookups run on
// every entry insert during imports, so the direct path goes through the
// statement cache; inside a caller's transaction they run on the transaction
// instead, since the cached statements are bound to the main connection.
func (svc *Service) existingID(ctx context.Context, db bun.IDB, bookID, authorID int, title string) (int64, bool, error) {
	if main, ok := db.(*bun.DB); ok && main == svc.handle.DB {
		return svc.handle.Stmts.QueryInt64(ctx, "anthology_existing_id", existingIDQuery, bookID, authorID, title)
	}
	var id int64
	err := db.NewRaw(existingIDQuery, bookID, authorID, title).Scan(ctx, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.WithStack(err)
	}
	return id, true, nil
}

func (svc *Service) nextPosition(ctx context.Context, db bun.IDB, bookID int) (int, error) {
	var count int64
	if main, ok := db.(*bun.DB); ok && main == svc.handle.DB {
		var err error
		count, _, err = svc.handle.Stmts.QueryInt64(ctx, "anthology_entry_count", entryCountQuery, bookID)
		if err != nil {
			return 0, err
		}
	} else {
		err := db.NewRaw(entryCountQuery, bookID).Scan(ctx, &count)
		if err != nil {
			return 0, errors.WithStack(err)
		}
	}
	return int(count) + 1, nil
}

// CreateEntry appends a story to a book. A duplicate (book, author, title)
// is rejected with AlreadyExists unless allowExisting is set, in which case
// the existing entry is returned untouched.
func (svc *Service) CreateEntry(ctx context.Context, bookID, authorID int, title string, allowExisting bool) (*models.AnthologyTitle, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("anthology title cannot be empty")
	}

	release := svc.handle.Guard.AcquireWrite()
	defer release()

	return svc.createEntry(ctx, svc.handle.DB, bookID, authorID, title, allowExisting)
}

// CreateEntryIn is CreateEntry for callers already holding the exclusive
// scope.
func (svc *Service) CreateEntryIn(ctx context.Context, db bun.IDB, bookID, authorID int, title string, allowExisting bool) (*models.AnthologyTitle, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("anthology title cannot be empty")
	}
	return svc.createEntry(ctx, db, bookID, authorID, title, allowExisting)
}

func (svc *Service) createEntry(ctx context.Context, db bun.IDB, bookID, authorID int, title string, allowExisting bool) (*models.AnthologyTitle, error) {
	id, found, err := svc.existingID(ctx, db, bookID, authorID, title)
	if err != nil {
		return nil, err
	}
	if found {
		if !allowExisting {
			return nil, errcodes.AlreadyExists("AnthologyTitle")
		}
		return svc.retrieveEntry(ctx, db, int(id))
	}

	position, err := svc.nextPosition(ctx, db, bookID)
	if err != nil {
		return nil, err
	}

	entry := &models.AnthologyTitle{
		BookID:   bookID,
		AuthorID: authorID,
		Title:    title,
		Position: position,
	}
	_, err = db.NewInsert().Model(entry).Returning("*").Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return entry, nil
}

func (svc *Service) RetrieveEntry(ctx context.Context, id int) (*models.AnthologyTitle, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	return svc.retrieveEntry(ctx, svc.handle.DB, id)
}

func (svc *Service) retrieveEntry(ctx context.Context, db bun.IDB, id int) (*models.AnthologyTitle, error) {
	entry := &models.AnthologyTitle{}
	err := db.
		NewSelect().
		Model(entry).
		Relation("Author").
		Where("at.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("AnthologyTitle")
		}
		return nil, errors.WithStack(err)
	}
	return entry, nil
}

// ListEntries returns a book's stories in reading order.
func (svc *Service) ListEntries(ctx context.Context, bookID int) ([]*models.AnthologyTitle, error) {
	release := svc.handle.Guard.AcquireRead()
	defer release()

	entries := []*models.AnthologyTitle{}
	err := svc.handle.DB.
		NewSelect().
		Model(&entries).
		Relation("Author").
		Where("at.book_id = ?", bookID).
		OrderExpr("at.position").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return entries, nil
}

// UpdateEntry rewrites a story's title and author in place; its position is
// untouched.
func (svc *Service) UpdateEntry(ctx context.Context, id, authorID int, title string) (*models.AnthologyTitle, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("anthology title cannot be empty")
	}

	release := svc.handle.Guard.AcquireWrite()
	defer release()

	res, err := svc.handle.DB.ExecContext(ctx,
		"UPDATE anthology_titles SET author_id = ?, title = ? WHERE id = ?",
		authorID, title, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if affected == 0 {
		return nil, errcodes.NotFound("AnthologyTitle")
	}
	return svc.retrieveEntry(ctx, svc.handle.DB, id)
}

// DeleteEntry removes a story and renumbers the rest of the book back to a
// contiguous 1..N.
func (svc *Service) DeleteEntry(ctx context.Context, id int) error {
	release := svc.handle.Guard.AcquireWrite()
	defer release()

	return svc.handle.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		entry := &models.AnthologyTitle{}
		err := tx.NewSelect().Model(entry).Where("at.id = ?", id).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("AnthologyTitle")
			}
			return errors.WithStack(err)
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM anthology_titles WHERE id = ?", id)
		if err != nil {
			return errors.WithStack(err)
		}

		return svc.renumber(ctx, tx, entry.BookID)
	})
}

// DeleteForBookIn removes every entry of a book; used by book deletion.
func (svc *Service) DeleteForBookIn(ctx context.Context, db bun.IDB, bookID int) error {
	_, err := db.ExecContext(ctx, "DELETE FROM anthology_titles WHERE book_id = ?", bookID)
	return errors.WithStack(err)
}

func (svc *Service) renumber(ctx context.Context, db bun.IDB, bookID int) error {
	rows := []relink.Row{}
	err := db.NewRaw(`
		SELECT id, book_id, author_id AS entity_id, position
		FROM anthology_titles WHERE book_id = ?
	`, bookID).Scan(ctx, &rows)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, m := range relink.Fixup(rows) {
		_, err = db.ExecContext(ctx, "UPDATE anthology_titles SET position = ? WHERE id = ?", m.Position, m.RowID)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
