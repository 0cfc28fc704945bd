// Package relink collapses a duplicate author or series into a canonical one
// across a positioned link table. Planning is a pure transform over an
// in-memory batch of rows; the caller fetches once, plans, and applies the
// whole update set inside a single exclusive write scope.
package relink

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Link names the positioned link table a merge operates on.
type Link struct {
	Table          string
	EntityColumn   string
	PositionColumn string
}

var (
	BookAuthors = Link{Table: "book_authors", EntityColumn: "author_id", PositionColumn: "position"}
	BookSeries  = Link{Table: "book_series", EntityColumn: "series_id", PositionColumn: "position"}
)

// Row is one positioned link row. A planning batch must contain every row of
// every book that references the entity being merged away, including rows for
// unrelated entities, because the minimum-position repair looks at the whole
// book.
type Row struct {
	ID       int
	BookID   int
	EntityID int
	Position int
}

type Move struct {
	RowID    int
	Position int
}

// Plan is the full update set for one merge. Deletes are applied before
// Moves so a move never lands on an occupied (book, position) slot.
type Plan struct {
	Repoint []int
	Delete  []int
	Moves   []Move
}

func (p Plan) Empty() bool {
	return len(p.Repoint) == 0 && len(p.Delete) == 0 && len(p.Moves) == 0
}

// Compute plans the merge of oldID into newID over the batch. Per book:
// a lone oldID row is repointed in place; where a newID row already exists
// the oldID row is deleted and, if it held the more prominent (lower)
// position, the surviving row moves into that slot. If the book's minimum
// position is then above 1, the minimum-holder moves up to 1.
func Compute(rows []Row, oldID, newID int) Plan {
	plan := Plan{}
	if oldID == newID {
		return plan
	}

	byBook := map[int][]Row{}
	bookIDs := []int{}
	for _, r := range rows {
		if _, ok := byBook[r.BookID]; !ok {
			bookIDs = append(bookIDs, r.BookID)
		}
		byBook[r.BookID] = append(byBook[r.BookID], r)
	}
	sort.Ints(bookIDs)

	for _, bookID := range bookIDs {
		book := byBook[bookID]

		var oldRow, newRow *Row
		for i := range book {
			switch book[i].EntityID {
			case oldID:
				oldRow = &book[i]
			case newID:
				newRow = &book[i]
			}
		}
		if oldRow == nil {
			continue
		}

		if newRow == nil {
			plan.Repoint = append(plan.Repoint, oldRow.ID)
			continue
		}

		// Both rows exist: drop the duplicate and let the more prominent
		// slot win.
		plan.Delete = append(plan.Delete, oldRow.ID)
		positions := map[int]int{}
		for _, r := range book {
			if r.ID != oldRow.ID {
				positions[r.ID] = r.Position
			}
		}
		if oldRow.Position < newRow.Position {
			plan.Moves = append(plan.Moves, Move{RowID: newRow.ID, Position: oldRow.Position})
			positions[newRow.ID] = oldRow.Position
		}

		minID, minPos := 0, 0
		for id, pos := range positions {
			if minID == 0 || pos < minPos {
				minID, minPos = id, pos
			}
		}
		if minID != 0 && minPos > 1 {
			plan.Moves = append(plan.Moves, Move{RowID: minID, Position: 1})
		}
	}

	return plan
}

// Fixup renumbers each book's positions to a contiguous 1..N, preserving the
// existing order. Returned moves are sorted so that applying them one at a
// time never collides with a still-occupied slot.
func Fixup(rows []Row) []Move {
	byBook := map[int][]Row{}
	bookIDs := []int{}
	for _, r := range rows {
		if _, ok := byBook[r.BookID]; !ok {
			bookIDs = append(bookIDs, r.BookID)
		}
		byBook[r.BookID] = append(byBook[r.BookID], r)
	}
	sort.Ints(bookIDs)

	moves := []Move{}
	for _, bookID := range bookIDs {
		book := byBook[bookID]
		sort.Slice(book, func(i, j int) bool { return book[i].Position < book[j].Position })
		for i, r := range book {
			if want := i + 1; r.Position != want {
				moves = append(moves, Move{RowID: r.ID, Position: want})
			}
		}
	}
	return moves
}

// Merge fetches the affected batch for link, computes the plan, and applies
// it. Run inside the caller's transaction and exclusive write scope.
func Merge(ctx context.Context, db bun.IDB, link Link, oldID, newID int) error {
	if oldID == newID {
		return nil
	}

	rows, err := fetchBatch(ctx, db, link, oldID)
	if err != nil {
		return err
	}

	return Apply(ctx, db, link, Compute(rows, oldID, newID), newID)
}

// Apply executes a computed plan against link. Deletes run before moves so
// freed slots are available when the moves land.
func Apply(ctx context.Context, db bun.IDB, link Link, plan Plan, newID int) error {
	if plan.Empty() {
		return nil
	}

	if len(plan.Repoint) > 0 {
		q := fmt.Sprintf("UPDATE %s SET %s = ? WHERE id IN (?)", link.Table, link.EntityColumn)
		_, err := db.ExecContext(ctx, q, newID, bun.In(plan.Repoint))
		if err != nil {
			return errors.WithStack(err)
		}
	}
	if len(plan.Delete) > 0 {
		q := fmt.Sprintf("DELETE FROM %s WHERE id IN (?)", link.Table)
		_, err := db.ExecContext(ctx, q, bun.In(plan.Delete))
		if err != nil {
			return errors.WithStack(err)
		}
	}
	for _, m := range plan.Moves {
		q := fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ?", link.Table, link.PositionColumn)
		_, err := db.ExecContext(ctx, q, m.Position, m.RowID)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// RepairPositions fetches every row of link and closes any numbering gaps.
// Kept as a maintenance call for catalogues written before positions were
// enforced as contiguous.
func RepairPositions(ctx context.Context, db bun.IDB, link Link) error {
	q := fmt.Sprintf(
		"SELECT id, book_id, %s AS entity_id, %s AS position FROM %s",
		link.EntityColumn, link.PositionColumn, link.Table,
	)
	rows := []Row{}
	err := db.NewRaw(q).Scan(ctx, &rows)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, m := range Fixup(rows) {
		uq := fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ?", link.Table, link.PositionColumn)
		_, err = db.ExecContext(ctx, uq, m.Position, m.RowID)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func fetchBatch(ctx context.Context, db bun.IDB, link Link, oldID int) ([]Row, error) {
	q := fmt.Sprintf(
		"SELECT id, book_id, %s AS entity_id, %s AS position FROM %s WHERE book_id IN (SELECT book_id FROM %s WHERE %s = ?)",
		link.EntityColumn, link.PositionColumn, link.Table, link.Table, link.EntityColumn,
	)
	rows := []Row{}
	err := db.NewRaw(q, oldID).Scan(ctx, &rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return rows, nil
}
