package relink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeNoOpWhenSameID(t *testing.T) {
	t.Parallel()

	rows := []Row{{ID: 1, BookID: 1, EntityID: 5, Position: 1}}
	assert.True(t, Compute(rows, 5, 5).Empty())
}

func TestComputeRepointsWhenNoCollision(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{ID: 10, BookID: 1, EntityID: 5, Position: 1},
		{ID: 11, BookID: 1, EntityID: 7, Position: 2},
	}
	plan := Compute(rows, 5, 6)
	assert.Equal(t, []int{10}, plan.Repoint)
	assert.Empty(t, plan.Delete)
	assert.Empty(t, plan.Moves)
}

func TestComputeCollisionProminentSlotWins(t *testing.T) {
	t.Parallel()

	// The duplicate holds position 1, the canonical row position 3. The
	// duplicate is deleted and the canonical row takes over slot 1.
	rows := []Row{
		{ID: 10, BookID: 1, EntityID: 5, Position: 1},
		{ID: 11, BookID: 1, EntityID: 9, Position: 2},
		{ID: 12, BookID: 1, EntityID: 6, Position: 3},
	}
	plan := Compute(rows, 5, 6)
	assert.Empty(t, plan.Repoint)
	assert.Equal(t, []int{10}, plan.Delete)
	assert.Equal(t, []Move{{RowID: 12, Position: 1}}, plan.Moves)
}

func TestComputeCollisionCanonicalAlreadyProminent(t *testing.T) {
	t.Parallel()

	// Canonical row already sits above the duplicate, so only the delete
	// happens. Position 1 is still occupied, no repair needed.
	rows := []Row{
		{ID: 10, BookID: 1, EntityID: 6, Position: 1},
		{ID: 11, BookID: 1, EntityID: 5, Position: 2},
	}
	plan := Compute(rows, 5, 6)
	assert.Equal(t, []int{11}, plan.Delete)
	assert.Empty(t, plan.Moves)
}

func TestComputeMinPositionRepair(t *testing.T) {
	t.Parallel()

	// Deleting the position-1 duplicate leaves the book starting at 2; the
	// minimum-holder moves up to 1.
	rows := []Row{
		{ID: 10, BookID: 1, EntityID: 5, Position: 1},
		{ID: 11, BookID: 1, EntityID: 6, Position: 2},
		{ID: 12, BookID: 1, EntityID: 9, Position: 3},
	}
	plan := Compute(rows, 5, 6)
	assert.Equal(t, []int{10}, plan.Delete)
	assert.Equal(t, []Move{{RowID: 11, Position: 1}}, plan.Moves)
}

func TestComputeMultipleBooks(t *testing.T) {
	t.Parallel()

	// Three books reference the duplicate: one repoints, one collides, one
	// is untouched because it only references the canonical entity.
	rows := []Row{
		{ID: 10, BookID: 1, EntityID: 5, Position: 1},
		{ID: 20, BookID: 2, EntityID: 5, Position: 1},
		{ID: 21, BookID: 2, EntityID: 6, Position: 2},
		{ID: 30, BookID: 3, EntityID: 6, Position: 1},
	}
	plan := Compute(rows, 5, 6)
	assert.Equal(t, []int{10}, plan.Repoint)
	assert.Equal(t, []int{20}, plan.Delete)
	assert.Equal(t, []Move{{RowID: 21, Position: 1}}, plan.Moves)
}

func TestComputeIsIdempotent(t *testing.T) {
	t.Parallel()

	// After a merge has run, every former duplicate reference is gone, so
	// planning the same merge again yields nothing.
	rows := []Row{
		{ID: 10, BookID: 1, EntityID: 6, Position: 1},
		{ID: 21, BookID: 2, EntityID: 6, Position: 1},
	}
	assert.True(t, Compute(rows, 5, 6).Empty())
}

func TestFixupClosesGaps(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{ID: 10, BookID: 1, EntityID: 5, Position: 2},
		{ID: 11, BookID: 1, EntityID: 6, Position: 5},
		{ID: 20, BookID: 2, EntityID: 5, Position: 1},
	}
	moves := Fixup(rows)
	assert.Equal(t, []Move{{RowID: 10, Position: 1}, {RowID: 11, Position: 2}}, moves)
}

func TestFixupContiguousInputUntouched(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{ID: 10, BookID: 1, EntityID: 5, Position: 1},
		{ID: 11, BookID: 1, EntityID: 6, Position: 2},
	}
	assert.Empty(t, Fixup(rows))
}
