package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLNil(t *testing.T) {
	t.Parallel()

	sql, args := SQL(nil)
	assert.Equal(t, "", sql)
	assert.Empty(t, args)
}

func TestEq(t *testing.T) {
	t.Parallel()

	sql, args := SQL(Eq("b.read", true))
	assert.Equal(t, "b.read = ?", sql)
	assert.Equal(t, []interface{}{true}, args)
}

func TestContainsEscapesWildcards(t *testing.T) {
	t.Parallel()

	sql, args := SQL(Contains("b.title", "100%_done"))
	assert.Equal(t, "b.title LIKE ? ESCAPE '\\'", sql)
	assert.Equal(t, []interface{}{`%100\%\_done%`}, args)
}

func TestAndDropsNils(t *testing.T) {
	t.Parallel()

	sql, args := SQL(And(nil, Eq("b.id", 7), nil))
	assert.Equal(t, "b.id = ?", sql)
	assert.Equal(t, []interface{}{7}, args)

	assert.Nil(t, And(nil, nil))
}

func TestNestedComposition(t *testing.T) {
	t.Parallel()

	expr := And(
		Eq("b.read", false),
		Or(
			Contains("b.title", "dune"),
			Contains("b.isbn", "dune"),
		),
	)
	sql, args := SQL(expr)
	assert.Equal(t, "(b.read = ? AND (b.title LIKE ? ESCAPE '\\' OR b.isbn LIKE ? ESCAPE '\\'))", sql)
	assert.Equal(t, []interface{}{false, "%dune%", "%dune%"}, args)
}

func TestNot(t *testing.T) {
	t.Parallel()

	sql, args := SQL(Not(Eq("b.anthology", true)))
	assert.Equal(t, "NOT (b.anthology = ?)", sql)
	assert.Equal(t, []interface{}{true}, args)

	assert.Nil(t, Not(nil))
}

func TestExists(t *testing.T) {
	t.Parallel()

	sql, args := SQL(NotExists("SELECT 1 FROM loans l WHERE l.book_id = b.id AND l.loaned_to = ?", "alice"))
	assert.Equal(t, "NOT EXISTS (SELECT 1 FROM loans l WHERE l.book_id = b.id AND l.loaned_to = ?)", sql)
	assert.Equal(t, []interface{}{"alice"}, args)
}

func TestIn(t *testing.T) {
	t.Parallel()

	sql, args := SQL(In("b.id", 1, 2, 3))
	assert.Equal(t, "b.id IN (?, ?, ?)", sql)
	assert.Equal(t, []interface{}{1, 2, 3}, args)

	sql, args = SQL(In("b.id"))
	assert.Equal(t, "1 = 0", sql)
	assert.Empty(t, args)
}
