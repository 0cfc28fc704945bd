// Package filter builds SQL predicates from a typed expression tree. Values
// always travel as bind parameters, so user-entered criteria can never splice
// into the generated SQL text.
package filter

import (
	"strings"
)

type Expr interface {
	append(sb *strings.Builder, args *[]interface{})
}

// SQL lowers an expression tree into a parameterized fragment. A nil
// expression lowers to the empty string with no arguments.
func SQL(e Expr) (string, []interface{}) {
	if e == nil {
		return "", nil
	}
	sb := strings.Builder{}
	args := []interface{}{}
	e.append(&sb, &args)
	return sb.String(), args
}

type binary struct {
	col string
	op  string
	val interface{}
}

func (b binary) append(sb *strings.Builder, args *[]interface{}) {
	sb.WriteString(b.col)
	sb.WriteString(" ")
	sb.WriteString(b.op)
	sb.WriteString(" ?")
	*args = append(*args, b.val)
}

func Eq(col string, val interface{}) Expr { return binary{col, "=", val} }
func Ne(col string, val interface{}) Expr { return binary{col, "<>", val} }
func Gt(col string, val interface{}) Expr { return binary{col, ">", val} }
func Lt(col string, val interface{}) Expr { return binary{col, "<", val} }

type like struct {
	col     string
	pattern string
}

func (l like) append(sb *strings.Builder, args *[]interface{}) {
	sb.WriteString(l.col)
	sb.WriteString(" LIKE ? ESCAPE '\\'")
	*args = append(*args, l.pattern)
}

// Contains matches rows whose column holds val as a substring,
// case-insensitively for ASCII per SQLite's LIKE.
func Contains(col, val string) Expr {
	return like{col, "%" + escapeLike(val) + "%"}
}

// HasPrefix matches rows whose column starts with val.
func HasPrefix(col, val string) Expr {
	return like{col, escapeLike(val) + "%"}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

type junction struct {
	op    string
	exprs []Expr
}

func (j junction) append(sb *strings.Builder, args *[]interface{}) {
	sb.WriteString("(")
	for i, e := range j.exprs {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(j.op)
			sb.WriteString(" ")
		}
		e.append(sb, args)
	}
	sb.WriteString(")")
}

// And combines expressions with AND, dropping nils. It returns nil when
// nothing remains, so optional criteria compose without special cases.
func And(exprs ...Expr) Expr { return junct("AND", exprs) }

// Or combines expressions with OR, dropping nils.
func Or(exprs ...Expr) Expr { return junct("OR", exprs) }

func junct(op string, exprs []Expr) Expr {
	kept := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			kept = append(kept, e)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return junction{op, kept}
}

type not struct {
	expr Expr
}

func (n not) append(sb *strings.Builder, args *[]interface{}) {
	sb.WriteString("NOT (")
	n.expr.append(sb, args)
	sb.WriteString(")")
}

func Not(e Expr) Expr {
	if e == nil {
		return nil
	}
	return not{e}
}

type exists struct {
	query  string
	args   []interface{}
	negate bool
}

func (e exists) append(sb *strings.Builder, args *[]interface{}) {
	if e.negate {
		sb.WriteString("NOT ")
	}
	sb.WriteString("EXISTS (")
	sb.WriteString(e.query)
	sb.WriteString(")")
	*args = append(*args, e.args...)
}

// Exists wraps a correlated subquery. The subquery text is supplied by the
// caller and must use ? placeholders for every value.
func Exists(query string, args ...interface{}) Expr {
	return exists{query: query, args: args}
}

func NotExists(query string, args ...interface{}) Expr {
	return exists{query: query, args: args, negate: true}
}

type in struct {
	col  string
	vals []interface{}
}

func (i in) append(sb *strings.Builder, args *[]interface{}) {
	sb.WriteString(i.col)
	sb.WriteString(" IN (")
	for n := range i.vals {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
	}
	sb.WriteString(")")
	*args = append(*args, i.vals...)
}

// In matches rows whose column equals any of vals. An empty vals list lowers
// to a predicate that matches nothing.
func In(col string, vals ...interface{}) Expr {
	if len(vals) == 0 {
		return raw{"1 = 0", nil}
	}
	return in{col, vals}
}

type raw struct {
	query string
	args  []interface{}
}

func (r raw) append(sb *strings.Builder, args *[]interface{}) {
	sb.WriteString(r.query)
	*args = append(*args, r.args...)
}

// Raw embeds a fragment the tree has no node for. The fragment must come from
// code, never from user input; values still go through args.
func Raw(query string, args ...interface{}) Expr {
	return raw{query, args}
}
