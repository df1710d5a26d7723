package gosearch

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Predicate is the effective filter of a query: the AND of all present
// fragments, optionally ANDed with a keyset boundary. The zero Predicate
// matches every row.
//
// Predicates are immutable; And returns a new value.
type Predicate struct {
	filter     tDisjunct
	boundaries []tDNF
}

// MatchAll returns the identity predicate.
func MatchAll() Predicate {
	return Predicate{}
}

// Compose returns the AND of all present fragments. Absent fragments are
// skipped; composing no present fragments yields MatchAll.
//
// Fragment order is kept in the generated SQL. It never changes the result,
// but some optimizers are sensitive to it.
func Compose(fragments ...Fragment) (Predicate, error) {
	present := lo.Filter(fragments, func(f Fragment, _ int) bool { return !f.IsAbsent() })

	filter := make(tDisjunct, 0, len(present))
	for _, f := range present {
		if err := f.validate(); err != nil {
			return Predicate{}, fmt.Errorf("cannot compose predicate: %w", err)
		}

		filter = append(filter, f.toConjunct())
	}

	return Predicate{filter: filter}, nil
}

// IsMatchAll reports whether the predicate imposes no constraint.
func (p Predicate) IsMatchAll() bool {
	return len(p.filter) == 0 && len(p.boundaries) == 0
}

// And returns a predicate matching rows that satisfy both p and other.
func (p Predicate) And(other Predicate) Predicate {
	ret := Predicate{
		filter:     make(tDisjunct, 0, len(p.filter)+len(other.filter)),
		boundaries: make([]tDNF, 0, len(p.boundaries)+len(other.boundaries)),
	}
	ret.filter = append(ret.filter, p.filter...)
	ret.filter = append(ret.filter, other.filter...)
	ret.boundaries = append(ret.boundaries, p.boundaries...)
	ret.boundaries = append(ret.boundaries, other.boundaries...)

	return ret
}

// withBoundary attaches a keyset boundary. An empty boundary is ignored.
func (p Predicate) withBoundary(boundary tDNF) Predicate {
	if len(boundary) == 0 {
		return p
	}

	return p.And(Predicate{boundaries: []tDNF{boundary}})
}

// Expression returns the predicate as a single clause.Expression, or nil when
// the predicate matches all rows.
func (p Predicate) Expression() clause.Expression {
	exprs := p.expressions()
	if len(exprs) == 0 {
		return nil
	}

	return clause.And(exprs...)
}

func (p Predicate) expressions() []clause.Expression {
	exprs := lo.Map(p.filter, func(c tConjunct, _ int) clause.Expression { return c.toGORMExpression() })
	for _, boundary := range p.boundaries {
		if b := boundary.toGORMExpression(); b != nil {
			exprs = append(exprs, b)
		}
	}

	return exprs
}

// Apply adds the predicate to the WHERE clause of a gorm query. A match-all
// predicate leaves the query untouched.
func (p Predicate) Apply(db *gorm.DB) *gorm.DB {
	for _, expr := range p.expressions() {
		db = db.Clauses(expr)
	}

	return db
}

// ToSQL returns the predicate as an SQL condition with "?" placeholders.
//
// Usage:
//
//	where, args := p.ToSQL()
//	query := fmt.Sprintf("SELECT * FROM table WHERE %s", where)
func (p Predicate) ToSQL() (string, []driver.Value) {
	if p.IsMatchAll() {
		return "TRUE", nil
	}

	clauses := make([]string, 0, 1+len(p.boundaries))
	values := make([]driver.Value, 0, len(p.filter))

	if len(p.filter) > 0 {
		filterSQL, filterValues := p.filter.toSQLClause()
		clauses = append(clauses, filterSQL)
		values = append(values, filterValues...)
	}

	for _, boundary := range p.boundaries {
		boundarySQL, boundaryValues := boundary.toSQLClause()
		clauses = append(clauses, boundarySQL)
		values = append(values, boundaryValues...)
	}

	return strings.Join(clauses, " AND "), values
}

func (p Predicate) String() string {
	sql, values := p.ToSQL()
	if len(values) == 0 {
		return sql
	}

	return fmt.Sprintf("%s %v", sql, values)
}
