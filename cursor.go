package gosearch

import (
	"bytes"
	"database/sql/driver"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

var _encoder = base64.RawURLEncoding

// Cursor is a keyset pagination token: the position right after the last row
// of the previous page. An empty cursor means the start of the dataset.
//
// IMPORTANT:
// The cursor MUST include a condition on a unique column, otherwise rows
// sharing the boundary value are skipped.
//
// A cursor is a list of conditions:
//
//	[(C1, O1, V1), (C2, O2, V2)... (Cn, On, Vn)]
type Cursor struct {
	elements []CursorElement
}

func NewCursor(elements ...CursorElement) *Cursor {
	return &Cursor{
		elements: elements,
	}
}

// AfterKey builds a single-column cursor positioned after *lastKey when
// reading in the given direction. A nil lastKey yields an empty cursor, i.e.
// the first page.
//
// Example, the classic "WHERE id < :lastId ORDER BY id DESC":
//
//	cursor := gosearch.AfterKey("id", lastID, gosearch.DirectionDESC)
func AfterKey[K any](column string, lastKey *K, direction Direction) *Cursor {
	if lastKey == nil {
		return nil
	}

	return NewCursor(CursorElement{
		Column:   column,
		Value:    *lastKey,
		Operator: direction.ForOperator(),
	})
}

// DecodeCursor parses a base64 encoded token produced by Cursor.String.
func DecodeCursor(b64String string) (*Cursor, error) {
	if len(b64String) == 0 {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(b64String)
	if err != nil {
		return nil, invalidArgumentf("failed to decode base64 encoded cursor: %v", err)
	}

	var elems []CursorElement
	if err = json.Unmarshal(jsonData, &elems); err != nil {
		return nil, invalidArgumentf("failed to unmarshal json encoded cursor: %v", err)
	}

	return &Cursor{
		elements: elems,
	}, nil
}

// String - implements fmt.Stringer.
func (c *Cursor) String() string {
	if c.IsEmpty() {
		return ""
	}

	jTok, err := json.Marshal(c.elements)
	if err != nil {
		panic(fmt.Errorf("cannot marshal cursor value: %w", err))
	}

	var buf bytes.Buffer
	if err = json.Compact(&buf, jTok); err != nil {
		panic(fmt.Errorf("cannot compact cursor value: %w", err))
	}

	return _encoder.EncodeToString(buf.Bytes())
}

// MarshalText encodes the cursor as its opaque token.
func (c *Cursor) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes an opaque token.
func (c *Cursor) UnmarshalText(text []byte) error {
	decoded, err := DecodeCursor(string(text))
	if err != nil {
		return err
	}

	c.elements = decoded.GetElements()

	return nil
}

func (c *Cursor) IsEmpty() bool {
	return c == nil || len(c.elements) == 0
}

// GetElements returns the cursor conditions.
//
// IMPORTANT:
// The elements are a compressed form of the filter and must not be applied
// to a query one by one. Predicate() expands them into the full boundary.
func (c *Cursor) GetElements() []CursorElement {
	if c == nil {
		return nil
	}

	return c.elements
}

// WithElements sets the cursor elements explicitly.
func (c *Cursor) WithElements(elements []CursorElement) *Cursor {
	if c == nil {
		c = new(Cursor)
	}

	c.elements = elements

	return c
}

// Predicate returns the keyset boundary as a Predicate. An empty cursor
// matches all rows.
func (c *Cursor) Predicate() Predicate {
	return MatchAll().withBoundary(c.toDNF())
}

// ToSQL returns the boundary as an SQL condition.
//
// Usage:
//
//	where, args := cursor.ToSQL()
//	query := fmt.Sprintf("SELECT * FROM table WHERE %s", where)
func (c *Cursor) ToSQL() (string, []driver.Value) {
	if c.IsEmpty() {
		return "TRUE", nil
	}

	return c.toDNF().toSQLClause()
}

// toDNF expands the cursor into tDNF.
//
// For the cursor
//
//	[(C1, O1, V1), (C2, O2, V2)... (Cn, On, Vn)]
//
// the i-th disjunct requires equality on the first i-1 columns and the strict
// comparison on the i-th one:
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR ...
//
// which is exactly "the row comes after the cursor" for a lexicographic order.
func (c *Cursor) toDNF() tDNF {
	if c.IsEmpty() {
		return nil
	}

	dnf := make(tDNF, 0, len(c.elements))
	for i := range c.elements {
		previousElementsWithEqualityCondition := lo.Map(c.elements[:i], func(item CursorElement, _ int) tConjunct {
			return item.toConjunctWithEqualityCondition()
		})

		disjunct := make([]tConjunct, 0, len(previousElementsWithEqualityCondition)+1)
		disjunct = append(disjunct, previousElementsWithEqualityCondition...)
		disjunct = append(disjunct, c.elements[i].toConjunct())

		dnf = append(dnf, disjunct)
	}

	return dnf
}

// validate checks the cursor against the ordering it is applied with.
func (c *Cursor) validate(orderings Orderings) error {
	if c.IsEmpty() {
		return nil
	}

	if len(c.elements) != len(orderings) {
		return invalidArgumentf("cursor column number mismatch")
	}

	for i := range c.elements {
		cond := c.elements[i]
		orderBy := orderings[i]

		if cond.Column != orderBy.Column {
			return invalidArgumentf("unexpected cursor column '%s'", cond.Column)
		}

		if !cond.Operator.ValidForCursor() {
			return invalidArgumentf("invalid cursor operator '%s'", cond.Operator)
		} else if cond.Operator.ForOrdering() != orderBy.Direction {
			return invalidArgumentf("unexpected cursor operator '%s'", cond.Operator)
		}
	}

	return nil
}

var _ fmt.Stringer = (*Cursor)(nil)

// Getters maps the columns of the ordering to field accessors of T. They are
// used to build the cursor of the next page from the last returned row.
//
// Example:
//
//	gosearch.Getters[MemberDTO]{
//		"members.id":  func(last MemberDTO) any { return last.ID },
//		"members.age": func(last MemberDTO) any { return last.Age },
//	}
type Getters[T any] map[string]func(T) any

// CursorElement is a triple (c, v, o):
//
//   - "c" - the column;
//   - "v" - the value of the column in the last row of the previous page;
//   - "o" - the strict comparison that moves past it.
type CursorElement struct {
	Column   string   `json:"c"`
	Value    any      `json:"v"`
	Operator Operator `json:"o"`
}

func (c *CursorElement) toConjunct() tConjunct {
	return tConjunct{
		Column:   c.Column,
		Value:    parseAnyValue(c.Value),
		Operator: c.Operator,
	}
}

func (c *CursorElement) toConjunctWithEqualityCondition() tConjunct {
	return tConjunct{
		Column:   c.Column,
		Value:    parseAnyValue(c.Value),
		Operator: OperatorEq,
	}
}
