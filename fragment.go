package gosearch

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Fragment is one optional filter condition of the form "Column Operator Value".
//
// A fragment built from an absent value is absent: it is a valid, expected
// state and is skipped by Compose. The zero Fragment is absent.
type Fragment struct {
	Column   string
	Operator Operator
	Value    any

	present bool
}

// Absent returns a fragment that imposes no constraint.
func Absent() Fragment {
	return Fragment{}
}

// Where builds a present fragment from raw parts. Prefer the typed
// constructors, they handle absent input.
func Where(column string, operator Operator, value any) Fragment {
	return Fragment{
		Column:   column,
		Operator: operator,
		Value:    value,
		present:  true,
	}
}

// IsAbsent reports whether the fragment imposes no constraint.
func (f Fragment) IsAbsent() bool {
	return !f.present
}

func (f Fragment) String() string {
	if f.IsAbsent() {
		return "<absent>"
	}

	return fmt.Sprintf("%s %s %v", f.Column, f.Operator, f.Value)
}

// Eq builds "column = value"; absent when value is nil. A string value
// follows EqString.
func Eq[T any](column string, value *T) Fragment {
	if value == nil {
		return Absent()
	}

	if s, ok := any(*value).(string); ok {
		return EqString(column, s)
	}

	return Where(column, OperatorEq, *value)
}

// EqString builds "column = value" with value trimmed; absent when value is
// blank.
func EqString(column string, value string) Fragment {
	if isBlank(value) {
		return Absent()
	}

	return Where(column, OperatorEq, strings.TrimSpace(value))
}

// Goe builds "column >= value"; absent when value is nil.
func Goe[T cmp.Ordered](column string, value *T) Fragment {
	if value == nil {
		return Absent()
	}

	return Where(column, OperatorGTE, *value)
}

// Loe builds "column <= value"; absent when value is nil.
func Loe[T cmp.Ordered](column string, value *T) Fragment {
	if value == nil {
		return Absent()
	}

	return Where(column, OperatorLTE, *value)
}

// Gt builds "column > value"; absent when value is nil.
func Gt[T cmp.Ordered](column string, value *T) Fragment {
	if value == nil {
		return Absent()
	}

	return Where(column, OperatorGT, *value)
}

// Lt builds "column < value"; absent when value is nil.
func Lt[T cmp.Ordered](column string, value *T) Fragment {
	if value == nil {
		return Absent()
	}

	return Where(column, OperatorLT, *value)
}

// Contains builds "column LIKE '%value%'" with value trimmed; absent when
// value is blank. LIKE wildcards inside value are not escaped.
func Contains(column string, value string) Fragment {
	if isBlank(value) {
		return Absent()
	}

	return Where(column, OperatorLike, "%"+strings.TrimSpace(value)+"%")
}

// StartsWith builds "column LIKE 'value%'" with value trimmed; absent when
// value is blank.
func StartsWith(column string, value string) Fragment {
	if isBlank(value) {
		return Absent()
	}

	return Where(column, OperatorLike, strings.TrimSpace(value)+"%")
}

// In builds "column IN (values...)"; absent when values is empty.
func In[T any](column string, values []T) Fragment {
	if len(values) == 0 {
		return Absent()
	}

	return Where(column, OperatorIn, lo.ToAnySlice(values))
}

func (f Fragment) validate() error {
	if f.IsAbsent() {
		return nil
	}

	if err := validateColumnName(f.Column); err != nil {
		return err
	}

	if !f.Operator.Valid() {
		return invalidArgumentf("invalid operator '%s' for column '%s'", f.Operator, f.Column)
	}

	if f.Operator == OperatorIn {
		values, ok := f.Value.([]any)
		if !ok || len(values) == 0 {
			return invalidArgumentf("operator IN requires a non-empty value set for column '%s'", f.Column)
		}
	}

	return nil
}

func (f Fragment) toConjunct() tConjunct {
	return tConjunct{
		Column:   f.Column,
		Value:    f.Value,
		Operator: f.Operator,
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
