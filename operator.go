package gosearch

import "fmt"

// Operator defines a comparison operator applied to a column.
type Operator string

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	OperatorEq   Operator = "="
	OperatorGTE  Operator = ">="
	OperatorLTE  Operator = "<="
	OperatorLike Operator = "LIKE"
	OperatorIn   Operator = "IN"
)

// Valid reports whether the operator can be rendered into SQL.
func (o Operator) Valid() bool {
	switch o {
	case OperatorGT, OperatorLT, OperatorEq, OperatorGTE, OperatorLTE, OperatorLike, OperatorIn:
		return true
	default:
		return false
	}
}

// ValidForCursor reports whether the operator can bound a keyset cursor.
// Only strict comparisons are allowed there, otherwise the boundary row would
// be returned twice.
func (o Operator) ValidForCursor() bool {
	return o == OperatorLT || o == OperatorGT
}

func (o Operator) ForOrdering() Direction {
	switch o {
	case OperatorGT:
		return DirectionASC
	case OperatorLT:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map operator '%s' to ordering", o))
	}
}
