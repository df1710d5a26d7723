package gosearch

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// ForOperator returns the strict comparison that moves past a row in this
// direction: ">" for ASC, "<" for DESC.
func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

type (
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
	}

	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// Use it when bare column names could cause an "ambiguous column name" error.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

// validateColumnName guards against SQL injection: column names are
// interpolated into SQL text, values never are.
func validateColumnName(column string) error {
	if column == "" {
		return invalidArgumentf("empty column name")
	}

	if !lo.Every(_availableColumnNameSymbols, []rune(column)) {
		return invalidArgumentf("column name contains forbidden symbols '%s'", column)
	}

	return nil
}

// Asc is a shorthand for OrderBy{Column: column, Direction: DirectionASC}.
func Asc(column string) OrderBy {
	return OrderBy{Column: column, Direction: DirectionASC}
}

// Desc is a shorthand for OrderBy{Column: column, Direction: DirectionDESC}.
func Desc(column string) OrderBy {
	return OrderBy{Column: column, Direction: DirectionDESC}
}

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return invalidArgumentf("invalid ordering direction '%s'", o.Direction)
	}

	return validateColumnName(o.Column)
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <order_direction>" suitable for SQL query builders.
//
// Example: for Orderings: [{"a", "ASC"}, {"b", "DESC"}] returns ["a ASC", "b DESC"].
func (o Orderings) ToSQLSlice() []string {
	ret := make([]string, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, fmt.Sprintf("%s %s", ordering.Column, ordering.Direction))
	}

	return ret
}

// ToSQL converts Orderings to a single string
// "<order_column_1> <order_direction_1>, <order_column_2> <order_direction_2>"
// suitable for embedding into an SQL query.
// Example: for [{"a", "ASC"}, {"b", "DESC"}] returns "a ASC, b DESC".
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// Apply applies the ordering to a gorm query. Empty orderings leave the query
// untouched.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	if len(o) == 0 {
		return db
	}

	return db.Order(o.ToSQL())
}

// Columns returns the ordered column names.
func (o Orderings) Columns() []string {
	return lo.Map(o, func(item OrderBy, _ int) string { return item.Column })
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return invalidArgumentf("empty ordering list")
	}

	return o.validateOptional()
}

// validateOptional accepts an empty list, offset pagination may run unordered.
func (o Orderings) validateOptional() error {
	for _, ordering := range o {
		if err := ordering.validate(); err != nil {
			return err
		}
	}

	return nil
}

// ParseSort builds Orderings from a list of strings in the format
// "column asc|desc". Column aliases are resolved via ColumnMapping.
// Returns an error if an alias is not found in the mapping.
func ParseSort(stringsOrderings []string, columnMapping ColumnMapping) (Orderings, error) {
	ret := make([]OrderBy, 0, len(stringsOrderings))
	aliases := lo.Keys(columnMapping)

	for _, stringOrdering := range stringsOrderings {
		cutStringOrdering := strings.Fields(stringOrdering)
		if len(cutStringOrdering) != 2 {
			return nil, invalidArgumentf("invalid ordering string format '%s'", stringOrdering)
		}

		columnAlias := cutStringOrdering[0]
		direction := Direction(strings.ToUpper(cutStringOrdering[1]))
		if !direction.Valid() {
			return nil, invalidArgumentf("invalid ordering direction '%s'", cutStringOrdering[1])
		}

		columnName := columnMapping[columnAlias]
		if columnName == "" {
			return nil, invalidArgumentf("invalid column alias. closest: '%s'", closestAlias(columnAlias, aliases))
		}

		ret = append(ret, OrderBy{
			Column:    columnName,
			Direction: direction,
		})
	}

	return ret, nil
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		// Map iteration order is random, ties resolve to the smaller alias.
		if dist < minDist || (dist == minDist && dataSetAlias < closest) {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}
