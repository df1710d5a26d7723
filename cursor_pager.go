package gosearch

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RawCursorPager is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging RawCursorPager `json:",inline"`
//	}
type RawCursorPager struct {
	// Limit - maximum number of records to return in the response.
	Limit int `json:"limit"`
	// StartToken - base64-encoded cursor token obtained via Cursor.String().
	// If empty, the first page with Limit records is returned.
	StartToken string `json:"startToken"`
}

// Decode converts RawCursorPager into *CursorPager, validating StartToken.
// Returns *CursorPager with WithSubstitutedSort applied.
func (p RawCursorPager) Decode(orderBy ...OrderBy) (*CursorPager, error) {
	return DecodeCursorPager(p.Limit, p.StartToken, orderBy...)
}

// CursorPager describes one keyset window: the boundary, the ordering and the
// limit. The ordering must be a strict total order, i.e. end with a unique
// column.
type CursorPager struct {
	lookahead bool
	limit     int
	cursor    *Cursor
	sort      Orderings
}

func NewCursorPager() *CursorPager {
	return new(CursorPager)
}

// DecodeCursorPager decodes a cursor token into *CursorPager.
func DecodeCursorPager(limit int, rawStartToken string, orderBy ...OrderBy) (*CursorPager, error) {
	cursor, err := DecodeCursor(rawStartToken)
	if err != nil {
		return nil, err
	}

	return (&CursorPager{
		cursor: cursor,
	}).WithSubstitutedSort(orderBy...).WithLimit(limit), nil
}

// WithLookahead enables lookahead pagination, which fetches one extra record
// to determine whether the current page is the last.
func (c *CursorPager) WithLookahead() *CursorPager {
	if c == nil {
		c = new(CursorPager)
	}

	c.lookahead = true

	return c
}

// WithLimit sets the maximum number of returned records. The limit is
// validated when the pager is used: a non-positive limit is rejected.
func (c *CursorPager) WithLimit(limit int) *CursorPager {
	if c == nil {
		c = new(CursorPager)
	}

	c.limit = limit

	return c
}

// WithCursor sets the cursor explicitly.
func (c *CursorPager) WithCursor(cursor *Cursor) *CursorPager {
	if c == nil {
		c = new(CursorPager)
	}

	c.cursor = cursor

	return c
}

// WithSubstitutedSort resets previous orderings and applies the provided ones.
func (c *CursorPager) WithSubstitutedSort(orderBy ...OrderBy) *CursorPager {
	if c == nil {
		c = new(CursorPager)
	}

	c.sort = nil

	return c.WithSort(orderBy...)
}

// WithSort appends sort orderings without overwriting existing ones.
// Order is preserved as if calling:
//
//	OrderBy(o1).ThenBy(o2).ThenBy(o3)...
func (c *CursorPager) WithSort(orderBy ...OrderBy) *CursorPager {
	if c == nil {
		c = new(CursorPager)
	}

	for _, o := range orderBy {
		idx := slices.IndexFunc(c.sort, func(processed OrderBy) bool {
			return processed.Column == o.Column
		})

		// Remove previous occurrence (avoid duplication).
		if idx != -1 {
			c.sort = slices.Delete(c.sort, idx, idx+1)
		}

		c.sort = append(c.sort, o)
	}

	return c
}

// Paginate applies the ordering, the boundary and the limit to a gorm query.
// Returns an error if pagination cannot be applied.
func (c *CursorPager) Paginate(db *gorm.DB) (*gorm.DB, error) {
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	db = c.cursor.Predicate().Apply(db)
	db = c.sort.Apply(db)

	return db.Limit(c.GetDatasetLimit()), nil
}

// Query returns the window as a Query over pred.
func (c *CursorPager) Query(pred Predicate) (Query, error) {
	if err := c.validate(); err != nil {
		return Query{}, err
	}

	return Query{
		Predicate: pred.And(c.cursor.Predicate()),
		Orderings: c.sort,
		Limit:     c.GetDatasetLimit(),
	}, nil
}

// GetSort returns orderings that will be applied to the dataset.
func (c *CursorPager) GetSort() Orderings {
	if c == nil {
		return nil
	}

	return c.sort
}

// IsLookahead returns true if lookahead pagination is enabled.
func (c *CursorPager) IsLookahead() bool {
	if c == nil {
		return false
	}

	return c.lookahead
}

// GetLimit returns the limit as it is stored in CursorPager.
func (c *CursorPager) GetLimit() int {
	if c == nil {
		return 0
	}

	return c.limit
}

// GetCursor returns the cursor stored in CursorPager as-is.
func (c *CursorPager) GetCursor() *Cursor {
	if c == nil {
		return nil
	}

	return c.cursor
}

// GetDatasetLimit returns the limit adjusted for lookahead:
//   - if Lookahead = true → GetLimit() + 1
//   - if Lookahead = false → GetLimit()
func (c *CursorPager) GetDatasetLimit() int {
	limit := c.GetLimit()
	isLookahead := c.IsLookahead()

	return lo.Ternary(isLookahead, limit+1, limit)
}

func (c *CursorPager) validate() error {
	if c == nil {
		return invalidArgumentf("cursor pager is nil")
	}

	if c.limit <= 0 {
		return invalidArgumentf("limit must be positive, got %d", c.limit)
	}

	if err := c.sort.validate(); err != nil {
		return err
	}

	return c.cursor.validate(c.sort)
}

// clampLimit returns a copy of the pager with the limit clamped to maxLimit.
func (c *CursorPager) clampLimit(maxLimit int) (*CursorPager, bool) {
	limit, accepted, err := IsNormalizedLimitMax(c.GetLimit(), maxLimit)
	if err != nil || accepted {
		return c, true
	}

	clamped := *c
	clamped.limit = limit

	return &clamped, false
}

// IsLastPage returns true if the result set is the last page in the dataset.
//
// The last page is determined by one of two conditions:
//  1. The number of returned records is less than Limit.
//  2. Lookahead = true and the number of returned records is less than or equal to Limit.
//
// Without lookahead a full page is not proof that more rows exist: the next
// page may turn out empty.
func IsLastPage[T any](initialPager *CursorPager, resultSet []T) bool {
	return len(resultSet) < initialPager.limit ||
		(initialPager.lookahead && len(resultSet) <= initialPager.limit)
}

// TrimResultSet trims the result set to what should be returned to the client.
//
// If lookahead = true and the extra record was fetched, drop it. Suppose
// limit = 2 and resultSet = [a, b, c].
//
//   - With lookahead → resultSet becomes [a, b].
//   - Without lookahead → resultSet remains unchanged.
//
// This enables building pagination based on a STRICT comparison with the
// last element of the result set.
func TrimResultSet[T any](initialPager *CursorPager, resultSet []T) []T {
	if initialPager.lookahead && len(resultSet) > initialPager.limit {
		resultSet = resultSet[:initialPager.limit]
	}

	return resultSet
}

// NextPageCursor returns the rows to hand out and the cursor of the next
// page. The cursor is nil on the last page.
func NextPageCursor[T any](
	initialPager *CursorPager,
	resultSet []T,
	getters Getters[T],
) ([]T, *Cursor, error) {
	err := initialPager.validate()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot build next page cursor: %w", err)
	}

	if IsLastPage(initialPager, resultSet) {
		return resultSet, nil, nil
	}
	resultSet = TrimResultSet(initialPager, resultSet)
	last := lo.LastOrEmpty(resultSet)

	ret := Cursor{elements: nil}
	for _, orderBy := range initialPager.sort {
		getter, ok := getters[orderBy.Column]
		if !ok {
			return nil, nil, invalidArgumentf("cannot find getter for column '%s' met in ordering", orderBy.Column)
		}

		ret.elements = append(ret.elements, CursorElement{
			Column:   orderBy.Column,
			Value:    getter(last),
			Operator: orderBy.Direction.ForOperator(),
		})
	}

	return resultSet, &ret, nil
}

// CursorPage is a window of a keyset-paginated result. It carries no total.
type CursorPage[T any] struct {
	Content []T `json:"content"`
	// Next is the cursor of the following page, nil on the last page.
	Next *Cursor `json:"next,omitempty"`
	// HasMore is exact with lookahead. Without it, a full page is reported
	// as HasMore, which is a hint: the next page may be empty.
	HasMore bool `json:"hasMore"`
	Limit   int  `json:"limit"`
}

// SearchByCursor returns up to the pager limit rows matching pred that come
// strictly after the pager cursor in the pager ordering. An empty cursor
// starts from the beginning of the ordering.
//
// The cost depends on the limit only, never on how many pages were skipped.
// No count query is issued.
func SearchByCursor[T any](
	ctx context.Context,
	exec Executor[T],
	pred Predicate,
	pager *CursorPager,
	getters Getters[T],
	opts ...Option,
) (*CursorPage[T], error) {
	return searchByCursor(ctx, pred, pager, getters, opts, func(ctx context.Context, q Query) ([]T, error) {
		return exec.Execute(ctx, q)
	})
}

func searchByCursor[T any](
	ctx context.Context,
	pred Predicate,
	pager *CursorPager,
	getters Getters[T],
	opts []Option,
	fetch func(ctx context.Context, q Query) ([]T, error),
) (*CursorPage[T], error) {
	o := applyOptions(opts)

	if pager == nil {
		return nil, fmt.Errorf("cannot search by cursor: %w", invalidArgumentf("cursor pager is nil"))
	}
	if o.lookahead && !pager.IsLookahead() {
		pager = lo.ToPtr(*pager).WithLookahead()
	}

	pager, accepted := pager.clampLimit(o.maxSize)

	q, err := pager.Query(pred)
	if err != nil {
		return nil, fmt.Errorf("cannot search by cursor: %w", err)
	}

	log := o.logger.WithFields(logrus.Fields{
		"strategy":  "cursor",
		"limit":     pager.GetLimit(),
		"lookahead": pager.IsLookahead(),
		"first":     pager.GetCursor().IsEmpty(),
	})
	if !accepted {
		log.Debug("cursor limit clamped")
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := fetch(ctx, q)
	if err != nil {
		if !errors.Is(err, ErrExecution) && !errors.Is(err, ErrInvalidArgument) {
			err = executionError("content query", err)
		}
		return nil, err
	}

	content, next, err := NextPageCursor(pager, rows, getters)
	if err != nil {
		return nil, fmt.Errorf("cannot search by cursor: %w", err)
	}

	log.WithField("rows", len(content)).Debug("cursor page assembled")

	return &CursorPage[T]{
		Content: content,
		Next:    next,
		HasMore: next != nil,
		Limit:   pager.GetLimit(),
	}, nil
}
