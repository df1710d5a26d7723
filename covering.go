package gosearch

import (
	"context"
	"fmt"
)

// FetchCovering reads a window in two phases:
//
//  1. keys executes q with a key-only projection. On a table with an index
//     covering the filter and ordering columns this is a narrow index scan.
//  2. rows fetches the full projection for exactly those keys
//     ("keyColumn IN (...)"), in the same ordering.
//
// It trades one extra round trip for not dragging wide rows through the
// windowing phase. Whether that pays off depends on row width and index
// coverage, which only the caller can judge. An empty first phase returns
// without a second query.
//
// The window may be an offset one (q.Offset) or a keyset one (a boundary in
// q.Predicate, see CursorPager.Query).
func FetchCovering[K comparable, T any](
	ctx context.Context,
	keys Executor[K],
	rows Executor[T],
	keyColumn string,
	q Query,
) ([]T, error) {
	if err := validateColumnName(keyColumn); err != nil {
		return nil, fmt.Errorf("cannot fetch covering window: %w", err)
	}

	if q.Limit <= 0 && q.Limit != NoLimit {
		return nil, fmt.Errorf("cannot fetch covering window: %w", invalidArgumentf("limit must be positive or NoLimit, got %d", q.Limit))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, err := keys.Execute(ctx, q)
	if err != nil {
		return nil, executionError("key query", err)
	}

	if len(ids) == 0 {
		return []T{}, nil
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	byKeys, err := Compose(In(keyColumn, ids))
	if err != nil {
		return nil, fmt.Errorf("cannot fetch covering window: %w", err)
	}

	ret, err := rows.Execute(ctx, Query{
		Predicate: byKeys,
		Orderings: q.Orderings,
		Limit:     NoLimit,
	})
	if err != nil {
		return nil, executionError("row query", err)
	}

	return ret, nil
}

// SearchByCursorCovering is SearchByCursor with the covering-index strategy:
// the keyset window is resolved on keys, the rows are fetched by key set.
func SearchByCursorCovering[K comparable, T any](
	ctx context.Context,
	keys Executor[K],
	rows Executor[T],
	keyColumn string,
	pred Predicate,
	pager *CursorPager,
	getters Getters[T],
	opts ...Option,
) (*CursorPage[T], error) {
	return searchByCursor(ctx, pred, pager, getters, opts, func(ctx context.Context, q Query) ([]T, error) {
		return FetchCovering(ctx, keys, rows, keyColumn, q)
	})
}
