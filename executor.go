package gosearch

import "context"

// Query describes one window over the filtered, ordered dataset.
type Query struct {
	Predicate Predicate
	Orderings Orderings
	// Offset is the number of rows to skip. Keyset queries leave it zero and
	// carry their boundary in Predicate.
	Offset int
	// Limit is the maximum number of rows to return. NoLimit means unbounded.
	// GORMExecutor applies no LIMIT for zero either; engines reject it first.
	Limit int
}

// Executor is the storage boundary of the package. It owns the projection
// shape: which table, which joins, which columns end up in T.
//
// Count is separate from Execute so that pagers can defer or skip it.
type Executor[T any] interface {
	// Execute returns the rows of the window described by q.
	Execute(ctx context.Context, q Query) ([]T, error)
	// Count returns the number of rows matching p, ignoring any window.
	Count(ctx context.Context, p Predicate) (int64, error)
}

// CountFunc computes the total of a page on demand.
type CountFunc func(ctx context.Context) (int64, error)

// ExecutorFuncs adapts two plain functions to Executor.
type ExecutorFuncs[T any] struct {
	ExecuteFunc func(ctx context.Context, q Query) ([]T, error)
	CountFunc   func(ctx context.Context, p Predicate) (int64, error)
}

func (e ExecutorFuncs[T]) Execute(ctx context.Context, q Query) ([]T, error) {
	return e.ExecuteFunc(ctx, q)
}

// Count fails with ErrInvalidArgument when no count function was provided.
func (e ExecutorFuncs[T]) Count(ctx context.Context, p Predicate) (int64, error) {
	if e.CountFunc == nil {
		return 0, invalidArgumentf("executor does not support counting")
	}

	return e.CountFunc(ctx, p)
}

var _ Executor[struct{}] = ExecutorFuncs[struct{}]{}
