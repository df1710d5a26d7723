package gosearch

import (
	"context"

	"gorm.io/gorm"
)

// Scope modifies a gorm query, the same shape as the argument of (*gorm.DB).Scopes.
type Scope = func(*gorm.DB) *gorm.DB

// GORMExecutor implements Executor on top of *gorm.DB.
//
// The projection is split in two scopes:
//   - from: table and joins, shared by content and count queries;
//   - selectFn: projected columns, applied to content queries only, so the
//     count query stays a plain COUNT(*).
//
// Example:
//
//	exec := gosearch.NewGORMExecutor[MemberTeamDTO](db,
//		func(db *gorm.DB) *gorm.DB {
//			return db.Table("members").Joins("LEFT JOIN teams ON teams.id = members.team_id")
//		},
//	).WithSelect(func(db *gorm.DB) *gorm.DB {
//		return db.Select("members.id AS member_id, members.username, teams.name AS team_name")
//	})
type GORMExecutor[T any] struct {
	db        *gorm.DB
	from      Scope
	selectFn  Scope
	countFrom Scope
}

func NewGORMExecutor[T any](db *gorm.DB, from Scope) *GORMExecutor[T] {
	return &GORMExecutor[T]{
		db:   db,
		from: from,
	}
}

// WithSelect sets the projected columns of content queries.
func (e *GORMExecutor[T]) WithSelect(selectFn Scope) *GORMExecutor[T] {
	e.selectFn = selectFn
	return e
}

// WithCountFrom replaces the from scope for count queries. Use it when the
// count can skip joins that only feed the projection.
func (e *GORMExecutor[T]) WithCountFrom(countFrom Scope) *GORMExecutor[T] {
	e.countFrom = countFrom
	return e
}

func (e *GORMExecutor[T]) session(ctx context.Context) *gorm.DB {
	return e.db.WithContext(ctx)
}

// Build returns the content query without executing it.
func (e *GORMExecutor[T]) Build(ctx context.Context, q Query) *gorm.DB {
	tx := e.session(ctx)
	if e.from != nil {
		tx = e.from(tx)
	}
	if e.selectFn != nil {
		tx = e.selectFn(tx)
	}

	tx = q.Predicate.Apply(tx)
	tx = q.Orderings.Apply(tx)

	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit != NoLimit && q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	return tx
}

func (e *GORMExecutor[T]) Execute(ctx context.Context, q Query) ([]T, error) {
	rows := make([]T, 0, max(q.Limit, 0))
	if err := e.Build(ctx, q).Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (e *GORMExecutor[T]) Count(ctx context.Context, p Predicate) (int64, error) {
	tx := e.session(ctx)
	switch {
	case e.countFrom != nil:
		tx = e.countFrom(tx)
	case e.from != nil:
		tx = e.from(tx)
	}

	var total int64
	if err := p.Apply(tx).Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

var _ Executor[struct{}] = (*GORMExecutor[struct{}])(nil)
