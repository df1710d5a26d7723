package gosearch

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_CursorPager_WithMethods_And_SortDedup(t *testing.T) {
	p := (*CursorPager)(nil)
	p = p.WithLimit(5).
		WithLookahead().
		WithSubstitutedSort(
			OrderBy{Column: "id", Direction: DirectionASC},
		).
		WithSort(
			OrderBy{Column: "id", Direction: DirectionDESC},
			OrderBy{Column: "created_at", Direction: DirectionASC},
		)

	require.True(t, p.lookahead)
	require.Equal(t, 5, p.GetLimit())
	require.Equal(t, 6, p.GetDatasetLimit())
	require.Equal(
		t,
		Orderings(
			[]OrderBy{
				{Column: "id", Direction: DirectionDESC},
				{Column: "created_at", Direction: DirectionASC},
			},
		),
		p.sort,
	)
}

func Test_CursorPager_validate(t *testing.T) {
	tests := []struct {
		name    string
		pager   *CursorPager
		wantErr bool
	}{
		{
			name: "standard case, ok",
			pager: &CursorPager{
				lookahead: true,
				limit:     10,
				cursor:    NewCursor(CursorElement{Column: "id", Value: 1, Operator: OperatorGT}),
				sort:      Orderings{Asc("id")},
			},
			wantErr: false,
		},
		{
			name: "first page without cursor, ok",
			pager: &CursorPager{
				limit: 10,
				sort:  Orderings{Desc("id")},
			},
			wantErr: false,
		},
		{
			name: "zero limit is forbidden",
			pager: &CursorPager{
				limit: 0,
				sort:  Orderings{Asc("id")},
			},
			wantErr: true,
		},
		{
			name: "negative limit is forbidden",
			pager: &CursorPager{
				lookahead: true,
				limit:     NoLimit,
				cursor:    NewCursor(CursorElement{Column: "id", Value: 1, Operator: OperatorGT}),
				sort:      Orderings{Asc("id")},
			},
			wantErr: true,
		},
		{
			name: "sort list should contain the same elements as cursor",
			pager: &CursorPager{
				lookahead: true,
				limit:     10,
				cursor:    NewCursor(CursorElement{Column: "id", Value: 1, Operator: OperatorGT}),
				sort:      Orderings{Asc("name")},
			},
			wantErr: true,
		},
		{
			name: "sort list should contain all elements from cursor",
			pager: &CursorPager{
				lookahead: true,
				limit:     10,
				cursor: NewCursor(
					CursorElement{Column: "id", Value: 1, Operator: OperatorGT},
					CursorElement{Column: "surname", Value: "lol", Operator: OperatorGT},
				),
				sort: Orderings{Asc("id"), Asc("name")},
			},
			wantErr: true,
		},
		{
			name: "unsuitable sort direction for operator",
			pager: &CursorPager{
				lookahead: true,
				limit:     10,
				cursor:    NewCursor(CursorElement{Column: "id", Value: 1, Operator: OperatorLT}),
				sort:      Orderings{Asc("id")},
			},
			wantErr: true,
		},
		{
			name: "non-strict cursor operator",
			pager: &CursorPager{
				limit:  10,
				cursor: NewCursor(CursorElement{Column: "id", Value: 1, Operator: OperatorGTE}),
				sort:   Orderings{Asc("id")},
			},
			wantErr: true,
		},
		{
			name:    "nil pager is invalid",
			pager:   (*CursorPager)(nil),
			wantErr: true,
		},
		{
			name: "pager with no sort is invalid",
			pager: &CursorPager{
				lookahead: true,
				limit:     10,
				cursor:    NewCursor(CursorElement{Column: "id", Value: 1, Operator: OperatorLT}),
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotErr := tt.pager.validate()
			if tt.wantErr {
				require.ErrorIs(t, gotErr, ErrInvalidArgument)
			} else {
				require.NoError(t, gotErr)
			}
		})
	}
}

func Test_CursorPager_Paginate(t *testing.T) {
	sqlMockFnList := []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
		newGORMMySQLMock,
		newGORMPostgresMock,
	}

	type tUser struct {
		ID   uint
		Name string
	}

	tests := []struct {
		name          string
		limit         int
		cursor        *Cursor
		orderings     Orderings
		lookahead     bool
		expectedQuery string
		expectedArgs  []driver.Value
		expectedRows  *sqlmock.Rows
	}{
		{
			name:          "basic pagination with cursor",
			limit:         3,
			cursor:        NewCursor(CursorElement{Column: "id", Value: 5, Operator: OperatorGT}),
			orderings:     Orderings{Asc("id")},
			lookahead:     false,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND id > (?:\\$\\d|\\?) ORDER BY id ASC LIMIT 3$",
			expectedArgs:  []driver.Value{5},
			expectedRows:  sqlmock.NewRows([]string{"id", "name"}).AddRow(6, "John Doe"),
		},
		{
			name:          "pagination with lookahead",
			limit:         3,
			cursor:        NewCursor(CursorElement{Column: "id", Value: 5, Operator: OperatorGT}),
			orderings:     Orderings{Asc("id")},
			lookahead:     true,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND id > (?:\\$\\d|\\?) ORDER BY id ASC LIMIT 4$",
			expectedArgs:  []driver.Value{5},
			expectedRows:  sqlmock.NewRows([]string{"id", "name"}).AddRow(6, "John Doe"),
		},
		{
			name:  "pagination with multiple cursor elements",
			limit: 5,
			cursor: NewCursor(
				CursorElement{Column: "id", Value: 10, Operator: OperatorGT},
				CursorElement{Column: "created_at", Value: "2023-01-01", Operator: OperatorGT},
			),
			orderings:     Orderings{Asc("id"), Asc("created_at")},
			lookahead:     false,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND \\(id > (?:\\$\\d|\\?) OR \\(id = (?:\\$\\d|\\?) AND created_at > (?:\\$\\d|\\?)\\)\\) ORDER BY id ASC, created_at ASC LIMIT 5$",
			expectedArgs:  []driver.Value{10, 10, "2023-01-01"},
			expectedRows:  sqlmock.NewRows([]string{"id", "name"}).AddRow(11, "Jane Doe"),
		},
		{
			name:          "pagination with nil cursor",
			limit:         10,
			cursor:        nil,
			orderings:     Orderings{Asc("id")},
			lookahead:     false,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] ORDER BY id ASC LIMIT 10$",
			expectedArgs:  nil,
			expectedRows:  sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "John Doe"),
		},
		{
			name:          "pagination with empty cursor",
			limit:         10,
			cursor:        NewCursor(),
			orderings:     Orderings{Asc("id")},
			lookahead:     false,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] ORDER BY id ASC LIMIT 10$",
			expectedArgs:  nil,
			expectedRows:  sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "John Doe"),
		},
		{
			name:          "pagination with DESC ordering",
			limit:         3,
			cursor:        NewCursor(CursorElement{Column: "id", Value: 5, Operator: OperatorLT}),
			orderings:     Orderings{Desc("id")},
			lookahead:     false,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND id < (?:\\$\\d|\\?) ORDER BY id DESC LIMIT 3$",
			expectedArgs:  []driver.Value{5},
			expectedRows:  sqlmock.NewRows([]string{"id", "name"}).AddRow(4, "Jane Doe"),
		},
	}

	for _, sqlMockFn := range sqlMockFnList {
		for _, tt := range tests {
			dialect, db, dbMock, err := sqlMockFn()
			t.Run(fmt.Sprintf("%s %s", dialect, tt.name), func(t *testing.T) {
				if err != nil {
					t.Fatalf("gorm open: %v", err)
				}

				expectation := dbMock.ExpectQuery(tt.expectedQuery)
				if len(tt.expectedArgs) > 0 {
					expectation = expectation.WithArgs(tt.expectedArgs...)
				}
				expectation.WillReturnRows(tt.expectedRows)

				p := NewCursorPager().
					WithLimit(tt.limit).
					WithCursor(tt.cursor).
					WithSubstitutedSort(tt.orderings...)

				if tt.lookahead {
					p = p.WithLookahead()
				}

				paged, err := p.Paginate(db.Select("*").Table("users").Where("name = 'lol'"))
				if err != nil {
					t.Fatalf("paginate: %v", err)
				}

				err = paged.Find(&[]tUser{}).Error
				if err != nil {
					t.Fatalf("find: %v", err)
				}

				assert.NoError(t, dbMock.ExpectationsWereMet())
			})
		}
	}
}

func Test_CursorPager_Paginate_Invalid(t *testing.T) {
	_, db, _, err := newGORMPostgresMock()
	require.NoError(t, err)

	_, err = NewCursorPager().WithSubstitutedSort(Asc("id")).Paginate(db)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

type tRow struct {
	ID   int
	Name string
}

var tRowGetters = Getters[tRow]{
	"id":   func(last tRow) any { return last.ID },
	"name": func(last tRow) any { return last.Name },
}

func tRows(ids ...int) []tRow {
	ret := make([]tRow, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, tRow{ID: id, Name: fmt.Sprintf("row%d", id)})
	}

	return ret
}

func Test_NextPageCursor(t *testing.T) {
	tests := []struct {
		name        string
		pager       *CursorPager
		resultSet   []tRow
		wantContent []tRow
		wantCursor  *Cursor
	}{
		{
			name:        "short page is the last one",
			pager:       NewCursorPager().WithLimit(3).WithSubstitutedSort(Asc("id")),
			resultSet:   tRows(1, 2),
			wantContent: tRows(1, 2),
			wantCursor:  nil,
		},
		{
			name:        "full page without lookahead continues",
			pager:       NewCursorPager().WithLimit(2).WithSubstitutedSort(Asc("id")),
			resultSet:   tRows(1, 2),
			wantContent: tRows(1, 2),
			wantCursor:  NewCursor(CursorElement{Column: "id", Value: 2, Operator: OperatorGT}),
		},
		{
			name:        "full page with lookahead is the last one",
			pager:       NewCursorPager().WithLimit(2).WithLookahead().WithSubstitutedSort(Asc("id")),
			resultSet:   tRows(1, 2),
			wantContent: tRows(1, 2),
			wantCursor:  nil,
		},
		{
			name:        "lookahead row is trimmed",
			pager:       NewCursorPager().WithLimit(2).WithLookahead().WithSubstitutedSort(Desc("id")),
			resultSet:   tRows(9, 8, 7),
			wantContent: tRows(9, 8),
			wantCursor:  NewCursor(CursorElement{Column: "id", Value: 8, Operator: OperatorLT}),
		},
		{
			name:        "multi column cursor",
			pager:       NewCursorPager().WithLimit(1).WithSubstitutedSort(Asc("name"), Asc("id")),
			resultSet:   tRows(4),
			wantContent: tRows(4),
			wantCursor: NewCursor(
				CursorElement{Column: "name", Value: "row4", Operator: OperatorGT},
				CursorElement{Column: "id", Value: 4, Operator: OperatorGT},
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, cursor, err := NextPageCursor(tt.pager, tt.resultSet, tRowGetters)
			require.NoError(t, err)
			require.Equal(t, tt.wantContent, content)
			require.Equal(t, tt.wantCursor, cursor)
		})
	}
}

func Test_NextPageCursor_MissingGetter(t *testing.T) {
	pager := NewCursorPager().WithLimit(1).WithSubstitutedSort(Asc("created_at"))

	_, _, err := NextPageCursor(pager, tRows(1), tRowGetters)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// sliceExecutor serves rows sorted by id ascending, honoring "id > ?" and
// "id < ?" boundaries. It records every query.
type sliceExecutor struct {
	rows    []tRow
	queries []Query
	err     error
}

func (e *sliceExecutor) Execute(_ context.Context, q Query) ([]tRow, error) {
	e.queries = append(e.queries, q)
	if e.err != nil {
		return nil, e.err
	}

	var (
		bound     *int
		direction = DirectionASC
	)
	if len(q.Orderings) > 0 {
		direction = q.Orderings[0].Direction
	}
	for _, b := range q.Predicate.boundaries {
		// Decoded tokens carry JSON numbers.
		switch v := b[0][0].Value.(type) {
		case int:
			bound = &v
		case float64:
			n := int(v)
			bound = &n
		}
	}

	ret := make([]tRow, 0)
	for i := range e.rows {
		row := e.rows[i]
		if direction == DirectionDESC {
			row = e.rows[len(e.rows)-1-i]
		}

		if bound != nil && (direction == DirectionASC && row.ID <= *bound || direction == DirectionDESC && row.ID >= *bound) {
			continue
		}

		ret = append(ret, row)
		if q.Limit > 0 && len(ret) == q.Limit {
			break
		}
	}

	return ret, nil
}

func (e *sliceExecutor) Count(context.Context, Predicate) (int64, error) {
	return int64(len(e.rows)), nil
}

func Test_SearchByCursor_VisitsEveryRow(t *testing.T) {
	for _, lookahead := range []bool{false, true} {
		for _, direction := range []Direction{DirectionASC, DirectionDESC} {
			t.Run(fmt.Sprintf("lookahead=%v %s", lookahead, direction), func(t *testing.T) {
				exec := &sliceExecutor{rows: tRows(1, 2, 3, 4, 5, 6, 7)}

				var (
					cursor *Cursor
					seen   []int
				)
				for i := 0; i < 10; i++ {
					pager := NewCursorPager().WithLimit(3).WithSubstitutedSort(OrderBy{"id", direction}).WithCursor(cursor)
					if lookahead {
						pager = pager.WithLookahead()
					}

					page, err := SearchByCursor(context.Background(), exec, MatchAll(), pager, tRowGetters)
					require.NoError(t, err)
					require.LessOrEqual(t, len(page.Content), 3)

					for _, row := range page.Content {
						seen = append(seen, row.ID)
					}
					if page.Next == nil {
						require.False(t, page.HasMore)
						break
					}
					require.True(t, page.HasMore)

					cursor, err = DecodeCursor(page.Next.String())
					require.NoError(t, err)
				}

				require.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7}, seen)
				require.Len(t, seen, 7)
			})
		}
	}
}

func Test_SearchByCursor(t *testing.T) {
	t.Run("classic descending window", func(t *testing.T) {
		ids := make([]int, 0, 100)
		for i := 1; i <= 100; i++ {
			ids = append(ids, i)
		}
		exec := &sliceExecutor{rows: tRows(ids...)}
		lastID := 90

		page, err := SearchByCursor(
			context.Background(),
			exec,
			MatchAll(),
			NewCursorPager().WithLimit(50).WithSubstitutedSort(Desc("id")).WithCursor(AfterKey("id", &lastID, DirectionDESC)),
			tRowGetters,
		)
		require.NoError(t, err)
		require.Len(t, page.Content, 50)
		require.Equal(t, 89, page.Content[0].ID)
		require.Equal(t, 40, page.Content[49].ID)
		require.Equal(t, 50, page.Limit)
	})

	t.Run("lookahead option", func(t *testing.T) {
		exec := &sliceExecutor{rows: tRows(1, 2, 3)}
		pager := NewCursorPager().WithLimit(3).WithSubstitutedSort(Asc("id"))

		page, err := SearchByCursor(context.Background(), exec, MatchAll(), pager, tRowGetters, WithCursorLookahead())
		require.NoError(t, err)
		require.False(t, page.HasMore)
		require.Nil(t, page.Next)
		require.Equal(t, 4, exec.queries[0].Limit)
		require.False(t, pager.IsLookahead(), "caller pager must not be modified")
	})

	t.Run("limit is clamped", func(t *testing.T) {
		exec := &sliceExecutor{rows: tRows(1, 2, 3)}
		pager := NewCursorPager().WithLimit(500).WithSubstitutedSort(Asc("id"))

		page, err := SearchByCursor(context.Background(), exec, MatchAll(), pager, tRowGetters, WithMaxSize(2))
		require.NoError(t, err)
		require.Equal(t, 2, page.Limit)
		require.Len(t, page.Content, 2)
		require.NotNil(t, page.Next)
	})

	t.Run("filter and boundary are combined", func(t *testing.T) {
		exec := &sliceExecutor{rows: tRows(1, 2, 3)}
		pred, err := Compose(EqString("name", "row3"))
		require.NoError(t, err)
		last := 1

		_, err = SearchByCursor(
			context.Background(), exec, pred,
			NewCursorPager().WithLimit(2).WithSubstitutedSort(Asc("id")).WithCursor(AfterKey("id", &last, DirectionASC)),
			tRowGetters,
		)
		require.NoError(t, err)

		sql, args := exec.queries[0].Predicate.ToSQL()
		require.Equal(t, "(name = ?) AND ((id > ?))", sql)
		require.Equal(t, []driver.Value{"row3", 1}, args)
	})

	t.Run("invalid limit is rejected before querying", func(t *testing.T) {
		exec := &sliceExecutor{rows: tRows(1)}

		_, err := SearchByCursor(context.Background(), exec, MatchAll(), NewCursorPager().WithSubstitutedSort(Asc("id")), tRowGetters)
		require.ErrorIs(t, err, ErrInvalidArgument)
		require.Empty(t, exec.queries)
	})

	t.Run("nil pager", func(t *testing.T) {
		_, err := SearchByCursor(context.Background(), &sliceExecutor{}, MatchAll(), nil, tRowGetters)
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("executor failure", func(t *testing.T) {
		boom := errors.New("boom")
		exec := &sliceExecutor{err: boom}

		_, err := SearchByCursor(context.Background(), exec, MatchAll(), NewCursorPager().WithLimit(1).WithSubstitutedSort(Asc("id")), tRowGetters)
		require.ErrorIs(t, err, ErrExecution)
		require.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		exec := &sliceExecutor{rows: tRows(1)}

		_, err := SearchByCursor(ctx, exec, MatchAll(), NewCursorPager().WithLimit(1).WithSubstitutedSort(Asc("id")), tRowGetters)
		require.ErrorIs(t, err, context.Canceled)
		require.Empty(t, exec.queries)
	})
}

func Test_RawCursorPager_Decode(t *testing.T) {
	token := NewCursor(CursorElement{Column: "id", Value: 7, Operator: OperatorLT}).String()

	pager, err := RawCursorPager{Limit: 5, StartToken: token}.Decode(Desc("id"))
	require.NoError(t, err)
	require.Equal(t, 5, pager.GetLimit())
	require.Equal(t, Orderings{Desc("id")}, pager.GetSort())
	require.Equal(t, []CursorElement{{Column: "id", Value: float64(7), Operator: OperatorLT}}, pager.GetCursor().GetElements())

	_, err = RawCursorPager{Limit: 5, StartToken: "!!!"}.Decode(Desc("id"))
	require.ErrorIs(t, err, ErrInvalidArgument)
}
