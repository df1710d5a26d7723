package member

import (
	"context"
	"fmt"
	"slices"

	"github.com/Alp4ka/gosearch"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// DefaultOrder is the order of Search when the caller gives none. The member
// id makes it a total order.
var DefaultOrder = gosearch.Orderings{
	gosearch.Asc(columnMemberUsername),
	gosearch.Asc(columnMemberID),
}

var memberDTOGetters = gosearch.Getters[MemberDTO]{
	columnMemberID: func(last MemberDTO) any { return last.ID },
}

func fromMembers(db *gorm.DB) *gorm.DB {
	return db.Table("members")
}

func fromMembersWithTeams(db *gorm.DB) *gorm.DB {
	return db.Table("members").Joins("LEFT JOIN teams ON teams.id = members.team_id")
}

func selectMemberTeam(db *gorm.DB) *gorm.DB {
	return db.Select(
		"members.id AS member_id, members.username, members.age, teams.id AS team_id, teams.name AS team_name",
	)
}

func selectMember(db *gorm.DB) *gorm.DB {
	return db.Select("members.id, members.username, members.age")
}

func selectMemberID(db *gorm.DB) *gorm.DB {
	return db.Select(columnMemberID)
}

// fromFor joins teams only when the condition filters by a team column.
func fromFor(cond SearchCondition) gosearch.Scope {
	return lo.Ternary(cond.needsTeamJoin(), fromMembersWithTeams, fromMembers)
}

func memberTeamExecutor(db *gorm.DB, cond SearchCondition) *gosearch.GORMExecutor[MemberTeamDTO] {
	return gosearch.NewGORMExecutor[MemberTeamDTO](db, fromMembersWithTeams).
		WithSelect(selectMemberTeam).
		WithCountFrom(fromFor(cond))
}

func memberExecutor(db *gorm.DB, cond SearchCondition) *gosearch.GORMExecutor[MemberDTO] {
	return gosearch.NewGORMExecutor[MemberDTO](db, fromFor(cond)).WithSelect(selectMember)
}

func memberIDExecutor(db *gorm.DB, cond SearchCondition) *gosearch.GORMExecutor[uint] {
	return gosearch.NewGORMExecutor[uint](db, fromFor(cond)).WithSelect(selectMemberID)
}

// withIDTiebreaker appends the member id to orderings that lack it.
func withIDTiebreaker(orderings gosearch.Orderings) gosearch.Orderings {
	if len(orderings) == 0 {
		return DefaultOrder
	}

	if lo.Contains(orderings.Columns(), columnMemberID) {
		return orderings
	}

	return append(slices.Clone(orderings), gosearch.Asc(columnMemberID))
}

// Search returns one page of members with their teams. Empty orderings fall
// back to DefaultOrder. The count query joins teams only when cond filters
// by team.
func Search(
	ctx context.Context,
	db *gorm.DB,
	cond SearchCondition,
	req gosearch.PageRequest,
	orderings gosearch.Orderings,
	opts ...gosearch.Option,
) (*gosearch.Page[MemberTeamDTO], error) {
	pred, err := cond.Predicate()
	if err != nil {
		return nil, fmt.Errorf("cannot search members: %w", err)
	}

	return gosearch.Search(ctx, memberTeamExecutor(db, cond), pred, withIDTiebreaker(orderings), req, opts...)
}

// cursorPager builds the keyset window "members.id <op> lastID ORDER BY
// members.id <direction>". A nil lastID reads the first page.
func cursorPager(lastID *uint, limit int, direction gosearch.Direction) (*gosearch.CursorPager, error) {
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: invalid direction '%s'", gosearch.ErrInvalidArgument, direction)
	}

	return gosearch.NewCursorPager().
		WithLimit(limit).
		WithSubstitutedSort(gosearch.OrderBy{Column: columnMemberID, Direction: direction}).
		WithCursor(gosearch.AfterKey(columnMemberID, lastID, direction)), nil
}

// SearchByCursor returns up to limit members after lastID in the given
// direction. Descending order with the id of the last seen member gives the
// classic "newest first" feed.
func SearchByCursor(
	ctx context.Context,
	db *gorm.DB,
	cond SearchCondition,
	lastID *uint,
	limit int,
	direction gosearch.Direction,
	opts ...gosearch.Option,
) (*gosearch.CursorPage[MemberDTO], error) {
	pred, err := cond.Predicate()
	if err != nil {
		return nil, fmt.Errorf("cannot search members by cursor: %w", err)
	}

	pager, err := cursorPager(lastID, limit, direction)
	if err != nil {
		return nil, fmt.Errorf("cannot search members by cursor: %w", err)
	}

	return gosearch.SearchByCursor(ctx, memberExecutor(db, cond), pred, pager, memberDTOGetters, opts...)
}

// SearchCovering is SearchByCursor resolving the window on member ids first.
func SearchCovering(
	ctx context.Context,
	db *gorm.DB,
	cond SearchCondition,
	lastID *uint,
	limit int,
	direction gosearch.Direction,
	opts ...gosearch.Option,
) (*gosearch.CursorPage[MemberDTO], error) {
	pred, err := cond.Predicate()
	if err != nil {
		return nil, fmt.Errorf("cannot search members by cursor: %w", err)
	}

	pager, err := cursorPager(lastID, limit, direction)
	if err != nil {
		return nil, fmt.Errorf("cannot search members by cursor: %w", err)
	}

	return gosearch.SearchByCursorCovering(
		ctx,
		memberIDExecutor(db, cond),
		gosearch.NewGORMExecutor[MemberDTO](db, fromMembers).WithSelect(selectMember),
		columnMemberID,
		pred, pager, memberDTOGetters, opts...,
	)
}

// ListCovering reads an offset window, newest members first, in two phases:
// ids by offset, then rows by id.
func ListCovering(
	ctx context.Context,
	db *gorm.DB,
	cond SearchCondition,
	offset int,
	limit int,
) ([]MemberDTO, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative, got %d", gosearch.ErrInvalidArgument, offset)
	}

	limit, err := gosearch.NormalizeLimit(limit)
	if err != nil {
		return nil, fmt.Errorf("cannot list members: %w", err)
	}

	pred, err := cond.Predicate()
	if err != nil {
		return nil, fmt.Errorf("cannot list members: %w", err)
	}

	return gosearch.FetchCovering(
		ctx,
		memberIDExecutor(db, cond),
		gosearch.NewGORMExecutor[MemberDTO](db, fromMembers).WithSelect(selectMember),
		columnMemberID,
		gosearch.Query{
			Predicate: pred,
			Orderings: gosearch.Orderings{gosearch.Desc(columnMemberID)},
			Offset:    offset,
			Limit:     limit,
		},
	)
}
