package member

import (
	"fmt"
	"strings"

	"github.com/Alp4ka/gosearch"
)

const (
	columnMemberID       = "members.id"
	columnMemberUsername = "members.username"
	columnMemberAge      = "members.age"
	columnMemberTeamID   = "members.team_id"
	columnTeamName       = "teams.name"
)

// SortColumns maps the sort aliases accepted from clients to columns.
var SortColumns = gosearch.ColumnMapping{
	"id":       columnMemberID,
	"username": columnMemberUsername,
	"age":      columnMemberAge,
	"teamName": columnTeamName,
}

// SearchCondition holds the optional filters of a member search. A blank
// string, nil pointer or empty slice means "no constraint".
type SearchCondition struct {
	Username         string `json:"username,omitempty"`
	TeamName         string `json:"teamName,omitempty"`
	UsernameContains string `json:"usernameContains,omitempty"`
	AgeGoe           *int   `json:"ageGoe,omitempty"`
	AgeLoe           *int   `json:"ageLoe,omitempty"`
	TeamIDs          []uint `json:"teamIds,omitempty"`
}

// Validate rejects conflicting ranges. The bounds are never swapped.
func (c SearchCondition) Validate() error {
	if c.AgeGoe != nil && c.AgeLoe != nil && *c.AgeGoe > *c.AgeLoe {
		return fmt.Errorf("%w: ageGoe %d is greater than ageLoe %d", gosearch.ErrInvalidArgument, *c.AgeGoe, *c.AgeLoe)
	}

	return nil
}

func (c SearchCondition) Fragments() []gosearch.Fragment {
	return []gosearch.Fragment{
		gosearch.EqString(columnMemberUsername, c.Username),
		gosearch.EqString(columnTeamName, c.TeamName),
		gosearch.Contains(columnMemberUsername, c.UsernameContains),
		gosearch.Goe(columnMemberAge, c.AgeGoe),
		gosearch.Loe(columnMemberAge, c.AgeLoe),
		gosearch.In(columnMemberTeamID, c.TeamIDs),
	}
}

// Predicate validates the condition and composes its fragments.
func (c SearchCondition) Predicate() (gosearch.Predicate, error) {
	if err := c.Validate(); err != nil {
		return gosearch.Predicate{}, err
	}

	return gosearch.Compose(c.Fragments()...)
}

// needsTeamJoin reports whether the filter references the teams table.
func (c SearchCondition) needsTeamJoin() bool {
	return strings.TrimSpace(c.TeamName) != ""
}
