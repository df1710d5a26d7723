package member

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alp4ka/gosearch"
	"gorm.io/gorm"
)

// Exist reports whether a member with the id exists. It reads at most one
// row instead of counting.
func Exist(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var found []int
	err := db.WithContext(ctx).
		Table("members").
		Select("1").
		Where("members.id = ?", id).
		Limit(1).
		Find(&found).Error
	if err != nil {
		return false, fmt.Errorf("%w: exist: %w", gosearch.ErrExecution, err)
	}

	return len(found) > 0, nil
}

// FindTeamMembers returns the members of a team ordered by id. Members
// without a team never match.
func FindTeamMembers(ctx context.Context, db *gorm.DB, teamID uint) ([]MemberTeamDTO, error) {
	pred, err := gosearch.Compose(gosearch.Eq(columnMemberTeamID, &teamID))
	if err != nil {
		return nil, fmt.Errorf("cannot find team members: %w", err)
	}

	exec := gosearch.NewGORMExecutor[MemberTeamDTO](db, func(db *gorm.DB) *gorm.DB {
		return db.Table("members").Joins("JOIN teams ON teams.id = members.team_id")
	}).WithSelect(selectMemberTeam)

	rows, err := exec.Execute(ctx, gosearch.Query{
		Predicate: pred,
		Orderings: gosearch.Orderings{gosearch.Asc(columnMemberID)},
		Limit:     gosearch.NoLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: find team members: %w", gosearch.ErrExecution, err)
	}

	return rows, nil
}

// TeamAgeSums sums member ages per team. On MySQL the implicit sort of
// GROUP BY is suppressed with ORDER BY NULL; other dialects order by team id.
func TeamAgeSums(ctx context.Context, db *gorm.DB) ([]TeamAgeSum, error) {
	tx := db.WithContext(ctx).
		Table("members").
		Select("teams.id AS team_id, teams.name AS team_name, SUM(members.age) AS age_sum").
		Joins("JOIN teams ON teams.id = members.team_id").
		Group("teams.id, teams.name")

	if db.Dialector.Name() == "mysql" {
		tx = tx.Order("NULL")
	} else {
		tx = tx.Order("teams.id")
	}

	var sums []TeamAgeSum
	if err := tx.Find(&sums).Error; err != nil {
		return nil, fmt.Errorf("%w: team age sums: %w", gosearch.ErrExecution, err)
	}

	return sums, nil
}

// BulkRename sets the username of every member matching cond and returns the
// number of updated rows. An empty cond updates all members.
func BulkRename(ctx context.Context, db *gorm.DB, cond SearchCondition, username string) (int64, error) {
	if strings.TrimSpace(username) == "" {
		return 0, fmt.Errorf("%w: username must not be blank", gosearch.ErrInvalidArgument)
	}

	return bulkUpdate(ctx, db, cond, "username", username)
}

// BulkAddAge adds delta to the age of every member matching cond.
func BulkAddAge(ctx context.Context, db *gorm.DB, cond SearchCondition, delta int) (int64, error) {
	return bulkUpdate(ctx, db, cond, "age", gorm.Expr("age + ?", delta))
}

// bulkUpdate runs a single UPDATE statement. The team name filter becomes a
// subquery since UPDATE ... JOIN is not portable.
func bulkUpdate(ctx context.Context, db *gorm.DB, cond SearchCondition, column string, value any) (int64, error) {
	teamName := strings.TrimSpace(cond.TeamName)
	cond.TeamName = ""

	pred, err := cond.Predicate()
	if err != nil {
		return 0, fmt.Errorf("cannot update members: %w", err)
	}

	tx := db.WithContext(ctx)
	if teamName == "" && pred.IsMatchAll() {
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	}

	tx = pred.Apply(tx.Model(&Member{}))
	if teamName != "" {
		tx = tx.Where("members.team_id IN (?)", db.Table("teams").Select("teams.id").Where("teams.name = ?", teamName))
	}

	res := tx.Update(column, value)
	if res.Error != nil {
		return 0, fmt.Errorf("%w: bulk update %s: %w", gosearch.ErrExecution, column, res.Error)
	}

	return res.RowsAffected, nil
}

// Seed creates teams "teamA" and "teamB" and n members "member1".."memberN"
// with ages 1..n. Odd members join teamA, even ones teamB.
func Seed(ctx context.Context, db *gorm.DB, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: member count must not be negative, got %d", gosearch.ErrInvalidArgument, n)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teams := []Team{{Name: "teamA"}, {Name: "teamB"}}
		if err := tx.Create(&teams).Error; err != nil {
			return fmt.Errorf("cannot create teams: %w", err)
		}

		if n == 0 {
			return nil
		}

		members := make([]Member, 0, n)
		for i := 1; i <= n; i++ {
			members = append(members, Member{
				Username: fmt.Sprintf("member%d", i),
				Age:      i,
				TeamID:   &teams[(i+1)%2].ID,
			})
		}

		if err := tx.CreateInBatches(&members, 100).Error; err != nil {
			return fmt.Errorf("cannot create members: %w", err)
		}

		return nil
	})
}
