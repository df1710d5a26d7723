// Package member is the Member/Team domain built on gosearch: dynamic member
// search with offset, keyset and covering-index pagination, plus the bulk
// operations of the domain.
//
// Every operation takes the *gorm.DB to run on. Pass a transaction to get a
// consistent snapshot across the content and count queries of a page.
package member

import (
	"gorm.io/gorm"
)

type Team struct {
	ID      uint     `gorm:"primaryKey" json:"id"`
	Name    string   `gorm:"not null;index" json:"name"`
	Members []Member `json:"-"`
}

type Member struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"index" json:"username"`
	Age      int    `json:"age"`
	TeamID   *uint  `gorm:"index" json:"teamId,omitempty"`
	Team     *Team  `json:"-"`
}

// MemberTeamDTO is a member joined with its team. Team fields are nil for
// members without a team.
type MemberTeamDTO struct {
	MemberID uint    `json:"memberId"`
	Username string  `json:"username"`
	Age      int     `json:"age"`
	TeamID   *uint   `json:"teamId,omitempty"`
	TeamName *string `json:"teamName,omitempty"`
}

type MemberDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Age      int    `json:"age"`
}

type TeamAgeSum struct {
	TeamID   uint   `json:"teamId"`
	TeamName string `json:"teamName"`
	AgeSum   int64  `json:"ageSum"`
}

// Migrate creates or updates the tables of the domain.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Team{}, &Member{})
}
