package main

import (
	"github.com/Alp4ka/gosearch/member"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type conditionFlags struct {
	username string
	teamName string
	contains string
	ageGoe   int
	ageLoe   int
	teamIDs  []uint
}

func (f *conditionFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.username, "username", "", "exact username")
	fs.StringVar(&f.teamName, "team", "", "exact team name")
	fs.StringVar(&f.contains, "contains", "", "username substring")
	fs.IntVar(&f.ageGoe, "age-goe", 0, "minimum age, inclusive")
	fs.IntVar(&f.ageLoe, "age-loe", 0, "maximum age, inclusive")
	fs.UintSliceVar(&f.teamIDs, "team-id", nil, "team id; repeatable")
}

// condition leaves the age bounds nil unless their flags were given, so that
// zero stays a valid bound.
func (f *conditionFlags) condition(cmd *cobra.Command) member.SearchCondition {
	cond := member.SearchCondition{
		Username:         f.username,
		TeamName:         f.teamName,
		UsernameContains: f.contains,
		TeamIDs:          f.teamIDs,
	}

	if cmd.Flags().Changed("age-goe") {
		cond.AgeGoe = lo.ToPtr(f.ageGoe)
	}
	if cmd.Flags().Changed("age-loe") {
		cond.AgeLoe = lo.ToPtr(f.ageLoe)
	}

	return cond
}
