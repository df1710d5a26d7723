package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Alp4ka/gosearch"
	"github.com/Alp4ka/gosearch/member"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the members and teams tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := member.Migrate(a.db.WithContext(cmd.Context())); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}

			a.log.Info("schema migrated")
			return nil
		},
	}
}

func newSeedCommand(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert teamA, teamB and the given number of members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := member.Seed(cmd.Context(), a.db, count); err != nil {
				return err
			}

			a.log.WithField("members", count).Info("seeded")
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "members", 100, "number of members to create")

	return cmd
}

func newSearchCommand(a *app) *cobra.Command {
	var (
		cf   conditionFlags
		page int
		size int
		sort []string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Print one page of members with their teams and the total count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orderings, err := gosearch.ParseSort(sort, member.SortColumns)
			if err != nil {
				return err
			}

			res, err := member.Search(
				cmd.Context(), a.db, cf.condition(cmd),
				gosearch.NewPageRequest(page, size), orderings,
				a.cfg.pagingOptions(a.log)...,
			)
			if err != nil {
				var partial *gosearch.PartialFailureError
				if !errors.As(err, &partial) {
					return err
				}

				a.log.WithError(partial.Err).Warn("total is unknown")
			}

			return printJSON(cmd, res)
		},
	}

	cf.register(cmd)
	cmd.Flags().IntVar(&page, "page", 0, "zero-based page number")
	cmd.Flags().IntVar(&size, "size", gosearch.DefaultLimit, "page size")
	cmd.Flags().StringSliceVar(&sort, "sort", nil,
		fmt.Sprintf(`"alias asc|desc"; aliases: %s`, strings.Join(lo.Keys(member.SortColumns), ", ")))

	return cmd
}

func newCursorCommand(a *app) *cobra.Command {
	var (
		cf        conditionFlags
		lastID    uint
		limit     int
		direction string
		covering  bool
		lookahead bool
	)

	cmd := &cobra.Command{
		Use:   "cursor",
		Short: "Print the members after --last-id in id order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var after *uint
			if cmd.Flags().Changed("last-id") {
				after = &lastID
			}

			opts := a.cfg.pagingOptions(a.log)
			if lookahead {
				opts = append(opts, gosearch.WithCursorLookahead())
			}

			search := lo.Ternary(covering, member.SearchCovering, member.SearchByCursor)
			res, err := search(
				cmd.Context(), a.db, cf.condition(cmd),
				after, limit, gosearch.Direction(strings.ToUpper(direction)),
				opts...,
			)
			if err != nil {
				return err
			}

			return printJSON(cmd, res)
		},
	}

	cf.register(cmd)
	cmd.Flags().UintVar(&lastID, "last-id", 0, "id of the last member already seen")
	cmd.Flags().IntVar(&limit, "limit", gosearch.DefaultLimit, "window size")
	cmd.Flags().StringVar(&direction, "direction", "desc", "asc or desc")
	cmd.Flags().BoolVar(&covering, "covering", false, "resolve ids first, then load rows by id")
	cmd.Flags().BoolVar(&lookahead, "lookahead", false, "fetch one extra row to detect the last window")

	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var (
		cf     conditionFlags
		offset int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print an offset window of members, newest first, loaded by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := member.ListCovering(cmd.Context(), a.db, cf.condition(cmd), offset, limit)
			if err != nil {
				return err
			}

			return printJSON(cmd, rows)
		},
	}

	cf.register(cmd)
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	cmd.Flags().IntVar(&limit, "limit", gosearch.DefaultLimit, "window size")

	return cmd
}

func newTeamsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "Print the sum of member ages per team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sums, err := member.TeamAgeSums(cmd.Context(), a.db)
			if err != nil {
				return err
			}

			return printJSON(cmd, sums)
		},
	}
}

type updateResult struct {
	Updated int64 `json:"updated"`
}

func newRenameCommand(a *app) *cobra.Command {
	var (
		cf conditionFlags
		to string
	)

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Set the username of every matching member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := member.BulkRename(cmd.Context(), a.db, cf.condition(cmd), to)
			if err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{"updated": n, "username": to}).Info("members renamed")
			return printJSON(cmd, updateResult{Updated: n})
		},
	}

	cf.register(cmd)
	cmd.Flags().StringVar(&to, "to", "", "new username")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newAddAgeCommand(a *app) *cobra.Command {
	var (
		cf    conditionFlags
		delta int
	)

	cmd := &cobra.Command{
		Use:   "add-age",
		Short: "Add --delta to the age of every matching member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := member.BulkAddAge(cmd.Context(), a.db, cf.condition(cmd), delta)
			if err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{"updated": n, "delta": delta}).Info("member ages updated")
			return printJSON(cmd, updateResult{Updated: n})
		},
	}

	cf.register(cmd)
	cmd.Flags().IntVar(&delta, "delta", 1, "years to add")

	return cmd
}
