package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noah-isme/cohort-admin-api/internal/dto"
	"github.com/noah-isme/cohort-admin-api/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cohorts with member and course counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := state.services.Cohorts.List(cmd.Context(), operator(), dto.ListCohortsRequest{
			Page:     pageFlag,
			PageSize: limitFlag,
			Search:   searchFlag,
			Empty:    emptyFlag,
		})
		if err != nil {
			return err
		}
		if jsonFlag {
			return writeJSON(cmd.OutOrStdout(), list)
		}
		return writeCohorts(cmd.OutOrStdout(), list)
	},
}

var membersCmd = &cobra.Command{
	Use:   "members <cohort-id>",
	Short: "List the members of a cohort",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseCohortID(args[0])
		if err != nil {
			return err
		}
		list, err := state.services.Cohorts.Members(cmd.Context(), operator(), id, dto.PageRequest{Page: pageFlag, PageSize: limitFlag})
		if err != nil {
			return err
		}
		if jsonFlag {
			return writeJSON(cmd.OutOrStdout(), list)
		}
		return writeMembers(cmd.OutOrStdout(), list)
	},
}

var coursesCmd = &cobra.Command{
	Use:   "courses <cohort-id>",
	Short: "List the courses a cohort is enrolled into",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseCohortID(args[0])
		if err != nil {
			return err
		}
		list, err := state.services.Cohorts.Courses(cmd.Context(), operator(), id, dto.PageRequest{Page: pageFlag, PageSize: limitFlag})
		if err != nil {
			return err
		}
		if jsonFlag {
			return writeJSON(cmd.OutOrStdout(), list)
		}
		return writeCourses(cmd.OutOrStdout(), list)
	},
}

var countsCmd = &cobra.Command{
	Use:   "counts <cohort-id>",
	Short: "Print member and course counts of a cohort",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseCohortID(args[0])
		if err != nil {
			return err
		}
		counts, err := state.services.Cohorts.Counts(cmd.Context(), operator(), id, models.ParseMemberCountMode(modeFlag))
		if err != nil {
			return err
		}
		if jsonFlag {
			return writeJSON(cmd.OutOrStdout(), counts)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "cohort %d: %d member(s) [%s], %d course(s)\n", counts.CohortID, counts.MemberCount, counts.Mode, counts.CourseCount)
		return err
	},
}

func parseCohortID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid cohort id %q", raw)
	}
	return id, nil
}
