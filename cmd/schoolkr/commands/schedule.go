package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"schoolkr/internal/components/chrono"
	"schoolkr/internal/components/serviceutil"
	"schoolkr/internal/region"
	"schoolkr/internal/store"
	"schoolkr/pkg/school"

	"github.com/spf13/cobra"
)

// parseMonth parses a YYYY-MM month, an empty value is the current month in Korea.
func parseMonth(value string, now time.Time) (int, time.Month, error) {
	if value == "" {
		now = now.In(chrono.KST())
		return now.Year(), now.Month(), nil
	}
	parsed, err := time.Parse("2006-01", value)
	if err != nil {
		return 0, 0, fmt.Errorf("month %q must look like 2024-03: %w", value, err)
	}
	return parsed.Year(), parsed.Month(), nil
}

type scheduleFunc func(s *school.School, ctx context.Context, year int, month time.Month) ([]school.Entry, error)

func newScheduleCmd(kind region.Kind, short string, fetch scheduleFunc) *cobra.Command {
	var month, db *string

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <region> <type> <school code> [--month YYYY-MM] [--db <path/to/output.db>]", kind),
		Short: short,
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := region.ParseID(args[0])
			if err != nil {
				serviceutil.Fatal("invalid region", err)
			}
			typ, err := region.ParseType(args[1])
			if err != nil {
				serviceutil.Fatal("invalid institution type", err)
			}
			year, m, err := parseMonth(*month, time.Now())
			if err != nil {
				serviceutil.Fatal("invalid month", err)
			}

			err = facade.Init(typ, id, args[2])
			if err != nil {
				serviceutil.Fatal("invalid school", err)
			}
			entries, err := fetch(facade, cmd.Context(), year, m)
			if err != nil {
				serviceutil.Fatal(fmt.Sprintf("failed to fetch %s", kind), err)
			}

			err = withStore(cmd.Context(), *db, func(s store.Store, now time.Time) error {
				return s.SaveEntries(cmd.Context(), store.Month{
					Region:     id,
					SchoolCode: args[2],
					Kind:       kind,
					Year:       year,
					Month:      m,
				}, entries, now)
			})
			if err != nil {
				serviceutil.Fatal("failed to export results", err)
			}

			if len(entries) == 0 {
				fmt.Fprintf(os.Stderr, "no %s entries for %04d-%02d.\n", kind, year, int(m))
				return
			}
			renderEntries(os.Stdout, entries)
		},
	}
	month = cmd.Flags().String("month", "", "The month to fetch, defaults to the current month.")
	db = cmd.Flags().String("db", "", "A sqlite database to export the entries to.")
	return cmd
}

func init() {
	rootCmd.AddCommand(newScheduleCmd(
		region.Meal,
		"Prints the meal menu of a school for a month.",
		(*school.School).Meal,
	))
	rootCmd.AddCommand(newScheduleCmd(
		region.Calendar,
		"Prints the academic calendar of a school for a month.",
		(*school.School).Calendar,
	))
}
