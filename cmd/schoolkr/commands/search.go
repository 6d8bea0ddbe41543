package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"schoolkr/internal/components/serviceutil"
	"schoolkr/internal/region"
	"schoolkr/internal/store"
	"schoolkr/pkg/school"

	"github.com/spf13/cobra"
)

var (
	searchBest *bool
	searchDb   *string
)

func init() {
	searchBest = searchCmd.Flags().Bool("best", false, "Only print the result whose name is the closest to the query.")
	searchDb = searchCmd.Flags().String("db", "", "A sqlite database to export the results to.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <region> <name...> [--best] [--db <path/to/output.db>]",
	Short: "Searches the schools of a region by name.",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := region.ParseID(args[0])
		if err != nil {
			serviceutil.Fatal("invalid region", err)
		}
		name := strings.Join(args[1:], " ")

		records, err := facade.Search(cmd.Context(), id, name)
		if err != nil {
			serviceutil.Fatal("search failed", err)
		}
		slog.Debug("search results", "region", id.String(), "count", len(records))

		if *searchBest {
			best, ok := school.BestMatch(records, name)
			if !ok {
				fmt.Fprintln(os.Stderr, "no schools found.")
				os.Exit(1)
			}
			records = []school.Record{best}
		}

		err = withStore(cmd.Context(), *searchDb, func(s store.Store, now time.Time) error {
			return s.SaveRecords(cmd.Context(), id, name, records, now)
		})
		if err != nil {
			serviceutil.Fatal("failed to export results", err)
		}

		renderRecords(os.Stdout, records)
	},
}
