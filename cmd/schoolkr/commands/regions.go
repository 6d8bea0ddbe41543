package commands

import (
	"os"

	"schoolkr/internal/components/serviceutil"
	"schoolkr/internal/region"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(regionsCmd)
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Prints the known regions and the portal each one is served by.",
	Run: func(cmd *cobra.Command, args []string) {
		registry := client.Registry()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Region", "Host", "Search"})
		for _, id := range region.All() {
			entry, err := registry.Lookup(id)
			if err != nil {
				continue
			}
			search, err := entry.URL(cfg.Scheme, region.Search)
			if err != nil {
				serviceutil.Fatal("invalid registry entry", err)
			}
			t.AppendRow(table.Row{id.String(), entry.Host, search})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
