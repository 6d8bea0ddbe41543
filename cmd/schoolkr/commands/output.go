package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"schoolkr/internal/store"
	"schoolkr/pkg/school"

	"github.com/jedib0t/go-pretty/v6/table"
)

func renderRecords(w io.Writer, records []school.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Name", "Code", "Address"})
	for _, r := range records {
		t.AppendRow(table.Row{r.Name, r.SchoolCode, r.Address})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// entryColumns returns the union of the keys of every entry, sorted.
func entryColumns(entries []school.Entry) []string {
	seen := map[string]struct{}{}
	var columns []string
	for _, e := range entries {
		for key := range e {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			columns = append(columns, key)
		}
	}
	sort.Strings(columns)
	return columns
}

func renderEntries(w io.Writer, entries []school.Entry) {
	columns := entryColumns(entries)

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	for _, e := range entries {
		row := make(table.Row, len(columns))
		for i, c := range columns {
			v, ok := e[c]
			if !ok || v == nil {
				row[i] = ""
				continue
			}
			row[i] = fmt.Sprint(v)
		}
		t.AppendRow(row)
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// withStore runs fn against the export database at path, it does nothing when path is empty.
func withStore(ctx context.Context, path string, fn func(s store.Store, now time.Time) error) error {
	if path == "" {
		return nil
	}
	s, err := store.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer s.Close()
	return fn(s, time.Now())
}
