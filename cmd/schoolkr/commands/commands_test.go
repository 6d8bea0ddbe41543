package commands

import (
	"bytes"
	"testing"
	"time"

	"schoolkr/internal/region"
	"schoolkr/pkg/school"

	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	// 2024-03-31 20:00 UTC is already April in Korea.
	now := time.Date(2024, time.March, 31, 20, 0, 0, 0, time.UTC)

	year, month, err := parseMonth("", now)
	require.NoError(t, err)
	require.Equal(t, 2024, year)
	require.Equal(t, time.April, month)

	year, month, err = parseMonth("2023-11", now)
	require.NoError(t, err)
	require.Equal(t, 2023, year)
	require.Equal(t, time.November, month)

	_, _, err = parseMonth("11/2023", now)
	require.Error(t, err)
}

func TestEntryColumns(t *testing.T) {
	columns := entryColumns([]school.Entry{
		{"week": "1", "mon": "rice"},
		{"week": "2", "tue": "noodles"},
	})
	require.Equal(t, []string{"mon", "tue", "week"}, columns)
	require.Empty(t, entryColumns(nil))
}

func TestRenderEntries(t *testing.T) {
	var out bytes.Buffer
	renderEntries(&out, []school.Entry{
		{"week": "1", "mon": "rice"},
		{"week": "2", "tue": nil},
	})
	require.Contains(t, out.String(), "rice")
	require.Contains(t, out.String(), "WEEK")
	require.NotContains(t, out.String(), "<nil>")
}

func TestDefaultConfig(t *testing.T) {
	opts, err := defaultConfig.portalOptions()
	require.NoError(t, err)
	require.Equal(t, region.Gyeonggi, opts.Region)
	require.Equal(t, 30*time.Second, opts.Timeout)

	registry, err := Config{
		Regions: map[string]region.Override{"seoul": {Host: "localhost:8080"}},
	}.registry()
	require.NoError(t, err)
	entry, err := registry.Lookup(region.Seoul)
	require.NoError(t, err)
	require.Equal(t, "localhost:8080", entry.Host)
	require.Equal(t, region.DefaultEndpoints, entry.Endpoints)

	_, err = Config{Region: "atlantis"}.portalOptions()
	require.ErrorIs(t, err, region.ErrUnknownRegion)
}
