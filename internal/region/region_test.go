package region

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	table := []struct {
		input    string
		expected ID
		err      error
	}{
		{input: "seoul", expected: Seoul},
		{input: " Gyeonggi ", expected: Gyeonggi},
		{input: "JEJU", expected: Jeju},
		{input: "atlantis", err: ErrUnknownRegion},
		{input: "", err: ErrUnknownRegion},
	}

	for _, row := range table {
		id, err := ParseID(row.input)
		if row.err != nil {
			require.True(t, errors.Is(err, row.err), "input %q", row.input)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, row.expected, id)
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("High")
	require.NoError(t, err)
	require.Equal(t, High, typ)
	require.Equal(t, "4", typ.CourseCode())
	require.Equal(t, "04", typ.KindCode())

	_, err = ParseType("university")
	require.ErrorIs(t, err, ErrUnknownType)
	require.False(t, Type(0).Valid())
}

func TestAllRegionsHaveDefaults(t *testing.T) {
	registry := DefaultRegistry()
	require.Len(t, All(), 17)
	for _, id := range All() {
		require.True(t, id.Valid())
		entry, err := registry.Lookup(id)
		require.NoError(t, err, id.String())
		require.NotEmpty(t, entry.Host)
	}
	require.False(t, ID(0).Valid())
	require.Equal(t, "region(99)", ID(99).String())
}

func TestEntryURL(t *testing.T) {
	entry, err := DefaultRegistry().Lookup(Gyeonggi)
	require.NoError(t, err)

	url, err := entry.URL("https", Bootstrap)
	require.NoError(t, err)
	require.Equal(t, "https://stu.goe.go.kr/edusys.jsp?page=sts_m40000", url)

	url, err = entry.URL("https", Search)
	require.NoError(t, err)
	require.Equal(t, "https://stu.goe.go.kr/spr_ccm_cm01_100.do", url)

	_, err = entry.URL("https", Kind(42))
	require.Error(t, err)
}

func TestRegistryMerge(t *testing.T) {
	registry, err := DefaultRegistry().Merge(map[string]Override{
		"seoul": {Host: "127.0.0.1:8080", Endpoints: Endpoints{Search: "/search"}},
	})
	require.NoError(t, err)

	entry, err := registry.Lookup(Seoul)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", entry.Host)
	require.Equal(t, "/search", entry.Endpoints.Search)
	require.Equal(t, DefaultEndpoints.Meal, entry.Endpoints.Meal)

	url, err := entry.URL("http", Search)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8080/search", url)

	_, err = DefaultRegistry().Merge(map[string]Override{"nowhere": {Host: "x"}})
	require.ErrorIs(t, err, ErrUnknownRegion)
}

func TestRegistryLookupMissing(t *testing.T) {
	registry, err := NewRegistry(map[ID]Entry{
		Busan: {Host: "stu.pen.go.kr", Endpoints: DefaultEndpoints},
	})
	require.NoError(t, err)

	require.True(t, registry.Has(Busan))
	_, err = registry.Lookup(Seoul)
	require.ErrorIs(t, err, ErrUnknownRegion)

	_, err = NewRegistry(map[ID]Entry{Seoul: {}})
	require.Error(t, err)
}
