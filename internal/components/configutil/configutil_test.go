package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Timeout string            `json:"timeout"`
	Scheme  string            `json:"scheme"`
	Hosts   map[string]string `json:"hosts"`
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "schoolkr.json5"), []byte(`{
		// comments are allowed
		timeout: "10s",
		scheme: "https",
		hosts: { seoul: "stu.sen.go.kr" },
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "schoolkr.local.json5"), []byte(`{
		scheme: "http",
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "schoolkr.json5"))
	require.NoError(t, err)
	require.Equal(t, "10s", cfg.Timeout)
	require.Equal(t, "http", cfg.Scheme)
	require.Equal(t, "stu.sen.go.kr", cfg.Hosts["seoul"])
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "schoolkr.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigOr(t *testing.T) {
	dir := t.TempDir()
	fallback := testConfig{Timeout: "30s", Scheme: "https"}

	cfg, err := ReadConfigOr(filepath.Join(dir, "schoolkr.json5"), fallback)
	require.NoError(t, err)
	require.Equal(t, fallback, cfg)

	err = os.WriteFile(filepath.Join(dir, "schoolkr.json5"), []byte(`{timeout: "5s"}`), 0600)
	require.NoError(t, err)

	cfg, err = ReadConfigOr(filepath.Join(dir, "schoolkr.json5"), fallback)
	require.NoError(t, err)
	require.Equal(t, "5s", cfg.Timeout)
	require.Equal(t, "https", cfg.Scheme)
}

func TestSplitExt(t *testing.T) {
	table := []struct {
		input  string
		prefix string
		ext    string
	}{
		{input: "schoolkr.json5", prefix: "schoolkr", ext: "json5"},
		{input: "schoolkr.local.json5", prefix: "schoolkr.local", ext: "json5"},
		{input: "schoolkr", prefix: "schoolkr", ext: ""},
	}
	for _, row := range table {
		prefix, ext := splitExt(row.input)
		require.Equal(t, row.prefix, prefix)
		require.Equal(t, row.ext, ext)
	}
}
