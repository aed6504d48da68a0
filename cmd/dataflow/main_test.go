package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const savedCSV = "Symbol,Date,Open,High,Low,Close,Volume\n" +
	"AAPL,2024-01-11,,,,185.59,\n" +
	"AAPL,2024-01-10,,,,184.10,\n" +
	"AAPL,2024-01-12,,,,185.92,1200\n"

func TestRenderCSV(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderCSV(&out, strings.NewReader(savedCSV)))
	assert.Contains(t, out.String(), "AAPL (3 candles)")
	assert.Contains(t, out.String(), "2024-01-10 → 2024-01-12 (3 days)")

	err := renderCSV(&out, strings.NewReader("Symbol,Date,Open,High,Low,Close,Volume\n"))
	assert.Error(t, err)
}

func TestFromCSVFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(savedCSV), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--from-csv", path})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "AAPL (3 candles)")

	cmd = newRootCmd()
	cmd.SetArgs([]string{"--from-csv", path, "AAPL"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute(), "a symbol cannot be combined with --from-csv")

	cmd = newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute(), "a symbol is required without --from-csv")
}
