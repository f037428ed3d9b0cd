package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/valuescreen/internal/modules/pipeline"
	"github.com/aristath/valuescreen/internal/modules/screening"
)

const universe = `{"securities":[
  {"id":"AAA","sector":"tech",
   "snapshots":[{"period":"2022","revenue":100,"net_income":10,"total_assets":200,"total_liabilities":50,"equity":150,"operating_income":20,"current_assets":80,"current_liabilities":40},
                {"period":"2023","revenue":120,"net_income":30,"total_assets":220,"total_liabilities":40,"equity":180,"operating_income":40,"current_assets":100,"current_liabilities":40}],
   "quote":{"price":20,"shares_outstanding":10}},
  {"id":"NONE"}
]}`

func TestRun_FromStdin(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run([]string{"-workers", "2"}, strings.NewReader(universe), &out, &errOut)
	require.NoError(t, err, errOut.String())

	var result pipeline.Run
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 2, result.SecurityCount)
	assert.Equal(t, []string{"NONE"}, screening.ExcludedIDs(result.InsufficientData))
	require.Len(t, result.Results, 1)
	assert.Equal(t, "AAA", result.Results[0].SecurityID)
	assert.Equal(t, 1, result.Results[0].Rank)
}

func TestRun_FromFileWithArrayInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"X"},{"id":"Y"}]`), 0644))

	var out, errOut bytes.Buffer
	require.NoError(t, run([]string{"-input", path, "-pretty"}, nil, &out, &errOut))
	assert.Contains(t, out.String(), "\n  \"id\"")

	var result pipeline.Run
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.ElementsMatch(t, []string{"X", "Y"}, screening.ExcludedIDs(result.InsufficientData))
}

func TestRun_Quiet(t *testing.T) {
	var out, loud, quiet bytes.Buffer
	require.NoError(t, run([]string{"-log-level", "debug"}, strings.NewReader(universe), &out, &loud))
	assert.NotEmpty(t, loud.String())

	out.Reset()
	require.NoError(t, run([]string{"-log-level", "debug", "-quiet"}, strings.NewReader(universe), &out, &quiet))
	assert.Empty(t, quiet.String())
	assert.NotEmpty(t, out.String())
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		input string
	}{
		{"empty input", nil, "  "},
		{"malformed json", nil, "{"},
		{"zero workers", []string{"-workers", "0"}, universe},
		{"unknown flag", []string{"-bogus"}, universe},
		{"missing file", []string{"-input", "/nonexistent/input.json"}, ""},
		{"missing profile", []string{"-profile", "/nonexistent/profile.yaml"}, universe},
		{"missing id", nil, `[{"sector":"x"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			err := run(tt.args, strings.NewReader(tt.input), &out, &errOut)
			assert.Error(t, err)
			assert.Empty(t, out.String())
		})
	}
}

func TestDecodeSecurities(t *testing.T) {
	got, err := decodeSecurities([]byte(` [{"id":"A"}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].ID)

	got, err = decodeSecurities([]byte(`{"securities":[{"id":"B"},{"id":"C"}]}`))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
