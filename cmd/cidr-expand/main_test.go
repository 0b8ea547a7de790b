package main

import (
	"bytes"
	"testing"

	"github.com/iamNilotpal/tsidx/internal/serialize"
	"github.com/iamNilotpal/tsidx/pkg/ipmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLines(t *testing.T, s settings, lines ...string) (string, []string) {
	t.Helper()
	var out bytes.Buffer
	var bad []string
	_, err := run(&out, lines, s, func(line string, _ error) { bad = append(bad, line) })
	require.NoError(t, err)
	return out.String(), bad
}

func TestRun_Text(t *testing.T) {
	out, bad := runLines(t, settings{trim: -1, format: formatText},
		"10.10.10.10 10.10.10.20", "# comment", "", "10.0.0.5-10.0.0.5", "nonsense")

	assert.Equal(t, "10.10.10.10/31\n10.10.10.12/30\n10.10.10.16/30\n10.10.10.20/32\n10.0.0.5/32\n", out)
	assert.Equal(t, []string{"nonsense"}, bad)
}

func TestRun_TextWithCountAndTrim(t *testing.T) {
	s := settings{opts: []ipmath.ExpandOption{ipmath.WithCleanSingleIPs()}, trim: 31, count: true, format: formatText}
	out, bad := runLines(t, s, "10.10.10.10 10.10.10.13")

	assert.Empty(t, bad)
	assert.Equal(t, "10.10.10.10\n10.10.10.12\n# 4 addresses\n", out)
}

func TestRun_JSON(t *testing.T) {
	out, _ := runLines(t, settings{trim: -1, count: true, format: formatJSON}, "192.168.0.0 192.168.1.255")

	var got []expansion
	require.NoError(t, serialize.UnMarshalJSON([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "192.168.0.0-192.168.1.255", got[0].Range)
	assert.Equal(t, []string{"192.168.0.0/23"}, got[0].CIDRs)
	require.NotNil(t, got[0].Addresses)
	assert.Equal(t, uint64(512), *got[0].Addresses)
}

func TestRun_YAML(t *testing.T) {
	out, _ := runLines(t, settings{trim: -1, format: formatYAML}, "0.0.0.0 0.0.0.2")

	var got []expansion
	require.NoError(t, serialize.UnMarshalYAML([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, []string{"0.0.0.0/31", "0.0.0.2/32"}, got[0].CIDRs)
	assert.Nil(t, got[0].Addresses)
}

func TestRun_InvalidRangeAndFormat(t *testing.T) {
	_, bad := runLines(t, settings{trim: -1, format: formatText}, "10.0.0.9 10.0.0.1", "10.0.0.300 10.0.0.301")
	assert.Len(t, bad, 2)

	_, err := run(&bytes.Buffer{}, nil, settings{format: "xml"}, func(string, error) {})
	assert.Error(t, err)
}

func TestRun_CleanSinglesSurviveTrim(t *testing.T) {
	s := settings{opts: []ipmath.ExpandOption{ipmath.WithCleanSingleIPs()}, trim: 30, format: formatText}
	out, bad := runLines(t, s, "10.0.0.1 10.0.0.6")

	assert.Empty(t, bad)
	assert.Equal(t, "10.0.0.1\n10.0.0.2\n10.0.0.4\n10.0.0.6\n", out)
}
