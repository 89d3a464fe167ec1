package ssapscores

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSsapScoresReadsRows(t *testing.T) {
	content := "1abcA00 1xyzB00 120 118 85.40 95 92.5 38.2 1.25\n" +
		"\n" +
		"1qqqC00 1wwwD00 200 205 72.10 150 88.0 25.0 2.10\n"
	rows, err := ParseSsapScores(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "1abcA00", rows[0].Name1)
	assert.Equal(t, "1xyzB00", rows[0].Name2)
	assert.Equal(t, 120, rows[0].Length1)
	assert.Equal(t, 118, rows[0].Length2)
	assert.InDelta(t, 85.40, rows[0].SsapScore, 1e-9)
	assert.Equal(t, 95, rows[0].NumEquivs)
	assert.InDelta(t, 92.5, rows[0].OverlapPct, 1e-9)
	assert.InDelta(t, 38.2, rows[0].SeqIdentityPct, 1e-9)
	assert.InDelta(t, 1.25, rows[0].RMSD, 1e-9)
}

func TestParseSsapScoresRejectsWrongFieldCount(t *testing.T) {
	_, err := ParseSsapScores(strings.NewReader("1abcA00 1xyzB00 120\n"))
	require.Error(t, err)
}

func TestParseSsapScoresRejectsNegativeField(t *testing.T) {
	_, err := ParseSsapScores(strings.NewReader("1abcA00 1xyzB00 120 118 -1.0 95 92.5 38.2 1.25\n"))
	require.Error(t, err)
}
