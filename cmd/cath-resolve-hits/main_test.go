package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UCLOrengoGroup/cath-tools-go/resolve"
)

func TestScoreTypeFromFlag(t *testing.T) {
	st, err := scoreTypeFromFlag("CRH")
	require.NoError(t, err)
	assert.Equal(t, resolve.CrhValue, st)

	st, err = scoreTypeFromFlag("evalue")
	require.NoError(t, err)
	assert.Equal(t, resolve.Evalue, st)

	_, err = scoreTypeFromFlag("nonsense")
	require.Error(t, err)
}

func TestParseSegsSingleAndMulti(t *testing.T) {
	segs, err := parseSegs("10-20")
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "10-20", formatSegs(segs))

	segs, err = parseSegs("10-20,30-40")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "10-20,30-40", formatSegs(segs))
}

func TestParseSegsRejectsMalformed(t *testing.T) {
	_, err := parseSegs("10")
	require.Error(t, err)
	_, err = parseSegs("x-20")
	require.Error(t, err)
	_, err = parseSegs("20-10")
	require.Error(t, err)
}

func TestReadHitsParsesLabelScoreSegs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hits.txt")
	content := "# comment\ndomain1 10.5 1-50\ndomain2 20.0 1-20,40-60\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	hits, err := readHits(path, resolve.CrhValue)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "domain1", hits[0].Label)
	assert.Equal(t, 10.5, hits[0].Score)
	require.Len(t, hits[0].Segs, 1)
	assert.Equal(t, "domain2", hits[1].Label)
	require.Len(t, hits[1].Segs, 2)
}

func TestReadHitsRejectsWrongFieldCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hits.txt")
	require.NoError(t, os.WriteFile(path, []byte("domain1 10.5\n"), 0o644))

	_, err := readHits(path, resolve.CrhValue)
	require.Error(t, err)
}
