package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHits(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "hits.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestChecksumFileIsOrderIndependent(t *testing.T) {
	forward := writeHits(t, "q.pdb\tdomain1\t10.5000\t1-50\nq.pdb\tdomain2\t20.0000\t60-90\n")
	reversed := writeHits(t, "q.pdb\tdomain2\t20.0000\t60-90\nq.pdb\tdomain1\t10.5000\t1-50\n")

	a, err := checksumFile(forward)
	require.NoError(t, err)
	b, err := checksumFile(reversed)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.EqualValues(t, 2, a.NLines)
}

func TestChecksumFileDiffersOnContentChange(t *testing.T) {
	base := writeHits(t, "q.pdb\tdomain1\t10.5000\t1-50\n")
	changed := writeHits(t, "q.pdb\tdomain1\t11.5000\t1-50\n")

	a, err := checksumFile(base)
	require.NoError(t, err)
	b, err := checksumFile(changed)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestChecksumFileSkipsBlankAndCommentLines(t *testing.T) {
	path := writeHits(t, "\n# a comment\nq.pdb\tdomain1\t10.5000\t1-50\n")
	csum, err := checksumFile(path)
	require.NoError(t, err)
	assert.EqualValues(t, 1, csum.NLines)
}

func TestChecksumFileRejectsWrongFieldCount(t *testing.T) {
	path := writeHits(t, "q.pdb\tdomain1\t10.5000\n")
	_, err := checksumFile(path)
	require.Error(t, err)
}
