package structload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UCLOrengoGroup/cath-tools-go/protein"
)

const fourResiduePDB = `ATOM      1  N   ALA A   1       0.000   0.000   0.000  1.00  0.00           N
ATOM      2  CA  ALA A   1       1.458   0.000   0.000  1.00  0.00           C
ATOM      3  C   ALA A   1       2.000   1.420   0.000  1.00  0.00           C
ATOM      4  N   GLY A   2       3.400   1.600   0.300  1.00  0.00           N
ATOM      5  CA  GLY A   2       4.800   1.900   0.500  1.00  0.00           C
ATOM      6  C   GLY A   2       5.600   3.100   0.400  1.00  0.00           C
ATOM      7  N   LEU A   3       6.800   3.400   0.700  1.00  0.00           N
ATOM      8  CA  LEU A   3       8.200   3.700   0.900  1.00  0.00           C
ATOM      9  C   LEU A   3       9.000   4.900   0.800  1.00  0.00           C
ATOM     10  N   VAL A   4      10.200   5.200   1.100  1.00  0.00           N
ATOM     11  CA  VAL A   4      11.600   5.500   1.300  1.00  0.00           C
ATOM     12  C   VAL A   4      12.400   6.700   1.200  1.00  0.00           C
END
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPDBOnly(t *testing.T) {
	dir := t.TempDir()
	pdbPath := writeFile(t, dir, "test.pdb", fourResiduePDB)

	p, err := Load(context.Background(), Sources{Name: "test", PDBPath: pdbPath})
	require.NoError(t, err)
	assert.Equal(t, 4, p.NumResidues())
	for _, r := range p.Residues {
		assert.Equal(t, protein.Other, r.SS)
		assert.Equal(t, -1, r.SecStrucID)
	}
	assert.Empty(t, p.SecStrucs)
}

func TestLoadWithDSSPDetectsSecStrucs(t *testing.T) {
	dir := t.TempDir()
	pdbPath := writeFile(t, dir, "test.pdb", fourResiduePDB)

	dsspContent := "  #  RESIDUE AA STRUCTURE BP1 BP2  ACC\n" +
		"    1    1 A A              0   0  185\n" +
		"    2    2 A G  H            0   0  140\n" +
		"    3    3 A L  H            0   0  130\n" +
		"    4    4 A V              0   0  150\n"
	dsspPath := writeFile(t, dir, "test.dssp", dsspContent)

	p, err := Load(context.Background(), Sources{Name: "test", PDBPath: pdbPath, DSSPath: dsspPath})
	require.NoError(t, err)

	require.Len(t, p.SecStrucs, 1)
	assert.Equal(t, protein.Helix, p.SecStrucs[0].Tag)
	assert.Equal(t, 1, p.SecStrucs[0].Start)
	assert.Equal(t, 2, p.SecStrucs[0].Stop)
	assert.Equal(t, 0, p.Residues[1].SecStrucID)
	assert.Equal(t, 0, p.Residues[2].SecStrucID)
	assert.Equal(t, -1, p.Residues[0].SecStrucID)
	assert.Equal(t, -1, p.Residues[3].SecStrucID)
}

func TestLoadWithSECAppliesAngles(t *testing.T) {
	dir := t.TempDir()
	pdbPath := writeFile(t, dir, "test.pdb", fourResiduePDB)
	dsspContent := "  #  RESIDUE AA STRUCTURE BP1 BP2  ACC\n" +
		"    1    1 A A              0   0  185\n" +
		"    2    2 A G  H            0   0  140\n" +
		"    3    3 A L  H            0   0  130\n" +
		"    4    4 A V              0   0  150\n"
	dsspPath := writeFile(t, dir, "test.dssp", dsspContent)
	secPath := writeFile(t, dir, "test.sec", "1 -60.0 -45.0 180.0\n")

	p, err := Load(context.Background(), Sources{
		Name: "test", PDBPath: pdbPath, DSSPath: dsspPath, SECPath: secPath,
	})
	require.NoError(t, err)
	require.Len(t, p.SecStrucs, 1)
	assert.InDelta(t, -60.0, p.SecStrucs[0].Phi, 1e-9)
	assert.InDelta(t, -45.0, p.SecStrucs[0].Psi, 1e-9)
	assert.InDelta(t, 180.0, p.SecStrucs[0].Omega, 1e-9)
}

func TestLoadMissingPDBFile(t *testing.T) {
	_, err := Load(context.Background(), Sources{Name: "missing", PDBPath: "/no/such/file.pdb"})
	require.Error(t, err)
}
