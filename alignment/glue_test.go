package alignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlueUnionsSharedEntry(t *testing.T) {
	// A: entries {X, Y}; X covers residues 0,1,2.
	a, err := New([]string{"X", "Y"}, [][]Pos{
		{Present(0), Present(1), Present(2)},
		{Present(0), Present(1), Gap},
	})
	require.NoError(t, err)

	// B: entries {X, Z}; X covers residues 1,2,3 (extends beyond A's coverage).
	b, err := New([]string{"X", "Z"}, [][]Pos{
		{Present(1), Present(2), Present(3)},
		{Present(5), Present(6), Present(7)},
	})
	require.NoError(t, err)

	out, err := Glue(a, 0, b, 0, GlueOpts{})
	require.NoError(t, err)

	assert.Equal(t, 3, out.NumEntries()) // X, Y, Z
	assert.Equal(t, []string{"X", "Y", "Z"}, out.Names)

	// Collect the shared entry's (X) present residue indices: must be the
	// union of A's and B's, strictly increasing.
	var xResidues []uint32
	for pos := 0; pos < out.Length(); pos++ {
		p := out.At(0, pos)
		if p.Present {
			xResidues = append(xResidues, p.ResIdx)
		}
	}
	assert.Equal(t, []uint32{0, 1, 2, 3}, xResidues)
}

func TestGlueEveryColumnStrictlyIncreasing(t *testing.T) {
	a, err := New([]string{"X", "Y"}, [][]Pos{
		{Present(0), Present(1), Present(2), Gap},
		{Gap, Present(10), Present(11), Present(12)},
	})
	require.NoError(t, err)
	b, err := New([]string{"X", "Z"}, [][]Pos{
		{Present(0), Gap, Present(2), Present(3)},
		{Present(20), Present(21), Gap, Present(22)},
	})
	require.NoError(t, err)

	out, err := Glue(a, 0, b, 0, GlueOpts{})
	require.NoError(t, err)

	for e := 0; e < out.NumEntries(); e++ {
		last := int64(-1)
		for pos := 0; pos < out.Length(); pos++ {
			p := out.At(e, pos)
			if !p.Present {
				continue
			}
			assert.Greater(t, int64(p.ResIdx), last, "entry %d not strictly increasing at pos %d", e, pos)
			last = int64(p.ResIdx)
		}
	}
}

func TestGlueInvalidEntryIndex(t *testing.T) {
	a, err := New([]string{"X"}, [][]Pos{{Present(0)}})
	require.NoError(t, err)
	b, err := New([]string{"X"}, [][]Pos{{Present(0)}})
	require.NoError(t, err)

	_, err = Glue(a, 5, b, 0, GlueOpts{})
	assert.Error(t, err)
}
