package viewframe

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UCLOrengoGroup/cath-tools-go/protein"
)

func identityFrame() protein.Frame {
	return protein.Frame{{X: 1}, {Y: 1}, {Z: 1}}
}

func TestBuildBasic(t *testing.T) {
	residues := []protein.Residue{
		{CA: protein.Vec3{X: 0, Y: 0, Z: 0}, Frame: identityFrame(), SecStrucID: -1},
		{CA: protein.Vec3{X: 1, Y: 2, Z: 3}, Frame: identityFrame(), SecStrucID: -1},
		{CA: protein.Vec3{X: 4, Y: 0, Z: 0}, Frame: identityFrame(), SecStrucID: -1},
	}
	p, err := protein.New("t", residues, nil)
	require.NoError(t, err)

	c := Build(p)
	assert.Equal(t, protein.Vec3{X: 1, Y: 2, Z: 3}, c.View(0, 1))
	assert.Equal(t, protein.Vec3{X: -1, Y: -2, Z: -3}, c.View(1, 0))
	assert.Equal(t, protein.Vec3{X: 4, Y: 0, Z: 0}, c.View(0, 2))
}

func TestMemoizedPrefilterCachesResult(t *testing.T) {
	residues := []protein.Residue{{SecStrucID: -1}, {SecStrucID: -1}, {SecStrucID: -1}}
	p, err := protein.New("t", residues, nil)
	require.NoError(t, err)
	c := Build(p)

	calls := 0
	compute := func() bool {
		calls++
		return true
	}
	assert.True(t, c.MemoizedPrefilter(0, 1, compute))
	assert.True(t, c.MemoizedPrefilter(0, 1, compute))
	assert.Equal(t, 1, calls, "second call should hit the memo, not recompute")
}

func TestSpillAndLoadRoundTrip(t *testing.T) {
	residues := []protein.Residue{
		{CA: protein.Vec3{X: 0, Y: 0, Z: 0}, Frame: identityFrame(), SecStrucID: -1},
		{CA: protein.Vec3{X: 1, Y: 2, Z: 3}, Frame: identityFrame(), SecStrucID: -1},
		{CA: protein.Vec3{X: 4, Y: 0, Z: 0}, Frame: identityFrame(), SecStrucID: -1},
	}
	p, err := protein.New("t", residues, nil)
	require.NoError(t, err)
	c := Build(p)

	var buf bytes.Buffer
	require.NoError(t, c.Spill(&buf))

	loaded, err := Load(&buf, c.N())
	require.NoError(t, err)
	for i := 0; i < c.N(); i++ {
		for j := 0; j < c.N(); j++ {
			if i == j {
				continue
			}
			assert.Equal(t, c.View(i, j), loaded.View(i, j))
		}
	}
}
