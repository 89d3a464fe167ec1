package protein

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityFrame() Frame {
	return Frame{{X: 1}, {Y: 1}, {Z: 1}}
}

func TestNewValidatesSecStrucRange(t *testing.T) {
	residues := []Residue{
		{AminoAcid: Gly, Frame: identityFrame(), SecStrucID: -1},
		{AminoAcid: Ala, Frame: identityFrame(), SecStrucID: 0},
	}
	secStrucs := []SecStruc{{Tag: Helix, Start: 1, Stop: 1}}
	p, err := New("test", residues, secStrucs)
	require.NoError(t, err)
	assert.Equal(t, 2, p.NumResidues())
}

func TestNewRejectsOutOfRangeSecStrucID(t *testing.T) {
	residues := []Residue{{AminoAcid: Gly, SecStrucID: 5}}
	_, err := New("test", residues, nil)
	require.Error(t, err)
}

func TestTooShort(t *testing.T) {
	residues := []Residue{{SecStrucID: -1}, {SecStrucID: -1}, {SecStrucID: -1}}
	p, err := New("short", residues, nil)
	require.NoError(t, err)
	assert.True(t, p.TooShort(5))
	assert.False(t, p.TooShort(2))
}

func TestFrameApplyIdentity(t *testing.T) {
	f := identityFrame()
	v := Vec3{X: 1, Y: 2, Z: 3}
	got := f.Apply(v)
	assert.Equal(t, v, got)
}

func TestAminoAcidLetter(t *testing.T) {
	assert.Equal(t, byte('A'), Ala.Letter())
	assert.Equal(t, byte('G'), Gly.Letter())
	assert.Equal(t, byte('X'), Unknown.Letter())
}

func TestResidueIDString(t *testing.T) {
	id := ResidueID{Chain: 'A', ResNo: 42}
	assert.Equal(t, "A42", id.String())
	id.InsertCode = 'B'
	assert.Equal(t, "A42B", id.String())
}
