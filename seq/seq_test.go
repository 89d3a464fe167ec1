package seq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSeg(t *testing.T, start, stop ResIdx) SeqSeg {
	t.Helper()
	s, err := NewSeqSeg(start, stop)
	require.NoError(t, err)
	return s
}

func TestNewSeqSegInvalid(t *testing.T) {
	_, err := NewSeqSeg(5, 2)
	require.Error(t, err)
	var scErr *SegConstructError
	require.ErrorAs(t, err, &scErr)
}

func TestSeqSegLength(t *testing.T) {
	s := mustSeg(t, 10, 19)
	assert.Equal(t, 10, s.Length())
}

func TestOverlaps(t *testing.T) {
	a := mustSeg(t, 1, 20)
	b := mustSeg(t, 40, 49)
	c := mustSeg(t, 10, 29)
	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(a))
}

func TestOverlapsAbutting(t *testing.T) {
	a := mustSeg(t, 1, 10)
	b := mustSeg(t, 11, 20)
	assert.False(t, a.Overlaps(b), "abutting segments must not count as overlapping")
}

func TestTrimSpecNoTrim(t *testing.T) {
	spec := TrimSpec{FullLength: 1, TotalTrimming: 0}
	s := mustSeg(t, 10, 19)
	trimmed, fullyTrimmed := spec.Trim(s)
	assert.False(t, fullyTrimmed)
	assert.Equal(t, s, trimmed)
}

func TestTrimSpecSymmetric(t *testing.T) {
	spec := TrimSpec{FullLength: 11, TotalTrimming: 10}
	s := mustSeg(t, 0, 19) // length 20
	trimmed, fullyTrimmed := spec.Trim(s)
	require.False(t, fullyTrimmed)
	// total = 10 * min(20,10)/10 = 10; start trim 5, stop trim 5.
	assert.Equal(t, ResIdx(5), trimmed.Start)
	assert.Equal(t, ResIdx(14), trimmed.Stop)
}

func TestTrimSpecFullyTrimmed(t *testing.T) {
	spec := TrimSpec{FullLength: 3, TotalTrimming: 2}
	s := mustSeg(t, 0, 0) // length 1
	_, fullyTrimmed := spec.Trim(s)
	assert.True(t, fullyTrimmed)
}

func TestSeqSegRunValidate(t *testing.T) {
	r := SeqSegRun{mustSeg(t, 1, 20), mustSeg(t, 40, 49)}
	assert.NoError(t, r.Validate())

	bad := SeqSegRun{mustSeg(t, 1, 20), mustSeg(t, 15, 25)}
	assert.Error(t, bad.Validate())
}

func TestSeqSegRunOverlaps(t *testing.T) {
	a := SeqSegRun{mustSeg(t, 1, 20), mustSeg(t, 40, 49)}
	b := SeqSegRun{mustSeg(t, 10, 29)}
	c := SeqSegRun{mustSeg(t, 50, 69)}
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))
}

func TestEventArrows(t *testing.T) {
	r := SeqSegRun{mustSeg(t, 1, 20), mustSeg(t, 40, 49)}
	arrows := r.EventArrows()
	assert.Equal(t, []SeqArrow{1, 21, 40, 50}, arrows)
}
