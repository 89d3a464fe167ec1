package superpose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UCLOrengoGroup/cath-tools-go/alignment"
)

func mustAlign(t *testing.T, names []string, cells [][]alignment.Pos) alignment.Alignment {
	t.Helper()
	a, err := alignment.New(names, cells)
	require.NoError(t, err)
	return a
}

// TestMaximumSpanningTreeOrder reproduces spec §8 scenario 4: four
// structures, six scored pairwise edges, expecting the tree
// {(2,3),(0,3),(0,1)} in exactly that acceptance order.
func TestMaximumSpanningTreeOrder(t *testing.T) {
	edges := []Edge{
		{I: 0, J: 1, Score: 85.40},
		{I: 0, J: 2, Score: 86.25},
		{I: 0, J: 3, Score: 87.96},
		{I: 1, J: 2, Score: 85.21},
		{I: 1, J: 3, Score: 84.20},
		{I: 2, J: 3, Score: 88.34},
	}
	tree, err := maximumSpanningTree(4, edges)
	require.NoError(t, err)
	require.Len(t, tree, 3)
	assert.Equal(t, Edge{I: 2, J: 3, Score: 88.34}, tree[0])
	assert.Equal(t, Edge{I: 0, J: 3, Score: 87.96}, tree[1])
	assert.Equal(t, Edge{I: 0, J: 1, Score: 85.40}, tree[2])
}

func TestMaximumSpanningTreeDisconnected(t *testing.T) {
	edges := []Edge{
		{I: 0, J: 1, Score: 90},
		{I: 2, J: 3, Score: 90},
	}
	_, err := maximumSpanningTree(4, edges)
	require.Error(t, err)
	var disc *SpanningTreeDisconnected
	require.ErrorAs(t, err, &disc)
	assert.Len(t, disc.Components, 2)
}

func TestBuildMultiAlignmentFourWayGlue(t *testing.T) {
	// Structures 0,1,2,3. Every pairwise alignment has exactly 2 entries:
	// entry 0 for the lower-indexed structure, entry 1 for the higher.
	pairs := []PairAlignment{
		{I: 0, J: 1, IEntry: 0, JEntry: 1, Score: 85.40, Align: mustAlign(t, []string{"s0", "s1"}, [][]alignment.Pos{
			{alignment.Present(0), alignment.Present(1)},
			{alignment.Present(0), alignment.Present(1)},
		})},
		{I: 0, J: 2, IEntry: 0, JEntry: 1, Score: 86.25, Align: mustAlign(t, []string{"s0", "s2"}, [][]alignment.Pos{
			{alignment.Present(0), alignment.Present(1)},
			{alignment.Present(0), alignment.Present(1)},
		})},
		{I: 0, J: 3, IEntry: 0, JEntry: 1, Score: 87.96, Align: mustAlign(t, []string{"s0", "s3"}, [][]alignment.Pos{
			{alignment.Present(0), alignment.Present(1)},
			{alignment.Present(0), alignment.Present(1)},
		})},
		{I: 1, J: 2, IEntry: 0, JEntry: 1, Score: 85.21, Align: mustAlign(t, []string{"s1", "s2"}, [][]alignment.Pos{
			{alignment.Present(0), alignment.Present(1)},
			{alignment.Present(0), alignment.Present(1)},
		})},
		{I: 1, J: 3, IEntry: 0, JEntry: 1, Score: 84.20, Align: mustAlign(t, []string{"s1", "s3"}, [][]alignment.Pos{
			{alignment.Present(0), alignment.Present(1)},
			{alignment.Present(0), alignment.Present(1)},
		})},
		{I: 2, J: 3, IEntry: 0, JEntry: 1, Score: 88.34, Align: mustAlign(t, []string{"s2", "s3"}, [][]alignment.Pos{
			{alignment.Present(0), alignment.Present(1)},
			{alignment.Present(0), alignment.Present(1)},
		})},
	}

	out, tree, err := BuildMultiAlignment(4, pairs, []string{"s0", "s1", "s2", "s3"}, alignment.GlueOpts{})
	require.NoError(t, err)
	assert.Len(t, tree, 3)
	assert.Equal(t, 4, out.NumEntries())
	assert.ElementsMatch(t, []string{"s0", "s1", "s2", "s3"}, out.Names)
}

func TestBuildMultiAlignmentRequiresTwoStructures(t *testing.T) {
	_, _, err := BuildMultiAlignment(1, nil, nil, alignment.GlueOpts{})
	assert.Error(t, err)
}
