package superpose

import (
	"github.com/UCLOrengoGroup/cath-tools-go/alignment"
	"github.com/UCLOrengoGroup/cath-tools-go/protein"
)

// Result bundles the two products of a multi-structure superposition run:
// the glued alignment (spec §4.7) and the per-structure rigid transforms
// into a common frame (spec §4.8).
type Result struct {
	Alignment  alignment.Alignment
	AlignTree  []Edge
	Transforms map[int]Transform
	RMSDs      map[int]float64
}

// BuildAndSuperpose is the single entry point cmd/cath-superpose calls: it
// glues pairs into one multi-structure alignment via BuildMultiAlignment,
// then computes each structure's rigid transform into a common frame via
// Superpose. The two spanning trees are built independently (one scored by
// pairwise alignment score, one by shared-column count) and may differ.
func BuildAndSuperpose(n int, pairs []PairAlignment, names []string, glueOpts alignment.GlueOpts, coordsOf func(structIdx int) []protein.Vec3) (Result, error) {
	align, tree, err := BuildMultiAlignment(n, pairs, names, glueOpts)
	if err != nil {
		return Result{}, err
	}
	transforms, rmsds, err := Superpose(n, pairs, coordsOf)
	if err != nil {
		return Result{}, err
	}
	return Result{Alignment: align, AlignTree: tree, Transforms: transforms, RMSDs: rmsds}, nil
}
