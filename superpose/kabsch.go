package superpose

import (
	"fmt"
	"math"

	"github.com/grailbio/base/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/UCLOrengoGroup/cath-tools-go/protein"
)

// Transform is a rigid-body rotation+translation: Apply(v) = R*v + T.
type Transform struct {
	R [3][3]float64
	T protein.Vec3
}

// Identity returns the no-op transform.
func Identity() Transform {
	return Transform{R: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// Apply rotates and translates v.
func (tr Transform) Apply(v protein.Vec3) protein.Vec3 {
	return protein.Vec3{
		X: tr.R[0][0]*v.X + tr.R[0][1]*v.Y + tr.R[0][2]*v.Z + tr.T.X,
		Y: tr.R[1][0]*v.X + tr.R[1][1]*v.Y + tr.R[1][2]*v.Z + tr.T.Y,
		Z: tr.R[2][0]*v.X + tr.R[2][1]*v.Y + tr.R[2][2]*v.Z + tr.T.Z,
	}
}

// Compose returns the transform equivalent to applying inner then outer:
// Compose(outer, inner).Apply(v) == outer.Apply(inner.Apply(v)).
func Compose(outer, inner Transform) Transform {
	var r [3][3]float64
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += outer.R[a][k] * inner.R[k][b]
			}
			r[a][b] = s
		}
	}
	return Transform{R: r, T: outer.Apply(inner.T)}
}

// NonTidyRotation is returned when the Kabsch-derived rotation's determinant
// isn't close enough to +1 after the reflection correction — a proper
// rotation matrix failed to "tidy up".
type NonTidyRotation struct {
	Det float64
}

func (e *NonTidyRotation) Error() string {
	return fmt.Sprintf("superpose: rotation determinant %.6f is not a tidy +1 rotation", e.Det)
}

func vecAxis(v protein.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func scaleVec(v protein.Vec3, s float64) protein.Vec3 {
	return protein.Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Kabsch computes the rigid-body transform that best maps moving onto
// reference (in the least-squares sense) and the resulting RMSD (spec
// §4.8). Both slices must have equal, matching point order and length >= 3.
func Kabsch(moving, reference []protein.Vec3) (Transform, float64, error) {
	n := len(moving)
	if n != len(reference) {
		return Transform{}, 0, errors.E(fmt.Sprintf("superpose: kabsch: point count mismatch (%d vs %d)", n, len(reference)))
	}
	if n < 3 {
		return Transform{}, 0, errors.E(fmt.Sprintf("superpose: kabsch: need at least 3 shared points, got %d", n))
	}

	var movSum, refSum protein.Vec3
	for i := range moving {
		movSum.X += moving[i].X
		movSum.Y += moving[i].Y
		movSum.Z += moving[i].Z
		refSum.X += reference[i].X
		refSum.Y += reference[i].Y
		refSum.Z += reference[i].Z
	}
	inv := 1.0 / float64(n)
	movCentroid := scaleVec(movSum, inv)
	refCentroid := scaleVec(refSum, inv)

	h := mat.NewDense(3, 3, nil)
	for i := range moving {
		m := protein.Sub(moving[i], movCentroid)
		r := protein.Sub(reference[i], refCentroid)
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				h.Set(a, b, h.At(a, b)+vecAxis(m, a)*vecAxis(r, b))
			}
		}
	}

	var svd mat.SVD
	if !svd.Factorize(h, mat.SVDFull) {
		return Transform{}, 0, errors.E("superpose: kabsch: SVD factorization failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var vut mat.Dense
	vut.Mul(&v, u.T())
	d := 1.0
	if mat.Det(&vut) < 0 {
		d = -1.0
	}

	diag := mat.NewDiagDense(3, []float64{1, 1, d})
	var vd, rMat mat.Dense
	vd.Mul(&v, diag)
	rMat.Mul(&vd, u.T())

	det := mat.Det(&rMat)
	if math.Abs(det-1) > 1e-6 {
		return Transform{}, 0, errors.E(&NonTidyRotation{Det: det}, "superpose: kabsch rotation failed to tidy")
	}

	var r [3][3]float64
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			r[a][b] = rMat.At(a, b)
		}
	}

	tr := Transform{R: r}
	rotatedCentroid := tr.Apply(movCentroid)
	tr.T = protein.Sub(refCentroid, rotatedCentroid)

	var sumSq float64
	for i := range moving {
		got := tr.Apply(moving[i])
		d := protein.Sub(got, reference[i])
		sumSq += d.X*d.X + d.Y*d.Y + d.Z*d.Z
	}
	rmsd := math.Sqrt(sumSq / float64(n))

	return tr, rmsd, nil
}

// sharedColumnCount returns how many columns of p.Align have both of p's
// entries present — the edge weight Superpose's spanning tree maximises.
func sharedColumnCount(p PairAlignment) int {
	count := 0
	for pos := 0; pos < p.Align.Length(); pos++ {
		if p.Align.At(p.IEntry, pos).Present && p.Align.At(p.JEntry, pos).Present {
			count++
		}
	}
	return count
}

func sharedCoordsFor(p PairAlignment, freshEntry, knownEntry, freshStruct, knownStruct int, coordsOf func(int) []protein.Vec3) ([]protein.Vec3, []protein.Vec3) {
	freshCoords := coordsOf(freshStruct)
	knownCoords := coordsOf(knownStruct)
	var moving, reference []protein.Vec3
	for pos := 0; pos < p.Align.Length(); pos++ {
		fp, kp := p.Align.At(freshEntry, pos), p.Align.At(knownEntry, pos)
		if fp.Present && kp.Present {
			moving = append(moving, freshCoords[fp.ResIdx])
			reference = append(reference, knownCoords[kp.ResIdx])
		}
	}
	return moving, reference
}

// Superpose places every structure 0..n-1 into a common frame, by building
// a maximum-spanning tree weighted by pairwise shared-column counts and
// composing per-edge Kabsch transforms from an arbitrary root outward (spec
// §4.8). coordsOf(i) must return structure i's CA coordinates indexed by
// residue index. Returns each structure's transform into the root's
// original frame and its RMSD against the structure it was directly
// superposed onto (the root's own RMSD is 0).
func Superpose(n int, pairs []PairAlignment, coordsOf func(structIdx int) []protein.Vec3) (map[int]Transform, map[int]float64, error) {
	if n < 2 {
		return nil, nil, errors.E(fmt.Sprintf("superpose: need at least 2 structures, got %d", n))
	}
	edges := make([]Edge, len(pairs))
	byPair := make(map[[2]int]PairAlignment, len(pairs))
	for i, p := range pairs {
		lo, hi := p.I, p.J
		if lo > hi {
			lo, hi = hi, lo
		}
		edges[i] = Edge{I: lo, J: hi, Score: float64(sharedColumnCount(p))}
		byPair[[2]int{lo, hi}] = p
	}
	tree, err := maximumSpanningTree(n, edges)
	if err != nil {
		return nil, nil, err
	}
	order := incrementalOrder(tree)
	lookup := func(i, j int) PairAlignment {
		lo, hi := i, j
		if lo > hi {
			lo, hi = hi, lo
		}
		return byPair[[2]int{lo, hi}]
	}

	transforms := map[int]Transform{}
	rmsds := map[int]float64{}

	root := order[0].I
	transforms[root] = Identity()
	rmsds[root] = 0

	included := map[int]bool{order[0].I: true}
	// Seed the second vertex of the first edge directly below.
	pending := order

	for idx, e := range pending {
		if idx == 0 {
			// First edge roots the tree at e.I; place e.J against it.
			pa := lookup(e.I, e.J)
			var knownEntry, freshEntry int
			if pa.I == e.I {
				knownEntry, freshEntry = pa.IEntry, pa.JEntry
			} else {
				knownEntry, freshEntry = pa.JEntry, pa.IEntry
			}
			moving, reference := sharedCoordsFor(pa, freshEntry, knownEntry, e.J, e.I, coordsOf)
			t, rmsd, err := Kabsch(moving, reference)
			if err != nil {
				return nil, nil, err
			}
			transforms[e.J] = t
			rmsds[e.J] = rmsd
			included[e.J] = true
			continue
		}

		var known, fresh int
		switch {
		case included[e.I] && !included[e.J]:
			known, fresh = e.I, e.J
		case included[e.J] && !included[e.I]:
			known, fresh = e.J, e.I
		default:
			return nil, nil, errors.E(fmt.Sprintf("superpose: internal error: edge (%d,%d) doesn't attach exactly one new leaf", e.I, e.J))
		}

		pa := lookup(known, fresh)
		var knownEntry, freshEntry int
		if pa.I == known {
			knownEntry, freshEntry = pa.IEntry, pa.JEntry
		} else {
			knownEntry, freshEntry = pa.JEntry, pa.IEntry
		}
		moving, reference := sharedCoordsFor(pa, freshEntry, knownEntry, fresh, known, coordsOf)
		t, rmsd, err := Kabsch(moving, reference)
		if err != nil {
			return nil, nil, err
		}
		transforms[fresh] = Compose(transforms[known], t)
		rmsds[fresh] = rmsd
		included[fresh] = true
	}

	return transforms, rmsds, nil
}
