// Package ssap implements the double dynamic-programming structural
// alignment driver (spec §4.5): a fast pass restricted to secondary-
// structure residues, then a full pass over every residue, each
// instantiating dp.Align twice (once per candidate pivot pair for the
// inner view-matrix DP, once for the outer residue-to-residue DP).
package ssap

import (
	"math"

	"github.com/grailbio/base/traverse"

	"github.com/UCLOrengoGroup/cath-tools-go/alignment"
	"github.com/UCLOrengoGroup/cath-tools-go/dp"
	"github.com/UCLOrengoGroup/cath-tools-go/pairscore"
	"github.com/UCLOrengoGroup/cath-tools-go/protein"
	"github.com/UCLOrengoGroup/cath-tools-go/runctx"
	"github.com/UCLOrengoGroup/cath-tools-go/superpose"
	"github.com/UCLOrengoGroup/cath-tools-go/viewframe"
)

// Config is the recognised option set for one SSAP comparison (spec §6.4).
type Config struct {
	// DP gap policy, shared by the inner and outer DP instantiations.
	GapOpen, GapExtend float64

	// ScoreFloor clamps the pair-score distance function so the comparison
	// stays bounded and non-negative (spec §4.3).
	ScoreFloor float64

	// AreaTol, AngleTol are the property-prefilter tolerances (spec §4.3).
	AreaTol, AngleTol float64

	// MinLowerMatResScore is the threshold an inner-DP result must reach
	// before it's written into the upper score matrix (spec §4.5).
	MinLowerMatResScore float64

	// MinResidues is the minimum residue count either protein must have;
	// below it, Run returns a zero-score alignment without attempting DP
	// (spec §4.5).
	MinResidues int

	// MinSSElementsForFastPass: the fast pass is suppressed if either
	// protein has fewer secondary-structure elements than this (spec §4.5).
	MinSSElementsForFastPass int

	// ContextSecBonus, ContextSecAngleTol: the "context_sec" bonus added to
	// an upper-matrix cell when both residues belong to SS elements whose
	// planar-angle signature matches within tolerance (spec §4.5). A zero
	// bonus disables the check entirely.
	ContextSecBonus    float64
	ContextSecAngleTol float64

	// Parallel runs the outer DP's per-row inner-DP passes concurrently via
	// traverse.Each, sharded one row per worker so there's no read-modify-
	// write race on the upper matrix (spec §5, §9 "Determinism under
	// parallelism").
	Parallel bool
}

// Scores are the raw and derived numbers produced by one Run (spec §4.5).
type Scores struct {
	Raw            float64 // sum of upper-matrix scores along the outer DP path
	Normalised     float64 // 100 * log(Raw+1) / log(L+1), in [0, 100]
	NumEquivalent  int     // aligned (non-gap/non-gap) residue pairs
	OverlapPct     float64 // 100 * NumEquivalent / min(lenA, lenB)
	SeqIdentityPct float64 // 100 * identical aligned pairs / NumEquivalent
	RMSD           float64 // post-superposition RMSD over aligned CA pairs
	FastPassRaw    float64 // diagnostic: raw score from the fast pass, if run
}

// Run compares proteins a and b and returns their structural alignment and
// score (spec §4.5). It builds both view-frame caches itself; a caller
// comparing many structures pairwise should build (and, for large batches,
// spill) each structure's cache once and drive RunWithCaches directly
// instead, to avoid rebuilding the same O(n^2) cache on every pair.
func Run(a, b *protein.Protein, cfg Config, rc runctx.RunContext) (Scores, alignment.Alignment, error) {
	if a.TooShort(cfg.MinResidues) || b.TooShort(cfg.MinResidues) {
		return Scores{}, zeroAlignment(a, b), nil
	}
	return RunWithCaches(a, b, viewframe.Build(a), viewframe.Build(b), cfg, rc)
}

// RunWithCaches is Run with the view-frame caches supplied by the caller,
// for batch drivers that build (and possibly spill to disk, see
// viewframe.Cache.Spill) each structure's cache once and reuse it across
// many pairwise comparisons.
func RunWithCaches(a, b *protein.Protein, cacheA, cacheB *viewframe.Cache, cfg Config, rc runctx.RunContext) (Scores, alignment.Alignment, error) {
	if a.TooShort(cfg.MinResidues) || b.TooShort(cfg.MinResidues) {
		return Scores{}, zeroAlignment(a, b), nil
	}

	var fastScore float64
	if len(ssElements(a)) >= cfg.MinSSElementsForFastPass && len(ssElements(b)) >= cfg.MinSSElementsForFastPass {
		residuesA := residuesInSS(a)
		residuesB := residuesInSS(b)
		if len(residuesA) > 0 && len(residuesB) > 0 {
			result, err := runPass(a, b, cacheA, cacheB, residuesA, residuesB, cfg, rc)
			if err != nil {
				// Propagated verbatim, not wrapped: the only error runPass can
				// return is the runctx.ErrCancelled sentinel, and callers rely
				// on errors.Is matching it directly (see TestRunRespectsCancellation).
				return Scores{}, alignment.Alignment{}, err
			}
			fastScore = result.Score
		}
	}

	allA := allResidues(a)
	allB := allResidues(b)
	full, err := runPass(a, b, cacheA, cacheB, allA, allB, cfg, rc)
	if err != nil {
		return Scores{}, alignment.Alignment{}, err
	}

	out := buildAlignment(full.Path, allA, allB)

	scores := Scores{
		Raw:         full.Score,
		FastPassRaw: fastScore,
	}
	scores.NumEquivalent = countEquivalent(out)
	minLen := a.NumResidues()
	if b.NumResidues() < minLen {
		minLen = b.NumResidues()
	}
	if minLen > 0 {
		scores.OverlapPct = 100 * float64(scores.NumEquivalent) / float64(minLen)
	}
	scores.SeqIdentityPct = sequenceIdentity(a, b, out)
	scores.Normalised = normaliseScore(scores.Raw, a.NumResidues(), b.NumResidues())
	scores.RMSD = rmsdAfterSuperposition(a, b, out)

	return scores, out, nil
}

func zeroAlignment(a, b *protein.Protein) alignment.Alignment {
	names := []string{a.Name, b.Name}
	out, err := alignment.New(names, [][]alignment.Pos{{}, {}})
	if err != nil {
		// New only rejects mismatched lengths or non-increasing residues;
		// two empty rows can never trigger either.
		panic(err)
	}
	return out
}

func allResidues(p *protein.Protein) []int {
	out := make([]int, p.NumResidues())
	for i := range out {
		out[i] = i
	}
	return out
}

func residuesInSS(p *protein.Protein) []int {
	var out []int
	for i, r := range p.Residues {
		if r.SecStrucID != -1 {
			out = append(out, i)
		}
	}
	return out
}

func ssElements(p *protein.Protein) []protein.SecStruc { return p.SecStrucs }

// passResult is the outcome of one double-DP pass (fast or full).
type passResult struct {
	Score float64
	Path  []dp.PathStep
}

// runPass runs the full double-DP procedure (property-filtered inner DPs
// populating an upper matrix, then one outer DP) over the given residue
// subsets of a and b.
func runPass(a, b *protein.Protein, cacheA, cacheB *viewframe.Cache, residuesA, residuesB []int, cfg Config, rc runctx.RunContext) (passResult, error) {
	m, n := len(residuesA), len(residuesB)
	upper := make([][]float64, m)
	for i := range upper {
		upper[i] = make([]float64, n)
	}

	computeRow := func(row int) error {
		if rc.Cancelled() {
			return runctx.ErrCancelled
		}
		i1 := residuesA[row]
		for col, i2 := range residuesB {
			if !passesPrefilter(a, b, cacheA, cacheB, i1, i2, cfg) {
				continue
			}
			lower := innerDP(a, b, cacheA, cacheB, i1, i2, residuesA, residuesB, cfg)
			if lower < cfg.MinLowerMatResScore {
				continue
			}
			score := lower
			if cfg.ContextSecBonus != 0 && contextSecMatches(a, b, i1, i2, cfg.ContextSecAngleTol) {
				score += cfg.ContextSecBonus
			}
			upper[row][col] = score
		}
		return nil
	}

	var err error
	if cfg.Parallel {
		err = traverse.Each(m, computeRow)
	} else {
		for row := 0; row < m && err == nil; row++ {
			err = computeRow(row)
		}
	}
	if err != nil {
		return passResult{}, err
	}

	scorer := func(row, col int) float64 { return upper[row][col] }
	outer := dp.Align(m, n, scorer, dp.Config{GapOpen: cfg.GapOpen, GapExtend: cfg.GapExtend})
	return passResult{Score: outer.Score, Path: outer.Path}, nil
}

// passesPrefilter applies the (area, angle) property pre-filter, memoized
// per (i1, i2) in cacheA so repeated probes (fast pass then full pass)
// don't recompute it.
func passesPrefilter(a, b *protein.Protein, cacheA, cacheB *viewframe.Cache, i1, i2 int, cfg Config) bool {
	return cacheA.MemoizedPrefilter(i1, i2, func() bool {
		descA := residueDescriptor(a, i1)
		descB := residueDescriptor(b, i2)
		return pairscore.PropertyPrefilter(descA, descA, descB, descB, cfg.AreaTol, cfg.AngleTol)
	})
}

// residueDescriptor derives a property descriptor from a residue's own
// secondary-structure element, defaulting to the zero descriptor for
// residues outside any element (the prefilter tolerances then decide
// whether that's close enough).
func residueDescriptor(p *protein.Protein, idx int) pairscore.PropertyDescriptor {
	r := p.Residues[idx]
	if r.SecStrucID == -1 {
		return pairscore.PropertyDescriptor{}
	}
	ss := p.SecStrucs[r.SecStrucID]
	return pairscore.PropertyDescriptor{Area: ss.Phi - ss.Psi, Angle: ss.Omega}
}

func contextSecMatches(a, b *protein.Protein, i1, i2 int, tol float64) bool {
	ra, rb := a.Residues[i1], b.Residues[i2]
	if ra.SecStrucID == -1 || rb.SecStrucID == -1 {
		return false
	}
	ssA, ssB := a.SecStrucs[ra.SecStrucID], b.SecStrucs[rb.SecStrucID]
	return math.Abs(ssA.Phi-ssB.Phi) <= tol && math.Abs(ssA.Psi-ssB.Psi) <= tol && math.Abs(ssA.Omega-ssB.Omega) <= tol
}

// innerDP aligns every residue of A other than i1 against every residue of
// B other than i2 (view(i,i) is never read, spec §4.2), scored by the
// cached view vectors' similarity, and returns the best path's total score
// — score_lower(i1, i2) (spec §4.4).
func innerDP(a, b *protein.Protein, cacheA, cacheB *viewframe.Cache, i1, i2 int, candidatesA, candidatesB []int, cfg Config) float64 {
	innerA := excluding(candidatesA, i1)
	innerB := excluding(candidatesB, i2)
	if len(innerA) == 0 || len(innerB) == 0 {
		return 0
	}
	scorer := func(row, col int) float64 {
		j1, j2 := innerA[row], innerB[col]
		va := cacheA.View(i1, j1)
		vb := cacheB.View(i2, j2)
		return pairscore.Score(
			pairscore.Vec3{X: va.X, Y: va.Y, Z: va.Z},
			pairscore.Vec3{X: vb.X, Y: vb.Y, Z: vb.Z},
			cfg.ScoreFloor,
		)
	}
	result := dp.Align(len(innerA), len(innerB), scorer, dp.Config{GapOpen: cfg.GapOpen, GapExtend: cfg.GapExtend})
	return result.Score
}

func excluding(residues []int, skip int) []int {
	out := make([]int, 0, len(residues))
	for _, r := range residues {
		if r != skip {
			out = append(out, r)
		}
	}
	return out
}

func buildAlignment(path []dp.PathStep, residuesA, residuesB []int) alignment.Alignment {
	cellsA := make([]alignment.Pos, len(path))
	cellsB := make([]alignment.Pos, len(path))
	for i, step := range path {
		if step.Row >= 0 {
			cellsA[i] = alignment.Present(uint32(residuesA[step.Row]))
		}
		if step.Col >= 0 {
			cellsB[i] = alignment.Present(uint32(residuesB[step.Col]))
		}
	}
	out, err := alignment.New(nil, [][]alignment.Pos{cellsA, cellsB})
	if err != nil {
		// The DP traceback only ever advances residue indices monotonically
		// within each subset, so this invariant can't be violated.
		panic(err)
	}
	return out
}

func countEquivalent(a alignment.Alignment) int {
	count := 0
	for pos := 0; pos < a.Length(); pos++ {
		if a.At(0, pos).Present && a.At(1, pos).Present {
			count++
		}
	}
	return count
}

func sequenceIdentity(a, b *protein.Protein, align alignment.Alignment) float64 {
	equivalent, identical := 0, 0
	for pos := 0; pos < align.Length(); pos++ {
		pa, pb := align.At(0, pos), align.At(1, pos)
		if !pa.Present || !pb.Present {
			continue
		}
		equivalent++
		if a.Residues[pa.ResIdx].AminoAcid == b.Residues[pb.ResIdx].AminoAcid {
			identical++
		}
	}
	if equivalent == 0 {
		return 0
	}
	return 100 * float64(identical) / float64(equivalent)
}

// normaliseScore maps a raw SSAP score to [0, 100] with the logarithmic
// form 100 * log(S+1) / log(L+1), where L is a size penalty derived from
// both lengths (spec §4.5). L is taken as the mean of the two lengths: a
// comparison between two structures of very different sizes is penalised
// relative to the shorter length alone, and the mean degrades gracefully to
// the single-length case when lenA == lenB.
func normaliseScore(raw float64, lenA, lenB int) float64 {
	l := float64(lenA+lenB) / 2
	if l <= 0 {
		return 0
	}
	denom := math.Log(l + 1)
	if denom == 0 {
		return 0
	}
	return 100 * math.Log(raw+1) / denom
}

func rmsdAfterSuperposition(a, b *protein.Protein, align alignment.Alignment) float64 {
	var movingPts, refPts []protein.Vec3
	for pos := 0; pos < align.Length(); pos++ {
		pa, pb := align.At(0, pos), align.At(1, pos)
		if !pa.Present || !pb.Present {
			continue
		}
		movingPts = append(movingPts, b.Residues[pb.ResIdx].CA)
		refPts = append(refPts, a.Residues[pa.ResIdx].CA)
	}
	if len(movingPts) < 3 {
		return 0
	}
	_, rmsd, err := superpose.Kabsch(movingPts, refPts)
	if err != nil {
		return 0
	}
	return rmsd
}
