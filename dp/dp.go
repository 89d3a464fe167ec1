// Package dp implements a generic Needleman-Wunsch-style grid aligner,
// instantiated at two levels by ssap: once per residue pair (the "inner"
// DP over the view matrix) and once over whole proteins (the "outer" DP
// using scores populated by the inner runs).
//
// The grid and traceback are modeled on a Levenshtein edit-distance
// matrix (a row-major []float64 plus a small traversal-
// direction enum), generalized from edit distance to affine-gap
// similarity maximization with deterministic tie-breaking.
package dp

import "math"

// step identifies one of the three traversals into a cell, mirroring the
// {diagonal, right, down} enum of a Levenshtein matrix, renamed to this
// engine's row/col vocabulary.
type step uint8

const (
	stepDiag step = iota
	stepUp        // advance in rows only (gap in the column sequence)
	stepLeft      // advance in cols only (gap in the row sequence)
)

// CellScorer supplies the match/mismatch score for cell (row, col), i.e.
// comparing row-sequence position `row` against col-sequence position
// `col` (both 0-based).
type CellScorer func(row, col int) float64

// Config is the gap policy shared by both DP instantiations (spec §4.4).
type Config struct {
	GapOpen   float64 // penalty (as a positive cost) to open a gap
	GapExtend float64 // penalty (as a positive cost) to extend a gap
}

// cell holds one grid cell's best score and the step that produced it.
type cell struct {
	score float64
	from  step
}

// grid is a row-major (m+1) x (n+1) matrix of cells.
type grid struct {
	nRow, nCol int
	data       []cell
}

func newGrid(m, n int) grid {
	return grid{nRow: m + 1, nCol: n + 1, data: make([]cell, (m+1)*(n+1))}
}

func (g grid) at(i, j int) cell     { return g.data[i*g.nCol+j] }
func (g grid) set(i, j int, c cell) { g.data[i*g.nCol+j] = c }

// Result is the outcome of Align: the optimal total score and, for each
// row position 0..m-1, whether it was aligned to a column position (and
// which) or left as a gap.
type Result struct {
	Score float64
	// Path has one entry per emitted alignment column. Each entry gives the
	// 0-based row and col index consumed at that column, or -1 if that side
	// is a gap.
	Path []PathStep
}

// PathStep is one column of the traceback.
type PathStep struct {
	Row, Col int // -1 if this side is a gap at this column
}

// Align computes the optimal monotone path from (0,0) to (m,n) under cell
// and the affine gap policy in cfg, with no free end-gaps (spec §4.4).
// Ties are broken so the result is deterministic: among candidate
// predecessors with equal score, the engine prefers, in order, diagonal,
// then up (advance in rows only), then left (advance in cols only) — i.e.
// lexicographically smallest (advance_in_A, advance_in_B) at each step.
func Align(m, n int, scorer CellScorer, cfg Config) Result {
	g := newGrid(m, n)

	// E(i,j): best score ending in a gap that advances rows (up).
	// F(i,j): best score ending in a gap that advances cols (left).
	e := make([]float64, (m+1)*(n+1))
	f := make([]float64, (m+1)*(n+1))
	neg := math.Inf(-1)
	idx := func(i, j int) int { return i*(n+1) + j }

	for i := 0; i <= m; i++ {
		for j := 0; j <= n; j++ {
			e[idx(i, j)] = neg
			f[idx(i, j)] = neg
		}
	}
	for i := 1; i <= m; i++ {
		e[idx(i, 0)] = -(cfg.GapOpen + float64(i-1)*cfg.GapExtend)
		g.set(i, 0, cell{score: e[idx(i, 0)], from: stepUp})
	}
	for j := 1; j <= n; j++ {
		f[idx(0, j)] = -(cfg.GapOpen + float64(j-1)*cfg.GapExtend)
		g.set(0, j, cell{score: f[idx(0, j)], from: stepLeft})
	}
	g.set(0, 0, cell{score: 0, from: stepDiag})

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			prevV := g.at(i-1, j).score
			eOpen := prevV - cfg.GapOpen
			eExtend := e[idx(i-1, j)] - cfg.GapExtend
			e[idx(i, j)] = math.Max(eOpen, eExtend)

			prevH := g.at(i, j-1).score
			fOpen := prevH - cfg.GapOpen
			fExtend := f[idx(i, j-1)] - cfg.GapExtend
			f[idx(i, j)] = math.Max(fOpen, fExtend)

			diagScore := g.at(i-1, j-1).score + scorer(i-1, j-1)

			best := diagScore
			from := stepDiag
			// Lexicographically prefer diag, then up, then left on ties.
			if e[idx(i, j)] > best {
				best = e[idx(i, j)]
				from = stepUp
			}
			if f[idx(i, j)] > best {
				best = f[idx(i, j)]
				from = stepLeft
			}
			g.set(i, j, cell{score: best, from: from})
		}
	}

	return Result{Score: g.at(m, n).score, Path: traceback(g, m, n)}
}

func traceback(g grid, m, n int) []PathStep {
	path := make([]PathStep, 0, m+n)
	i, j := m, n
	for i > 0 || j > 0 {
		c := g.at(i, j)
		switch c.from {
		case stepDiag:
			i--
			j--
			path = append(path, PathStep{Row: i, Col: j})
		case stepUp:
			i--
			path = append(path, PathStep{Row: i, Col: -1})
		case stepLeft:
			j--
			path = append(path, PathStep{Row: -1, Col: j})
		}
	}
	// reverse into forward order
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}
