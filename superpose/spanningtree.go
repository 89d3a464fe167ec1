// Package superpose builds a multiple structure alignment by gluing
// pairwise alignments along a maximum-spanning tree of pairwise scores
// (spec §4.7), then computes a Kabsch rigid-body superposition for every
// entry by composing transforms along a second spanning tree weighted by
// shared-column counts (spec §4.8).
package superpose

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"

	"github.com/UCLOrengoGroup/cath-tools-go/alignment"
)

// Edge is one scored pairwise relationship between two structures
// (indices into the structure pool BuildMultiAlignment/Superpose operate
// over).
type Edge struct {
	I, J  int
	Score float64
}

// SpanningTreeDisconnected is returned when the scored-edge graph over n
// structures isn't connected; Components lists the disconnected vertex
// groups.
type SpanningTreeDisconnected struct {
	Components [][]int
}

func (e *SpanningTreeDisconnected) Error() string {
	return fmt.Sprintf("superpose: scored-edge graph is disconnected: %d components", len(e.Components))
}

type unionFind struct {
	parent, rank []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// union merges the sets containing x and y, returning true if they were
// previously distinct (i.e. the edge belongs in the spanning tree/forest).
func (uf *unionFind) union(x, y int) bool {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return false
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

func (uf *unionFind) components() [][]int {
	groups := make(map[int][]int)
	for i := range uf.parent {
		r := uf.find(i)
		groups[r] = append(groups[r], i)
	}
	out := make([][]int, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(a, b int) bool { return out[a][0] < out[b][0] })
	return out
}

// sortEdgesDesc orders edges by descending score, with lower (i,j) pairs
// (in lexicographic order, i then j, both already normalised i<j) winning
// ties — the deterministic tie-break spec §4.7 requires.
func sortEdgesDesc(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		if out[a].I != out[b].I {
			return out[a].I < out[b].I
		}
		return out[a].J < out[b].J
	})
	return out
}

// maximumSpanningTree selects a maximum-weight spanning tree over n
// vertices and the given scored edges, in Kruskal acceptance order (spec
// §4.7, end-to-end scenario 4).
func maximumSpanningTree(n int, edges []Edge) ([]Edge, error) {
	sorted := sortEdgesDesc(edges)
	uf := newUnionFind(n)
	tree := make([]Edge, 0, n-1)
	for _, e := range sorted {
		if uf.union(e.I, e.J) {
			tree = append(tree, e)
		}
	}
	if len(tree) != n-1 {
		return nil, &SpanningTreeDisconnected{Components: uf.components()}
	}
	return tree, nil
}

// PairAlignment is one pairwise alignment over exactly two structures
// identified by pool index I and J; IEntry/JEntry give the entry index
// within Align that corresponds to each.
type PairAlignment struct {
	I, J           int
	IEntry, JEntry int
	Score          float64
	Align          alignment.Alignment
}

// BuildMultiAlignment selects a maximum-spanning tree over the scored
// pairwise alignments in pairs (one edge per pair, by (I,J) score) and
// glues them in an order that always attaches a new leaf to the
// already-built super-alignment, producing one entry per structure
// (spec §4.7). names, if non-nil, must have length n and supplies the
// output entry order's display names; it may be nil.
func BuildMultiAlignment(n int, pairs []PairAlignment, names []string, glueOpts alignment.GlueOpts) (alignment.Alignment, []Edge, error) {
	if n < 2 {
		return alignment.Alignment{}, nil, errors.E(fmt.Sprintf("superpose: need at least 2 structures, got %d", n))
	}
	edges := make([]Edge, len(pairs))
	byPair := make(map[[2]int]PairAlignment, len(pairs))
	for i, p := range pairs {
		lo, hi := p.I, p.J
		if lo > hi {
			lo, hi = hi, lo
		}
		edges[i] = Edge{I: lo, J: hi, Score: p.Score}
		byPair[[2]int{lo, hi}] = p
	}

	tree, err := maximumSpanningTree(n, edges)
	if err != nil {
		return alignment.Alignment{}, nil, err
	}

	lookup := func(i, j int) PairAlignment {
		lo, hi := i, j
		if lo > hi {
			lo, hi = hi, lo
		}
		return byPair[[2]int{lo, hi}]
	}

	order := incrementalOrder(tree)

	first := lookup(order[0].I, order[0].J)
	current := first.Align
	entryOf := map[int]int{first.I: first.IEntry, first.J: first.JEntry}

	for _, e := range order[1:] {
		var known, fresh int
		switch {
		case containsKey(entryOf, e.I) && !containsKey(entryOf, e.J):
			known, fresh = e.I, e.J
		case containsKey(entryOf, e.J) && !containsKey(entryOf, e.I):
			known, fresh = e.J, e.I
		default:
			return alignment.Alignment{}, nil, errors.E(fmt.Sprintf("superpose: internal error: edge (%d,%d) doesn't attach exactly one new leaf", e.I, e.J))
		}

		pa := lookup(known, fresh)
		var ib int
		if pa.I == known {
			ib = pa.IEntry
		} else {
			ib = pa.JEntry
		}
		ia := entryOf[known]
		priorEntries := current.NumEntries()

		current, err = alignment.Glue(current, ia, pa.Align, ib, glueOpts)
		if err != nil {
			return alignment.Alignment{}, nil, err
		}
		entryOf[fresh] = priorEntries
	}

	if names != nil {
		out := make([]string, len(entryOf))
		for structIdx, entryIdx := range entryOf {
			if structIdx < len(names) {
				out[entryIdx] = names[structIdx]
			}
		}
		current.Names = out
	}

	return current, tree, nil
}

func containsKey(m map[int]int, k int) bool {
	_, ok := m[k]
	return ok
}

// incrementalOrder reorders tree's edges (a valid spanning tree, in any
// order) into a sequence where every edge after the first shares exactly
// one endpoint with the union of all earlier edges — the order BuildMultiAlignment
// needs to glue one new leaf at a time. Ties among ready edges are broken
// by ascending (I,J), for determinism.
func incrementalOrder(tree []Edge) []Edge {
	if len(tree) == 0 {
		return tree
	}
	remaining := make([]Edge, len(tree))
	copy(remaining, tree)
	ordered := make([]Edge, 0, len(tree))

	first := remaining[0]
	ordered = append(ordered, first)
	remaining = remaining[1:]
	included := map[int]bool{first.I: true, first.J: true}

	for len(remaining) > 0 {
		bestIdx := -1
		for i, e := range remaining {
			ii, ij := included[e.I], included[e.J]
			if ii == ij {
				continue // either both or neither already included
			}
			if bestIdx == -1 || less(e, remaining[bestIdx]) {
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			// Shouldn't happen for a valid tree; fall back to the given order.
			ordered = append(ordered, remaining...)
			break
		}
		chosen := remaining[bestIdx]
		ordered = append(ordered, chosen)
		included[chosen.I] = true
		included[chosen.J] = true
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return ordered
}

func less(a, b Edge) bool {
	if a.I != b.I {
		return a.I < b.I
	}
	return a.J < b.J
}
