// Package alignment implements the multi-entry alignment data model and
// the glue operation that composes two alignments sharing a common entry
// (spec §3 "Alignment", §4.6).
package alignment

import "fmt"

// Pos is one optional aligned position: a residue index, or absent (a gap).
type Pos struct {
	Present bool
	ResIdx  uint32
	Score   float64 // only meaningful if Present and the alignment carries scores
}

// Gap is the zero-value absent Pos.
var Gap = Pos{}

// Present constructs a present Pos with no attached score.
func Present(idx uint32) Pos { return Pos{Present: true, ResIdx: idx} }

// PresentScored constructs a present Pos with an attached per-cell score.
func PresentScored(idx uint32, score float64) Pos {
	return Pos{Present: true, ResIdx: idx, Score: score}
}

// Alignment is a table of E entries (columns) by L positions (rows); each
// cell is an optional residue index. New sets HasScores when at least one
// present cell has a non-zero Score; it does not check that every present
// cell carries a score, and a score of exactly 0 is not told apart from no
// score.
type Alignment struct {
	Names     []string // one per entry, may be empty
	cells     [][]Pos  // cells[entry][position]
	HasScores bool
}

// New constructs an Alignment from a per-entry list of Pos rows. All
// entries must have equal length, and each entry's present positions must
// be strictly increasing in ResIdx.
func New(names []string, cells [][]Pos) (Alignment, error) {
	if len(cells) == 0 {
		return Alignment{}, fmt.Errorf("alignment: no entries")
	}
	l := len(cells[0])
	for e, col := range cells {
		if len(col) != l {
			return Alignment{}, fmt.Errorf("alignment: entry %d has length %d, want %d", e, len(col), l)
		}
		if err := checkIncreasing(col); err != nil {
			return Alignment{}, fmt.Errorf("alignment: entry %d: %w", e, err)
		}
	}
	hasScores := false
	for _, col := range cells {
		for _, p := range col {
			if p.Present && p.Score != 0 {
				hasScores = true
			}
		}
	}
	return Alignment{Names: names, cells: cells, HasScores: hasScores}, nil
}

func checkIncreasing(col []Pos) error {
	last := int64(-1)
	for _, p := range col {
		if !p.Present {
			continue
		}
		if int64(p.ResIdx) <= last {
			return fmt.Errorf("residue indices not strictly increasing")
		}
		last = int64(p.ResIdx)
	}
	return nil
}

// NumEntries returns the number of entries (columns).
func (a Alignment) NumEntries() int { return len(a.cells) }

// Length returns the number of positions (rows).
func (a Alignment) Length() int {
	if len(a.cells) == 0 {
		return 0
	}
	return len(a.cells[0])
}

// At returns the cell for entry e at position pos.
func (a Alignment) At(e, pos int) Pos { return a.cells[e][pos] }

// Entry returns the full row of positions for entry e.
func (a Alignment) Entry(e int) []Pos { return a.cells[e] }

// Name returns the display name for entry e, or "" if unset.
func (a Alignment) Name(e int) string {
	if e < len(a.Names) {
		return a.Names[e]
	}
	return ""
}
