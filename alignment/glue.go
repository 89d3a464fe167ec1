package alignment

import "fmt"

// GlueOpts controls optional stricter checks for Glue.
type GlueOpts struct {
	// RequireConsecutive, if true, additionally requires that the shared
	// entry's present residue indices in the glued output are consecutive
	// (no gaps in the residue numbering), mirroring the legacy
	// check_entry_positions_are_consecutive check that some but not all
	// code paths applied (spec §9 Open Question). Defaults to false: only
	// the strictly-increasing invariant is enforced, per spec §4.6/§8.
	RequireConsecutive bool
}

// Glue composes two alignments that share one entry: A's entry ia and B's
// entry ib must refer to residue indices of the same structure. The result
// has A.NumEntries()+B.NumEntries()-1 entries (ia's slot absorbs ib) and a
// length determined by walking both alignments in parallel from position 0
// (spec §4.6).
func Glue(a Alignment, ia int, b Alignment, ib int, opts GlueOpts) (Alignment, error) {
	if ia < 0 || ia >= a.NumEntries() {
		return Alignment{}, fmt.Errorf("alignment: glue: ia %d out of range", ia)
	}
	if ib < 0 || ib >= b.NumEntries() {
		return Alignment{}, fmt.Errorf("alignment: glue: ib %d out of range", ib)
	}

	aEntries := a.NumEntries()
	bOtherEntries := entriesExcept(b.NumEntries(), ib)

	var outNames []string
	if len(a.Names) > 0 || len(b.Names) > 0 {
		outNames = make([]string, 0, aEntries+len(bOtherEntries))
		outNames = append(outNames, padNames(a.Names, aEntries)...)
		for _, e := range bOtherEntries {
			outNames = append(outNames, nameOrEmpty(b.Names, e))
		}
	}

	outCols := make([][]Pos, aEntries+len(bOtherEntries))

	posA, posB := 0, 0
	lenA, lenB := a.Length(), b.Length()

	for posA < lenA || posB < lenB {
		aDone := posA >= lenA
		bDone := posB >= lenB
		aPresent := !aDone && a.At(ia, posA).Present
		bPresent := !bDone && b.At(ib, posB).Present

		switch {
		case !aDone && !aPresent:
			// A's own row hasn't reached the shared entry yet; it must be
			// emitted on its own before any matching can proceed.
			emitFromA(a, ia, posA, len(bOtherEntries), outCols, aEntries)
			posA++
		case aDone:
			emitFromB(ib, b, posB, bOtherEntries, outCols, aEntries, ia)
			posB++
		case bDone:
			emitFromA(a, ia, posA, len(bOtherEntries), outCols, aEntries)
			posA++
		case !bPresent:
			emitFromB(ib, b, posB, bOtherEntries, outCols, aEntries, ia)
			posB++
		default:
			av, bv := a.At(ia, posA), b.At(ib, posB)
			switch {
			case av.ResIdx == bv.ResIdx:
				emitFromBoth(a, ia, posA, b, ib, posB, bOtherEntries, outCols, aEntries)
				posA++
				posB++
			case av.ResIdx < bv.ResIdx:
				emitFromA(a, ia, posA, len(bOtherEntries), outCols, aEntries)
				posA++
			default:
				emitFromB(ib, b, posB, bOtherEntries, outCols, aEntries, ia)
				posB++
			}
		}
	}

	out, err := New(outNames, outCols)
	if err != nil {
		return Alignment{}, err
	}
	if opts.RequireConsecutive {
		if err := checkConsecutive(out, ia); err != nil {
			return Alignment{}, err
		}
	}
	return out, nil
}

func entriesExcept(n, skip int) []int {
	out := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != skip {
			out = append(out, i)
		}
	}
	return out
}

func padNames(names []string, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = nameOrEmpty(names, i)
	}
	return out
}

func nameOrEmpty(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return ""
}

func emitFromA(a Alignment, ia, posA, bOtherCount int, outCols [][]Pos, aEntries int) {
	for e := 0; e < aEntries; e++ {
		outCols[e] = append(outCols[e], a.At(e, posA))
	}
	for k := 0; k < bOtherCount; k++ {
		outCols[aEntries+k] = append(outCols[aEntries+k], Gap)
	}
}

// emitFromB emits a row that exists only because B has coverage the
// current A row doesn't: every A-only column is a gap, the shared column
// (ia) takes B's value for ib, and every B-other column takes B's value.
func emitFromB(ib int, b Alignment, posB int, bOther []int, outCols [][]Pos, aEntries, ia int) {
	for e := 0; e < aEntries; e++ {
		if e == ia {
			outCols[e] = append(outCols[e], b.At(ib, posB))
		} else {
			outCols[e] = append(outCols[e], Gap)
		}
	}
	for k, e := range bOther {
		outCols[aEntries+k] = append(outCols[aEntries+k], b.At(e, posB))
	}
}

func emitFromBoth(a Alignment, ia, posA int, b Alignment, ib, posB int, bOther []int, outCols [][]Pos, aEntries int) {
	for e := 0; e < aEntries; e++ {
		outCols[e] = append(outCols[e], a.At(e, posA))
	}
	for k, e := range bOther {
		outCols[aEntries+k] = append(outCols[aEntries+k], b.At(e, posB))
	}
}

func checkConsecutive(a Alignment, sharedEntry int) error {
	last := int64(-1)
	for pos := 0; pos < a.Length(); pos++ {
		p := a.At(sharedEntry, pos)
		if !p.Present {
			continue
		}
		if last >= 0 && int64(p.ResIdx) != last+1 {
			return fmt.Errorf("alignment: glue: shared entry residues are not consecutive at position %d", pos)
		}
		last = int64(p.ResIdx)
	}
	return nil
}
