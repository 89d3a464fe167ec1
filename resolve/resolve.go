// Package resolve implements the scored-interval scheduler that picks the
// highest-scoring, non-overlapping subset of hits covering one sequence
// (spec §4.9), grounded on the event-arrow sweep idiom in
// interval/endpoint_index.go's UnionScanner.
package resolve

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/minio/highwayhash"

	"github.com/UCLOrengoGroup/cath-tools-go/seq"
)

// ScoreType records which score space a FullHit's Score was reported in.
type ScoreType int

const (
	CrhValue ScoreType = iota
	Evalue
	BitScore
)

// FullHit is the resolver's input: one candidate domain match against a
// sequence.
type FullHit struct {
	Segs      seq.SeqSegRun
	Label     string
	Score     float64
	ScoreType ScoreType
}

// InvalidScore reports a hit whose declared score isn't finite.
type InvalidScore struct {
	Label string
	Score float64
}

func (e *InvalidScore) Error() string {
	return "resolve: hit " + e.Label + ": non-finite score"
}

// UnknownConfigKey reports a config-from-map key outside the resolver's
// recognised set (spec §6.4).
type UnknownConfigKey struct {
	Name string
}

func (e *UnknownConfigKey) Error() string {
	return "resolve: unknown config key " + e.Name
}

// toResscr converts a FullHit's score into the common, higher-is-better
// comparison space the resolver's DP operates in. Evalue is log-transformed
// (smaller e-value ⇒ larger resscr); the others are already higher-is-better.
func toResscr(score float64, st ScoreType) float64 {
	switch st {
	case Evalue:
		if score <= 0 {
			return math.MaxFloat32 / 2
		}
		return -math.Log10(score)
	default:
		return score
	}
}

// CalcHit is the resolver's internal representation: trimmed segments, a
// resscr_t score, and the index of the FullHit it came from.
type CalcHit struct {
	Segs      seq.SeqSegRun
	Score     float32
	SourceIdx int
}

// Options configures one Resolve call.
type Options struct {
	Trim           seq.TrimSpec
	ScoreThreshold float64
	// MaxGap, if non-nil, splits each hit's segments into gap-delimited
	// regions: a new region starts whenever consecutive segments of the
	// same hit are more than MaxGap apart. PermitFullOverlap's containment
	// check is evaluated per region, not across a hit's full trimmed span,
	// so a gapped multi-domain hit isn't treated as if it covered the gap
	// (spec §4.9 max_gap / §6.4 min_gap_length).
	MaxGap *uint32
	// PermitFullOverlap exempts a hit pair from the overlap veto when one
	// hit's segments (region by region, see MaxGap) lie entirely within the
	// other's — e.g. a short domain hit fully nested inside a longer
	// multi-domain hit doesn't, by itself, conflict with it (spec §6.4).
	// The underlying segment-pair overlap test is unchanged; this only
	// suppresses the conflict for a provably-contained pair.
	PermitFullOverlap bool
	// OutputTrimmedBoundaries records whether trimmed segment boundaries
	// should be reported in place of original ones. Resolve doesn't consult
	// it: it's recognised so a caller building Options from a saved job
	// spec (OptionsFromMap) can carry the output-formatting choice
	// alongside the resolving ones (spec §6.4).
	OutputTrimmedBoundaries bool
}

// OptionsFromMap builds Options from a generic key/value config map, for
// callers that receive options from a non-flag source (e.g. a saved job
// spec) rather than command-line flags. Keys outside the resolver's
// recognised set fail with UnknownConfigKey (spec §6.4).
func OptionsFromMap(m map[string]interface{}) (Options, error) {
	var opts Options
	for key, val := range m {
		switch key {
		case "trim_spec":
			spec, ok := val.(seq.TrimSpec)
			if !ok {
				return Options{}, errors.E(fmt.Sprintf("resolve: config key %q: expected seq.TrimSpec, got %T", key, val))
			}
			opts.Trim = spec
		case "score_threshold":
			v, err := configFloat(key, val)
			if err != nil {
				return Options{}, err
			}
			opts.ScoreThreshold = v
		case "min_gap_length":
			v, err := configFloat(key, val)
			if err != nil {
				return Options{}, err
			}
			gap := uint32(v)
			opts.MaxGap = &gap
		case "permit_full_overlap":
			v, ok := val.(bool)
			if !ok {
				return Options{}, errors.E(fmt.Sprintf("resolve: config key %q: expected bool, got %T", key, val))
			}
			opts.PermitFullOverlap = v
		case "output_trimmed_boundaries":
			v, ok := val.(bool)
			if !ok {
				return Options{}, errors.E(fmt.Sprintf("resolve: config key %q: expected bool, got %T", key, val))
			}
			opts.OutputTrimmedBoundaries = v
		default:
			return Options{}, &UnknownConfigKey{Name: key}
		}
	}
	return opts, nil
}

// configFloat accepts either a float64 or an int, the two shapes a decoded
// JSON/YAML job-spec value is likely to arrive as.
func configFloat(key string, val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, errors.E(fmt.Sprintf("resolve: config key %q: expected number, got %T", key, val))
	}
}

// ScoredArchive is the resolver's chosen, non-overlapping subset of hits
// (indices into the FullHit list passed to Resolve) and its summed score.
type ScoredArchive struct {
	HitIdxs []int
	Score   float64
}

// OverlapEntry records, for one discarded hit, the highest fraction of its
// trimmed length that overlaps any single chosen hit.
type OverlapEntry struct {
	Label    string
	Fraction float64
}

// toCalcHits converts hits to CalcHit, trimming segments under spec,
// dropping fully-trimmed segments, dropping hits with no segments left or
// with score below threshold, and reporting non-finite scores.
func toCalcHits(hits []FullHit, opts Options) ([]CalcHit, error) {
	out := make([]CalcHit, 0, len(hits))
	for idx, h := range hits {
		resscr := toResscr(h.Score, h.ScoreType)
		if math.IsNaN(resscr) || math.IsInf(resscr, 0) {
			return nil, &InvalidScore{Label: h.Label, Score: h.Score}
		}
		if resscr < opts.ScoreThreshold {
			continue
		}
		trimmed := h.Segs.TrimAll(opts.Trim)
		if len(trimmed) == 0 {
			continue
		}
		out = append(out, CalcHit{Segs: trimmed, Score: float32(resscr), SourceIdx: idx})
	}
	return out, nil
}

// boundsOf returns segs' overall start (minimum segment start) and stop
// (maximum segment stop) arrows.
func boundsOf(segs seq.SeqSegRun) (seq.SeqArrow, seq.SeqArrow) {
	start := segs[0].StartArrow()
	stop := segs[0].StopArrow()
	for _, s := range segs[1:] {
		if s.StartArrow() < start {
			start = s.StartArrow()
		}
		if s.StopArrow() > stop {
			stop = s.StopArrow()
		}
	}
	return start, stop
}

// trimmedStartStop returns a CalcHit's overall trimmed start (minimum
// segment start) and stop (maximum segment stop) arrows.
func trimmedStartStop(c CalcHit) (seq.SeqArrow, seq.SeqArrow) {
	return boundsOf(c.Segs)
}

// splitRegions splits segs into runs of consecutive segments, starting a new
// region whenever the gap between one segment's stop and the next's start
// exceeds maxGap. A nil maxGap keeps every hit as a single region, matching
// the pre-min_gap_length behaviour.
func splitRegions(segs seq.SeqSegRun, maxGap *uint32) []seq.SeqSegRun {
	if len(segs) == 0 {
		return nil
	}
	regions := []seq.SeqSegRun{{segs[0]}}
	for _, s := range segs[1:] {
		last := regions[len(regions)-1]
		gap := uint32(s.StartArrow() - last[len(last)-1].StopArrow())
		if maxGap != nil && gap > *maxGap {
			regions = append(regions, seq.SeqSegRun{s})
			continue
		}
		regions[len(regions)-1] = append(regions[len(regions)-1], s)
	}
	return regions
}

// fullyContains reports whether every gap-delimited region of inner lies
// entirely within the bounds of some region of outer, making inner
// redundant of outer for overlap purposes under permit_full_overlap.
func fullyContains(outer, inner CalcHit, maxGap *uint32) bool {
	outerRegions := splitRegions(outer.Segs, maxGap)
	for _, innerRegion := range splitRegions(inner.Segs, maxGap) {
		iStart, iStop := boundsOf(innerRegion)
		contained := false
		for _, outerRegion := range outerRegions {
			oStart, oStop := boundsOf(outerRegion)
			if oStart <= iStart && iStop <= oStop {
				contained = true
				break
			}
		}
		if !contained {
			return false
		}
	}
	return true
}

// overlaps reports whether two CalcHits conflict under opts: it first
// applies the spec's literal segment-pair overlap test
// (overlap(h1,h2) := exists s1 in h1, s2 in h2 with s1 overlapping s2), then,
// if PermitFullOverlap is set, exempts a pair where one hit is wholly
// contained in the other.
func overlaps(a, b CalcHit, opts Options) bool {
	conflict := false
outer:
	for _, sa := range a.Segs {
		for _, sb := range b.Segs {
			if sa.Overlaps(sb) {
				conflict = true
				break outer
			}
		}
	}
	if !conflict {
		return false
	}
	if opts.PermitFullOverlap && (fullyContains(a, b, opts.MaxGap) || fullyContains(b, a, opts.MaxGap)) {
		return false
	}
	return true
}

// archiveConflicts reports whether any hit already in archive overlaps c.
func archiveConflicts(calcHits []CalcHit, archive []int, c CalcHit, opts Options) bool {
	for _, idx := range archive {
		if overlaps(calcHits[idx], c, opts) {
			return true
		}
	}
	return false
}

type compatCacheKey = [highwayhash.Size]uint8

var compatCacheSeed = compatCacheKey{}

// compatKey derives a lookup key for memoizing "does archive snapshot p
// conflict with hit idx" checks — the backward scan in scenario 6
// (interspersed hits) revisits the same (p, idx) pair repeatedly as it
// walks down through candidate snapshots.
func compatKey(p, calcHitIdx int) compatCacheKey {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(p))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(calcHitIdx))
	return highwayhash.Sum(buf[:], compatCacheSeed[:])
}

// Resolve selects the highest-scoring, pairwise non-overlapping subset of
// hits (spec §4.9): converts to CalcHit space, sweeps distinct event
// arrows left to right with a best-so-far DP, and returns the winning
// archive plus an overlap histogram for every discarded hit.
func Resolve(hits []FullHit, opts Options) (ScoredArchive, []OverlapEntry, error) {
	calcHits, err := toCalcHits(hits, opts)
	if err != nil {
		return ScoredArchive{}, nil, err
	}
	if len(calcHits) == 0 {
		return ScoredArchive{}, nil, nil
	}

	arrowSet := make(map[seq.SeqArrow]struct{})
	for _, c := range calcHits {
		for _, a := range c.Segs.EventArrows() {
			arrowSet[a] = struct{}{}
		}
	}
	arrows := make([]seq.SeqArrow, 0, len(arrowSet))
	for a := range arrowSet {
		arrows = append(arrows, a)
	}
	sort.Slice(arrows, func(i, j int) bool { return arrows[i] < arrows[j] })

	arrowIndex := make(map[seq.SeqArrow]int, len(arrows))
	for i, a := range arrows {
		arrowIndex[a] = i
	}

	order := make([]int, len(calcHits))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		ax, bx := order[x], order[y]
		_, stopA := trimmedStartStop(calcHits[ax])
		_, stopB := trimmedStartStop(calcHits[bx])
		if stopA != stopB {
			return stopA < stopB
		}
		if calcHits[ax].Score != calcHits[bx].Score {
			return calcHits[ax].Score > calcHits[bx].Score
		}
		return segLayoutLess(calcHits[ax].Segs, calcHits[bx].Segs)
	})

	bestScore := make([]float64, len(arrows)+1)
	bestArchive := make([][]int, len(arrows)+1)

	compatCache := make(map[compatCacheKey]bool)
	conflicts := func(p, calcHitIdx int) bool {
		key := compatKey(p, calcHitIdx)
		if v, ok := compatCache[key]; ok {
			return v
		}
		v := archiveConflicts(calcHits, bestArchive[p], calcHits[calcHitIdx], opts)
		compatCache[key] = v
		return v
	}

	// findP returns the largest snapshot index p <= upper (bestScore's
	// indexing: snapshot p is the state after arrows[p-1]) whose archive
	// doesn't conflict with calcHitIdx, scanning backward from upper.
	findP := func(upper int, calcHitIdx int) int {
		for p := upper; p > 0; p-- {
			if !conflicts(p, calcHitIdx) {
				return p
			}
		}
		return 0
	}

	groupStart := 0
	for i := range arrows {
		bestScore[i+1] = bestScore[i]
		bestArchive[i+1] = bestArchive[i]

		groupEnd := groupStart
		for groupEnd < len(order) {
			_, stop := trimmedStartStop(calcHits[order[groupEnd]])
			if arrowIndex[stop] != i {
				break
			}
			groupEnd++
		}

		for _, hitIdx := range order[groupStart:groupEnd] {
			// Scan back from the snapshot just before this hit's own stop
			// arrow, so a hit can join an archive whose hits it intersperses.
			p := findP(i, hitIdx)
			candidate := bestScore[p] + float64(calcHits[hitIdx].Score)
			if candidate > bestScore[i+1] {
				bestScore[i+1] = candidate
				archive := make([]int, len(bestArchive[p])+1)
				copy(archive, bestArchive[p])
				archive[len(archive)-1] = hitIdx
				bestArchive[i+1] = archive
			}
		}
		groupStart = groupEnd
	}

	chosenCalc := bestArchive[len(arrows)]
	chosen := make(map[int]bool, len(chosenCalc))
	sourceIdxs := make([]int, len(chosenCalc))
	for i, ci := range chosenCalc {
		sourceIdxs[i] = calcHits[ci].SourceIdx
		chosen[ci] = true
	}
	sort.Ints(sourceIdxs)

	histogram := make([]OverlapEntry, 0)
	for i, c := range calcHits {
		if chosen[i] {
			continue
		}
		best := 0.0
		total := totalTrimmedLength(c.Segs)
		for j := range calcHits {
			if !chosen[j] {
				continue
			}
			frac := overlapFraction(c.Segs, calcHits[j].Segs, total)
			if frac > best {
				best = frac
			}
		}
		histogram = append(histogram, OverlapEntry{Label: hits[c.SourceIdx].Label, Fraction: best})
	}

	return ScoredArchive{HitIdxs: sourceIdxs, Score: bestScore[len(arrows)]}, histogram, nil
}

func segLayoutLess(a, b seq.SeqSegRun) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].Start != b[i].Start {
			return a[i].Start < b[i].Start
		}
		if a[i].Stop != b[i].Stop {
			return a[i].Stop < b[i].Stop
		}
	}
	return len(a) < len(b)
}

func totalTrimmedLength(segs seq.SeqSegRun) int {
	total := 0
	for _, s := range segs {
		total += s.Length()
	}
	return total
}

func overlapFraction(a, b seq.SeqSegRun, aTotal int) float64 {
	if aTotal == 0 {
		return 0
	}
	overlap := 0
	for _, sa := range a {
		for _, sb := range b {
			lo := sa.StartArrow()
			if sb.StartArrow() > lo {
				lo = sb.StartArrow()
			}
			hi := sa.StopArrow()
			if sb.StopArrow() < hi {
				hi = sb.StopArrow()
			}
			if hi > lo {
				overlap += int(hi - lo)
			}
		}
	}
	return float64(overlap) / float64(aTotal)
}
