/*
cath-resolve-hits reads a whitespace-separated hits file (label, score,
segment list; the score type for every line comes from -score-type) and
writes the resolved, non-overlapping archive to stdout (spec §4.9, §6.2).

Usage: cath-resolve-hits [OPTIONS] hitsfile
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/UCLOrengoGroup/cath-tools-go/resolve"
	"github.com/UCLOrengoGroup/cath-tools-go/seq"
)

var (
	fullLength        = flag.Int("trim-full-length", 1, "TrimSpec.FullLength (1 disables trimming)")
	totalTrimming     = flag.Int("trim-total", 0, "TrimSpec.TotalTrimming")
	scoreThreshold    = flag.Float64("score-threshold", 0, "Minimum resscr_t score a hit must reach to be considered")
	scoreTypeFlag     = flag.String("score-type", "crh", "Score space hits are reported in: crh, evalue, or bitscore")
	trimmed           = flag.Bool("output-trimmed-segments", false, "Report trimmed segment boundaries instead of original ones")
	minGapLength      = flag.Uint("min-gap-length", 0, "Gap beyond which a hit's segments count as separate regions in the -permit-full-overlap containment check (0 disables)")
	permitFullOverlap = flag.Bool("permit-full-overlap", false, "Don't veto a hit fully contained within another chosen hit's segments")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] hitsfile\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Each input line: label score seg1_start-seg1_end[,seg2_start-seg2_end,...]\n")
	flag.PrintDefaults()
}

func scoreTypeFromFlag(s string) (resolve.ScoreType, error) {
	switch strings.ToLower(s) {
	case "crh":
		return resolve.CrhValue, nil
	case "evalue":
		return resolve.Evalue, nil
	case "bitscore":
		return resolve.BitScore, nil
	default:
		return 0, errors.Errorf("unrecognised -score-type %q", s)
	}
}

func parseSegs(field string) (seq.SeqSegRun, error) {
	parts := strings.Split(field, ",")
	segs := make(seq.SeqSegRun, 0, len(parts))
	for _, part := range parts {
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return nil, errors.Errorf("malformed segment %q", part)
		}
		start, err := strconv.Atoi(bounds[0])
		if err != nil {
			return nil, errors.Wrapf(err, "malformed segment start %q", bounds[0])
		}
		stop, err := strconv.Atoi(bounds[1])
		if err != nil {
			return nil, errors.Wrapf(err, "malformed segment stop %q", bounds[1])
		}
		s, err := seq.NewSeqSeg(seq.ResIdx(start), seq.ResIdx(stop))
		if err != nil {
			return nil, err
		}
		segs = append(segs, s)
	}
	return segs, nil
}

func readHits(path string, st resolve.ScoreType) ([]resolve.FullHit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var hits []resolve.FullHit
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, errors.Errorf("line %d: expected 3 fields (label score segments), got %d", lineNo, len(fields))
		}
		score, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: malformed score", lineNo)
		}
		segs, err := parseSegs(fields[2])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		hits = append(hits, resolve.FullHit{Label: fields[0], Score: score, ScoreType: st, Segs: segs})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading hits file")
	}
	return hits, nil
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("exactly 1 positional argument required (hitsfile), got %d", flag.NArg())
	}

	st, err := scoreTypeFromFlag(*scoreTypeFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	hits, err := readHits(flag.Arg(0), st)
	if err != nil {
		log.Fatalf("reading hits: %v", err)
	}

	opts := resolve.Options{
		Trim:                    seq.TrimSpec{FullLength: *fullLength, TotalTrimming: *totalTrimming},
		ScoreThreshold:          *scoreThreshold,
		PermitFullOverlap:       *permitFullOverlap,
		OutputTrimmedBoundaries: *trimmed,
	}
	if *minGapLength > 0 {
		gap := uint32(*minGapLength)
		opts.MaxGap = &gap
	}
	archive, histogram, err := resolve.Resolve(hits, opts)
	if err != nil {
		log.Fatalf("resolve.Resolve: %v", err)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, idx := range archive.HitIdxs {
		h := hits[idx]
		segs := h.Segs
		if *trimmed {
			segs = segs.TrimAll(opts.Trim)
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%s\n", flag.Arg(0), h.Label, h.Score, formatSegs(segs))
	}
	fmt.Fprintf(os.Stderr, "resolved archive score: %.4f\n", archive.Score)
	for _, entry := range histogram {
		fmt.Fprintf(os.Stderr, "discarded %s: overlaps chosen archive by %.1f%%\n", entry.Label, entry.Fraction*100)
	}
}

func formatSegs(segs seq.SeqSegRun) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = fmt.Sprintf("%d-%d", s.Start, s.Stop)
	}
	return strings.Join(parts, ",")
}
