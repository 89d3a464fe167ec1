// Package ssapscores reads a pairwise SSAP scores file: whitespace-
// separated lines of "name1 name2 length1 length2 ssap_score num_equivs
// overlap_pc seq_id_pc rmsd" (spec §6.1).
package ssapscores

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Row is one parsed pairwise-scores line.
type Row struct {
	Name1, Name2                     string
	Length1, Length2                 int
	SsapScore                        float64
	NumEquivs                        int
	OverlapPct, SeqIdentityPct, RMSD float64
}

// ParseSsapScores reads the nine-field rows produced by an SSAP batch run.
// Blank lines are skipped; every numeric field must parse and must be
// non-negative (spec §6.1 "numeric fields non-negative").
func ParseSsapScores(r io.Reader) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)

	var rows []Row
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 9 {
			return nil, errors.Errorf("ssapscores: line %d: expected 9 fields, got %d", lineNo, len(fields))
		}

		length1, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, errors.Wrapf(err, "ssapscores: line %d: malformed length1", lineNo)
		}
		length2, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, errors.Wrapf(err, "ssapscores: line %d: malformed length2", lineNo)
		}
		ssapScore, err := parseNonNegative(fields[4])
		if err != nil {
			return nil, errors.Wrapf(err, "ssapscores: line %d: malformed ssap_score", lineNo)
		}
		numEquivs, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, errors.Wrapf(err, "ssapscores: line %d: malformed num_equivs", lineNo)
		}
		overlapPct, err := parseNonNegative(fields[6])
		if err != nil {
			return nil, errors.Wrapf(err, "ssapscores: line %d: malformed overlap_pc", lineNo)
		}
		seqIdentityPct, err := parseNonNegative(fields[7])
		if err != nil {
			return nil, errors.Wrapf(err, "ssapscores: line %d: malformed seq_id_pc", lineNo)
		}
		rmsd, err := parseNonNegative(fields[8])
		if err != nil {
			return nil, errors.Wrapf(err, "ssapscores: line %d: malformed rmsd", lineNo)
		}
		if length1 < 0 || length2 < 0 || numEquivs < 0 {
			return nil, errors.Errorf("ssapscores: line %d: negative length/count field", lineNo)
		}

		rows = append(rows, Row{
			Name1: fields[0], Name2: fields[1],
			Length1: length1, Length2: length2,
			SsapScore: ssapScore, NumEquivs: numEquivs,
			OverlapPct: overlapPct, SeqIdentityPct: seqIdentityPct, RMSD: rmsd,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "ssapscores: reading rows")
	}
	return rows, nil
}

func parseNonNegative(field string) (float64, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, errors.Errorf("value %q is not a non-negative finite number", field)
	}
	return v, nil
}
