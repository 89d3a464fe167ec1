// Package dssp reads a DSSP secondary-structure assignment file into
// per-residue SSTag values, keyed by the same chain/residue-number/
// insertion-code identity PDB parsing produces.
package dssp

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/UCLOrengoGroup/cath-tools-go/protein"
)

// ResidueKey identifies a residue the way DSSP and PDB both name it.
type ResidueKey struct {
	Chain      byte
	ResNo      int
	InsertCode byte
}

// classify maps a DSSP one-letter code to the core's coarse SS tag
// (spec §6.1): H, G, I fold into Helix; E, B fold into Strand; everything
// else, including the blank/coil code, is Other.
func classify(code byte) protein.SSTag {
	switch code {
	case 'H', 'G', 'I':
		return protein.Helix
	case 'E', 'B':
		return protein.Strand
	default:
		return protein.Other
	}
}

const headerMarker = "  #  RESIDUE"

// ParseDSSP reads the per-residue block of a DSSP file (skipping the
// header lines that precede the "  #  RESIDUE ..." column banner) and
// returns each residue's coarse SS tag, keyed by chain/residue
// number/insertion code so the core can join it against PDB-derived
// residues that have no secondary-structure information of their own.
func ParseDSSP(r io.Reader) (map[ResidueKey]protein.SSTag, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)

	tags := map[ResidueKey]protein.SSTag{}
	inBody := false
	for scanner.Scan() {
		line := scanner.Text()
		if !inBody {
			if strings.HasPrefix(line, headerMarker) {
				inBody = true
			}
			continue
		}
		if len(line) < 17 {
			continue
		}
		// DSSP's "!" chain-break marker has no residue number to key on.
		if strings.TrimSpace(line[13:14]) == "!" {
			continue
		}
		resNoStr := strings.TrimSpace(line[5:10])
		resNo, err := strconv.Atoi(resNoStr)
		if err != nil {
			return nil, errors.Wrapf(err, "dssp: malformed residue number %q", resNoStr)
		}
		key := ResidueKey{
			Chain:      line[11],
			ResNo:      resNo,
			InsertCode: line[10],
		}
		tags[key] = classify(line[16])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "dssp: reading residue records")
	}
	return tags, nil
}

// ApplyTags overwrites each residue's SS field from tags, leaving Other
// for any residue DSSP doesn't mention (spec §6.1 "Residues present in PDB
// but absent in DSSP get Other").
func ApplyTags(residues []protein.Residue, tags map[ResidueKey]protein.SSTag) {
	for i, r := range residues {
		key := ResidueKey{Chain: r.ID.Chain, ResNo: r.ID.ResNo, InsertCode: r.ID.InsertCode}
		if tag, ok := tags[key]; ok {
			residues[i].SS = tag
		} else {
			residues[i].SS = protein.Other
		}
	}
}
