// Package structload is the CLI-side glue that turns a PDB file (plus
// optional DSSP and SEC companions) into a *protein.Protein. It lives
// outside the core deliberately (spec §1 "the core never parses files
// itself") and is only ever called from cmd/*.
package structload

import (
	"context"

	"github.com/pkg/errors"

	"github.com/UCLOrengoGroup/cath-tools-go/encoding/dssp"
	"github.com/UCLOrengoGroup/cath-tools-go/encoding/pdb"
	"github.com/UCLOrengoGroup/cath-tools-go/encoding/sec"
	"github.com/UCLOrengoGroup/cath-tools-go/protein"
	"github.com/UCLOrengoGroup/cath-tools-go/util"
)

// Sources names the files that make up one structure: a required PDB file
// and optional DSSP/SEC companions.
type Sources struct {
	Name    string
	PDBPath string
	DSSPath string
	SECPath string
}

// Load reads Sources into a *protein.Protein: PDB supplies residue
// identity, Cα coordinates, and backbone frames; DSSP (if given) supplies
// per-residue SS tags; SEC (if given) supplies each contiguous SS
// element's planar-angle signature, matched to elements in file order.
func Load(ctx context.Context, src Sources) (*protein.Protein, error) {
	pdbFile, err := util.OpenMaybeGzip(ctx, src.PDBPath)
	if err != nil {
		return nil, errors.Wrapf(err, "structload: opening PDB file for %s", src.Name)
	}
	defer pdbFile.Close()

	raw, err := pdb.ParsePDB(pdbFile)
	if err != nil {
		return nil, errors.Wrapf(err, "structload: parsing PDB file for %s", src.Name)
	}
	residues, err := pdb.ToResidues(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "structload: building residues for %s", src.Name)
	}

	if src.DSSPath != "" {
		dsspFile, err := util.OpenMaybeGzip(ctx, src.DSSPath)
		if err != nil {
			return nil, errors.Wrapf(err, "structload: opening DSSP file for %s", src.Name)
		}
		tags, err := dssp.ParseDSSP(dsspFile)
		dsspFile.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "structload: parsing DSSP file for %s", src.Name)
		}
		dssp.ApplyTags(residues, tags)
	}

	secStrucs := detectSecStrucs(residues)

	if src.SECPath != "" {
		secFile, err := util.OpenMaybeGzip(ctx, src.SECPath)
		if err != nil {
			return nil, errors.Wrapf(err, "structload: opening SEC file for %s", src.Name)
		}
		elements, err := sec.ParseSEC(secFile)
		secFile.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "structload: parsing SEC file for %s", src.Name)
		}
		applyAngles(secStrucs, elements)
	}

	for i := range residues {
		residues[i].SecStrucID = -1
	}
	for elemIdx, ss := range secStrucs {
		for resIdx := ss.Start; resIdx <= ss.Stop; resIdx++ {
			residues[resIdx].SecStrucID = elemIdx
		}
	}

	return protein.New(src.Name, residues, secStrucs)
}

// detectSecStrucs groups maximal runs of consecutive residues sharing the
// same non-Other SS tag into SecStruc elements, in residue order.
func detectSecStrucs(residues []protein.Residue) []protein.SecStruc {
	var out []protein.SecStruc
	i := 0
	for i < len(residues) {
		tag := residues[i].SS
		if tag == protein.Other {
			i++
			continue
		}
		start := i
		for i < len(residues) && residues[i].SS == tag {
			i++
		}
		out = append(out, protein.SecStruc{Tag: tag, Start: start, Stop: i - 1})
	}
	return out
}

// applyAngles copies each SEC element's planar-angle triple onto the
// matching (by file order) detected SecStruc, leaving unmatched elements
// at their zero angles.
func applyAngles(secStrucs []protein.SecStruc, elements []sec.Element) {
	for i := range secStrucs {
		if i >= len(elements) {
			break
		}
		secStrucs[i].Phi = elements[i].Phi
		secStrucs[i].Psi = elements[i].Psi
		secStrucs[i].Omega = elements[i].Omega
	}
}
