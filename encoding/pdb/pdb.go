// Package pdb reads the ATOM records of a PDB coordinate file into the
// core's Protein model, building each residue's orthonormal frame from its
// N, CA, and C backbone atoms.
package pdb

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/UCLOrengoGroup/cath-tools-go/protein"
)

var threeToAminoAcid = map[string]protein.AminoAcid{
	"ALA": protein.Ala, "ARG": protein.Arg, "ASN": protein.Asn, "ASP": protein.Asp,
	"CYS": protein.Cys, "GLN": protein.Gln, "GLU": protein.Glu, "GLY": protein.Gly,
	"HIS": protein.His, "ILE": protein.Ile, "LEU": protein.Leu, "LYS": protein.Lys,
	"MET": protein.Met, "PHE": protein.Phe, "PRO": protein.Pro, "SER": protein.Ser,
	"THR": protein.Thr, "TRP": protein.Trp, "TYR": protein.Tyr, "VAL": protein.Val,
}

func lookupAminoAcid(threeLetter string) protein.AminoAcid {
	if aa, ok := threeToAminoAcid[strings.ToUpper(strings.TrimSpace(threeLetter))]; ok {
		return aa
	}
	return protein.Unknown
}

// RawResidue is one residue as assembled from its ATOM records, before the
// backbone frame is derived and it's handed to protein.New.
type RawResidue struct {
	Chain      byte
	ResNo      int
	InsertCode byte
	AminoAcid  protein.AminoAcid
	N, CA, C   protein.Vec3
	HasN, HasCA, HasC bool
}

type residueKey struct {
	chain      byte
	resNo      int
	insertCode byte
}

// ParsePDB scans ATOM records (ignoring HETATM, and every other record
// type) and groups them into one RawResidue per distinct chain/residue
// number/insertion code, in first-seen order.
func ParsePDB(r io.Reader) ([]RawResidue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)

	var order []residueKey
	byKey := map[residueKey]*RawResidue{}

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 54 || !strings.HasPrefix(line, "ATOM") {
			continue
		}
		atomName := strings.TrimSpace(line[12:16])
		resName := line[17:20]
		chain := line[21]
		resNoStr := strings.TrimSpace(line[22:26])
		insertCode := line[26]

		resNo, err := strconv.Atoi(resNoStr)
		if err != nil {
			return nil, errors.Wrapf(err, "pdb: malformed residue number %q", resNoStr)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
		if err != nil {
			return nil, errors.Wrap(err, "pdb: malformed x coordinate")
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
		if err != nil {
			return nil, errors.Wrap(err, "pdb: malformed y coordinate")
		}
		z, err := strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
		if err != nil {
			return nil, errors.Wrap(err, "pdb: malformed z coordinate")
		}

		key := residueKey{chain: chain, resNo: resNo, insertCode: insertCode}
		res, ok := byKey[key]
		if !ok {
			res = &RawResidue{
				Chain:      chain,
				ResNo:      resNo,
				InsertCode: insertCode,
				AminoAcid:  lookupAminoAcid(resName),
			}
			byKey[key] = res
			order = append(order, key)
		}

		pos := protein.Vec3{X: x, Y: y, Z: z}
		switch atomName {
		case "N":
			res.N, res.HasN = pos, true
		case "CA":
			res.CA, res.HasCA = pos, true
		case "C":
			res.C, res.HasC = pos, true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "pdb: reading ATOM records")
	}

	raw := make([]RawResidue, 0, len(order))
	for _, key := range order {
		raw = append(raw, *byKey[key])
	}
	return raw, nil
}

// IncompleteBackbone reports that a residue is missing one of the three
// backbone atoms needed to derive an orientation frame.
type IncompleteBackbone struct {
	Chain byte
	ResNo int
}

func (e *IncompleteBackbone) Error() string {
	return fmt.Sprintf("pdb: residue %c%d missing N/CA/C backbone atom(s)", e.Chain, e.ResNo)
}

// BuildFrame derives a right-handed orthonormal basis from a residue's N,
// CA, and C backbone positions by Gram-Schmidt: e1 along CA->N, e3
// perpendicular to the N-CA-C plane, e2 completing the right-handed set.
func BuildFrame(ca, n, c protein.Vec3) protein.Frame {
	e1 := normalize(protein.Sub(n, ca))
	e3 := normalize(cross(e1, protein.Sub(c, ca)))
	e2 := cross(e3, e1)
	return protein.Frame{e1, e2, e3}
}

func normalize(v protein.Vec3) protein.Vec3 {
	length := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if length == 0 {
		return v
	}
	return protein.Vec3{X: v.X / length, Y: v.Y / length, Z: v.Z / length}
}

func cross(a, b protein.Vec3) protein.Vec3 {
	return protein.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// ToResidues converts raw ATOM-grouped residues into the core's Residue
// model. Residues missing any backbone atom are reported via
// IncompleteBackbone rather than silently skipped, since a missing frame
// would otherwise corrupt downstream view-vector geometry.
func ToResidues(raw []RawResidue) ([]protein.Residue, error) {
	residues := make([]protein.Residue, 0, len(raw))
	for _, r := range raw {
		if !r.HasN || !r.HasCA || !r.HasC {
			return nil, &IncompleteBackbone{Chain: r.Chain, ResNo: r.ResNo}
		}
		residues = append(residues, protein.Residue{
			AminoAcid: r.AminoAcid,
			ID:        protein.ResidueID{Chain: r.Chain, ResNo: r.ResNo, InsertCode: r.InsertCode},
			CA:        r.CA,
			Frame:     BuildFrame(r.CA, r.N, r.C),
			SS:        protein.Other,
			SecStrucID: -1,
		})
	}
	return residues, nil
}
