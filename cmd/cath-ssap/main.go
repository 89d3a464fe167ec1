/*
cath-ssap compares two protein structures with the double dynamic-
programming SSAP algorithm and prints their alignment and scores.

Usage: cath-ssap [OPTIONS] pdb1 pdb2
*/
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/UCLOrengoGroup/cath-tools-go/alignment"
	"github.com/UCLOrengoGroup/cath-tools-go/runctx"
	"github.com/UCLOrengoGroup/cath-tools-go/ssap"
	"github.com/UCLOrengoGroup/cath-tools-go/structload"
)

var (
	dssp1 = flag.String("dssp1", "", "DSSP file for pdb1 (optional)")
	dssp2 = flag.String("dssp2", "", "DSSP file for pdb2 (optional)")
	sec1  = flag.String("sec1", "", "SEC file for pdb1 (optional)")
	sec2  = flag.String("sec2", "", "SEC file for pdb2 (optional)")

	gapOpen      = flag.Float64("gap-open", 1.0, "Affine gap open penalty")
	gapExtend    = flag.Float64("gap-extend", 0.5, "Affine gap extend penalty")
	scoreFloor   = flag.Float64("score-floor", 0.0, "Floor applied to the pair-score distance function")
	areaTol      = flag.Float64("area-tol", 5.0, "Property prefilter area tolerance")
	angleTol     = flag.Float64("angle-tol", 30.0, "Property prefilter angle tolerance")
	minLowerMat  = flag.Float64("min-lower-mat-score", 0.0, "Minimum inner-DP score written into the upper matrix")
	minResidues  = flag.Int("min-residues", 5, "Minimum residue count either structure must have")
	minSSFast    = flag.Int("min-ss-elements-fast-pass", 3, "Minimum SS element count on both sides for the fast pass to run")
	contextBonus = flag.Float64("context-sec-bonus", 0.0, "Bonus added when both residues' SS elements match within tolerance (0 disables)")
	contextTol   = flag.Float64("context-sec-angle-tol", 20.0, "Planar-angle tolerance for the context_sec bonus")
	parallel     = flag.Bool("parallel", true, "Run the outer DP's per-row inner passes concurrently")
	fastaOut     = flag.String("fasta-out", "", "If set, write the resulting alignment as FASTA to this path")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] pdb1 pdb2\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 2 {
		log.Fatalf("exactly 2 positional arguments required (pdb1 pdb2), got %d", flag.NArg())
	}
	pdbPath1, pdbPath2 := flag.Arg(0), flag.Arg(1)

	ctx := vcontext.Background()

	p1, err := structload.Load(ctx, structload.Sources{Name: pdbPath1, PDBPath: pdbPath1, DSSPath: *dssp1, SECPath: *sec1})
	if err != nil {
		log.Fatalf("loading %s: %v", pdbPath1, err)
	}
	p2, err := structload.Load(ctx, structload.Sources{Name: pdbPath2, PDBPath: pdbPath2, DSSPath: *dssp2, SECPath: *sec2})
	if err != nil {
		log.Fatalf("loading %s: %v", pdbPath2, err)
	}

	cfg := ssap.Config{
		GapOpen:                  *gapOpen,
		GapExtend:                *gapExtend,
		ScoreFloor:               *scoreFloor,
		AreaTol:                  *areaTol,
		AngleTol:                 *angleTol,
		MinLowerMatResScore:      *minLowerMat,
		MinResidues:              *minResidues,
		MinSSElementsForFastPass: *minSSFast,
		ContextSecBonus:          *contextBonus,
		ContextSecAngleTol:       *contextTol,
		Parallel:                 *parallel,
	}

	rc := runctx.New()
	scores, align, err := ssap.Run(p1, p2, cfg, rc)
	if err != nil {
		log.Fatalf("ssap.Run: %v", err)
	}

	fmt.Printf("%s vs %s\n", p1.Name, p2.Name)
	fmt.Printf("SSAP score: %.2f (raw %.4f, fast-pass raw %.4f)\n", scores.Normalised, scores.Raw, scores.FastPassRaw)
	fmt.Printf("Equivalent positions: %d\n", scores.NumEquivalent)
	fmt.Printf("Overlap: %.2f%%  Sequence identity: %.2f%%  RMSD: %.3f\n", scores.OverlapPct, scores.SeqIdentityPct, scores.RMSD)

	if *fastaOut != "" {
		f, err := os.Create(*fastaOut)
		if err != nil {
			log.Fatalf("creating %s: %v", *fastaOut, err)
		}
		defer f.Close()
		letter := func(entry int, resIdx uint32) byte {
			if entry == 0 {
				return p1.Residues[resIdx].AminoAcid.Letter()
			}
			return p2.Residues[resIdx].AminoAcid.Letter()
		}
		align.Names = []string{p1.Name, p2.Name}
		if err := alignment.WriteFASTA(f, align, letter); err != nil {
			log.Fatalf("writing FASTA: %v", err)
		}
	}
}
