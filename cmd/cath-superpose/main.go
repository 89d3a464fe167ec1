/*
cath-superpose builds a multi-structure alignment and rigid-body
superposition over N>=2 PDB structures, using pairwise SSAP comparisons
to score the gluing spanning tree (spec §4.7, §4.8).

Usage: cath-superpose [OPTIONS] pdb1 pdb2 [pdb3 ...]
*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/UCLOrengoGroup/cath-tools-go/alignment"
	"github.com/UCLOrengoGroup/cath-tools-go/protein"
	"github.com/UCLOrengoGroup/cath-tools-go/runctx"
	"github.com/UCLOrengoGroup/cath-tools-go/ssap"
	"github.com/UCLOrengoGroup/cath-tools-go/structload"
	"github.com/UCLOrengoGroup/cath-tools-go/superpose"
	"github.com/UCLOrengoGroup/cath-tools-go/viewframe"
)

var (
	gapOpen           = flag.Float64("gap-open", 1.0, "Affine gap open penalty")
	gapExtend         = flag.Float64("gap-extend", 0.5, "Affine gap extend penalty")
	minResidues       = flag.Int("min-residues", 5, "Minimum residue count a structure must have")
	minSSFast         = flag.Int("min-ss-elements-fast-pass", 3, "Minimum SS element count for the fast pass to run")
	requireConsec     = flag.Bool("require-consecutive", false, "Require glued alignment columns to reference strictly consecutive residues")
	fastaOut          = flag.String("fasta-out", "", "If set, write the multi-structure alignment as FASTA to this path")
	superpositionJSON = flag.String("json-out", "", "If set, write per-structure transformations as JSON to this path")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] pdb1 pdb2 [pdb3 ...]\n", os.Args[0])
	flag.PrintDefaults()
}

type transformationJSON struct {
	Structure   string        `json:"structure"`
	Translation [3]float64    `json:"translation"`
	Rotation    [3][3]float64 `json:"rotation"`
	RMSD        float64       `json:"rmsd"`
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	paths := flag.Args()
	if len(paths) < 2 {
		log.Fatalf("at least 2 positional PDB paths required, got %d", len(paths))
	}

	ctx := vcontext.Background()

	proteins := make([]*protein.Protein, len(paths))
	for i, p := range paths {
		loaded, err := structload.Load(ctx, structload.Sources{Name: p, PDBPath: p})
		if err != nil {
			log.Fatalf("loading %s: %v", p, err)
		}
		proteins[i] = loaded
	}

	cfg := ssap.Config{
		GapOpen:                  *gapOpen,
		GapExtend:                *gapExtend,
		MinResidues:              *minResidues,
		MinSSElementsForFastPass: *minSSFast,
		Parallel:                 true,
	}

	caches, cleanupCaches, err := spillViewCaches(proteins)
	if err != nil {
		log.Fatalf("spilling view caches: %v", err)
	}
	defer cleanupCaches()

	var pairs []superpose.PairAlignment
	rc := runctx.New()
	for i := 0; i < len(proteins); i++ {
		for j := i + 1; j < len(proteins); j++ {
			cacheA, err := loadViewCache(caches[i])
			if err != nil {
				log.Fatalf("loading view cache for %s: %v", paths[i], err)
			}
			cacheB, err := loadViewCache(caches[j])
			if err != nil {
				log.Fatalf("loading view cache for %s: %v", paths[j], err)
			}
			scores, align, err := ssap.RunWithCaches(proteins[i], proteins[j], cacheA, cacheB, cfg, rc)
			if err != nil {
				log.Fatalf("ssap.RunWithCaches(%s, %s): %v", paths[i], paths[j], err)
			}
			pairs = append(pairs, superpose.PairAlignment{
				I: i, J: j, IEntry: 0, JEntry: 1, Score: scores.Normalised, Align: align,
			})
		}
	}

	names := make([]string, len(paths))
	for i := range paths {
		names[i] = proteins[i].Name
	}

	coordsOf := func(structIdx int) []protein.Vec3 {
		residues := proteins[structIdx].Residues
		out := make([]protein.Vec3, len(residues))
		for i, r := range residues {
			out[i] = r.CA
		}
		return out
	}

	result, err := superpose.BuildAndSuperpose(len(proteins), pairs, names, alignment.GlueOpts{RequireConsecutive: *requireConsec}, coordsOf)
	if err != nil {
		log.Fatalf("superpose.BuildAndSuperpose: %v", err)
	}

	fmt.Printf("Glued %d structures into one alignment of length %d\n", result.Alignment.NumEntries(), result.Alignment.Length())
	for _, e := range result.AlignTree {
		fmt.Printf("  tree edge: %s - %s (score %.2f)\n", names[e.I], names[e.J], e.Score)
	}

	if *fastaOut != "" {
		f, err := os.Create(*fastaOut)
		if err != nil {
			log.Fatalf("creating %s: %v", *fastaOut, err)
		}
		defer f.Close()
		entryProtein := make([]*protein.Protein, result.Alignment.NumEntries())
		for structIdx, entryIdx := range entryIndexByStruct(result.Alignment, names) {
			entryProtein[entryIdx] = proteins[structIdx]
		}
		letter := func(entry int, resIdx uint32) byte {
			return entryProtein[entry].Residues[resIdx].AminoAcid.Letter()
		}
		if err := alignment.WriteFASTA(f, result.Alignment, letter); err != nil {
			log.Fatalf("writing FASTA: %v", err)
		}
	}

	if *superpositionJSON != "" {
		var transforms []transformationJSON
		for structIdx := 0; structIdx < len(proteins); structIdx++ {
			tr, ok := result.Transforms[structIdx]
			if !ok {
				continue
			}
			transforms = append(transforms, transformationJSON{
				Structure:   names[structIdx],
				Translation: [3]float64{tr.T.X, tr.T.Y, tr.T.Z},
				Rotation:    tr.R,
				RMSD:        result.RMSDs[structIdx],
			})
		}
		js, err := json.MarshalIndent(struct {
			Transformations []transformationJSON `json:"transformations"`
		}{transforms}, "", "  ")
		if err != nil {
			log.Fatalf("marshalling superposition JSON: %v", err)
		}
		if err := os.WriteFile(*superpositionJSON, js, 0o644); err != nil {
			log.Fatalf("writing %s: %v", *superpositionJSON, err)
		}
	}

	log.Debug.Printf("cath-superpose: processed %s", strings.Join(paths, ", "))
}

// spilledCache is a view-frame cache persisted to a local temp file instead
// of held in memory. Gluing N structures needs every pairwise SSAP score,
// but never more than two structures' view caches at once, so each cache is
// built, spilled, and freed up front; the pairwise loop below reloads only
// the two it's about to score (spec §2.1 "Ownership").
type spilledCache struct {
	path string
	n    int
}

// spillViewCaches builds and spills each structure's view-frame cache in
// turn, so the peak resident set is one cache, not N.
func spillViewCaches(proteins []*protein.Protein) ([]spilledCache, func(), error) {
	out := make([]spilledCache, len(proteins))
	cleanup := func() {
		for _, c := range out {
			if c.path != "" {
				os.Remove(c.path)
			}
		}
	}
	for i, p := range proteins {
		f, err := os.CreateTemp("", "cath-superpose-viewcache-*")
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("creating view-cache spill file for %s: %w", p.Name, err)
		}
		spillErr := viewframe.Build(p).Spill(f)
		closeErr := f.Close()
		if spillErr != nil {
			cleanup()
			return nil, nil, fmt.Errorf("spilling view cache for %s: %w", p.Name, spillErr)
		}
		if closeErr != nil {
			cleanup()
			return nil, nil, fmt.Errorf("closing view-cache spill file for %s: %w", p.Name, closeErr)
		}
		out[i] = spilledCache{path: f.Name(), n: p.NumResidues()}
	}
	return out, cleanup, nil
}

func loadViewCache(c spilledCache) (*viewframe.Cache, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("reopening spilled view cache %s: %w", c.path, err)
	}
	defer f.Close()
	return viewframe.Load(f, c.n)
}

// entryIndexByStruct recovers, for each structure index, which alignment
// entry it ended up at, by matching result.Alignment.Names back to the
// names slice BuildAndSuperpose was given.
func entryIndexByStruct(align alignment.Alignment, names []string) map[int]int {
	nameToStruct := make(map[string]int, len(names))
	for i, n := range names {
		nameToStruct[n] = i
	}
	out := make(map[int]int, align.NumEntries())
	for e := 0; e < align.NumEntries(); e++ {
		if structIdx, ok := nameToStruct[align.Name(e)]; ok {
			out[structIdx] = e
		}
	}
	return out
}
