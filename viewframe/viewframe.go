// Package viewframe builds and caches, for a single protein, the
// view-frame vector between every ordered pair of residues: the vector from
// i to j expressed in i's local orientation frame. The cache is dense and
// its view vectors are immutable after construction; the prefilter memo is
// guarded by a mutex, so a cache is safe to share across an entire SSAP
// comparison, including its parallel passes (spec §3, §4.2, §9 "Ownership").
package viewframe

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	farm "github.com/dgryski/go-farm"
	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/UCLOrengoGroup/cath-tools-go/protein"
)

// Cache is a dense n x n row-major array of view vectors for one protein.
// Cache[i][j] (i != j) is frame_i . (pos_j - pos_i). The diagonal is never
// read and is left zero.
type Cache struct {
	n      int
	vecs   []protein.Vec3 // row-major, n*n
	prefilterMemo map[uint64]bool
	memoMu        sync.Mutex // guards prefilterMemo
}

// Build constructs the view-frame cache for p in O(n^2) time and space.
func Build(p *protein.Protein) *Cache {
	n := p.NumResidues()
	c := &Cache{
		n:             n,
		vecs:          make([]protein.Vec3, n*n),
		prefilterMemo: make(map[uint64]bool),
	}
	for i := 0; i < n; i++ {
		ri := p.Residues[i]
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			rj := p.Residues[j]
			c.vecs[i*n+j] = ri.Frame.Apply(protein.Sub(rj.CA, ri.CA))
		}
	}
	return c
}

// View returns the cached view vector from residue i to residue j. Callers
// must not call View(i, i).
func (c *Cache) View(i, j int) protein.Vec3 {
	return c.vecs[i*c.n+j]
}

// N returns the number of residues the cache was built for.
func (c *Cache) N() int { return c.n }

// pairKey hashes an ordered residue-pair key with go-farm, used only to
// memoize the property prefilter (an (area, angle) comparison that is
// sometimes probed for the same (i, j) from both the fast and full SSAP
// passes).
func pairKey(i, j int) uint64 {
	buf := [8]byte{
		byte(i), byte(i >> 8), byte(i >> 16), byte(i >> 24),
		byte(j), byte(j >> 8), byte(j >> 16), byte(j >> 24),
	}
	return farm.Hash64(buf[:])
}

// MemoizedPrefilter looks up a previously recorded property-prefilter
// verdict for the pair (i1, i2), computing and storing it via compute if
// absent. Safe for concurrent use.
func (c *Cache) MemoizedPrefilter(i1, i2 int, compute func() bool) bool {
	key := pairKey(i1, i2)
	c.memoMu.Lock()
	v, ok := c.prefilterMemo[key]
	c.memoMu.Unlock()
	if ok {
		return v
	}
	v = compute()
	c.memoMu.Lock()
	c.prefilterMemo[key] = v
	c.memoMu.Unlock()
	return v
}

// Spill streams the cache's n*n vector grid to w, snappy-compressed. The
// prefilter memo isn't persisted: it's cheap to rebuild and tied to one
// comparison's probe pattern, not to the structure itself.
func (c *Cache) Spill(w io.Writer) error {
	sw := snappy.NewBufferedWriter(w)
	buf := make([]byte, 24)
	for _, v := range c.vecs {
		binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(v.X))
		binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(v.Y))
		binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(v.Z))
		if _, err := sw.Write(buf); err != nil {
			return errors.Wrap(err, "viewframe: spilling cache")
		}
	}
	return errors.Wrap(sw.Close(), "viewframe: closing spill stream")
}

// Load reconstructs a Cache of n residues from a stream written by Spill.
// Used when a batch comparison run has spilled view caches to local disk
// to avoid holding every structure's O(n^2) cache in memory at once.
func Load(r io.Reader, n int) (*Cache, error) {
	sr := snappy.NewReader(r)
	vecs := make([]protein.Vec3, n*n)
	buf := make([]byte, 24)
	for i := range vecs {
		if _, err := io.ReadFull(sr, buf); err != nil {
			return nil, errors.Wrap(err, "viewframe: reading spilled cache")
		}
		vecs[i] = protein.Vec3{
			X: math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8])),
			Y: math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
			Z: math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
		}
	}
	return &Cache{n: n, vecs: vecs, prefilterMemo: make(map[uint64]bool)}, nil
}
