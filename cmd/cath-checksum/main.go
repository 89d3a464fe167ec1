/*
cath-checksum computes an order-independent digest of a resolved-hits
TSV file (the format cath-resolve-hits writes), so that a sequential run
and a parallel run over the same input can be compared byte-for-byte
(spec §9 determinism).

Usage: cath-checksum [OPTIONS] hitsfile
*/
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"hash"
	"os"
	"strconv"
	"strings"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

var (
	label = flag.Bool("label", true, "Include each hit's label in the checksum")
	score = flag.Bool("score", true, "Include each hit's score in the checksum")
	segs  = flag.Bool("segs", true, "Include each hit's segment boundaries in the checksum")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] hitsfile\n", os.Args[0])
	flag.PrintDefaults()
}

// checksum is the digest of one resolved-hits file: a sum of per-line
// hashes, so that line order (which a parallel resolve may permute) never
// affects the result.
type checksum struct {
	NLines   int64
	SumLine  uint64
	SumScore uint64
}

func hashField(h hash.Hash64, salt byte, value []byte) uint64 {
	h.Reset()
	h.Write([]byte{salt})
	h.Write(value)
	return h.Sum64()
}

func (c *checksum) add(h hash.Hash64, query, name string, scoreVal float64, segsField string) {
	c.NLines++
	if *label {
		c.SumLine += hashField(h, 'q', []byte(query))
		c.SumLine += hashField(h, 'n', []byte(name))
	}
	if *score {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(scoreVal*1e6))
		c.SumScore += hashField(h, 's', buf[:])
	}
	if *segs {
		c.SumLine += hashField(h, 'g', []byte(segsField))
	}
}

func checksumFile(path string) (checksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return checksum{}, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	h := seahash.New()
	var csum checksum
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return checksum{}, errors.Errorf("line %d: expected 4 tab-separated fields, got %d", lineNo, len(fields))
		}
		scoreVal, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return checksum{}, errors.Wrapf(err, "line %d: malformed score", lineNo)
		}
		csum.add(h, fields[0], fields[1], scoreVal, fields[3])
	}
	if err := scanner.Err(); err != nil {
		return checksum{}, errors.Wrap(err, "reading hits file")
	}
	return csum, nil
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("exactly 1 positional argument required (hitsfile), got %d", flag.NArg())
	}

	csum, err := checksumFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("%v", err)
	}

	js, err := json.MarshalIndent(csum, "", "  ")
	if err != nil {
		log.Panicf("marshalling checksum: %v", err)
	}
	fmt.Println(string(js))
}
