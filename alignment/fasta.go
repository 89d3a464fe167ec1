package alignment

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// FastaLineWidth is the fixed line width used by WriteFASTA (spec §6.2).
const FastaLineWidth = 60

// WriteFASTA writes a as FASTA: one ">name" line per entry followed by the
// aligned sequence, '-' marking gaps, wrapped at FastaLineWidth columns.
// residueLetter maps entry e's residue index to its one-letter code.
func WriteFASTA(w io.Writer, a Alignment, residueLetter func(entry int, resIdx uint32) byte) error {
	for e := 0; e < a.NumEntries(); e++ {
		if _, err := fmt.Fprintf(w, ">%s\n", a.Name(e)); err != nil {
			return errors.Wrap(err, "writing FASTA header")
		}
		seq := make([]byte, 0, a.Length())
		for _, p := range a.Entry(e) {
			if p.Present {
				seq = append(seq, residueLetter(e, p.ResIdx))
			} else {
				seq = append(seq, '-')
			}
		}
		for i := 0; i < len(seq); i += FastaLineWidth {
			end := i + FastaLineWidth
			if end > len(seq) {
				end = len(seq)
			}
			if _, err := w.Write(seq[i:end]); err != nil {
				return errors.Wrap(err, "writing FASTA sequence")
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return errors.Wrap(err, "writing FASTA sequence")
			}
		}
	}
	return nil
}

// ReadFASTA reads an alignment written by WriteFASTA back into entry
// names and '-'-gapped sequence strings (not residue indices — the
// original residue numbering is not recoverable from FASTA alone, per
// spec §8's "present/absent pattern" round-trip requirement, not full
// identity).
func ReadFASTA(r io.Reader) (names []string, sequences [][]byte, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 64*1024*1024)
	var name string
	var seq strings.Builder
	haveEntry := false
	flush := func() {
		if haveEntry {
			names = append(names, name)
			sequences = append(sequences, []byte(seq.String()))
			seq.Reset()
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			flush()
			name = strings.Split(line[1:], " ")[0]
			haveEntry = true
		} else {
			seq.WriteString(line)
		}
	}
	if scanner.Err() != nil {
		return nil, nil, errors.Wrap(scanner.Err(), "couldn't read FASTA alignment")
	}
	flush()
	if len(names) == 0 {
		return nil, nil, errors.New("malformed FASTA alignment: no entries")
	}
	return names, sequences, nil
}

// PresentMask converts a '-'-gapped sequence into the present/absent
// pattern used to check the FASTA round-trip invariant (spec §8).
func PresentMask(seq []byte) []bool {
	mask := make([]bool, len(seq))
	for i, c := range seq {
		mask[i] = c != '-'
	}
	return mask
}

// ToFASTASeq renders one entry's present/absent pattern directly to bytes,
// without going through an io.Writer, for use in round-trip tests.
func ToFASTASeq(a Alignment, e int, residueLetter func(resIdx uint32) byte) []byte {
	var buf bytes.Buffer
	for _, p := range a.Entry(e) {
		if p.Present {
			buf.WriteByte(residueLetter(p.ResIdx))
		} else {
			buf.WriteByte('-')
		}
	}
	return buf.Bytes()
}
