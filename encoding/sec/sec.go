// Package sec reads a per-secondary-structure-element planar-angle file:
// one line per SS element giving the (phi, psi, omega) triple the SSAP
// driver's "context_sec" bonus compares against (spec §4.5, §6.1).
package sec

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Element is one parsed SEC line: the 1-based index of the secondary
// structure element it describes, and its planar-angle triple in degrees.
type Element struct {
	Index           int
	Phi, Psi, Omega float64
}

// ParseSEC reads whitespace-separated lines "index phi psi omega", one per
// secondary-structure element, in file order. Blank lines and lines
// starting with '#' are skipped.
func ParseSEC(r io.Reader) ([]Element, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)

	var elements []Element
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, errors.Errorf("sec: line %d: expected 4 fields, got %d", lineNo, len(fields))
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "sec: line %d: malformed index", lineNo)
		}
		phi, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "sec: line %d: malformed phi", lineNo)
		}
		psi, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "sec: line %d: malformed psi", lineNo)
		}
		omega, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "sec: line %d: malformed omega", lineNo)
		}
		if err := checkFinite(phi, psi, omega); err != nil {
			return nil, errors.Wrapf(err, "sec: line %d", lineNo)
		}
		elements = append(elements, Element{Index: idx, Phi: phi, Psi: psi, Omega: omega})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "sec: reading element records")
	}
	return elements, nil
}

func checkFinite(vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite angle value")
		}
	}
	return nil
}
