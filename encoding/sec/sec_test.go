package sec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSECReadsTriples(t *testing.T) {
	content := "# comment line\n1 -60.0 -45.0 180.0\n\n2 120.5 -30.2 179.8\n"
	elements, err := ParseSEC(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, elements, 2)

	assert.Equal(t, 1, elements[0].Index)
	assert.InDelta(t, -60.0, elements[0].Phi, 1e-9)
	assert.InDelta(t, -45.0, elements[0].Psi, 1e-9)
	assert.InDelta(t, 180.0, elements[0].Omega, 1e-9)

	assert.Equal(t, 2, elements[1].Index)
}

func TestParseSECRejectsWrongFieldCount(t *testing.T) {
	_, err := ParseSEC(strings.NewReader("1 -60.0 -45.0\n"))
	require.Error(t, err)
}

func TestParseSECRejectsMalformedNumber(t *testing.T) {
	_, err := ParseSEC(strings.NewReader("1 notanumber -45.0 180.0\n"))
	require.Error(t, err)
}
