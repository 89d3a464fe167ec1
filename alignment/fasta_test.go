package alignment

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func letterA(entry int, resIdx uint32) byte {
	letters := "ACDEFGHIKLMNPQRSTVWY"
	return letters[int(resIdx)%len(letters)]
}

func TestWriteFASTABasic(t *testing.T) {
	a, err := New([]string{"one", "two"}, [][]Pos{
		{Present(0), Present(1), Gap},
		{Present(0), Gap, Present(1)},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFASTA(&buf, a, letterA))

	out := buf.String()
	assert.Contains(t, out, ">one\n")
	assert.Contains(t, out, ">two\n")
}

func TestFASTARoundTripPreservesPresentPattern(t *testing.T) {
	a, err := New([]string{"one", "two"}, [][]Pos{
		{Present(0), Present(1), Gap, Present(2)},
		{Gap, Present(0), Present(1), Present(2)},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFASTA(&buf, a, letterA))

	names, seqs, err := ReadFASTA(&buf)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, names)

	for e := 0; e < a.NumEntries(); e++ {
		wantMask := make([]bool, a.Length())
		for pos, p := range a.Entry(e) {
			wantMask[pos] = p.Present
		}
		gotMask := PresentMask(seqs[e])
		assert.Equal(t, wantMask, gotMask, "entry %d", e)
	}
}

func TestReadFASTARejectsEmpty(t *testing.T) {
	_, _, err := ReadFASTA(bytes.NewReader(nil))
	assert.Error(t, err)
}
