package dataset

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTable = "seq_name\tspecies\tsequence\n" +
	"s1\thuman\tACGTACGT\n" +
	"s2\tmouse\tACGNNT\n" +
	"# comment line\n" +
	"s3\thuman\tTTTTGGGGCC\n"

func readSample(t *testing.T) *Table {
	t.Helper()
	tbl, err := ReadTable(strings.NewReader(sampleTable), nil)
	require.NoError(t, err)
	return tbl
}

func TestEncodeRoundTrip(t *testing.T) {
	tokens, labels := Encode("ACgtNU")
	assert.Equal(t, []int{TokenA, TokenC, TokenG, TokenT, TokenN, TokenT}, tokens)
	assert.Equal(t, []int{0, 1, 2, 3, IgnoreIndex, 3}, labels)
	assert.Equal(t, "ACGTNT", decode(tokens))
	assert.Equal(t, "A?", decode([]int{TokenA, TokenMask}))
}

func TestReadTable(t *testing.T) {
	tbl := readSample(t)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"human", "mouse"}, tbl.Species())
	id, ok := tbl.SpeciesID("mouse")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestReadTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		species []string
		wantErr error
	}{
		{"missing column", "seq_name\tsequence\ns1\tACGT\n", nil, ErrMissingColumn},
		{"empty sequence", "seq_name\tspecies\tsequence\ns1\thuman\t \n", nil, ErrEmptySequence},
		{"unknown species", sampleTable, []string{"human"}, ErrUnknownSpecies},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tt.input), tt.species)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestMaskerMasksAtLeastOne(t *testing.T) {
	m := NewMasker(1e-9, 3)
	tokens, labels := Encode("ACGTNA")
	masked, tm := m.Mask(tokens, labels)
	count := 0
	for i, v := range tm {
		if v == IgnoreIndex {
			assert.Equal(t, tokens[i], masked[i], "unmasked position %d changed", i)
			continue
		}
		count++
		assert.Equal(t, labels[i], v)
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, IgnoreIndex, tm[4], "ambiguous base must never be a target")
}

func TestMaskerFullRatio(t *testing.T) {
	m := NewMasker(1, 9)
	tokens, labels := Encode("ACGTACGTAC")
	_, tm := m.Mask(tokens, labels)
	assert.Equal(t, labels, tm)
}

func TestMaskPeriodicCoversEveryPosition(t *testing.T) {
	tokens, labels := Encode("ACGTNACG")
	seen := make([]int, len(tokens))
	for off := 0; off < 3; off++ {
		masked, tm := MaskPeriodic(tokens, labels, 3, off)
		for i, v := range tm {
			if v != IgnoreIndex {
				seen[i]++
				assert.Equal(t, TokenMask, masked[i])
			}
		}
	}
	assert.Equal(t, []int{1, 1, 1, 1, 0, 1, 1, 1}, seen)
}

func TestBatchLoader(t *testing.T) {
	tbl := readSample(t)
	l := NewBatchLoader(tbl, LoaderConfig{BatchSize: 2, MaskRatio: 0.5, Seed: 1})
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 2, l.BatchSize())

	ctx := context.Background()
	b, err := l.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, b.Rows())
	assert.Equal(t, []string{"s1", "s2"}, b.Names)
	assert.Equal(t, []int{0, 1}, b.Species)
	// s2 is padded to the width of s1.
	assert.Len(t, b.Masked[1], 8)
	assert.Equal(t, IgnoreIndex, b.Targets[1][7])

	b, err = l.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Rows())

	_, err = l.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	l.Reset()
	_, err = l.Next(ctx)
	assert.NoError(t, err)
}

func TestBatchLoaderDropLastAndCancel(t *testing.T) {
	tbl := readSample(t)
	l := NewBatchLoader(tbl, LoaderConfig{BatchSize: 2, DropLast: true, Shuffle: true, Seed: 5})
	ctx := context.Background()
	_, err := l.Next(ctx)
	require.NoError(t, err)
	_, err = l.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	l.Reset()
	_, err = l.Next(cctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbeddingLoader(t *testing.T) {
	tbl := readSample(t)
	l := NewEmbeddingLoader(tbl, 4, 0)
	assert.Equal(t, 1, l.BatchSize())
	b, err := l.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, b.Rows())
	assert.Equal(t, []int{0}, b.Species)
	assert.Equal(t, []string{"s1"}, b.Names)
	for r := 0; r < 4; r++ {
		assert.Equal(t, TokenMask, b.Masked[r][r])
		assert.NotEqual(t, IgnoreIndex, b.TargetsMasked[r][r+4])
	}
}
