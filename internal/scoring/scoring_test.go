package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestGeneDistanceScoreSeparableClusters(t *testing.T) {
	vectors := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
	}
	genes := []string{"geneA", "geneA", "geneA", "geneB", "geneB", "geneB"}

	intra, inter, err := GeneDistanceScore(vectors, genes)
	require.NoError(t, err)
	assert.Len(t, intra, 6)
	assert.Len(t, inter, 9)
	assert.Less(t, stat.Mean(intra, nil), stat.Mean(inter, nil))
	assert.Positive(t, Separation(intra, inter))
}

func TestGeneDistanceScoreEmptyInput(t *testing.T) {
	intra, inter, err := GeneDistanceScore(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, intra)
	assert.Empty(t, inter)
	assert.Zero(t, Separation(intra, inter))
}

func TestGeneDistanceScoreLengthMismatch(t *testing.T) {
	_, _, err := GeneDistanceScore([][]float64{{1}}, []string{"a", "b"})
	assert.Error(t, err)
}

func TestGeneDistanceScoreDimensionMismatch(t *testing.T) {
	_, _, err := GeneDistanceScore([][]float64{{1, 2}, {1}}, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
