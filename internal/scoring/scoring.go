// Package scoring measures how well a screen's feature space separates
// biological conditions.
package scoring

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrDimensionMismatch = errors.New("feature vectors must share dimension")

// GeneDistanceScore splits pairwise Euclidean distances between samples into
// intra-gene and inter-gene sets. A feature space that captures phenotype
// should place samples of the same gene closer together, so a useful screen
// has mean(intra) < mean(inter).
func GeneDistanceScore(vectors [][]float64, genes []string) (intra, inter []float64, err error) {
	if len(vectors) != len(genes) {
		return nil, nil, errors.New("vectors and genes must have equal length")
	}
	if len(vectors) == 0 {
		return nil, nil, nil
	}
	for _, v := range vectors[1:] {
		if len(v) != len(vectors[0]) {
			return nil, nil, ErrDimensionMismatch
		}
	}
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			d := floats.Distance(vectors[i], vectors[j], 2)
			if genes[i] == genes[j] {
				intra = append(intra, d)
			} else {
				inter = append(inter, d)
			}
		}
	}
	return intra, inter, nil
}

// Separation is the mean inter-gene distance minus the mean intra-gene
// distance. Positive values mean same-gene samples cluster.
func Separation(intra, inter []float64) float64 {
	if len(intra) == 0 || len(inter) == 0 {
		return 0
	}
	return stat.Mean(inter, nil) - stat.Mean(intra, nil)
}
