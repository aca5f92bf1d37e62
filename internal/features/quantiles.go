package features

import (
	"fmt"
	"math"
	"sort"
)

// DefaultQuantiles are the probabilities summarised for every per-object
// property distribution.
var DefaultQuantiles = []float64{0.05, 0.25, 0.5, 0.75, 0.95}

// Quantiles computes empirical quantiles with the approximately
// median-unbiased plotting positions (alpha = beta = 0.4).
func Quantiles(data []float64, probs []float64) []float64 {
	out := make([]float64, len(probs))
	if len(data) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 1 {
		for i := range out {
			out[i] = sorted[0]
		}
		return out
	}
	const alpha, beta = 0.4, 0.4
	for i, p := range probs {
		m := alpha + p*(1-alpha-beta)
		aleph := float64(n)*p + m
		k := math.Floor(aleph)
		if k < 1 {
			k = 1
		}
		if k > float64(n-1) {
			k = float64(n - 1)
		}
		gamma := aleph - k
		if gamma < 0 {
			gamma = 0
		}
		if gamma > 1 {
			gamma = 1
		}
		out[i] = (1-gamma)*sorted[int(k)-1] + gamma*sorted[int(k)]
	}
	return out
}

// quantileNames builds "<name>-percentile<p>" labels for per-object
// properties.
func quantileNames(names []string, probs []float64) []string {
	out := make([]string, 0, len(names)*len(probs))
	for _, name := range names {
		for _, p := range probs {
			out = append(out, fmt.Sprintf("%s-percentile%d", name, int(p*100)))
		}
	}
	return out
}
