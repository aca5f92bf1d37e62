package features

import (
	"fmt"
	"math"
	"sort"
)

// NormalizeVector divides a vector by its norm, leaving zero vectors alone.
func NormalizeVector(v [2]float64) [2]float64 {
	norm := math.Hypot(v[0], v[1])
	if norm == 0 {
		return v
	}
	return [2]float64{v[0] / norm, v[1] / norm}
}

// TripletAngles computes the angle at the root of each (root, leaf1, leaf2)
// index triplet over the given points.
func TripletAngles(points [][2]float64, indices [][3]int) []float64 {
	angles := make([]float64, len(indices))
	for i, triplet := range indices {
		root := points[triplet[0]]
		leaf1 := points[triplet[1]]
		leaf2 := points[triplet[2]]
		u := NormalizeVector([2]float64{leaf1[0] - root[0], leaf1[1] - root[1]})
		v := NormalizeVector([2]float64{leaf2[0] - root[0], leaf2[1] - root[1]})
		cosine := u[0]*v[0] + u[1]*v[1]
		if cosine > 1 {
			cosine = 1
		}
		if cosine < -1 {
			cosine = -1
		}
		angles[i] = math.Acos(cosine)
	}
	return angles
}

// NearestNeighborFeatures summarises the spatial arrangement of objects:
// quantiles of the angle between each object's two nearest neighbours (plus
// its sine and cosine) and of the distances to the n nearest neighbours.
func NearestNeighborFeatures(labels *Labels, n int) ([]float64, []string, error) {
	regions := RegionProps(labels, nil)
	if len(regions) < n+1 {
		return nil, nil, fmt.Errorf("need at least %d objects for %d neighbors, got %d", n+1, n, len(regions))
	}
	centroids := make([][2]float64, len(regions))
	for i, r := range regions {
		centroids[i] = [2]float64{r.Centroid[0], r.Centroid[1]}
	}

	type neighbor struct {
		index int
		dist  float64
	}
	nearest := make([][]neighbor, len(centroids))
	for i, c := range centroids {
		neighbors := make([]neighbor, 0, len(centroids)-1)
		for j, other := range centroids {
			if j == i {
				continue
			}
			neighbors = append(neighbors, neighbor{index: j, dist: math.Hypot(other[0]-c[0], other[1]-c[1])})
		}
		sort.Slice(neighbors, func(a, b int) bool { return neighbors[a].dist < neighbors[b].dist })
		nearest[i] = neighbors[:n]
	}

	triplets := make([][3]int, len(centroids))
	for i := range centroids {
		triplets[i] = [3]int{i, nearest[i][0].index, nearest[i][1].index}
	}
	angles := TripletAngles(centroids, triplets)

	// Columns: sin-theta, cos-theta, theta, then the n neighbor distances.
	columns := make([][]float64, 0, n+3)
	sines := make([]float64, len(angles))
	cosines := make([]float64, len(angles))
	for i, a := range angles {
		sines[i] = math.Sin(a)
		cosines[i] = math.Cos(a)
	}
	columns = append(columns, sines, cosines, angles)
	for k := 0; k < n; k++ {
		dists := make([]float64, len(centroids))
		for i := range centroids {
			dists[i] = nearest[i][k].dist
		}
		columns = append(columns, dists)
	}

	colNames := []string{"sin-theta", "cos-theta", "theta"}
	for k := 1; k <= n; k++ {
		colNames = append(colNames, fmt.Sprintf("d-neighbor-%d", k))
	}

	var fs []float64
	var names []string
	for i, col := range columns {
		fs = append(fs, Quantiles(col, DefaultQuantiles)...)
		for _, q := range DefaultQuantiles {
			names = append(names, fmt.Sprintf("%s-percentile-%d", colNames[i], int(q*100)))
		}
	}
	return fs, names, nil
}
