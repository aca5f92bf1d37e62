package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binaryFromRows(rows [][]int) *Binary {
	b := NewBinary(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, v := range row {
			b.Set(x, y, v != 0)
		}
	}
	return b
}

func TestQuantilesMedian(t *testing.T) {
	got := Quantiles([]float64{1, 2, 3, 4, 5}, []float64{0.5})
	assert.InDelta(t, 3.0, got[0], 1e-9)
}

func TestQuantilesEmpty(t *testing.T) {
	got := Quantiles(nil, []float64{0.5})
	assert.True(t, math.IsNaN(got[0]))
}

func TestOtsuThresholdBimodal(t *testing.T) {
	p := NewPlane(4, 4)
	for i := range p.Pix {
		if i < 8 {
			p.Pix[i] = 10
		} else {
			p.Pix[i] = 200
		}
	}
	thresh := OtsuThreshold(p)
	assert.Greater(t, thresh, 10.0)
	assert.Less(t, thresh, 200.0)
}

func TestLabelComponents(t *testing.T) {
	b := binaryFromRows([][]int{
		{1, 1, 0},
		{0, 0, 0},
		{1, 1, 1},
	})
	labels := Label(b)
	assert.Equal(t, 2, labels.Count)
	assert.Equal(t, labels.At(0, 0), labels.At(1, 0))
	assert.NotEqual(t, labels.At(0, 0), labels.At(0, 2))
}

func TestBinaryOpeningRemovesSpeckle(t *testing.T) {
	b := NewBinary(9, 9)
	// A lone pixel and a solid 5x5 block.
	b.Set(0, 0, true)
	for y := 3; y < 8; y++ {
		for x := 3; x < 8; x++ {
			b.Set(x, y, true)
		}
	}
	opened := BinaryOpening(b, 1)
	assert.False(t, opened.At(0, 0))
	assert.True(t, opened.At(5, 5))
}

func TestRegionPropsRectangle(t *testing.T) {
	b := binaryFromRows([][]int{
		{0, 0, 0, 0},
		{0, 1, 1, 0},
		{0, 1, 1, 0},
		{0, 0, 0, 0},
	})
	p := NewPlane(4, 4)
	for i := range p.Pix {
		p.Pix[i] = float64(i)
	}
	regions := RegionProps(Label(b), p)
	require.Len(t, regions, 1)
	r := regions[0]
	assert.Equal(t, 4.0, r.Area)
	assert.Equal(t, 1.0, r.Extent)
	assert.Equal(t, 1.0, r.Solidity)
	assert.Equal(t, 1.0, r.EulerNumber)
	assert.InDelta(t, 0.0, r.Eccentricity, 1e-9)
	assert.Equal(t, 5.0, r.MinIntensity)
	assert.Equal(t, 10.0, r.MaxIntensity)
	assert.InDelta(t, 1.5, r.Centroid[0], 1e-9)
	assert.InDelta(t, 1.5, r.Centroid[1], 1e-9)
}

func TestRegionPropsHole(t *testing.T) {
	b := binaryFromRows([][]int{
		{1, 1, 1},
		{1, 0, 1},
		{1, 1, 1},
	})
	regions := RegionProps(Label(b), nil)
	require.Len(t, regions, 1)
	assert.Equal(t, 0.0, regions[0].EulerNumber)
}

func TestRegionPropsSolidityConcave(t *testing.T) {
	b := binaryFromRows([][]int{
		{1, 1, 1},
		{1, 0, 0},
		{1, 0, 0},
	})
	regions := RegionProps(Label(b), nil)
	require.Len(t, regions, 1)
	// L-shape: 5 pixels, convex hull covers 6 lattice points.
	assert.InDelta(t, 5.0/6.0, regions[0].Solidity, 1e-9)
}

func TestObjectFeaturesNames(t *testing.T) {
	b := binaryFromRows([][]int{
		{1, 1, 0, 0},
		{1, 1, 0, 0},
		{0, 0, 1, 1},
		{0, 0, 1, 1},
	})
	p := NewPlane(4, 4)
	fs, names := ObjectFeatures(b, p, ObjectOptions{Erode: 0})
	require.Equal(t, len(fs), len(names))
	assert.Equal(t, 1+8*5, len(fs))
	assert.Equal(t, "num-objs", names[0])
	assert.Equal(t, "area-percentile5", names[1])
	assert.Equal(t, 2.0, fs[0])
}

func TestIntensityObjectFeaturesPrefixes(t *testing.T) {
	p := NewPlane(8, 8)
	for y := 2; y < 5; y++ {
		for x := 2; x < 5; x++ {
			p.Set(x, y, 250)
		}
	}
	fs, names := IntensityObjectFeatures(p, nil, 3, ObjectOptions{Erode: 0})
	require.Equal(t, len(fs), len(names))
	assert.Equal(t, 2*(1+8*5), len(fs))
	assert.Equal(t, "otsu-threshold-num-objs", names[0])
	assert.Equal(t, "adaptive-threshold-num-objs", names[41])
}

func TestFractionPositive(t *testing.T) {
	binIm := binaryFromRows([][]int{
		{1, 1, 0},
		{0, 0, 0},
		{1, 1, 1},
	})
	posIm := binaryFromRows([][]int{
		{1, 0, 0},
		{0, 1, 1},
		{0, 1, 1},
	})
	frac, name := FractionPositive(binIm, posIm, 0, 0.6, "nuclei", "tf")
	assert.InDelta(t, 0.5, frac, 1e-9)
	assert.Equal(t, "frac-nuclei-pos-tf-erode-0-thresh-0.60", name)
}

func TestNucleiPerCellHistogram(t *testing.T) {
	cell := binaryFromRows([][]int{
		{1, 1, 1, 0, 0},
		{1, 1, 1, 0, 0},
		{1, 1, 1, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})
	nuc := binaryFromRows([][]int{
		{1, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})
	fs, names := NucleiPerCellHistogram(nuc, cell, 10)
	require.Len(t, fs, 12)
	require.Len(t, names, 12)
	assert.Equal(t, "cells-with-0-nuclei", names[0])
	assert.Equal(t, "cells-with->10-nuclei", names[11])
	sum := 0.0
	for _, v := range fs {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestTripletAngles(t *testing.T) {
	points := [][2]float64{{0, 0}, {1, 0}, {0, 1}}
	angles := TripletAngles(points, [][3]int{{0, 1, 2}})
	require.Len(t, angles, 1)
	assert.InDelta(t, math.Pi/2, angles[0], 1e-9)
}

func TestNearestNeighborFeatures(t *testing.T) {
	b := NewBinary(30, 30)
	for _, c := range [][2]int{{2, 2}, {10, 3}, {20, 5}, {5, 15}, {25, 20}, {12, 26}} {
		b.Set(c[0], c[1], true)
	}
	fs, names, err := NearestNeighborFeatures(Label(b), 3)
	require.NoError(t, err)
	require.Equal(t, len(fs), len(names))
	assert.Equal(t, 6*5, len(fs))
	assert.Equal(t, "sin-theta-percentile-5", names[0])
	assert.Equal(t, "d-neighbor-1-percentile-5", names[15])
}

func TestNearestNeighborFeaturesTooFew(t *testing.T) {
	b := NewBinary(5, 5)
	b.Set(1, 1, true)
	_, _, err := NearestNeighborFeatures(Label(b), 3)
	assert.Error(t, err)
}
