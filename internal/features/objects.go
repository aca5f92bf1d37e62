package features

import (
	"fmt"
	"image"
	"math/rand"
)

const defaultAdaptiveRadius = 51

// ObjectOptions tunes per-object measurement.
type ObjectOptions struct {
	// Erode is the radius of the opening applied before labeling.
	Erode int
	// SampleSize measures this many randomly drawn objects instead of all
	// of them. Zero measures everything.
	SampleSize int
	RandomSeed int64
}

func DefaultObjectOptions() ObjectOptions {
	return ObjectOptions{Erode: 2}
}

var objectPropNames = []string{
	"area", "eccentricity", "euler_number", "extent",
	"min_intensity", "mean_intensity", "max_intensity", "solidity",
}

func regionProp(r *Region, name string) float64 {
	switch name {
	case "area":
		return r.Area
	case "eccentricity":
		return r.Eccentricity
	case "euler_number":
		return r.EulerNumber
	case "extent":
		return r.Extent
	case "min_intensity":
		return r.MinIntensity
	case "mean_intensity":
		return r.MeanIntensity
	case "max_intensity":
		return r.MaxIntensity
	case "solidity":
		return r.Solidity
	}
	return 0
}

// ObjectFeatures summarises the objects of a binary image: the object count
// followed by quantiles of each measured property.
func ObjectFeatures(binIm *Binary, im *Plane, opts ObjectOptions) ([]float64, []string) {
	if opts.Erode > 0 {
		binIm = BinaryOpening(binIm, opts.Erode)
	}
	labels := Label(binIm)
	regions := RegionProps(labels, im)

	sampleIndices := make([]int, 0)
	if opts.SampleSize > 0 && labels.Count > 0 {
		rng := rand.New(rand.NewSource(opts.RandomSeed))
		for i := 0; i < opts.SampleSize; i++ {
			sampleIndices = append(sampleIndices, rng.Intn(labels.Count))
		}
	} else {
		for i := 0; i < labels.Count; i++ {
			sampleIndices = append(sampleIndices, i)
		}
	}

	fs := []float64{float64(labels.Count)}
	for _, prop := range objectPropNames {
		values := make([]float64, len(sampleIndices))
		for i, j := range sampleIndices {
			values[i] = regionProp(&regions[j], prop)
		}
		fs = append(fs, Quantiles(values, DefaultQuantiles)...)
	}
	names := append([]string{"num-objs"}, quantileNames(objectPropNames, DefaultQuantiles)...)
	return fs, names
}

// IntensityObjectFeatures segments objects by intensity threshold and
// measures them. With no explicit threshold both Otsu's method and a locally
// adaptive threshold are applied and both feature sets returned.
func IntensityObjectFeatures(im *Plane, threshold *float64, adaptiveRadius int, opts ObjectOptions) ([]float64, []string) {
	if threshold != nil {
		return ObjectFeatures(im.Threshold(*threshold), im, opts)
	}
	if adaptiveRadius <= 0 {
		adaptiveRadius = defaultAdaptiveRadius
	}
	f1, names1 := ObjectFeatures(im.Threshold(OtsuThreshold(im)), im, opts)
	for i, name := range names1 {
		names1[i] = "otsu-threshold-" + name
	}
	f2, names2 := ObjectFeatures(im.ThresholdMap(AdaptiveThreshold(im, adaptiveRadius)), im, opts)
	for i, name := range names2 {
		names2[i] = "adaptive-threshold-" + name
	}
	return append(f1, f2...), append(names1, names2...)
}

// FractionPositive computes the fraction of objects in binIm that overlap
// positiveIm by at least overlapThresh of their area. The canonical use is
// nuclei (thresholded DAPI) positive for a transcription factor channel.
func FractionPositive(binIm, positiveIm *Binary, erode int, overlapThresh float64, binName, positiveName string) (float64, string) {
	if erode > 0 {
		binIm = BinaryOpening(binIm, erode)
		positiveIm = BinaryOpening(positiveIm, erode)
	}
	labels := Label(binIm)
	total := make([]float64, labels.Count+1)
	positive := make([]float64, labels.Count+1)
	for i, lab := range labels.Pix {
		total[lab]++
		if positiveIm.Pix[i] {
			positive[lab]++
		}
	}
	posObjects := 0
	for lab := 1; lab <= labels.Count; lab++ {
		if total[lab] > 0 && positive[lab]/total[lab] > overlapThresh {
			posObjects++
		}
	}
	frac := 0.0
	if labels.Count > 0 {
		frac = float64(posObjects) / float64(labels.Count)
	}
	name := fmt.Sprintf("frac-%s-pos-%s-erode-%d-thresh-%.2f", binName, positiveName, erode, overlapThresh)
	return frac, name
}

// NucleiPerCellHistogram computes the proportion of cell objects containing
// each nucleus count. Counts above maxValue are clipped into the final bin.
func NucleiPerCellHistogram(nucIm, cellIm *Binary, maxValue int) ([]float64, []string) {
	names := make([]string, 0, maxValue+2)
	for n := 0; n <= maxValue; n++ {
		names = append(names, fmt.Sprintf("cells-with-%d-nuclei", n))
	}
	names = append(names, fmt.Sprintf("cells-with->%d-nuclei", maxValue))

	nucLab := Label(nucIm)
	cellLab := Label(cellIm)
	pairs := make(map[[2]int]struct{})
	for i := range nucLab.Pix {
		n, c := nucLab.Pix[i], cellLab.Pix[i]
		if n == 0 && c == 0 {
			continue
		}
		pairs[[2]int{n, c}] = struct{}{}
	}
	// Distinct nucleus labels per cell label, cell 0 included.
	cells := make([]int, cellLab.Count+1)
	for pair := range pairs {
		cells[pair[1]]++
	}
	fs := make([]float64, maxValue+2)
	for _, count := range cells {
		if count > maxValue {
			fs[maxValue+1]++
		} else {
			fs[count]++
		}
	}
	totalCells := float64(len(cells))
	for i := range fs {
		fs[i] /= totalCells
	}
	return fs, names
}

// DefaultFeatureMap computes the feature vector of a multi-channel image by
// running intensity object features per channel, prefixing each feature with
// the channel name.
func DefaultFeatureMap(img *image.RGBA, channels []int, channelNames []string, threshold *float64, opts ObjectOptions) ([]float64, []string) {
	if channels == nil {
		channels = []int{0, 1, 2}
	}
	if channelNames == nil {
		channelNames = make([]string, len(channels))
		for i, ch := range channels {
			channelNames[i] = fmt.Sprintf("chan%d", ch)
		}
	}
	var allFs []float64
	var allNames []string
	for i, ch := range channels {
		plane := ChannelPlane(img, ch)
		fs, names := IntensityObjectFeatures(plane, threshold, defaultAdaptiveRadius, opts)
		for j, name := range names {
			names[j] = channelNames[i] + "-" + name
		}
		allFs = append(allFs, fs...)
		allNames = append(allNames, names...)
	}
	return allFs, allNames
}
