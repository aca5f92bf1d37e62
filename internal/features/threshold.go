package features

import "math"

const otsuBins = 256

// OtsuThreshold picks the threshold maximising between-class variance over a
// 256-bin histogram of the plane's intensity range.
func OtsuThreshold(p *Plane) float64 {
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range p.Pix {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if maxV <= minV {
		return minV
	}
	binWidth := (maxV - minV) / otsuBins
	hist := make([]int, otsuBins)
	for _, v := range p.Pix {
		bin := int((v - minV) / binWidth)
		if bin >= otsuBins {
			bin = otsuBins - 1
		}
		hist[bin]++
	}

	total := len(p.Pix)
	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i) * float64(c)
	}
	var sumBg, weightBg float64
	bestVar, bestBin := -1.0, 0
	for i, c := range hist {
		weightBg += float64(c)
		if weightBg == 0 {
			continue
		}
		weightFg := float64(total) - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(i) * float64(c)
		meanBg := sumBg / weightBg
		meanFg := (sumAll - sumBg) / weightFg
		betweenVar := weightBg * weightFg * (meanBg - meanFg) * (meanBg - meanFg)
		if betweenVar > bestVar {
			bestVar = betweenVar
			bestBin = i
		}
	}
	// Bin centre mapped back to intensity space.
	return minV + (float64(bestBin)+0.5)*binWidth
}

// AdaptiveThreshold computes a per-pixel threshold as a gaussian-weighted
// local mean with sigma derived from the block size, the usual choice for
// uneven illumination in microscope fields.
func AdaptiveThreshold(p *Plane, blockSize int) *Plane {
	if blockSize < 3 {
		blockSize = 3
	}
	if blockSize%2 == 0 {
		blockSize++
	}
	sigma := float64(blockSize-1) / 6.0
	kernel := gaussianKernel(sigma)
	tmp := convolveHorizontal(p, kernel)
	return convolveVertical(tmp, kernel)
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// reflectIndex mirrors out-of-range indices back into [0, n).
func reflectIndex(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

func convolveHorizontal(p *Plane, kernel []float64) *Plane {
	radius := len(kernel) / 2
	out := NewPlane(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * p.At(reflectIndex(x+k, p.Width), y)
			}
			out.Set(x, y, acc)
		}
	}
	return out
}

func convolveVertical(p *Plane, kernel []float64) *Plane {
	radius := len(kernel) / 2
	out := NewPlane(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * p.At(x, reflectIndex(y+k, p.Height))
			}
			out.Set(x, y, acc)
		}
	}
	return out
}
