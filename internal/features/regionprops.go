package features

import (
	"math"
	"sort"
)

// Region holds the measured properties of one labeled object.
type Region struct {
	Label         int
	Area          float64
	Eccentricity  float64
	EulerNumber   float64
	Extent        float64
	MinIntensity  float64
	MeanIntensity float64
	MaxIntensity  float64
	Solidity      float64
	// Centroid in (row, col) order.
	Centroid [2]float64

	minX, maxX, minY, maxY int
	pixels                 [][2]int
}

// RegionProps measures every labeled object against the intensity plane.
// Regions come back ordered by label.
func RegionProps(labels *Labels, intensity *Plane) []Region {
	if labels.Count == 0 {
		return nil
	}
	regions := make([]Region, labels.Count)
	for i := range regions {
		regions[i] = Region{
			Label:        i + 1,
			MinIntensity: math.Inf(1),
			MaxIntensity: math.Inf(-1),
			minX:         labels.Width, minY: labels.Height,
			maxX: -1, maxY: -1,
		}
	}
	for idx, lab := range labels.Pix {
		if lab == 0 {
			continue
		}
		r := &regions[lab-1]
		x, y := idx%labels.Width, idx/labels.Width
		r.pixels = append(r.pixels, [2]int{x, y})
		r.Area++
		r.Centroid[0] += float64(y)
		r.Centroid[1] += float64(x)
		if x < r.minX {
			r.minX = x
		}
		if x > r.maxX {
			r.maxX = x
		}
		if y < r.minY {
			r.minY = y
		}
		if y > r.maxY {
			r.maxY = y
		}
		if intensity != nil {
			v := intensity.Pix[idx]
			if v < r.MinIntensity {
				r.MinIntensity = v
			}
			if v > r.MaxIntensity {
				r.MaxIntensity = v
			}
			r.MeanIntensity += v
		}
	}
	for i := range regions {
		r := &regions[i]
		r.Centroid[0] /= r.Area
		r.Centroid[1] /= r.Area
		if intensity != nil {
			r.MeanIntensity /= r.Area
		} else {
			r.MinIntensity, r.MaxIntensity = 0, 0
		}
		bboxArea := float64((r.maxX - r.minX + 1) * (r.maxY - r.minY + 1))
		r.Extent = r.Area / bboxArea
		r.Eccentricity = eccentricity(r.pixels, r.Centroid)
		r.EulerNumber = float64(1 - countHoles(r))
		r.Solidity = solidity(r)
	}
	return regions
}

// eccentricity derives the ellipse eccentricity from the second central
// moments of the pixel coordinates.
func eccentricity(pixels [][2]int, centroid [2]float64) float64 {
	var mu20, mu02, mu11 float64
	for _, p := range pixels {
		dx := float64(p[0]) - centroid[1]
		dy := float64(p[1]) - centroid[0]
		mu20 += dx * dx
		mu02 += dy * dy
		mu11 += dx * dy
	}
	n := float64(len(pixels))
	mu20, mu02, mu11 = mu20/n, mu02/n, mu11/n
	common := math.Sqrt(4*mu11*mu11 + (mu20-mu02)*(mu20-mu02))
	l1 := (mu20 + mu02 + common) / 2
	l2 := (mu20 + mu02 - common) / 2
	if l1 <= 0 {
		return 0
	}
	return math.Sqrt(1 - l2/l1)
}

// countHoles counts background components fully enclosed by the object,
// flood-filling the complement of the region mask from the border of a
// padded bounding box.
func countHoles(r *Region) int {
	w := r.maxX - r.minX + 3
	h := r.maxY - r.minY + 3
	mask := make([]bool, w*h)
	for _, p := range r.pixels {
		mask[(p[1]-r.minY+1)*w+(p[0]-r.minX+1)] = true
	}
	visited := make([]bool, w*h)
	var flood func(start int)
	flood = func(start int) {
		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%w, idx/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					nIdx := ny*w + nx
					if !mask[nIdx] && !visited[nIdx] {
						visited[nIdx] = true
						stack = append(stack, nIdx)
					}
				}
			}
		}
	}
	// Outside background reaches the pad border.
	flood(0)
	holes := 0
	for idx := range mask {
		if !mask[idx] && !visited[idx] {
			holes++
			flood(idx)
		}
	}
	return holes
}

// solidity is the ratio of the object area to the area of its convex hull,
// measured in pixels.
func solidity(r *Region) float64 {
	if len(r.pixels) <= 2 {
		return 1
	}
	hull := convexHull(r.pixels)
	if len(hull) <= 2 {
		return 1
	}
	convexArea := 0.0
	for y := r.minY; y <= r.maxY; y++ {
		for x := r.minX; x <= r.maxX; x++ {
			if insideHull(hull, float64(x), float64(y)) {
				convexArea++
			}
		}
	}
	if convexArea == 0 {
		return 1
	}
	return r.Area / convexArea
}

// convexHull computes the hull with the monotone chain algorithm, returned
// counter-clockwise without the repeated endpoint.
func convexHull(points [][2]int) [][2]float64 {
	pts := make([][2]float64, len(points))
	for i, p := range points {
		pts[i] = [2]float64{float64(p[0]), float64(p[1])}
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})
	cross := func(o, a, b [2]float64) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}
	var hull [][2]float64
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// insideHull tests against a counter-clockwise hull: the point must not lie
// strictly to the right of any edge.
func insideHull(hull [][2]float64, x, y float64) bool {
	const eps = 1e-9
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		if (b[0]-a[0])*(y-a[1])-(b[1]-a[1])*(x-a[0]) < -eps {
			return false
		}
	}
	return true
}
