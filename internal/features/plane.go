package features

import "image"

// Plane is a single-channel intensity image.
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Pix: make([]float64, width*height)}
}

func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.Width+x]
}

func (p *Plane) Set(x, y int, v float64) {
	p.Pix[y*p.Width+x] = v
}

// ChannelPlane extracts one RGBA channel (0=R, 1=G, 2=B, 3=A) as a Plane.
func ChannelPlane(img *image.RGBA, channel int) *Plane {
	bounds := img.Bounds()
	p := NewPlane(bounds.Dx(), bounds.Dy())
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			p.Pix[i] = float64(img.Pix[img.PixOffset(x, y)+channel])
			i++
		}
	}
	return p
}

// Binary is a thresholded image.
type Binary struct {
	Width  int
	Height int
	Pix    []bool
}

func NewBinary(width, height int) *Binary {
	return &Binary{Width: width, Height: height, Pix: make([]bool, width*height)}
}

func (b *Binary) At(x, y int) bool {
	return b.Pix[y*b.Width+x]
}

func (b *Binary) Set(x, y int, v bool) {
	b.Pix[y*b.Width+x] = v
}

// Threshold returns the binary image of pixels strictly above t.
func (p *Plane) Threshold(t float64) *Binary {
	out := NewBinary(p.Width, p.Height)
	for i, v := range p.Pix {
		out.Pix[i] = v > t
	}
	return out
}

// ThresholdMap thresholds each pixel against its own local threshold.
func (p *Plane) ThresholdMap(t *Plane) *Binary {
	out := NewBinary(p.Width, p.Height)
	for i, v := range p.Pix {
		out.Pix[i] = v > t.Pix[i]
	}
	return out
}

// Labels assigns an object id to every foreground pixel, 0 is background.
type Labels struct {
	Width  int
	Height int
	Pix    []int
	Count  int
}

func (l *Labels) At(x, y int) int {
	return l.Pix[y*l.Width+x]
}
