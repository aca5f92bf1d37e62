package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	// Registered decoders for image.Decode.
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

var ErrNoImages = errors.New("no images to compose")

// Decode reads a PNG, JPEG or TIFF image.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EnsureRGBA converts any decoded image to RGBA. Grayscale images come out
// with the intensity in the red channel and zeroed green and blue, matching
// a single-channel microscope acquisition padded to RGB.
func EnsureRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	switch src := img.(type) {
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				v := src.GrayAt(x, y).Y
				out.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{R: v, A: 255})
			}
		}
	case *image.Gray16:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				v := uint8(src.Gray16At(x, y).Y >> 8)
				out.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{R: v, A: 255})
			}
		}
	default:
		xdraw.Draw(out, out.Bounds(), img, bounds.Min, xdraw.Src)
	}
	return out
}

// MaxIntensityProjection collapses a z-stack into a single plane by taking
// the per-channel maximum across planes. All planes must share dimensions.
func MaxIntensityProjection(planes []*image.RGBA) (*image.RGBA, error) {
	if len(planes) == 0 {
		return nil, ErrNoImages
	}
	bounds := planes[0].Bounds()
	for _, p := range planes[1:] {
		if p.Bounds() != bounds {
			return nil, fmt.Errorf("plane size mismatch: %v vs %v", p.Bounds(), bounds)
		}
	}
	out := image.NewRGBA(bounds)
	for i := range out.Pix {
		maxV := planes[0].Pix[i]
		for _, p := range planes[1:] {
			if p.Pix[i] > maxV {
				maxV = p.Pix[i]
			}
		}
		out.Pix[i] = maxV
	}
	return out, nil
}

// DotDotDot is the 7x7 ellipsis tile appended to a montage when the
// selection is truncated: three black dots on white.
func DotDotDot() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, 7, 7))
	for i := range out.Pix {
		out.Pix[i] = 255
	}
	for _, x := range []int{1, 3, 5} {
		out.SetRGBA(x, 3, color.RGBA{A: 255})
	}
	return out
}

// Montage lays images out on a square grid of side ceil(sqrt(n)). When more
// than maxImages are given, the first maxImages-1 are shown and the last tile
// is the ellipsis marker. Tiles are scaled to the size of the first image.
func Montage(images []*image.RGBA, maxImages int) (*image.RGBA, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	n := len(images)
	truncated := maxImages > 0 && n > maxImages
	if truncated {
		images = images[:maxImages-1]
		images = append(images, DotDotDot())
		n = maxImages
	}
	sideLen := int(math.Ceil(math.Sqrt(float64(n))))
	tileW := images[0].Bounds().Dx()
	tileH := images[0].Bounds().Dy()
	out := image.NewRGBA(image.Rect(0, 0, sideLen*tileW, sideLen*tileH))
	for i, img := range images {
		row := i / sideLen
		col := i % sideLen
		dst := image.Rect(col*tileW, row*tileH, (col+1)*tileW, (row+1)*tileH)
		if img.Bounds().Dx() == tileW && img.Bounds().Dy() == tileH {
			xdraw.Draw(out, dst, img, img.Bounds().Min, xdraw.Src)
		} else {
			xdraw.NearestNeighbor.Scale(out, dst, img, img.Bounds(), xdraw.Src, nil)
		}
	}
	return out, nil
}
