package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(4, 4, color.RGBA{R: 10, A: 255})))

	img, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestEnsureRGBAGray(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(0, 0, color.Gray{Y: 200})

	rgba := EnsureRGBA(gray)
	got := rgba.RGBAAt(0, 0)
	assert.Equal(t, uint8(200), got.R)
	assert.Equal(t, uint8(0), got.G)
	assert.Equal(t, uint8(0), got.B)
	assert.Equal(t, uint8(255), got.A)
}

func TestMaxIntensityProjection(t *testing.T) {
	p1 := solid(2, 2, color.RGBA{R: 10, G: 200, B: 5, A: 255})
	p2 := solid(2, 2, color.RGBA{R: 90, G: 20, B: 50, A: 255})

	out, err := MaxIntensityProjection([]*image.RGBA{p1, p2})
	require.NoError(t, err)
	got := out.RGBAAt(1, 1)
	assert.Equal(t, uint8(90), got.R)
	assert.Equal(t, uint8(200), got.G)
	assert.Equal(t, uint8(50), got.B)
}

func TestMaxIntensityProjectionSizeMismatch(t *testing.T) {
	_, err := MaxIntensityProjection([]*image.RGBA{solid(2, 2, color.RGBA{}), solid(3, 3, color.RGBA{})})
	assert.Error(t, err)
}

func TestDotDotDot(t *testing.T) {
	tile := DotDotDot()
	assert.Equal(t, 7, tile.Bounds().Dx())
	assert.Equal(t, uint8(0), tile.RGBAAt(1, 3).R)
	assert.Equal(t, uint8(0), tile.RGBAAt(3, 3).R)
	assert.Equal(t, uint8(0), tile.RGBAAt(5, 3).R)
	assert.Equal(t, uint8(255), tile.RGBAAt(0, 0).R)
}

func TestMontageGrid(t *testing.T) {
	images := []*image.RGBA{
		solid(4, 4, color.RGBA{R: 1, A: 255}),
		solid(4, 4, color.RGBA{R: 2, A: 255}),
		solid(4, 4, color.RGBA{R: 3, A: 255}),
		solid(4, 4, color.RGBA{R: 4, A: 255}),
		solid(4, 4, color.RGBA{R: 5, A: 255}),
	}
	out, err := Montage(images, 25)
	require.NoError(t, err)
	// 5 images need a 3x3 grid of 4px tiles.
	assert.Equal(t, 12, out.Bounds().Dx())
	assert.Equal(t, 12, out.Bounds().Dy())
	assert.Equal(t, uint8(1), out.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(2), out.RGBAAt(4, 0).R)
	assert.Equal(t, uint8(4), out.RGBAAt(0, 4).R)
}

func TestMontageTruncation(t *testing.T) {
	images := make([]*image.RGBA, 6)
	for i := range images {
		images[i] = solid(7, 7, color.RGBA{R: uint8(i + 1), A: 255})
	}
	out, err := Montage(images, 4)
	require.NoError(t, err)
	// 4 tiles on a 2x2 grid, last tile is the ellipsis marker.
	assert.Equal(t, 14, out.Bounds().Dx())
	assert.Equal(t, uint8(255), out.RGBAAt(7, 7).R)
	assert.Equal(t, uint8(0), out.RGBAAt(8, 10).R)
}

func TestMontageEmpty(t *testing.T) {
	_, err := Montage(nil, 25)
	assert.ErrorIs(t, err, ErrNoImages)
}
