package features

// diskOffsets returns the pixel offsets of a disk structuring element of the
// given radius.
func diskOffsets(radius int) [][2]int {
	var offsets [][2]int
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				offsets = append(offsets, [2]int{dx, dy})
			}
		}
	}
	return offsets
}

// Erode keeps a pixel only if the whole structuring element fits inside the
// foreground. Pixels probing outside the image count as background.
func Erode(b *Binary, radius int) *Binary {
	offsets := diskOffsets(radius)
	out := NewBinary(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
	pixel:
		for x := 0; x < b.Width; x++ {
			for _, off := range offsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || nx >= b.Width || ny < 0 || ny >= b.Height || !b.At(nx, ny) {
					continue pixel
				}
			}
			out.Set(x, y, true)
		}
	}
	return out
}

// Dilate sets a pixel if any foreground pixel lies under the structuring
// element.
func Dilate(b *Binary, radius int) *Binary {
	offsets := diskOffsets(radius)
	out := NewBinary(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if !b.At(x, y) {
				continue
			}
			for _, off := range offsets {
				nx, ny := x+off[0], y+off[1]
				if nx >= 0 && nx < b.Width && ny >= 0 && ny < b.Height {
					out.Set(nx, ny, true)
				}
			}
		}
	}
	return out
}

// BinaryOpening erodes then dilates, removing speckle smaller than the
// structuring element.
func BinaryOpening(b *Binary, radius int) *Binary {
	if radius <= 0 {
		return b
	}
	return Dilate(Erode(b, radius), radius)
}

// Label finds 4-connected components of the foreground. Object ids start
// at 1, background is 0.
func Label(b *Binary) *Labels {
	labels := &Labels{Width: b.Width, Height: b.Height, Pix: make([]int, len(b.Pix))}
	next := 0
	queue := make([]int, 0, 64)
	for start, fg := range b.Pix {
		if !fg || labels.Pix[start] != 0 {
			continue
		}
		next++
		labels.Pix[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%b.Width, idx/b.Width
			for _, n := range [][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || nx >= b.Width || ny < 0 || ny >= b.Height {
					continue
				}
				nIdx := ny*b.Width + nx
				if b.Pix[nIdx] && labels.Pix[nIdx] == 0 {
					labels.Pix[nIdx] = next
					queue = append(queue, nIdx)
				}
			}
		}
	}
	labels.Count = next
	return labels
}
