package inference

import (
	"image"

	"golang.org/x/image/vector"

	"github.com/askiada/go-segsvg/pkg/mask"
)

// coverageThreshold is the alpha from which a pixel counts as foreground.
const coverageThreshold = 0x80

// Rasterize fills polygon, scaled by (scaleX, scaleY), into a width x height
// mask. A pixel is foreground when at least half of it is covered.
func Rasterize(width, height int, polygon [][2]float64, scaleX, scaleY float64) *mask.Mask {
	m := &mask.Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
	if len(polygon) == 0 {
		return m
	}

	ras := vector.NewRasterizer(width, height)

	for i, p := range polygon {
		x, y := float32(p[0]*scaleX), float32(p[1]*scaleY)
		if i == 0 {
			ras.MoveTo(x, y)

			continue
		}

		ras.LineTo(x, y)
	}

	ras.ClosePath()

	alpha := image.NewAlpha(image.Rect(0, 0, width, height))
	ras.Draw(alpha, alpha.Bounds(), image.Opaque, image.Point{})

	for y := range height {
		row := alpha.Pix[y*alpha.Stride : y*alpha.Stride+width]
		for x, a := range row {
			if a >= coverageThreshold {
				m.Pix[y*width+x] = 1
			}
		}
	}

	return m
}
