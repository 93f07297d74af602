package contour

import (
	"image"

	"github.com/askiada/go-segsvg/pkg/mask"
)

// Chain codes in image coordinates (y grows downwards). Increasing the code
// turns counterclockwise as seen on screen.
var (
	chainDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	chainDY = [8]int{0, -1, -1, -1, 0, 1, 1, 1}
)

// Boundary is the outer border of one 8-connected foreground component.
// Points holds only the pixels where the border changes direction; straight
// horizontal, vertical and diagonal runs are elided.
type Boundary struct {
	Points []image.Point
	// Length is the number of steps of the full, uncompressed border.
	Length int
	area   float64
}

// Area returns the absolute area enclosed by the full border, measured
// between pixel centres with the shoelace formula.
func (b Boundary) Area() float64 {
	return b.area
}

// Perimeter returns the length of the closed border.
func (b Boundary) Perimeter() float64 {
	return perimeter(toVec(b.Points))
}

// Trace returns the outer boundaries of the foreground components of m.
// Components sitting inside a hole of another component are skipped, as
// are holes themselves. Boundaries come out in raster order of their
// topmost-leftmost pixel and start at that pixel.
func Trace(m *mask.Mask) []Boundary {
	labels, starts := label(m)
	if len(starts) == 0 {
		return nil
	}

	external := externalLabels(m, labels, len(starts))

	res := make([]Boundary, 0, len(starts))

	for i, start := range starts {
		if !external[i+1] {
			continue
		}

		res = append(res, follow(m, start))
	}

	return res
}

// label assigns 8-connected component ids (starting at 1) and returns the
// first pixel in raster order of every component.
func label(m *mask.Mask) ([]int32, []image.Point) {
	labels := make([]int32, m.Width*m.Height)
	starts := []image.Point{}
	stack := []image.Point{}

	for y := range m.Height {
		for x := range m.Width {
			if !m.At(x, y) || labels[y*m.Width+x] != 0 {
				continue
			}

			id := int32(len(starts) + 1)
			starts = append(starts, image.Pt(x, y))
			labels[y*m.Width+x] = id
			stack = append(stack[:0], image.Pt(x, y))

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				for d := range 8 {
					nx, ny := p.X+chainDX[d], p.Y+chainDY[d]
					if !m.At(nx, ny) || labels[ny*m.Width+nx] != 0 {
						continue
					}

					labels[ny*m.Width+nx] = id
					stack = append(stack, image.Pt(nx, ny))
				}
			}
		}
	}

	return labels, starts
}

// externalLabels flood fills the background connected to the image frame
// (4-connectivity, the dual of 8-connected foreground) and marks every
// component touching it or the frame itself.
func externalLabels(m *mask.Mask, labels []int32, total int) []bool {
	external := make([]bool, total+1)
	outside := make([]bool, m.Width*m.Height)
	stack := []image.Point{}

	visit := func(x, y int) {
		idx := y*m.Width + x
		if labels[idx] != 0 {
			external[labels[idx]] = true

			return
		}

		if outside[idx] {
			return
		}

		outside[idx] = true
		stack = append(stack, image.Pt(x, y))
	}

	for x := range m.Width {
		visit(x, 0)
		visit(x, m.Height-1)
	}

	for y := range m.Height {
		visit(0, y)
		visit(m.Width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, d := range [4]int{0, 2, 4, 6} {
			nx, ny := p.X+chainDX[d], p.Y+chainDY[d]
			if nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
				continue
			}

			visit(nx, ny)
		}
	}

	return external
}

// follow walks the outer border counterclockwise from start, which must be
// the topmost-leftmost pixel of its component, so its west neighbour is
// background.
func follow(m *mask.Mask, start image.Point) Boundary {
	fg := func(p image.Point, d int) bool {
		return m.At(p.X+chainDX[d], p.Y+chainDY[d])
	}
	step := func(p image.Point, d int) image.Point {
		return image.Pt(p.X+chainDX[d], p.Y+chainDY[d])
	}

	// look clockwise from the west neighbour for the last pixel of the border
	lastDir := -1

	for k := range 8 {
		d := (4 - k + 8) % 8
		if fg(start, d) {
			lastDir = d

			break
		}
	}

	if lastDir < 0 {
		return Boundary{Points: []image.Point{start}, Length: 1}
	}

	last := step(start, lastDir)
	full := []image.Point{}
	dirs := []int{}
	cur := start
	back := lastDir

	for {
		next := -1

		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			if fg(cur, d) {
				next = d

				break
			}
		}

		full = append(full, cur)
		dirs = append(dirs, next)
		nextPt := step(cur, next)

		if cur == last && nextPt == start {
			break
		}

		back = (next + 4) % 8
		cur = nextPt
	}

	return Boundary{
		Points: compress(full, dirs),
		Length: len(full),
		area:   shoelace(full),
	}
}

// compress keeps the points where the outgoing direction differs from the
// incoming one. dirs[i] is the direction from full[i] to its successor.
func compress(full []image.Point, dirs []int) []image.Point {
	res := make([]image.Point, 0, 8)

	for i, p := range full {
		in := dirs[(i-1+len(dirs))%len(dirs)]
		if in != dirs[i] {
			res = append(res, p)
		}
	}

	if len(res) == 0 {
		// a closed walk always turns somewhere; guard anyway
		res = append(res, full[0])
	}

	return res
}

func shoelace(pts []image.Point) float64 {
	sum := 0

	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}

	if sum < 0 {
		sum = -sum
	}

	return float64(sum) / 2
}
