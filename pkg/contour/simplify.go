package contour

import (
	"image"
	"math"

	"seehuhn.de/go/geom/vec"
)

// Polygon is a closed outline. The last point connects back to the first.
type Polygon []vec.Vec2

// Tolerance returns the Douglas-Peucker tolerance for b: fraction of its
// perimeter. Scaling a boundary by k scales its tolerance by k.
func Tolerance(b Boundary, fraction float64) float64 {
	return fraction * b.Perimeter()
}

// Simplify reduces a closed point sequence with the Douglas-Peucker
// algorithm. The result is an ordered subset of pts; a point is dropped only
// if it lies within eps of the chord replacing it.
func Simplify(pts []image.Point, eps float64) Polygon {
	poly := toVec(pts)
	if len(poly) < 3 {
		return poly
	}

	// split the closed curve at two far apart points
	first := farthest(poly, 0)
	second := farthest(poly, first)

	keep := make([]bool, len(poly))
	keep[first] = true
	keep[second] = true

	simplifyChain(poly, first, second, eps, keep)
	simplifyChain(poly, second, first, eps, keep)

	res := make(Polygon, 0, len(poly))

	for i, p := range poly {
		if keep[i] {
			res = append(res, p)
		}
	}

	return res
}

type chain struct{ from, to int }

// simplifyChain marks the points to keep between indices from and to,
// walking forward and wrapping around the end of pts.
func simplifyChain(pts Polygon, from, to int, eps float64, keep []bool) {
	n := len(pts)
	stack := []chain{{from, to}}

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		a, b := pts[c.from], pts[c.to]
		maxDist, maxIdx := -1.0, -1

		for i := (c.from + 1) % n; i != c.to; i = (i + 1) % n {
			d := segmentDistance(pts[i], a, b)
			if d > maxDist {
				maxDist, maxIdx = d, i
			}
		}

		if maxIdx < 0 || maxDist <= eps {
			continue
		}

		keep[maxIdx] = true
		stack = append(stack, chain{c.from, maxIdx}, chain{maxIdx, c.to})
	}
}

// farthest returns the index of the point of pts farthest from pts[from].
func farthest(pts Polygon, from int) int {
	best, bestDist := from, -1.0

	for i, p := range pts {
		d := p.Sub(pts[from]).Length()
		if d > bestDist {
			best, bestDist = i, d
		}
	}

	return best
}

// segmentDistance is the distance from p to the line through a and b, or
// to a when a and b coincide.
func segmentDistance(p, a, b vec.Vec2) float64 {
	ab := b.Sub(a)

	length := ab.Length()
	if length == 0 {
		return p.Sub(a).Length()
	}

	ap := p.Sub(a)

	return math.Abs(ab.X*ap.Y-ab.Y*ap.X) / length
}

func perimeter(pts Polygon) float64 {
	if len(pts) < 2 {
		return 0
	}

	total := 0.0
	for i, p := range pts {
		total += pts[(i+1)%len(pts)].Sub(p).Length()
	}

	return total
}

func toVec(pts []image.Point) Polygon {
	res := make(Polygon, len(pts))
	for i, p := range pts {
		res[i] = vec.Vec2{X: float64(p.X), Y: float64(p.Y)}
	}

	return res
}
