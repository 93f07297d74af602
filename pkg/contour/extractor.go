// Package contour turns a cleaned binary mask into simplified polygon
// outlines: outer boundary tracing, small-area filtering and perimeter
// relative Douglas-Peucker simplification.
package contour

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-segsvg/pkg/mask"
)

const (
	DefaultMinArea         = 50.0
	DefaultEpsilonFraction = 0.005
	minPolygonPoints       = 3
)

var ErrInvalidExtractor = errors.New("invalid extractor settings")

// Extractor derives polygons from a mask. It holds no mutable state.
type Extractor struct {
	minArea         float64
	epsilonFraction float64
}

// NewExtractor returns an Extractor dropping boundaries below minArea and
// simplifying with a tolerance of epsilonFraction times the perimeter.
func NewExtractor(minArea, epsilonFraction float64) (*Extractor, error) {
	if minArea < 0 {
		return nil, errors.Wrapf(ErrInvalidExtractor, "min area %v is negative", minArea)
	}

	if epsilonFraction < 0 {
		return nil, errors.Wrapf(ErrInvalidExtractor, "epsilon fraction %v is negative", epsilonFraction)
	}

	return &Extractor{minArea: minArea, epsilonFraction: epsilonFraction}, nil
}

// DefaultExtractor uses an area threshold of 50 and 0.5% of the perimeter.
func DefaultExtractor() *Extractor {
	return &Extractor{minArea: DefaultMinArea, epsilonFraction: DefaultEpsilonFraction}
}

// Extract returns one polygon per surviving outer boundary of m, in the
// order Trace reports them. Boundaries under the area threshold and
// polygons left with fewer than three points are dropped.
func (e *Extractor) Extract(m *mask.Mask) []Polygon {
	var res []Polygon

	for _, b := range Trace(m) {
		if b.Area() < e.minArea {
			continue
		}

		poly := Simplify(b.Points, Tolerance(b, e.epsilonFraction))
		if len(poly) < minPolygonPoints {
			continue
		}

		res = append(res, poly)
	}

	return res
}
