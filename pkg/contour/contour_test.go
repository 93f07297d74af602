package contour_test

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/vec"

	"github.com/askiada/go-segsvg/pkg/contour"
	"github.com/askiada/go-segsvg/pkg/mask"
)

func newMask(t *testing.T, width, height int) *mask.Mask {
	t.Helper()

	m, err := mask.New(width, height)
	require.NoError(t, err)

	return m
}

func clearRect(m *mask.Mask, x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Set(x, y, false)
		}
	}
}

func TestTraceEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, contour.Trace(newMask(t, 100, 100)))
}

func TestTraceSquare(t *testing.T) {
	t.Parallel()

	m := newMask(t, 50, 50)
	m.FillRect(10, 10, 30, 30)

	got := contour.Trace(m)
	require.Len(t, got, 1)
	assert.Equal(t, []image.Point{{10, 10}, {10, 29}, {29, 29}, {29, 10}}, got[0].Points)
	assert.Equal(t, 76, got[0].Length)
	assert.InDelta(t, 361.0, got[0].Area(), 1e-9)
	assert.InDelta(t, 76.0, got[0].Perimeter(), 1e-9)
}

func TestTraceDegenerateShapes(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		fill func(m *mask.Mask)
		want []image.Point
	}{
		"single pixel": {
			fill: func(m *mask.Mask) { m.Set(5, 5, true) },
			want: []image.Point{{5, 5}},
		},
		"horizontal line": {
			fill: func(m *mask.Mask) { m.FillRect(0, 0, 5, 1) },
			want: []image.Point{{0, 0}, {4, 0}},
		},
		"diagonal line": {
			fill: func(m *mask.Mask) {
				m.Set(0, 0, true)
				m.Set(1, 1, true)
				m.Set(2, 2, true)
			},
			want: []image.Point{{0, 0}, {2, 2}},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m := newMask(t, 10, 10)
			tc.fill(m)

			got := contour.Trace(m)
			require.Len(t, got, 1)
			assert.Equal(t, tc.want, got[0].Points)
			assert.Zero(t, got[0].Area())
		})
	}
}

func TestTraceDisjointRegions(t *testing.T) {
	t.Parallel()

	m := newMask(t, 60, 60)
	m.FillRect(40, 5, 43, 8)
	m.FillRect(10, 20, 30, 40)

	got := contour.Trace(m)
	require.Len(t, got, 2)
	assert.Equal(t, image.Pt(40, 5), got[0].Points[0])
	assert.Equal(t, image.Pt(10, 20), got[1].Points[0])
	assert.InDelta(t, 4.0, got[0].Area(), 1e-9)
	assert.InDelta(t, 361.0, got[1].Area(), 1e-9)
}

func TestTraceIgnoresHolesAndNestedIslands(t *testing.T) {
	t.Parallel()

	m := newMask(t, 40, 40)
	m.FillRect(5, 5, 35, 35)
	clearRect(m, 12, 12, 28, 28)
	m.FillRect(18, 18, 22, 22)

	got := contour.Trace(m)
	require.Len(t, got, 1)
	assert.Equal(t, []image.Point{{5, 5}, {5, 34}, {34, 34}, {34, 5}}, got[0].Points)
	assert.InDelta(t, 29.0*29.0, got[0].Area(), 1e-9)
}

func TestTraceTouchingBorder(t *testing.T) {
	t.Parallel()

	m := newMask(t, 20, 20)
	m.FillRect(0, 0, 20, 20)

	got := contour.Trace(m)
	require.Len(t, got, 1)
	assert.Equal(t, []image.Point{{0, 0}, {0, 19}, {19, 19}, {19, 0}}, got[0].Points)
}

func TestSimplifyDropsCollinearPoints(t *testing.T) {
	t.Parallel()

	pts := []image.Point{{0, 0}, {5, 0}, {10, 0}, {10, 10}, {0, 10}}
	got := contour.Simplify(pts, 0.1)
	assert.Equal(t, contour.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}, got)
}

func TestSimplifyKeepsShortInput(t *testing.T) {
	t.Parallel()

	got := contour.Simplify([]image.Point{{1, 2}, {3, 4}}, 10)
	assert.Equal(t, contour.Polygon{{X: 1, Y: 2}, {X: 3, Y: 4}}, got)
	assert.Empty(t, contour.Simplify(nil, 1))
}

func TestToleranceScalesWithBoundary(t *testing.T) {
	t.Parallel()

	base := []image.Point{{0, 0}, {0, 7}, {3, 12}, {11, 9}, {8, 1}}

	for _, k := range []int{1, 2, 5, 13} {
		scaled := make([]image.Point, len(base))
		for i, p := range base {
			scaled[i] = p.Mul(k)
		}

		want := float64(k) * contour.Tolerance(contour.Boundary{Points: base}, contour.DefaultEpsilonFraction)
		got := contour.Tolerance(contour.Boundary{Points: scaled}, contour.DefaultEpsilonFraction)
		assert.InDelta(t, want, got, 1e-9, "scale %d", k)
	}
}

func TestExtractSquare(t *testing.T) {
	t.Parallel()

	m := newMask(t, 100, 100)
	m.FillRect(40, 40, 60, 60)

	got := contour.DefaultExtractor().Extract(m)
	require.Len(t, got, 1)
	assert.Equal(t, contour.Polygon{{X: 40, Y: 40}, {X: 40, Y: 59}, {X: 59, Y: 59}, {X: 59, Y: 40}}, got[0])
}

func TestExtractAreaFilter(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		width, height int
		want          int
	}{
		"3x3 area 4":     {width: 3, height: 3, want: 0},
		"8x8 area 49":    {width: 8, height: 8, want: 0},
		"9x8 area 56":    {width: 9, height: 8, want: 1},
		"20x20 area 361": {width: 20, height: 20, want: 1},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m := newMask(t, 50, 50)
			m.FillRect(10, 10, 10+tc.width, 10+tc.height)

			assert.Len(t, contour.DefaultExtractor().Extract(m), tc.want)
		})
	}
}

func TestExtractMixedRegions(t *testing.T) {
	t.Parallel()

	m := newMask(t, 100, 100)
	m.FillRect(5, 5, 8, 8)
	m.FillRect(50, 50, 70, 70)

	got := contour.DefaultExtractor().Extract(m)
	require.Len(t, got, 1)
	assert.Equal(t, vec.Vec2{X: 50, Y: 50}, got[0][0])
}

func TestExtractPointCountInvariant(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(7))
	m := newMask(t, 120, 90)

	// blobs made of overlapping rectangles give irregular outlines
	for range 40 {
		x, y := rnd.Intn(110), rnd.Intn(80)
		m.FillRect(x, y, x+2+rnd.Intn(15), y+2+rnd.Intn(15))
	}

	extractor := contour.DefaultExtractor()

	var survivors []contour.Boundary

	for _, b := range contour.Trace(m) {
		if b.Area() >= contour.DefaultMinArea {
			survivors = append(survivors, b)
		}
	}

	polys := extractor.Extract(m)
	require.NotEmpty(t, polys)
	require.LessOrEqual(t, len(polys), len(survivors))

	for _, b := range survivors {
		poly := contour.Simplify(b.Points, contour.Tolerance(b, contour.DefaultEpsilonFraction))
		assert.LessOrEqual(t, len(poly), len(b.Points))
	}

	for _, poly := range polys {
		assert.GreaterOrEqual(t, len(poly), 3)
	}
}

func TestNewExtractor(t *testing.T) {
	t.Parallel()

	_, err := contour.NewExtractor(-1, 0.005)
	require.ErrorIs(t, err, contour.ErrInvalidExtractor)

	_, err = contour.NewExtractor(50, -0.1)
	require.ErrorIs(t, err, contour.ErrInvalidExtractor)

	e, err := contour.NewExtractor(0, 0)
	require.NoError(t, err)

	m := newMask(t, 10, 10)
	m.FillRect(2, 2, 5, 5)
	assert.Len(t, e.Extract(m), 1)
}
