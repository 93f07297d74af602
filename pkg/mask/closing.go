package mask

import (
	"github.com/pkg/errors"
)

// DefaultKernelSize is the side of the square structuring element used for closing.
const DefaultKernelSize = 5

var ErrInvalidKernel = errors.New("kernel size must be a positive odd number")

type morphOp int

const (
	dilate morphOp = iota
	erode
)

// Closer applies a morphological closing with a square structuring element
// anchored at its centre. A Closer holds no state and is safe for concurrent use.
type Closer struct {
	size int
}

// NewCloser returns a Closer with a size x size structuring element.
func NewCloser(size int) (*Closer, error) {
	if size <= 0 || size%2 == 0 {
		return nil, errors.Wrapf(ErrInvalidKernel, "got %d", size)
	}

	return &Closer{size: size}, nil
}

// Size returns the side of the structuring element.
func (c *Closer) Size() int {
	return c.size
}

// Close returns the closing of m: a dilation followed by an erosion. Pixels
// outside the grid never contribute to the dilation and never veto the
// erosion, so foreground touching the border is preserved. The input is not
// modified.
func (c *Closer) Close(m *Mask) *Mask {
	out := m.Clone()
	if c.size == 1 {
		return out
	}

	radius := c.size / 2
	tmp := make([]uint8, len(out.Pix))
	prefix := make([]int, max(m.Width, m.Height)+1)

	// the square element is separable: rows then columns
	for _, op := range []morphOp{dilate, erode} {
		for y := range m.Height {
			morphLine(out.Pix, tmp, y*m.Width, 1, m.Width, radius, op, prefix)
		}

		for x := range m.Width {
			morphLine(tmp, out.Pix, x, m.Width, m.Height, radius, op, prefix)
		}
	}

	return out
}

// morphLine applies op along one row or column of length n, starting at
// offset start and advancing by stride. The window is clipped to the line.
func morphLine(src, dst []uint8, start, stride, n, radius int, op morphOp, prefix []int) {
	prefix[0] = 0
	for i := range n {
		prefix[i+1] = prefix[i]
		if src[start+i*stride] != 0 {
			prefix[i+1]++
		}
	}

	for i := range n {
		lo := max(i-radius, 0)
		hi := min(i+radius, n-1)
		fg := prefix[hi+1] - prefix[lo]

		var v uint8

		switch op {
		case dilate:
			if fg > 0 {
				v = 1
			}
		case erode:
			if fg == hi-lo+1 {
				v = 1
			}
		}

		dst[start+i*stride] = v
	}
}
