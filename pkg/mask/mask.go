// Package mask provides the binary raster mask produced by the segmentation model
// and the morphological preprocessing applied to it before boundary tracing.
package mask

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidDimensions = errors.New("mask dimensions must be positive")
	ErrInvalidPix        = errors.New("mask pixel buffer does not match dimensions")
)

// Mask is a row-major binary grid. Any non-zero byte is foreground.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// New returns an all-background mask.
func New(width, height int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "got %dx%d", width, height)
	}

	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}, nil
}

// FromPix wraps an existing pixel buffer. The buffer is not copied.
func FromPix(width, height int, pix []uint8) (*Mask, error) {
	m := &Mask{Width: width, Height: height, Pix: pix}

	err := m.Validate()
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Validate reports whether the mask dimensions and buffer are consistent.
func (m *Mask) Validate() error {
	if m == nil {
		return errors.Wrap(ErrInvalidDimensions, "mask is nil")
	}

	if m.Width <= 0 || m.Height <= 0 {
		return errors.Wrapf(ErrInvalidDimensions, "got %dx%d", m.Width, m.Height)
	}

	if len(m.Pix) != m.Width*m.Height {
		return errors.Wrapf(ErrInvalidPix, "want %d bytes, got %d", m.Width*m.Height, len(m.Pix))
	}

	return nil
}

// At reports whether (x, y) is foreground. Coordinates outside the grid are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}

	return m.Pix[y*m.Width+x] != 0
}

// Set marks (x, y) as foreground or background. Out of range coordinates are ignored.
func (m *Mask) Set(x, y int, fg bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}

	var v uint8
	if fg {
		v = 1
	}

	m.Pix[y*m.Width+x] = v
}

// FillRect marks the rectangle [x0,x1)x[y0,y1) as foreground, clipped to the grid.
func (m *Mask) FillRect(x0, y0, x1, y1 int) {
	for y := max(y0, 0); y < min(y1, m.Height); y++ {
		for x := max(x0, 0); x < min(x1, m.Width); x++ {
			m.Pix[y*m.Width+x] = 1
		}
	}
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	total := 0

	for _, v := range m.Pix {
		if v != 0 {
			total++
		}
	}

	return total
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)

	return &Mask{Width: m.Width, Height: m.Height, Pix: pix}
}
