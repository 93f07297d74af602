package mask_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-segsvg/pkg/mask"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		width, height int
		wantErr       bool
	}{
		"valid":       {width: 3, height: 2},
		"zero width":  {width: 0, height: 2, wantErr: true},
		"zero height": {width: 3, height: 0, wantErr: true},
		"negative":    {width: -1, height: -1, wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m, err := mask.New(tc.width, tc.height)
			if tc.wantErr {
				require.ErrorIs(t, err, mask.ErrInvalidDimensions)

				return
			}

			require.NoError(t, err)
			assert.Len(t, m.Pix, tc.width*tc.height)
			assert.Zero(t, m.Count())
		})
	}
}

func TestFromPix(t *testing.T) {
	t.Parallel()

	_, err := mask.FromPix(2, 2, []uint8{1, 0, 1})
	require.ErrorIs(t, err, mask.ErrInvalidPix)

	m, err := mask.FromPix(2, 2, []uint8{1, 0, 0, 255})
	require.NoError(t, err)
	assert.True(t, m.At(0, 0))
	assert.False(t, m.At(1, 0))
	assert.True(t, m.At(1, 1))
	assert.False(t, m.At(-1, 0))
	assert.False(t, m.At(2, 1))
	assert.Equal(t, 2, m.Count())
}

func TestSetAndFillRect(t *testing.T) {
	t.Parallel()

	m, err := mask.New(4, 4)
	require.NoError(t, err)

	m.FillRect(-2, -2, 2, 2)
	assert.Equal(t, 4, m.Count())

	m.Set(0, 0, false)
	m.Set(10, 10, true)
	assert.Equal(t, 3, m.Count())
}

func TestNewCloser(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -3, 2, 4} {
		_, err := mask.NewCloser(size)
		require.ErrorIs(t, err, mask.ErrInvalidKernel, "size %d", size)
	}

	c, err := mask.NewCloser(mask.DefaultKernelSize)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Size())
}

func newCloser(t *testing.T, size int) *mask.Closer {
	t.Helper()

	c, err := mask.NewCloser(size)
	require.NoError(t, err)

	return c
}

func TestCloseAllBackground(t *testing.T) {
	t.Parallel()

	m, err := mask.New(100, 100)
	require.NoError(t, err)

	got := newCloser(t, 5).Close(m)
	assert.Equal(t, 100, got.Width)
	assert.Equal(t, 100, got.Height)
	assert.Zero(t, got.Count())
}

func TestCloseKeepsSquare(t *testing.T) {
	t.Parallel()

	m, err := mask.New(50, 50)
	require.NoError(t, err)
	m.FillRect(10, 10, 30, 30)

	got := newCloser(t, 5).Close(m)
	assert.Equal(t, m.Pix, got.Pix)
}

func TestCloseFillsHoleAndGap(t *testing.T) {
	t.Parallel()

	m, err := mask.New(60, 40)
	require.NoError(t, err)
	m.FillRect(5, 5, 25, 25)
	m.Set(15, 15, false)
	m.Set(16, 15, false)
	// two columns of background between the squares
	m.FillRect(27, 5, 47, 25)

	got := newCloser(t, 5).Close(m)
	assert.True(t, got.At(15, 15))
	assert.True(t, got.At(16, 15))
	assert.True(t, got.At(25, 10))
	assert.True(t, got.At(26, 10))
	assert.False(t, got.At(25, 30))
	// input is left untouched
	assert.False(t, m.At(15, 15))
}

func TestCloseKeepsBorderForeground(t *testing.T) {
	t.Parallel()

	m, err := mask.New(20, 20)
	require.NoError(t, err)
	m.FillRect(0, 0, 6, 6)

	got := newCloser(t, 5).Close(m)
	assert.Equal(t, m.Pix, got.Pix)
}

func TestCloseIsExtensiveAndDeterministic(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(42))

	m, err := mask.New(64, 48)
	require.NoError(t, err)

	for i := range m.Pix {
		if rnd.Intn(3) == 0 {
			m.Pix[i] = 1
		}
	}

	closer := newCloser(t, 5)
	first := closer.Close(m)
	second := closer.Close(m)
	assert.Equal(t, first.Pix, second.Pix)

	for i, v := range m.Pix {
		if v != 0 {
			require.NotZero(t, first.Pix[i], "pixel %d lost by closing", i)
		}
	}
}

func TestCloseSizeOneIsIdentity(t *testing.T) {
	t.Parallel()

	m, err := mask.FromPix(3, 3, []uint8{1, 0, 1, 0, 0, 0, 1, 0, 1})
	require.NoError(t, err)

	got := newCloser(t, 1).Close(m)
	assert.Equal(t, m.Pix, got.Pix)
}
