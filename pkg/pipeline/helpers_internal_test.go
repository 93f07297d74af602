package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-segsvg/pkg/mask"
)

// blobMask returns a mask holding count disjoint 2x2 squares on one row.
func blobMask(t *testing.T, count int) *mask.Mask {
	t.Helper()

	m, err := mask.New(4*count+1, 4)
	require.NoError(t, err)

	for i := range count {
		m.FillRect(4*i+1, 1, 4*i+3, 3)
	}

	return m
}

// maskStream sends one blobMask per entry of counts, calling cancel (when
// set) before sending the mask at cancelAt.
func maskStream(t *testing.T, counts []int, cancelAt int, cancel context.CancelFunc) chan *mask.Mask {
	t.Helper()

	masks := make([]*mask.Mask, len(counts))
	for i, count := range counts {
		masks[i] = blobMask(t, count)
	}

	out := make(chan *mask.Mask)

	go func() {
		defer close(out)

		for i, m := range masks {
			if cancel != nil && i == cancelAt {
				cancel()
			}

			out <- m
		}
	}()

	return out
}

func drain[T any](t *testing.T, in <-chan T) []T {
	t.Helper()

	res := []T{}

	for v := range in {
		res = append(res, v)
	}

	return res
}
