package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-segsvg/pkg/contour"
	"github.com/askiada/go-segsvg/pkg/mask"
	"github.com/askiada/go-segsvg/pkg/pipeline/model"
)

var blobCounts = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

var workerCounts = map[string]int{
	"sequential":     1,
	"sequential v2":  0,
	"concurrent 2":   2,
	"concurrent 100": 100,
}

type stepCase struct {
	// cancelAt is the index of the first mask sent after cancelling, -1 for none.
	cancelAt int
	// failAt is the blob count on which the step function fails, 0 for none.
	failAt     int
	cancelInFn bool
	fails      bool
	// wantErr is checked when set. A step cancelled by its own failure may
	// report either cause.
	wantErr error
}

var stepCases = map[string]stepCase{
	"complete":        {cancelAt: -1},
	"cancelled input": {cancelAt: 5, fails: true, wantErr: context.Canceled},
	"failing mask":    {cancelAt: -1, failAt: 6, fails: true, wantErr: assert.AnError},
	"cancel and fail": {cancelAt: -1, failAt: 6, cancelInFn: true, fails: true},
}

// runStep runs one step between a mask stream and a fresh output and returns
// what reached the output along with the step error.
func runStep[O any](
	t *testing.T,
	tc stepCase,
	workers int,
	run func(ctx context.Context, cancel context.CancelFunc, input *model.Step[*mask.Mask], output *model.Step[O]) error,
) ([]O, error) {
	t.Helper()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var streamCancel context.CancelFunc
	if tc.cancelAt >= 0 {
		streamCancel = cancel
	}

	input := &model.Step[*mask.Mask]{Output: maskStream(t, blobCounts, tc.cancelAt, streamCancel)}
	output := &model.Step[O]{Output: make(chan O), Details: &model.StepInfo{Concurrent: workers}}

	errC := make(chan error, 1)

	go func() {
		defer close(output.Output)

		errC <- run(ctx, cancel, input, output)
	}()

	got := drain(t, output.Output)

	return got, <-errC
}

func TestOneToOne(t *testing.T) {
	t.Parallel()

	for caseName, tc := range stepCases {
		for workersName, workers := range workerCounts {
			t.Run(caseName+"/"+workersName, func(t *testing.T) {
				t.Parallel()

				got, err := runStep(t, tc, workers, func(ctx context.Context, cancel context.CancelFunc, in *model.Step[*mask.Mask], out *model.Step[int]) error {
					return runOneToOne(ctx, in, out, func(_ context.Context, m *mask.Mask) (int, error) {
						if tc.failAt > 0 && m.Count() == 4*tc.failAt {
							if tc.cancelInFn {
								cancel()
							}

							return 0, assert.AnError
						}

						return m.Count(), nil
					}, nil)
				})

				if !tc.fails {
					require.NoError(t, err)
					assert.ElementsMatch(t, []int{4, 8, 12, 16, 20, 24, 28, 32, 36, 40}, got)

					return
				}

				require.Error(t, err)

				if tc.wantErr != nil {
					require.ErrorIs(t, err, tc.wantErr)
				}

				assert.LessOrEqual(t, len(got), len(blobCounts))
				assert.NotContains(t, got, 4*tc.failAt)
			})
		}
	}
}

func TestOneToMany(t *testing.T) {
	t.Parallel()

	for caseName, tc := range stepCases {
		for workersName, workers := range workerCounts {
			t.Run(caseName+"/"+workersName, func(t *testing.T) {
				t.Parallel()

				got, err := runStep(t, tc, workers, func(ctx context.Context, cancel context.CancelFunc, in *model.Step[*mask.Mask], out *model.Step[contour.Boundary]) error {
					return runOneToMany(ctx, in, out, func(_ context.Context, m *mask.Mask) ([]contour.Boundary, error) {
						boundaries := contour.Trace(m)
						if tc.failAt > 0 && len(boundaries) == tc.failAt {
							if tc.cancelInFn {
								cancel()
							}

							// leave time for the other workers to push theirs
							time.Sleep(time.Millisecond)

							return nil, assert.AnError
						}

						return boundaries, nil
					}, nil)
				})

				for _, b := range got {
					assert.InDelta(t, 1, b.Area(), 1e-9)
					assert.Len(t, b.Points, 4)
				}

				if !tc.fails {
					require.NoError(t, err)
					assert.Len(t, got, 55)

					return
				}

				require.Error(t, err)

				if tc.wantErr != nil {
					require.ErrorIs(t, err, tc.wantErr)
				}

				// the failing mask never reaches the output
				assert.LessOrEqual(t, len(got), 55-tc.failAt)
			})
		}
	}
}

func TestOneToManyHook(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	input := &model.Step[*mask.Mask]{Output: maskStream(t, []int{0, 1, 0, 2, 0, 3}, -1, nil)}
	output := &model.Step[contour.Boundary]{Output: make(chan contour.Boundary), Details: &model.StepInfo{Concurrent: 4}}

	var calls atomic.Int64

	errC := make(chan error, 1)

	go func() {
		defer close(output.Output)

		errC <- runOneToMany(ctx, input, output, func(_ context.Context, m *mask.Mask) ([]contour.Boundary, error) {
			return contour.Trace(m), nil
		}, func(_, _ time.Duration) error {
			calls.Add(1)

			return nil
		})
	}()

	assert.Len(t, drain(t, output.Output), 6)
	require.NoError(t, <-errC)
	assert.Equal(t, int64(6), calls.Load())
}

func TestOneToManyHookError(t *testing.T) {
	t.Parallel()

	input := &model.Step[*mask.Mask]{Output: maskStream(t, blobCounts, -1, nil)}
	output := &model.Step[int]{Output: make(chan int, len(blobCounts)), Details: &model.StepInfo{Concurrent: 1}}

	err := runOneToMany(t.Context(), input, output, func(_ context.Context, m *mask.Mask) ([]int, error) {
		return []int{m.Count()}, nil
	}, func(_, _ time.Duration) error {
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Len(t, output.Output, 1)
}
