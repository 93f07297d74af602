package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-segsvg/pkg/contour"
	"github.com/askiada/go-segsvg/pkg/mask"
	"github.com/askiada/go-segsvg/pkg/pipeline"
	"github.com/askiada/go-segsvg/pkg/pipeline/model"
)

type indexedMask struct {
	idx  int
	mask *mask.Mask
}

type indexedPolygon struct {
	idx  int
	poly contour.Polygon
}

// squareMasks returns count 40x40 masks, each holding a 20x20 square.
func squareMasks(t *testing.T, count int) []*mask.Mask {
	t.Helper()

	res := make([]*mask.Mask, count)

	for i := range res {
		m, err := mask.New(40, 40)
		require.NoError(t, err)

		m.FillRect(10, 10, 30, 30)
		res[i] = m
	}

	return res
}

// sendMasks is a root step function feeding masks in order. It fails with
// err once failAt masks have been sent, unless failAt is negative.
func sendMasks(masks []*mask.Mask, failAt int, err error) func(ctx context.Context, rootChan chan<- indexedMask) error {
	return func(ctx context.Context, rootChan chan<- indexedMask) error {
		for i, m := range masks {
			if i == failAt {
				return err
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- indexedMask{idx: i, mask: m}:
			}
		}

		return nil
	}
}

// stageSet wires masks -> preprocess -> extract -> collect. The stage named
// failing returns err on the mask with index 2.
type stageSet struct {
	prefix  string
	workers int
	failing string
	err     error
}

func (s stageSet) name(stage string) string {
	if s.prefix == "" {
		return stage
	}

	return s.prefix + " - " + stage
}

func (s stageSet) fails(stage string, idx int) bool {
	return s.failing == stage && idx == 2
}

func (s stageSet) build(t *testing.T, pipe *pipeline.Pipeline, masks []*mask.Mask, got *[]indexedPolygon) {
	t.Helper()

	closer, err := mask.NewCloser(mask.DefaultKernelSize)
	require.NoError(t, err)

	extractor := contour.DefaultExtractor()

	failAt := -1
	if s.failing == "masks" {
		failAt = 2
	}

	rootStep, err := pipeline.AddRootStep(pipe, s.name("masks"), sendMasks(masks, failAt, s.err))
	require.NoError(t, err)

	closed, err := pipeline.AddStepOneToOne(pipe, s.name("preprocess"), rootStep, func(_ context.Context, in indexedMask) (indexedMask, error) {
		if s.fails("preprocess", in.idx) {
			return indexedMask{}, s.err
		}

		return indexedMask{idx: in.idx, mask: closer.Close(in.mask)}, nil
	}, pipeline.StepConcurrency[indexedMask](s.workers))
	require.NoError(t, err)

	extracted, err := pipeline.AddStepOneToMany(pipe, s.name("extract"), closed, func(_ context.Context, in indexedMask) ([]indexedPolygon, error) {
		if s.fails("extract", in.idx) {
			return nil, s.err
		}

		polys := extractor.Extract(in.mask)
		res := make([]indexedPolygon, len(polys))

		for i, poly := range polys {
			res[i] = indexedPolygon{idx: in.idx, poly: poly}
		}

		return res, nil
	}, pipeline.StepConcurrency[indexedPolygon](s.workers))
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, s.name("collect"), extracted, func(_ context.Context, in indexedPolygon) error {
		if s.fails("collect", in.idx) {
			return s.err
		}

		*got = append(*got, in)

		return nil
	})
	require.NoError(t, err)
}

func drain[T any](t *testing.T, step *model.Step[T]) []T {
	t.Helper()

	res := []T{}

	for v := range step.Output {
		res = append(res, v)
	}

	return res
}
