// Package vectorize chains mask closing, contour extraction and SVG assembly
// into a single call. Masks are processed concurrently through the stage
// engine of package pipeline; the output does not depend on scheduling.
package vectorize

import (
	"context"
	"image"
	"log/slog"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-segsvg/pkg/contour"
	"github.com/askiada/go-segsvg/pkg/mask"
	"github.com/askiada/go-segsvg/pkg/pipeline"
	"github.com/askiada/go-segsvg/pkg/pipeline/drawer"
	"github.com/askiada/go-segsvg/pkg/pipeline/measure"
	"github.com/askiada/go-segsvg/pkg/pipeline/model"
	"github.com/askiada/go-segsvg/pkg/svgdoc"
)

// Segmenter produces one binary mask per detected instance, each sized to
// the bounds of img.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image) ([]*mask.Mask, error)
}

// Vectorizer is safe for concurrent use.
type Vectorizer struct {
	*stages
	concurrency int
	logger      *slog.Logger
}

// New validates cfg and returns a Vectorizer.
func New(cfg Config, opts ...Option) (*Vectorizer, error) {
	st, err := cfg.build()
	if err != nil {
		return nil, err
	}

	v := &Vectorizer{
		stages:      st,
		concurrency: cfg.Concurrency,
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v, nil
}

type indexedMask struct {
	idx  int
	mask *mask.Mask
}

type indexedPolygon struct {
	maskIdx     int
	boundaryIdx int
	poly        contour.Polygon
}

func validateInput(frame svgdoc.Frame, masks []*mask.Mask) error {
	err := frame.Validate()
	if err != nil {
		return withKind(ErrInvalidInput, err)
	}

	for i, m := range masks {
		if m == nil {
			return errors.Wrapf(ErrInvalidInput, "mask %d is nil", i)
		}

		err := m.Validate()
		if err != nil {
			return withKind(ErrInvalidInput, errors.Wrapf(err, "mask %d", i))
		}

		if m.Width != frame.Width || m.Height != frame.Height {
			return errors.Wrapf(ErrInvalidInput, "mask %d is %dx%d, frame is %dx%d",
				i, m.Width, m.Height, frame.Width, frame.Height)
		}
	}

	return nil
}

// Vectorize returns the SVG document outlining every mask on frame. Masks
// must match the frame size. With no masks the document is empty but valid.
func (v *Vectorizer) Vectorize(ctx context.Context, frame svgdoc.Frame, masks []*mask.Mask, runOpts ...RunOption) ([]byte, error) {
	err := validateInput(frame, masks)
	if err != nil {
		return nil, err
	}

	if len(masks) == 0 {
		return v.assembler.Assemble(frame, nil) //nolint:wrapcheck
	}

	rc := &runConfig{}
	for _, opt := range runOpts {
		opt(rc)
	}

	start := time.Now()

	polys, err := v.run(ctx, masks, rc)
	if err != nil {
		return nil, err
	}

	sort.Slice(polys, func(i, j int) bool {
		if polys[i].maskIdx != polys[j].maskIdx {
			return polys[i].maskIdx < polys[j].maskIdx
		}

		return polys[i].boundaryIdx < polys[j].boundaryIdx
	})

	ordered := make([]contour.Polygon, len(polys))
	for i, p := range polys {
		ordered[i] = p.poly
	}

	doc, err := v.assembler.Assemble(frame, ordered)
	if err != nil {
		return nil, errors.Wrap(err, "unable to assemble document")
	}

	v.logger.DebugContext(ctx, "masks vectorized",
		"masks", len(masks),
		"polygons", len(ordered),
		"bytes", len(doc),
		"elapsed", time.Since(start),
	)

	return doc, nil
}

func (v *Vectorizer) run(ctx context.Context, masks []*mask.Mask, rc *runConfig) ([]indexedPolygon, error) {
	var opts []model.PipelineOption

	if rc.graph != nil {
		msr := measure.NewDefaultMeasure()
		opts = append(opts, drawer.PipelineDrawer(drawer.NewDOTDrawer(rc.graph), msr), measure.PipelineMeasure(msr))
	}

	pipe, err := pipeline.New(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create pipeline")
	}

	rootStep, err := pipeline.AddRootStep(pipe, "masks", func(ctx context.Context, rootChan chan<- indexedMask) error {
		for i, m := range masks {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- indexedMask{idx: i, mask: m}:
			}
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to add masks step")
	}

	closed, err := pipeline.AddStepOneToOne(pipe, "preprocess", rootStep, func(_ context.Context, in indexedMask) (indexedMask, error) {
		return indexedMask{idx: in.idx, mask: v.closer.Close(in.mask)}, nil
	}, pipeline.StepConcurrency[indexedMask](v.concurrency))
	if err != nil {
		return nil, errors.Wrap(err, "unable to add preprocess step")
	}

	extracted, err := pipeline.AddStepOneToMany(pipe, "extract", closed, func(_ context.Context, in indexedMask) ([]indexedPolygon, error) {
		polys := v.extractor.Extract(in.mask)
		res := make([]indexedPolygon, len(polys))

		for i, poly := range polys {
			res[i] = indexedPolygon{maskIdx: in.idx, boundaryIdx: i, poly: poly}
		}

		return res, nil
	}, pipeline.StepConcurrency[indexedPolygon](v.concurrency))
	if err != nil {
		return nil, errors.Wrap(err, "unable to add extract step")
	}

	var res []indexedPolygon

	err = pipeline.AddSink(pipe, "collect", extracted, func(_ context.Context, in indexedPolygon) error {
		res = append(res, in)

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to add collect step")
	}

	err = pipe.Run()
	if err != nil {
		return nil, errors.Wrap(err, "unable to run pipeline")
	}

	return res, nil
}

// SegmentToSVG segments img with seg and vectorizes the result on a frame
// matching the image bounds.
func (v *Vectorizer) SegmentToSVG(ctx context.Context, seg Segmenter, img image.Image, runOpts ...RunOption) ([]byte, error) {
	if seg == nil {
		return nil, errors.Wrap(ErrModelUnavailable, "no segmenter")
	}

	if img == nil || img.Bounds().Empty() {
		return nil, errors.Wrap(ErrInvalidInput, "empty image")
	}

	masks, err := seg.Segment(ctx, img)
	if err != nil {
		return nil, errors.Wrap(err, "unable to segment image")
	}

	b := img.Bounds()

	return v.Vectorize(ctx, svgdoc.Frame{Width: b.Dx(), Height: b.Dy()}, masks, runOpts...)
}
