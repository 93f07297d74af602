package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-segsvg/pkg/pipeline/model"
)

// outputHook is called after a worker has pushed the results of one input.
type outputHook func(iterationDuration, computationDuration time.Duration) error

func sequentialOneToMany[I any, O any](
	ctx context.Context,
	goIdx int,
	input *model.Step[I],
	output *model.Step[O],
	oneToManyFn func(context.Context, I) ([]O, error),
	hook outputHook,
) error {
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "go routine %d", goIdx)
		}

		start := time.Now()

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				return nil
			}

			startFn := time.Now()

			outs, err := oneToManyFn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d", goIdx)
			}

			endFn := time.Since(startFn)

			for _, out := range outs {
				// we check the context again to make sure all go routines currently running
				// stop to add new elements to the pipeline
				select {
				case <-ctx.Done():
					return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
				case output.Output <- out:
				}
			}

			if hook != nil {
				err = hook(time.Since(start)-endFn, endFn)
				if err != nil {
					return errors.Wrapf(err, "go routine %d", goIdx)
				}
			}
		}
	}
}

func concurrentOneToMany[I any, O any](
	ctx context.Context,
	input *model.Step[I],
	output *model.Step[O],
	oneToManyFn func(context.Context, I) ([]O, error),
	hook outputHook,
) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(output.Details.Concurrent)
	// starts many consumers concurrently
	// each consumer stops as soon as an error happens
	for goIdx := range output.Details.Concurrent {
		errGrp.Go(func() error {
			return sequentialOneToMany(dCtx, goIdx, input, output, oneToManyFn, hook)
		})
	}

	return errGrp.Wait() //nolint:wrapcheck
}

func runOneToMany[I any, O any](
	ctx context.Context,
	input *model.Step[I],
	output *model.Step[O],
	oneToManyFn func(context.Context, I) ([]O, error),
	hook outputHook,
) error {
	if output.Details.Concurrent <= 1 {
		output.Details.Concurrent = 1

		return sequentialOneToMany(ctx, 0, input, output, oneToManyFn, hook)
	}

	return concurrentOneToMany(ctx, input, output, oneToManyFn, hook)
}

func runOneToOne[I any, O any](
	ctx context.Context,
	input *model.Step[I],
	output *model.Step[O],
	oneToOneFn func(context.Context, I) (O, error),
	hook outputHook,
) error {
	return runOneToMany(ctx, input, output, func(ctx context.Context, in I) ([]O, error) {
		out, err := oneToOneFn(ctx, in)
		if err != nil {
			return nil, err
		}

		return []O{out}, nil
	}, hook)
}

func prepareStep[I, O any](pipe *Pipeline, name string, input *model.Step[I], opts ...StepOption[O]) (*model.Step[O], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}

	if input == nil {
		return nil, ErrInputMustBeSet
	}

	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.NormalStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: make(chan O),
	}

	for _, opt := range opts {
		opt(step)
	}

	if input.Details == nil {
		input.Details = &model.StepInfo{Type: model.RootStepType, Name: model.StartStep.Details.Name}
	}

	for _, opt := range pipe.opts {
		err := opt.PrepareStep(input.Details, step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run prepare step function")
		}
	}

	return step, nil
}

func (p *Pipeline) stepHook(input, output *model.StepInfo) outputHook {
	if len(p.opts) == 0 {
		return nil
	}

	return func(iterationDuration, computationDuration time.Duration) error {
		for _, opt := range p.opts {
			err := opt.OnStepOutput(input, output, iterationDuration, computationDuration)
			if err != nil {
				return errors.Wrap(err, "unable to run step output function")
			}
		}

		return nil
	}
}

func addStep[I any, O any](
	pipe *Pipeline,
	input *model.Step[I],
	step *model.Step[O],
	stepToStepFn func(ctx context.Context, input *model.Step[I], output *model.Step[O]) error,
) *model.Step[O] {
	errC := make(chan error, 1)

	pipe.register(step.Details.Name, errC, func(ctx context.Context) {
		defer func() {
			close(step.Output)
			close(errC)
		}()

		err := stepToStepFn(ctx, input, step)
		if err != nil {
			errC <- err
		}
	})

	return step
}

// AddStepOneToOne adds a step producing exactly one output per input.
func AddStepOneToOne[I any, O any](
	pipe *Pipeline,
	name string,
	input *model.Step[I],
	oneToOneFn func(context.Context, I) (O, error),
	opts ...StepOption[O],
) (*model.Step[O], error) {
	step, err := prepareStep(pipe, name, input, opts...)
	if err != nil {
		return nil, err
	}

	hook := pipe.stepHook(input.Details, step.Details)

	return addStep(pipe, input, step, func(ctx context.Context, in *model.Step[I], out *model.Step[O]) error {
		return runOneToOne(ctx, in, out, oneToOneFn, hook)
	}), nil
}

// AddStepOneToMany adds a step producing zero or more outputs per input.
func AddStepOneToMany[I any, O any](
	pipe *Pipeline,
	name string,
	input *model.Step[I],
	oneToManyFn func(context.Context, I) ([]O, error),
	opts ...StepOption[O],
) (*model.Step[O], error) {
	step, err := prepareStep(pipe, name, input, opts...)
	if err != nil {
		return nil, err
	}

	hook := pipe.stepHook(input.Details, step.Details)

	return addStep(pipe, input, step, func(ctx context.Context, in *model.Step[I], out *model.Step[O]) error {
		return runOneToMany(ctx, in, out, oneToManyFn, hook)
	}), nil
}
