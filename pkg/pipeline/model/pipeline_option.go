package model

import "time"

// PipelineOption observes a pipeline: it sees every step being wired and
// every element flowing through, and is finished once the run succeeds.
type PipelineOption interface {
	New() error

	stepObserver
	sinkObserver

	// Finish is only called when every step completed without error.
	Finish() error
}

type stepObserver interface {
	// PrepareStep is called once while the step is added, parentStep being its input.
	PrepareStep(parentStep, step *StepInfo) error
	// OnStepOutput is called after a worker pushed the results of one input.
	// iterationDuration excludes computationDuration, the time spent in the step function.
	OnStepOutput(parentStep, step *StepInfo, iterationDuration, computationDuration time.Duration) error
}

type sinkObserver interface {
	PrepareSink(parentStep, step *StepInfo) error
	// OnSinkOutput is called after the sink function handled one element.
	OnSinkOutput(parentStep, step *StepInfo, iterationDuration, computationDuration time.Duration) error
	// AfterSink is called when the sink input is exhausted. totalDuration
	// runs from the creation of the pipeline.
	AfterSink(step *StepInfo, totalDuration time.Duration) error
}
