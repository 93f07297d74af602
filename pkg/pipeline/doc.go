// Package pipeline provides a pipeline for processing data.
//
// The pipeline package offers a convenient way to process data using a series of stages. Each stage in the pipeline
// performs a specific operation on the data and passes it to the next stage through a channel. A stage can run
// several workers concurrently; the stages themselves always run in parallel.
//
// The pipeline stops on the first encountered error: the error is returned by Run, wrapped with the name of the
// stage that produced it, and the context handed to every stage is cancelled so no new element is scheduled.
//
// Options implementing model.PipelineOption observe every stage. The measure and drawer sub packages use them to
// record per stage timings and to render the stage graph.
package pipeline
