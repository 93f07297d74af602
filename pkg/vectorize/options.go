package vectorize

import (
	"io"
	"log/slog"
)

// Option configures a Vectorizer.
type Option func(v *Vectorizer)

// WithLogger sets the logger used for debug output. Nothing is logged by default.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vectorizer) {
		if logger != nil {
			v.logger = logger
		}
	}
}

type runConfig struct {
	graph io.Writer
}

// RunOption configures a single Vectorize call.
type RunOption func(rc *runConfig)

// WithStageGraph writes a DOT graph of the stages, annotated with their timings,
// to w once the run succeeds.
func WithStageGraph(w io.Writer) RunOption {
	return func(rc *runConfig) {
		rc.graph = w
	}
}
