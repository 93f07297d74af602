// Package drawer renders the shape of a pipeline, annotated with its timings,
// as a Graphviz DOT graph.
package drawer

import (
	"time"

	"github.com/askiada/go-segsvg/pkg/pipeline/measure"
)

// Drawer collects the steps of a pipeline and the links between them, then
// writes the graph in one go.
type Drawer interface {
	AddStep(stepName string) error
	AddLink(parentStepName, childStepName string) error
	// SetTotalTime records how long after the start stepName completed.
	SetTotalTime(stepName string, totalTime time.Duration) error
	// AddMeasure annotates the steps and links with the timings of m.
	AddMeasure(m measure.Measure) error
	Draw() error
}
