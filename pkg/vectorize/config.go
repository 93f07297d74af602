package vectorize

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-segsvg/pkg/contour"
	"github.com/askiada/go-segsvg/pkg/mask"
	"github.com/askiada/go-segsvg/pkg/svgdoc"
)

const DefaultConcurrency = 4

// Config holds the geometry thresholds, the worker count and the document style.
type Config struct {
	KernelSize      int          `yaml:"kernel_size"`
	MinArea         float64      `yaml:"min_area"`
	EpsilonFraction float64      `yaml:"epsilon_fraction"`
	Concurrency     int          `yaml:"concurrency"`
	Style           svgdoc.Style `yaml:"style"`
}

func DefaultConfig() Config {
	return Config{
		KernelSize:      mask.DefaultKernelSize,
		MinArea:         contour.DefaultMinArea,
		EpsilonFraction: contour.DefaultEpsilonFraction,
		Concurrency:     DefaultConcurrency,
		Style:           svgdoc.DefaultStyle(),
	}
}

// Validate checks every field and returns the first problem found.
func (c Config) Validate() error {
	_, err := c.build()

	return err
}

type stages struct {
	closer    *mask.Closer
	extractor *contour.Extractor
	assembler *svgdoc.Assembler
}

func (c Config) build() (*stages, error) {
	closer, err := mask.NewCloser(c.KernelSize)
	if err != nil {
		return nil, withKind(ErrInvalidConfig, err)
	}

	extractor, err := contour.NewExtractor(c.MinArea, c.EpsilonFraction)
	if err != nil {
		return nil, withKind(ErrInvalidConfig, err)
	}

	if c.Concurrency < 1 {
		return nil, errors.Wrapf(ErrInvalidConfig, "concurrency %d must be at least 1", c.Concurrency)
	}

	style, err := svgdoc.NewStyle(c.Style.Fill, c.Style.Stroke, c.Style.StrokeWidth)
	if err != nil {
		return nil, withKind(ErrInvalidConfig, err)
	}

	return &stages{
		closer:    closer,
		extractor: extractor,
		assembler: svgdoc.NewAssembler(style),
	}, nil
}
