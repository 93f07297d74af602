package svgdoc

import (
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint
)

const (
	DefaultFill        = "#f9dfb9"
	DefaultStroke      = "#dfb77e"
	DefaultStrokeWidth = 2.0
)

var ErrInvalidStyle = errors.New("invalid style")

// Style is the presentation applied to every path of a document.
type Style struct {
	Fill        string  `yaml:"fill"`
	Stroke      string  `yaml:"stroke"`
	StrokeWidth float64 `yaml:"stroke_width"`
}

// DefaultStyle is a light sand fill with a darker outline.
func DefaultStyle() Style {
	return Style{
		Fill:        DefaultFill,
		Stroke:      DefaultStroke,
		StrokeWidth: DefaultStrokeWidth,
	}
}

// NewStyle validates the colours (hex, rgb() or rgba() notation) and
// returns a Style holding them as lower-case hex.
func NewStyle(fill, stroke string, strokeWidth float64) (Style, error) {
	fillHex, err := normaliseColour(fill)
	if err != nil {
		return Style{}, errors.Wrap(err, "fill")
	}

	strokeHex, err := normaliseColour(stroke)
	if err != nil {
		return Style{}, errors.Wrap(err, "stroke")
	}

	if strokeWidth < 0 {
		return Style{}, errors.Wrapf(ErrInvalidStyle, "stroke width %v is negative", strokeWidth)
	}

	return Style{Fill: fillHex, Stroke: strokeHex, StrokeWidth: strokeWidth}, nil
}

func (s Style) strokeWidth() string {
	return strconv.FormatFloat(s.StrokeWidth, 'f', -1, 64)
}

func normaliseColour(value string) (string, error) {
	colour, err := colors.Parse(value)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidStyle, "colour %q: %v", value, err)
	}

	// round-trip through RGB so #ABC, #AABBCC and rgb() all print the same
	return colour.ToRGB().ToHEX().String(), nil
}
