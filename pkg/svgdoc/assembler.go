// Package svgdoc serialises polygon outlines into an SVG document sized to
// the source image.
package svgdoc

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/askiada/go-segsvg/pkg/contour"
)

var ErrInvalidFrame = errors.New("frame dimensions must be positive")

// Frame is the canvas of the output document.
type Frame struct {
	Width  int
	Height int
}

// Validate checks that both dimensions are strictly positive.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return errors.Wrapf(ErrInvalidFrame, "got %dx%d", f.Width, f.Height)
	}

	return nil
}

// The frame is both the intrinsic size and the viewBox.
//
//nolint:lll //this is a template
const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">{{range .Paths}}<path d="{{.}}" fill="{{$.Fill}}" stroke="{{$.Stroke}}" stroke-width="{{$.StrokeWidth}}" />{{end}}</svg>`

var svgTpl = template.Must(template.New("svgTemplate").Parse(svgTemplate))

type document struct {
	Width       int
	Height      int
	Paths       []string
	Fill        string
	Stroke      string
	StrokeWidth string
}

// Assembler renders polygons with a fixed Style. It is safe for concurrent use.
type Assembler struct {
	style Style
}

// NewAssembler returns an Assembler using style.
func NewAssembler(style Style) *Assembler {
	return &Assembler{style: style}
}

// Assemble returns the SVG document for polys on frame. Empty polygons are
// skipped; with no polygons the document only holds the root element.
func (a *Assembler) Assemble(frame Frame, polys []contour.Polygon) ([]byte, error) {
	err := frame.Validate()
	if err != nil {
		return nil, err
	}

	doc := document{
		Width:       frame.Width,
		Height:      frame.Height,
		Paths:       make([]string, 0, len(polys)),
		Fill:        a.style.Fill,
		Stroke:      a.style.Stroke,
		StrokeWidth: a.style.strokeWidth(),
	}

	for _, poly := range polys {
		d := PathData(poly)
		if d == "" {
			continue
		}

		doc.Paths = append(doc.Paths, d)
	}

	var buf bytes.Buffer

	err = svgTpl.Execute(&buf, doc)
	if err != nil {
		return nil, errors.Wrap(err, "unable to execute template")
	}

	return buf.Bytes(), nil
}

// PathData returns the path commands for poly: a move to the first point, a
// line to every following point and a close. An empty polygon gives "".
func PathData(poly contour.Polygon) string {
	if len(poly) == 0 {
		return ""
	}

	var sb strings.Builder

	for i, p := range poly {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}

		sb.WriteString(formatCoord(p.X))
		sb.WriteByte(' ')
		sb.WriteString(formatCoord(p.Y))
	}

	sb.WriteString(" Z")

	return sb.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
