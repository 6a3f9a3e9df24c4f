package visual

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/chazu/bicut/pkg/geom"
)

// Options controls SVG output.
type Options struct {
	// Width is the image width in pixels. The height follows the aspect
	// ratio of the drawing.
	Width int
	// Margin is the blank border in pixels.
	Margin int
	// FillOpacity applies to Polygon layers.
	FillOpacity float64
	// StrokeWidth applies to every layer, in pixels.
	StrokeWidth float64
	// Labels draws each layer's label next to its first vertex.
	Labels bool
}

// DefaultOptions returns the options used by the show command.
func DefaultOptions() Options {
	return Options{Width: 800, Margin: 20, FillOpacity: 0.4, StrokeWidth: 1.5, Labels: true}
}

// view maps world coordinates onto the pixel grid with Y pointing up.
type view struct {
	min    geom.Point
	scale  float64
	margin float64
	height float64
}

func (v view) x(p geom.Point) float64 { return v.margin + (p.X-v.min.X)*v.scale }
func (v view) y(p geom.Point) float64 { return v.height - v.margin - (p.Y-v.min.Y)*v.scale }

func newView(layers []Layer, opts Options) (view, int, int) {
	var lo, hi geom.Point
	found := false
	for _, l := range layers {
		min, max, ok := l.Region.Bounds()
		if !ok {
			continue
		}
		if !found {
			lo, hi, found = min, max, true
			continue
		}
		lo = geom.Pt(math.Min(lo.X, min.X), math.Min(lo.Y, min.Y))
		hi = geom.Pt(math.Max(hi.X, max.X), math.Max(hi.Y, max.Y))
	}
	width := opts.Width
	if width <= 2*opts.Margin {
		width = 2*opts.Margin + 1
	}
	inner := float64(width - 2*opts.Margin)
	span := math.Max(hi.X-lo.X, hi.Y-lo.Y)
	scale := 1.0
	if span > 0 {
		scale = inner / span
	}
	height := int(math.Ceil((hi.Y-lo.Y)*scale)) + 2*opts.Margin
	if height <= 2*opts.Margin {
		height = 2*opts.Margin + 1
	}
	return view{min: lo, scale: scale, margin: float64(opts.Margin), height: float64(height)}, width, height
}

// RenderSVG draws the layers in order, so later layers paint over earlier
// ones. Polygon layers are filled with holes left open; Line layers are
// stroked only.
func RenderSVG(w io.Writer, layers []Layer, opts Options) error {
	v, width, height := newView(layers, opts)
	cw := &errWriter{w: w}
	canvas := svg.New(cw)
	canvas.Startview(width, height, 0, 0, width, height)
	canvas.Rect(0, 0, width, height, "fill:#FFFFFF")
	for _, l := range layers {
		canvas.Group()
		switch l.Type {
		case TypePolygon:
			style := fmt.Sprintf("fill:%s;fill-opacity:%s;fill-rule:evenodd;stroke:%s;stroke-width:%s",
				l.Color, num(opts.FillOpacity), l.Color, num(opts.StrokeWidth))
			for _, p := range l.Region.Polygons() {
				d := ringData(v, p.Exterior)
				for _, h := range p.Holes {
					d += " " + ringData(v, h)
				}
				canvas.Path(d, style)
			}
		case TypeLine:
			style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%s", l.Color, num(opts.StrokeWidth))
			for _, line := range l.Region.Lines() {
				canvas.Path(lineData(v, line), style)
			}
		}
		if opts.Labels && l.Label != "" {
			if at, ok := anchor(l); ok {
				canvas.Text(int(v.x(at))+3, int(v.y(at))-3, l.Label, "font-family:sans-serif;font-size:12px;fill:"+l.Color)
			}
		}
		canvas.Gend()
	}
	canvas.End()
	return cw.err
}

func anchor(l Layer) (geom.Point, bool) {
	if ps := l.Region.Polygons(); len(ps) > 0 && len(ps[0].Exterior) > 0 {
		return ps[0].Exterior[0], true
	}
	if ls := l.Region.Lines(); len(ls) > 0 && len(ls[0]) > 0 {
		return ls[0][0], true
	}
	return geom.Point{}, false
}

func lineData(v view, p geom.Path) string {
	var b strings.Builder
	for i, q := range p {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(v.x(q)))
		b.WriteByte(' ')
		b.WriteString(num(v.y(q)))
	}
	return b.String()
}

func ringData(v view, p geom.Path) string {
	return lineData(v, p) + " Z"
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// errWriter keeps the first write error, since svgo discards them.
type errWriter struct {
	w   io.Writer
	err error
}

func (c *errWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.err = err
	return n, err
}
