package region

import (
	"fmt"
	"math"

	"github.com/chazu/bicut/pkg/geom"
)

// InvalidGeometryError reports geometry that cannot be read or repaired.
type InvalidGeometryError struct {
	Input  string // offending text or a short description of it
	Reason string
	Err    error
}

func (e *InvalidGeometryError) Error() string {
	msg := "region: invalid geometry"
	if e.Input != "" {
		msg += " " + truncate(e.Input, 60)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidGeometryError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%q...", s[:n])
}

// FromPolygons builds an areal region and makes it valid. Rings need not be
// closed or oriented. Non-finite coordinates are rejected.
func FromPolygons(polys ...Polygon) (Region, error) {
	closed := make([]Polygon, 0, len(polys))
	for i, p := range polys {
		if err := checkFinite(p.Exterior); err != nil {
			return Region{}, &InvalidGeometryError{Input: fmt.Sprintf("polygon %d", i), Reason: err.Error()}
		}
		np := Polygon{Exterior: closeRing(p.Exterior)}
		for j, h := range p.Holes {
			if err := checkFinite(h); err != nil {
				return Region{}, &InvalidGeometryError{Input: fmt.Sprintf("polygon %d hole %d", i, j), Reason: err.Error()}
			}
			np.Holes = append(np.Holes, closeRing(h))
		}
		closed = append(closed, np)
	}
	r := Region{polys: closed}.MakeValid()
	return r, r.Err()
}

// FromLines builds a lineal region. Lines with fewer than two points are
// dropped.
func FromLines(lines ...geom.Path) (Region, error) {
	out := make([]geom.Path, 0, len(lines))
	for i, l := range lines {
		if err := checkFinite(l); err != nil {
			return Region{}, &InvalidGeometryError{Input: fmt.Sprintf("line %d", i), Reason: err.Error()}
		}
		if len(l) >= 2 {
			out = append(out, l.Clone())
		}
	}
	return Region{lines: out}, nil
}

// Rect returns the axis-aligned rectangle spanning the two corners.
func Rect(x0, y0, x1, y1 float64) Region {
	minX, maxX := math.Min(x0, x1), math.Max(x0, x1)
	minY, maxY := math.Min(y0, y1), math.Max(y0, y1)
	if minX == maxX || minY == maxY {
		return Region{}
	}
	ring := geom.Path{
		geom.Pt(minX, minY), geom.Pt(maxX, minY), geom.Pt(maxX, maxY),
		geom.Pt(minX, maxY), geom.Pt(minX, minY),
	}
	return Region{polys: []Polygon{{Exterior: ring}}}
}

// Circle returns a regular polygon with the given number of segments
// inscribed in the circle. Fewer than three segments yields the empty
// region.
func Circle(center geom.Point, radius float64, segments int) Region {
	if segments < 3 || radius <= 0 {
		return Region{}
	}
	ring := make(geom.Path, 0, segments+1)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		ring = append(ring, geom.Pt(center.X+radius*math.Cos(a), center.Y+radius*math.Sin(a)))
	}
	ring = append(ring, ring[0])
	return Region{polys: []Polygon{{Exterior: ring}}}.MakeValid()
}

func closeRing(p geom.Path) geom.Path {
	out := p.Clone()
	if len(out) > 0 && out.Start() != out.End() {
		out = append(out, out.Start())
	}
	return out
}

func checkFinite(p geom.Path) error {
	for i, pt := range p {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			return fmt.Errorf("non-finite coordinate at point %d", i)
		}
	}
	return nil
}
