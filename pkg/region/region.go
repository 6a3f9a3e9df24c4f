// Package region implements the planar Region value type used throughout the
// planner: a possibly disconnected, possibly holed area (or a set of open
// lines) with boolean operations and uniform offsetting.
//
// Regions are immutable. Every operation returns a new Region whose
// polygons have counter-clockwise exteriors and clockwise holes, with every
// hole owned by exactly one exterior.
package region

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/bicut/pkg/geom"
)

// Kind tags which variant a Region holds.
type Kind int

const (
	KindEmpty Kind = iota
	KindPolygon
	KindMultiPolygon
	KindLine
	KindMultiLine
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindPolygon:
		return "Polygon"
	case KindMultiPolygon:
		return "MultiPolygon"
	case KindLine:
		return "Line"
	case KindMultiLine:
		return "MultiLine"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Areal reports whether regions of this kind enclose area.
func (k Kind) Areal() bool {
	return k == KindPolygon || k == KindMultiPolygon
}

// Lineal reports whether regions of this kind are open lines.
func (k Kind) Lineal() bool {
	return k == KindLine || k == KindMultiLine
}

// Polygon is one connected component: a closed exterior ring and zero or
// more closed hole rings.
type Polygon struct {
	Exterior geom.Path
	Holes    []geom.Path
}

// Area returns the exterior area minus the hole areas.
func (p Polygon) Area() float64 {
	a := math.Abs(p.Exterior.SignedArea())
	for _, h := range p.Holes {
		a -= math.Abs(h.SignedArea())
	}
	return a
}

// Region is a tagged planar geometry value. The zero value is empty.
//
// A Region produced by a failed kernel operation is empty and remembers the
// failure: every operation on it returns it unchanged and Err reports the
// error.
type Region struct {
	polys []Polygon
	lines []geom.Path
	err   error
}

// Empty returns the empty region.
func Empty() Region { return Region{} }

// Err returns the kernel error that produced r, if any.
func (r Region) Err() error { return r.err }

// failed returns the first region of rs carrying an error.
func failed(rs ...Region) (Region, bool) {
	for _, r := range rs {
		if r.err != nil {
			return Region{err: r.err}, true
		}
	}
	return Region{}, false
}

func fromPolygons(polys []Polygon, err error) Region {
	if err != nil {
		return Region{err: err}
	}
	return Region{polys: polys}
}

func fromLines(lines []geom.Path, err error) Region {
	if err != nil {
		return Region{err: err}
	}
	return Region{lines: lines}
}

// Kind returns the variant tag.
func (r Region) Kind() Kind {
	switch {
	case len(r.polys) == 1:
		return KindPolygon
	case len(r.polys) > 1:
		return KindMultiPolygon
	case len(r.lines) == 1:
		return KindLine
	case len(r.lines) > 1:
		return KindMultiLine
	}
	return KindEmpty
}

// IsEmpty reports whether the region has no content.
func (r Region) IsEmpty() bool {
	return len(r.polys) == 0 && len(r.lines) == 0
}

// Polygons returns the areal components in order. Lineal and empty regions
// yield an empty list.
func (r Region) Polygons() []Polygon {
	return slices.Clone(r.polys)
}

// Lines returns the lineal components in order. Areal and empty regions
// yield an empty list.
func (r Region) Lines() []geom.Path {
	return slices.Clone(r.lines)
}

// Parts splits the region into one region per component.
func (r Region) Parts() []Region {
	out := make([]Region, 0, len(r.polys)+len(r.lines))
	for _, p := range r.polys {
		out = append(out, Region{polys: []Polygon{p}})
	}
	for _, l := range r.lines {
		out = append(out, Region{lines: []geom.Path{l}})
	}
	return out
}

// Area returns the enclosed area. Lines have no area.
func (r Region) Area() float64 {
	var a float64
	for _, p := range r.polys {
		a += p.Area()
	}
	return a
}

// Length returns the total line length of a lineal region, or the total
// boundary length of an areal one.
func (r Region) Length() float64 {
	var l float64
	for _, ln := range r.lines {
		l += ln.Length()
	}
	for _, p := range r.polys {
		l += p.Exterior.Length()
		for _, h := range p.Holes {
			l += h.Length()
		}
	}
	return l
}

// Bounds returns the axis-aligned bounding box. ok is false for an empty
// region.
func (r Region) Bounds() (min, max geom.Point, ok bool) {
	min = geom.Pt(math.Inf(1), math.Inf(1))
	max = geom.Pt(math.Inf(-1), math.Inf(-1))
	visit := func(p geom.Path) {
		for _, pt := range p {
			min.X, min.Y = math.Min(min.X, pt.X), math.Min(min.Y, pt.Y)
			max.X, max.Y = math.Max(max.X, pt.X), math.Max(max.Y, pt.Y)
			ok = true
		}
	}
	for _, p := range r.polys {
		visit(p.Exterior)
	}
	for _, l := range r.lines {
		visit(l)
	}
	return min, max, ok
}

// Boundary returns every ring of an areal region as a loop, exterior first
// then its holes, polygon by polygon.
func (r Region) Boundary() []geom.Loop {
	var out []geom.Loop
	for _, p := range r.polys {
		if l, err := geom.NewLoop(p.Exterior, false); err == nil {
			out = append(out, l)
		}
		for _, h := range p.Holes {
			if l, err := geom.NewLoop(h, true); err == nil {
				out = append(out, l)
			}
		}
	}
	return out
}

// Outline returns the rings of an areal region as a lineal region. A lineal
// region is returned unchanged.
func (r Region) Outline() Region {
	if !r.Kind().Areal() || r.err != nil {
		return r
	}
	var lines []geom.Path
	for _, p := range r.polys {
		lines = append(lines, p.Exterior.Clone())
		for _, h := range p.Holes {
			lines = append(lines, h.Clone())
		}
	}
	return Region{lines: lines}
}

// Envelope returns the bounding rectangle of the region.
func (r Region) Envelope() Region {
	if r.err != nil {
		return r
	}
	min, max, ok := r.Bounds()
	if !ok {
		return Region{}
	}
	return Rect(min.X, min.Y, max.X, max.Y)
}

func (r Region) String() string {
	if r.err != nil {
		return fmt.Sprintf("Failed(%v)", r.err)
	}
	return fmt.Sprintf("%s(polygons=%d lines=%d area=%.4g)", r.Kind(), len(r.polys), len(r.lines), r.Area())
}
