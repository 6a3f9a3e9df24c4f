package region

import (
	"math"

	"github.com/chazu/bicut/pkg/geom"
	clipper "github.com/ctessum/go.clipper"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// AreaTolerance is the area below which a leftover is treated as numerical
// noise by containment tests.
const AreaTolerance = 1e-6

// LengthTolerance is the line length below which a leftover is treated as
// numerical noise by containment tests.
const LengthTolerance = 1e-6

// Union returns the points in r or o. Lines carry no area, so the union of
// an areal and a lineal region keeps only the areal part.
func (r Region) Union(o Region) Region {
	if f, ok := failed(r, o); ok {
		return f
	}
	switch {
	case r.IsEmpty():
		return o
	case o.IsEmpty():
		return r
	case r.Kind().Lineal() && o.Kind().Lineal():
		return Region{lines: append(r.Lines(), o.lines...)}
	case r.Kind().Lineal():
		return o
	case o.Kind().Lineal():
		return r
	}
	return fromPolygons(execute(clipper.CtUnion, r.polygonPaths(), o.polygonPaths()))
}

// UnionAll returns the union of all regions.
func UnionAll(rs ...Region) Region {
	if f, ok := failed(rs...); ok {
		return f
	}
	var polys clipper.Paths
	var lines []geom.Path
	for _, r := range rs {
		polys = append(polys, r.polygonPaths()...)
		lines = append(lines, r.lines...)
	}
	if len(polys) == 0 {
		return Region{lines: lines}
	}
	return fromPolygons(execute(clipper.CtUnion, polys, nil))
}

// Difference returns the points of r not in o. Lines are clipped against
// an areal o; subtracting lines removes no area.
func (r Region) Difference(o Region) Region {
	if f, ok := failed(r, o); ok {
		return f
	}
	switch {
	case r.IsEmpty():
		return Region{}
	case o.IsEmpty() || o.Kind().Lineal():
		return r
	case r.Kind().Lineal():
		return fromLines(executeOpen(clipper.CtDifference, r.linePaths(), o.polygonPaths()))
	}
	return fromPolygons(execute(clipper.CtDifference, r.polygonPaths(), o.polygonPaths()))
}

// Intersection returns the points in both r and o. Intersecting lines with
// an areal region clips the lines; two lineal regions have no common area
// and yield the empty region.
func (r Region) Intersection(o Region) Region {
	if f, ok := failed(r, o); ok {
		return f
	}
	switch {
	case r.IsEmpty() || o.IsEmpty():
		return Region{}
	case r.Kind().Lineal() && o.Kind().Lineal():
		return Region{}
	case r.Kind().Lineal():
		return fromLines(executeOpen(clipper.CtIntersection, r.linePaths(), o.polygonPaths()))
	case o.Kind().Lineal():
		return o.Intersection(r)
	}
	return fromPolygons(execute(clipper.CtIntersection, r.polygonPaths(), o.polygonPaths()))
}

// Buffer offsets the region by d: outward when positive, inward when
// negative. Joins are round. Lines buffered by a positive distance become
// areal with round caps; lines cannot shrink and buffer to empty.
func (r Region) Buffer(d float64) Region {
	return r.BufferTol(d, DefaultArcTolerance)
}

// BufferTol is Buffer with an explicit arc tolerance.
func (r Region) BufferTol(d, arcTolerance float64) Region {
	if r.IsEmpty() {
		return r
	}
	if r.Kind().Lineal() {
		if d <= 0 {
			return Region{}
		}
		return fromPolygons(offset(r.linePaths(), d, clipper.EtOpenRound, arcTolerance))
	}
	if d == 0 {
		return fromPolygons(execute(clipper.CtUnion, r.polygonPaths(), nil))
	}
	return fromPolygons(offset(r.polygonPaths(), d, clipper.EtClosedPolygon, arcTolerance))
}

// Simplify removes vertices that deviate less than tol from the
// Douglas-Peucker approximation of each ring or line, then repairs any
// self-intersections the simplification introduced.
func (r Region) Simplify(tol float64) Region {
	if tol <= 0 || r.IsEmpty() || r.err != nil {
		return r
	}
	dp := simplify.DouglasPeucker(tol)
	if r.Kind().Lineal() {
		out := make([]geom.Path, 0, len(r.lines))
		for _, l := range r.lines {
			ls, ok := dp.Simplify(toOrbLine(l)).(orb.LineString)
			if ok && len(ls) >= 2 {
				out = append(out, fromOrbLine(ls))
			}
		}
		return Region{lines: out}
	}
	polys := make([]Polygon, 0, len(r.polys))
	for _, p := range r.polys {
		sp, ok := dp.Simplify(toOrbPolygon(p)).(orb.Polygon)
		if !ok || len(sp) == 0 {
			continue
		}
		polys = append(polys, fromOrbPolygon(sp))
	}
	var paths clipper.Paths
	for _, p := range polys {
		paths = appendPolygonPaths(paths, p)
	}
	return fromPolygons(execute(clipper.CtUnion, paths, nil))
}

// MakeValid repairs self-intersecting or mis-oriented input. Each polygon is
// rebuilt as the non-zero fill of its exterior minus the non-zero fill of its
// holes; components stay in their original order.
func (r Region) MakeValid() Region {
	if !r.Kind().Areal() {
		return r
	}
	var out []Polygon
	for _, p := range r.polys {
		fixed, err := repairPolygon(p)
		if err != nil {
			return Region{err: err}
		}
		out = append(out, fixed...)
	}
	return Region{polys: out}
}

func repairPolygon(p Polygon) ([]Polygon, error) {
	var ext, holes clipper.Paths
	if e := toClipperRing(p.Exterior); len(e) >= 3 {
		ext = append(ext, e)
	}
	for _, h := range p.Holes {
		if hp := toClipperRing(h); len(hp) >= 3 {
			holes = append(holes, hp)
		}
	}
	if len(ext) == 0 {
		return nil, nil
	}
	return execute(clipper.CtDifference, ext, holes)
}

// Contains reports whether every part of o lies in r, ignoring leftovers
// smaller than AreaTolerance (or LengthTolerance for lines).
func (r Region) Contains(o Region) bool {
	if o.IsEmpty() {
		return true
	}
	rest := o.Difference(r)
	if rest.err != nil {
		return false
	}
	if o.Kind().Lineal() {
		return rest.Length() <= LengthTolerance
	}
	return rest.Area() <= AreaTolerance
}

// Covers reports whether r grown by slack contains o.
func (r Region) Covers(o Region, slack float64) bool {
	return r.Buffer(slack).Contains(o)
}

// ContainsPoint reports whether p lies inside or on the boundary of r.
func (r Region) ContainsPoint(p geom.Point) bool {
	for _, poly := range r.polys {
		if poly.ContainsPoint(p) {
			return true
		}
	}
	return false
}

// ContainsPoint reports whether q lies inside or on the boundary of p.
func (p Polygon) ContainsPoint(q geom.Point) bool {
	if pointInRing(q, p.Exterior) == 0 {
		return false
	}
	for _, h := range p.Holes {
		if pointInRing(q, h) == 1 {
			return false
		}
	}
	return true
}

// Distance returns the distance from q to the nearest boundary or line of
// r, or +Inf for the empty region.
func (r Region) Distance(q geom.Point) float64 {
	d := math.Inf(1)
	for _, p := range r.polys {
		d = math.Min(d, p.Exterior.Distance(q))
		for _, h := range p.Holes {
			d = math.Min(d, h.Distance(q))
		}
	}
	for _, l := range r.lines {
		d = math.Min(d, l.Distance(q))
	}
	return d
}

// Translate shifts every point by (dx, dy).
func (r Region) Translate(dx, dy float64) Region {
	if r.err != nil {
		return r
	}
	shift := func(p geom.Path) geom.Path {
		out := make(geom.Path, len(p))
		for i, pt := range p {
			out[i] = geom.Pt(pt.X+dx, pt.Y+dy)
		}
		return out
	}
	out := Region{}
	for _, p := range r.polys {
		np := Polygon{Exterior: shift(p.Exterior)}
		for _, h := range p.Holes {
			np.Holes = append(np.Holes, shift(h))
		}
		out.polys = append(out.polys, np)
	}
	for _, l := range r.lines {
		out.lines = append(out.lines, shift(l))
	}
	return out
}

// ---- orb conversion ----

func toOrbLine(p geom.Path) orb.LineString {
	out := make(orb.LineString, len(p))
	for i, pt := range p {
		out[i] = orb.Point{pt.X, pt.Y}
	}
	return out
}

func fromOrbLine(ls orb.LineString) geom.Path {
	out := make(geom.Path, len(ls))
	for i, pt := range ls {
		out[i] = geom.Pt(pt[0], pt[1])
	}
	return out
}

func toOrbPolygon(p Polygon) orb.Polygon {
	out := orb.Polygon{orb.Ring(toOrbLine(p.Exterior))}
	for _, h := range p.Holes {
		out = append(out, orb.Ring(toOrbLine(h)))
	}
	return out
}

func fromOrbPolygon(p orb.Polygon) Polygon {
	out := Polygon{Exterior: fromOrbLine(orb.LineString(p[0]))}
	for _, h := range p[1:] {
		out.Holes = append(out.Holes, fromOrbLine(orb.LineString(h)))
	}
	return out
}
