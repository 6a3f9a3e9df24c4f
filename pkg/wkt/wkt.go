// Package wkt reads and writes regions as well-known text.
//
// Reading goes through simplefeatures, which implements the full grammar
// including multi-part geometries, collections and nested holes. Writing
// goes through orb's encoder.
package wkt

import (
	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/region"
	"github.com/paulmach/orb"
	orbwkt "github.com/paulmach/orb/encoding/wkt"
	sf "github.com/peterstace/simplefeatures/geom"
)

// Parse reads one WKT geometry. Areal content wins: a collection mixing
// polygons and lines yields its polygons, and its lines only when it has no
// polygons. Use ParseCollection to keep both.
func Parse(text string) (region.Region, error) {
	polys, lines, err := ParseCollection(text)
	if err != nil {
		return region.Region{}, err
	}
	if !polys.IsEmpty() {
		return polys, nil
	}
	return lines, nil
}

// ParseCollection reads one WKT geometry and returns its areal and lineal
// parts as separate regions. Geometric validity is not checked on read:
// self-intersecting polygons are repaired instead.
func ParseCollection(text string) (polys, lines region.Region, err error) {
	g, err := sf.UnmarshalWKT(text, sf.DisableAllValidations)
	if err != nil {
		return region.Region{}, region.Region{}, &region.InvalidGeometryError{Input: text, Err: err}
	}
	ps, ls := Shapes(g)
	polys, err = region.FromPolygons(ps...)
	if err != nil {
		return region.Region{}, region.Region{}, err
	}
	lines, err = region.FromLines(ls...)
	if err != nil {
		return region.Region{}, region.Region{}, err
	}
	return polys, lines, nil
}

// Polygons returns the polygons of a WKT geometry in source order.
func Polygons(text string) ([]region.Polygon, error) {
	g, err := sf.UnmarshalWKT(text, sf.DisableAllValidations)
	if err != nil {
		return nil, &region.InvalidGeometryError{Input: text, Err: err}
	}
	ps, _ := Shapes(g)
	return ps, nil
}

// Lines returns the line strings of a WKT geometry in source order.
func Lines(text string) ([]geom.Path, error) {
	g, err := sf.UnmarshalWKT(text, sf.DisableAllValidations)
	if err != nil {
		return nil, &region.InvalidGeometryError{Input: text, Err: err}
	}
	_, ls := Shapes(g)
	return ls, nil
}

// Shapes flattens a geometry into its constituent polygons and line strings
// in iteration order. Points and empty parts are skipped.
func Shapes(g sf.Geometry) (polys []region.Polygon, lines []geom.Path) {
	polys = []region.Polygon{}
	lines = []geom.Path{}
	var visit func(g sf.Geometry)
	visit = func(g sf.Geometry) {
		if pg, ok := g.AsPolygon(); ok {
			if p, ok := polygon(pg); ok {
				polys = append(polys, p)
			}
		} else if mp, ok := g.AsMultiPolygon(); ok {
			for i := 0; i < mp.NumPolygons(); i++ {
				if p, ok := polygon(mp.PolygonN(i)); ok {
					polys = append(polys, p)
				}
			}
		} else if ls, ok := g.AsLineString(); ok {
			if l := sequence(ls.Coordinates()); len(l) >= 2 {
				lines = append(lines, l)
			}
		} else if ml, ok := g.AsMultiLineString(); ok {
			for i := 0; i < ml.NumLineStrings(); i++ {
				if l := sequence(ml.LineStringN(i).Coordinates()); len(l) >= 2 {
					lines = append(lines, l)
				}
			}
		} else if gc, ok := g.AsGeometryCollection(); ok {
			for i := 0; i < gc.NumGeometries(); i++ {
				visit(gc.GeometryN(i))
			}
		}
	}
	visit(g)
	return polys, lines
}

func polygon(p sf.Polygon) (region.Polygon, bool) {
	if p.IsEmpty() {
		return region.Polygon{}, false
	}
	out := region.Polygon{Exterior: sequence(p.ExteriorRing().Coordinates())}
	for i := 0; i < p.NumInteriorRings(); i++ {
		out.Holes = append(out.Holes, sequence(p.InteriorRingN(i).Coordinates()))
	}
	return out, len(out.Exterior) >= 3
}

func sequence(seq sf.Sequence) geom.Path {
	n := seq.Length()
	out := make(geom.Path, n)
	for i := 0; i < n; i++ {
		xy := seq.GetXY(i)
		out[i] = geom.Pt(xy.X, xy.Y)
	}
	return out
}

// Format writes a region as WKT.
func Format(r region.Region) string {
	if r.IsEmpty() {
		return "GEOMETRYCOLLECTION EMPTY"
	}
	return orbwkt.MarshalString(ToOrb(r))
}

// ToOrb converts a region to the matching orb geometry.
func ToOrb(r region.Region) orb.Geometry {
	switch r.Kind() {
	case region.KindPolygon:
		return orbPolygon(r.Polygons()[0])
	case region.KindMultiPolygon:
		mp := orb.MultiPolygon{}
		for _, p := range r.Polygons() {
			mp = append(mp, orbPolygon(p))
		}
		return mp
	case region.KindLine:
		return orbLine(r.Lines()[0])
	case region.KindMultiLine:
		ml := orb.MultiLineString{}
		for _, l := range r.Lines() {
			ml = append(ml, orbLine(l))
		}
		return ml
	}
	return orb.Collection{}
}

func orbLine(p geom.Path) orb.LineString {
	out := make(orb.LineString, len(p))
	for i, pt := range p {
		out[i] = orb.Point{pt.X, pt.Y}
	}
	return out
}

func orbPolygon(p region.Polygon) orb.Polygon {
	out := orb.Polygon{orb.Ring(orbLine(p.Exterior))}
	for _, h := range p.Holes {
		out = append(out, orb.Ring(orbLine(h)))
	}
	return out
}
