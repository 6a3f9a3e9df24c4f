package wkt

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/chazu/bicut/pkg/region"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind region.Kind
		area float64
	}{
		{"polygon", "POLYGON((0 0, 4 0, 4 4, 0 4, 0 0))", region.KindPolygon, 16},
		{"polygon with hole", "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0), (2 2, 2 8, 8 8, 8 2, 2 2))", region.KindPolygon, 64},
		{"multipolygon", "MULTIPOLYGON(((0 0, 1 0, 1 1, 0 1, 0 0)), ((5 5, 7 5, 7 7, 5 7, 5 5)))", region.KindMultiPolygon, 5},
		{"clockwise input", "POLYGON((0 0, 0 4, 4 4, 4 0, 0 0))", region.KindPolygon, 16},
		{"line", "LINESTRING(0 0, 3 4)", region.KindLine, 0},
		{"multiline", "MULTILINESTRING((0 0, 1 0), (0 1, 1 1))", region.KindMultiLine, 0},
		{"empty", "POLYGON EMPTY", region.KindEmpty, 0},
		{"empty collection", "GEOMETRYCOLLECTION EMPTY", region.KindEmpty, 0},
		{"mixed collection", "GEOMETRYCOLLECTION(LINESTRING(0 0, 1 1), POLYGON((0 0, 2 0, 2 2, 0 2, 0 0)))", region.KindPolygon, 4},
		{"bowtie repaired", "POLYGON((0 0, 2 2, 2 0, 0 2, 0 0))", region.KindMultiPolygon, 2},
		{"points only", "MULTIPOINT((1 1), (2 2))", region.KindEmpty, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if r.Kind() != tt.kind {
				t.Errorf("kind = %v, want %v", r.Kind(), tt.kind)
			}
			if math.Abs(r.Area()-tt.area) > 1e-6 {
				t.Errorf("area = %v, want %v", r.Area(), tt.area)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, text := range []string{"", "POLYGON((0 0, 1 0", "CIRCLE(1 2 3)", "POLYGON((a b, c d))"} {
		_, err := Parse(text)
		var ig *region.InvalidGeometryError
		if !errors.As(err, &ig) {
			t.Errorf("Parse(%q): expected InvalidGeometryError, got %v", text, err)
		}
	}
}

func TestAdaptersPreserveOrder(t *testing.T) {
	text := "GEOMETRYCOLLECTION(POLYGON((5 5, 6 5, 6 6, 5 6, 5 5)), LINESTRING(9 9, 10 10), POLYGON((0 0, 1 0, 1 1, 0 1, 0 0)))"
	polys, err := Polygons(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(polys) != 2 {
		t.Fatalf("got %d polygons, want 2", len(polys))
	}
	if polys[0].Exterior[0].X != 5 || polys[1].Exterior[0].X != 0 {
		t.Errorf("polygons out of source order: %v, %v", polys[0].Exterior[0], polys[1].Exterior[0])
	}
	lines, err := Lines(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Errorf("got %d lines, want 1", len(lines))
	}
	none, err := Lines("POLYGON((0 0, 1 0, 1 1, 0 0))")
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected an empty non-nil list, got %v", none)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	in := "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0), (2 2, 2 8, 8 8, 8 2, 2 2))"
	r, err := Parse(in)
	if err != nil {
		t.Fatal(err)
	}
	out := Format(r)
	if !strings.HasPrefix(out, "POLYGON") {
		t.Errorf("Format = %q, want a POLYGON", out)
	}
	back, err := Parse(out)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if math.Abs(back.Area()-r.Area()) > 1e-9 {
		t.Errorf("round trip area %v != %v", back.Area(), r.Area())
	}
	if got := Format(region.Empty()); got != "GEOMETRYCOLLECTION EMPTY" {
		t.Errorf("Format(empty) = %q", got)
	}
}
