// Package visual renders regions and toolpaths for debugging: a JSON list
// of WKT elements is drawn as an SVG and optionally rasterised to PNG.
package visual

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/region"
	"github.com/chazu/bicut/pkg/wkt"
)

// Element types.
const (
	TypePolygon = "Polygon"
	TypeLine    = "Line"
)

// Element is one shape of visualiser input.
type Element struct {
	Type  string `json:"type"`
	WKT   string `json:"wkt"`
	Label string `json:"label,omitempty"`
}

// UnknownElementTypeError reports an element whose type is neither
// Polygon nor Line.
type UnknownElementTypeError struct {
	Index int
	Type  string
}

func (e *UnknownElementTypeError) Error() string {
	return fmt.Sprintf("visual: element %d: unknown type %q", e.Index, e.Type)
}

// ReadElements decodes a JSON array of elements and checks their types.
func ReadElements(r io.Reader) ([]Element, error) {
	var elems []Element
	if err := json.NewDecoder(r).Decode(&elems); err != nil {
		return nil, fmt.Errorf("visual: decode elements: %w", err)
	}
	for i, e := range elems {
		if e.Type != TypePolygon && e.Type != TypeLine {
			return nil, &UnknownElementTypeError{Index: i, Type: e.Type}
		}
	}
	return elems, nil
}

// WriteElements encodes elements as an indented JSON array.
func WriteElements(w io.Writer, elems []Element) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(elems)
}

// PolygonElement describes an areal region.
func PolygonElement(r region.Region, label string) Element {
	return Element{Type: TypePolygon, WKT: wkt.Format(r), Label: label}
}

// LineElement describes a lineal region, or the outline of an areal one.
func LineElement(r region.Region, label string) Element {
	return Element{Type: TypeLine, WKT: wkt.Format(r.Outline()), Label: label}
}

// PathElement describes toolpaths.
func PathElement(paths []geom.Path, label string) (Element, error) {
	r, err := region.FromLines(paths...)
	if err != nil {
		return Element{}, err
	}
	return Element{Type: TypeLine, WKT: wkt.Format(r), Label: label}, nil
}

// Layer is a parsed element with its colour.
type Layer struct {
	Type   string
	Region region.Region
	Label  string
	Color  string
}

// Layers parses every element and assigns colours from the palette in
// order. Polygon elements keep their areas; Line elements keep their lines
// and draw the outline of any polygons.
func Layers(elems []Element, palette *Palette) ([]Layer, error) {
	layers := make([]Layer, 0, len(elems))
	for i, e := range elems {
		polys, lines, err := wkt.ParseCollection(e.WKT)
		if err != nil {
			return nil, fmt.Errorf("visual: element %d: %w", i, err)
		}
		var r region.Region
		switch e.Type {
		case TypePolygon:
			r = polys
		case TypeLine:
			r = lines.Union(polys.Outline())
		default:
			return nil, &UnknownElementTypeError{Index: i, Type: e.Type}
		}
		layers = append(layers, Layer{Type: e.Type, Region: r, Label: e.Label, Color: palette.Next()})
	}
	return layers, nil
}
