package plan_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/bicut/pkg/plan"
	"github.com/chazu/bicut/pkg/region"
)

func TestReadRowsAndShapes(t *testing.T) {
	in := `[
		{"label": "a", "wkt": "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))"},
		{"wkt": "LINESTRING (0 0, 1 1)"},
		{"label": "b", "wkt": "MULTIPOLYGON (((20 0, 30 0, 30 10, 20 10, 20 0)))"}
	]`
	rows, err := plan.ReadRows(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	shapes, err := plan.Shapes(rows)
	if err != nil {
		t.Fatalf("Shapes: %v", err)
	}
	if len(shapes) != 2 {
		t.Fatalf("got %d shapes, want 2", len(shapes))
	}
	if a := shapes["b"].Area(); a < 99.99 || a > 100.01 {
		t.Errorf("b area = %v, want 100", a)
	}
}

func TestShapesErrors(t *testing.T) {
	tests := []struct {
		name  string
		rows  []plan.Row
		check func(error) bool
	}{
		{"duplicate", []plan.Row{
			{Label: "a", WKT: "POLYGON ((0 0, 1 0, 1 1, 0 0))"},
			{Label: "a", WKT: "POLYGON ((0 0, 1 0, 1 1, 0 0))"},
		}, func(err error) bool { return err != nil }},
		{"malformed", []plan.Row{{Label: "a", WKT: "POLYGON ((0 0, 1"}}, func(err error) bool {
			var ig *region.InvalidGeometryError
			return errors.As(err, &ig)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plan.Shapes(tt.rows)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestReadRowsRejectsGarbage(t *testing.T) {
	if _, err := plan.ReadRows(strings.NewReader(`{"label": 1}`)); err == nil {
		t.Error("expected an error")
	}
}
