package sdfx

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/kernel"
	"github.com/chazu/bicut/pkg/region"
)

func TestBox(t *testing.T) {
	k := &SdfxKernel{Cells: 40}
	box := k.Box(100, 50, 25)
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
}

func TestBoundingBox(t *testing.T) {
	k := New()
	box := k.Box(100, 50, 25)
	min, max := box.BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{0, 0, 0}
	expectMax := [3]float64{100, 50, 25}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	translated := k.Translate(k.Box(10, 10, 10), 100, 200, -10)
	min, max := translated.BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{100, 200, -10}
	expectMax := [3]float64{110, 210, 0}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], expectMax[i])
		}
	}
}

func TestField(t *testing.T) {
	k := New()
	frame := region.Rect(0, 0, 10, 10).Difference(region.Rect(4, 4, 6, 6))
	two := frame.Union(region.Rect(20, 0, 30, 10))
	f, err := k.Field(two)
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	tests := []struct {
		name string
		p    geom.Point
		want float64
	}{
		{"inside frame", geom.Pt(1, 5), -1},
		{"in hole", geom.Pt(5, 5), 1},
		{"outside", geom.Pt(-3, 5), 3},
		{"second part", geom.Pt(25, 5), -5},
		{"between parts", geom.Pt(15, 5), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Distance(tt.p); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Distance(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
	min, max := f.Bounds()
	if min.X > 0.01 || max.X < 29.99 {
		t.Errorf("Bounds() = %v, %v", min, max)
	}
}

func TestFieldRejectsLines(t *testing.T) {
	lines, err := region.FromLines(geom.Path{geom.Pt(0, 0), geom.Pt(1, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New().Field(lines); !errors.Is(err, kernel.ErrNotAreal) {
		t.Errorf("got %v, want ErrNotAreal", err)
	}
	if _, err := New().Field(region.Region{}); !errors.Is(err, kernel.ErrNotAreal) {
		t.Errorf("got %v, want ErrNotAreal", err)
	}
}

func TestPrism(t *testing.T) {
	k := &SdfxKernel{Cells: 30}
	p, err := k.Prism(region.Rect(2, 3, 12, 8), -4, 1)
	if err != nil {
		t.Fatalf("Prism: %v", err)
	}
	min, max := p.BoundingBox()
	const tol = 0.01
	expectMin := [3]float64{2, 3, -4}
	expectMax := [3]float64{12, 8, 1}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol || math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("bounds = %v, %v, want %v, %v", min, max, expectMin, expectMax)
			break
		}
	}
	if _, err := k.Prism(region.Rect(0, 0, 1, 1), 1, 1); err == nil {
		t.Error("expected error for flat prism")
	}
}

func TestDifference(t *testing.T) {
	k := &SdfxKernel{Cells: 40}

	stock := k.Box(20, 20, 10)
	stockMesh, err := k.ToMesh(stock)
	if err != nil {
		t.Fatalf("ToMesh(stock) failed: %v", err)
	}

	pocket, err := k.Prism(region.Rect(5, 5, 15, 15), 5, 11)
	if err != nil {
		t.Fatalf("Prism: %v", err)
	}
	diff := k.Difference(stock, pocket)
	diffMesh, err := k.ToMesh(diff)
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	if diffMesh.IsEmpty() {
		t.Fatal("difference mesh is empty")
	}
	// A pocketed block has more surface than a plain one.
	if diffMesh.TriangleCount() <= stockMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than stock (%d triangles)",
			diffMesh.TriangleCount(), stockMesh.TriangleCount())
	}
	t.Logf("stock triangles: %d, difference triangles: %d", stockMesh.TriangleCount(), diffMesh.TriangleCount())
}

func TestUnion(t *testing.T) {
	k := &SdfxKernel{Cells: 30}
	box1 := k.Box(50, 50, 50)
	box2 := k.Translate(k.Box(50, 50, 50), 30, 0, 0)
	u := k.Union(box1, box2)
	min, max := u.BoundingBox()
	if math.Abs(min[0]) > 0.01 || math.Abs(max[0]-80) > 0.01 {
		t.Errorf("union x extent = %v..%v, want 0..80", min[0], max[0])
	}
	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
}
