// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"

	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/kernel"
	"github.com/chazu/bicut/pkg/region"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// sdfxField wraps an sdf.SDF2 to implement kernel.Field.
type sdfxField struct {
	s sdf.SDF2
}

func (f *sdfxField) Distance(p geom.Point) float64 {
	return f.s.Evaluate(v2.Vec{X: p.X, Y: p.Y})
}

func (f *sdfxField) Bounds() (min, max geom.Point) {
	bb := f.s.BoundingBox()
	return geom.Pt(bb.Min.X, bb.Min.Y), geom.Pt(bb.Max.X, bb.Max.Y)
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	// Cells is the marching cubes resolution along the longest axis.
	// Zero selects the default.
	Cells int
}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions and its minimum corner at
// the origin. sdf.Box3D centers the box at the origin, so we translate by
// half-dimensions.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Field builds the signed distance field of an areal region: one polygon
// per ring, holes subtracted from their exterior, parts unioned.
func (k *SdfxKernel) Field(r region.Region) (kernel.Field, error) {
	s, err := regionSDF(r)
	if err != nil {
		return nil, err
	}
	return &sdfxField{s: s}, nil
}

// Prism extrudes an areal region between two heights.
func (k *SdfxKernel) Prism(r region.Region, bottom, top float64) (kernel.Solid, error) {
	if top <= bottom {
		return nil, fmt.Errorf("sdfx: prism top %g not above bottom %g", top, bottom)
	}
	s, err := regionSDF(r)
	if err != nil {
		return nil, err
	}
	prism := sdf.Extrude3D(s, top-bottom)
	m := sdf.Translate3d(v3.Vec{Z: (top + bottom) / 2})
	return wrap(sdf.Transform3D(prism, m)), nil
}

func regionSDF(r region.Region) (sdf.SDF2, error) {
	if !r.Kind().Areal() {
		return nil, kernel.ErrNotAreal
	}
	var parts []sdf.SDF2
	for i, p := range r.Polygons() {
		ext, err := ringSDF(p.Exterior)
		if err != nil {
			return nil, fmt.Errorf("sdfx: polygon %d exterior: %w", i, err)
		}
		s := ext
		for j, h := range p.Holes {
			hole, err := ringSDF(h)
			if err != nil {
				return nil, fmt.Errorf("sdfx: polygon %d hole %d: %w", i, j, err)
			}
			s = sdf.Difference2D(s, hole)
		}
		parts = append(parts, s)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return sdf.Union2D(parts...), nil
}

// ringSDF converts a closed ring. Polygon2D closes the outline itself, so
// the repeated end point is dropped.
func ringSDF(ring geom.Path) (sdf.SDF2, error) {
	n := len(ring)
	if n > 1 && ring.IsClosed() {
		n--
	}
	vs := make([]v2.Vec, n)
	for i := 0; i < n; i++ {
		vs[i] = v2.Vec{X: ring[i].X, Y: ring[i].Y}
	}
	return sdf.Polygon2D(vs)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	cells := k.Cells
	if cells <= 0 {
		cells = defaultMeshCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
