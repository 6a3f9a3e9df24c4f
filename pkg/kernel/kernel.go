// Package kernel defines the abstract solid kernel used to verify and
// preview toolpaths. Implementations (sdfx) provide distance fields over
// planar regions and the stock solids that cutting removes material from.
// The kernel abstraction keeps the planner independent of the backend.
package kernel

import (
	"errors"

	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/region"
)

// ErrNotAreal is returned when a field or prism is requested for a region
// without area.
var ErrNotAreal = errors.New("kernel: region has no area")

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Field is a signed distance field over the plane.
type Field interface {
	// Distance is negative inside the shape, zero on its boundary and
	// positive outside.
	Distance(p geom.Point) float64
	// Bounds returns the bounding box of the shape.
	Bounds() (min, max geom.Point)
}

// Kernel is the abstract solid kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Prism(r region.Region, bottom, top float64) (Solid, error)
	Field(r region.Region) (Field, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
