// Package tessellate previews planned programs as triangle meshes: the
// stock as it is left after every cut, and the material each cut removes.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/kernel"
	"github.com/chazu/bicut/pkg/region"
)

// StockName is the mesh name of the cut stock.
const StockName = "stock"

// ErrNoStock is returned when neither a stock region nor any cut gives the
// preview an extent.
var ErrNoStock = errors.New("tessellate: nothing to preview")

// sweepSegments is the polygon resolution of a plunge-only cut.
const sweepSegments = 32

// Stock is the blank the programs cut into.
type Stock struct {
	// Region is the stock outline. When empty the envelope of the cuts is
	// used.
	Region region.Region
	Top    float64
	Bottom float64
}

// Cut is one program reduced to what the preview needs.
type Cut struct {
	Name       string
	Paths      []geom.Path
	ToolRadius float64
	// Depth is the deepest level the program reaches.
	Depth float64
}

// Swept returns the area the tool covers when following the cut's paths.
func (c Cut) Swept() (region.Region, error) {
	var lines []geom.Path
	var dots []region.Region
	for _, p := range c.Paths {
		switch {
		case len(p) == 0:
		case len(p) == 1 || p.Length() == 0:
			dots = append(dots, region.Circle(p[0], c.ToolRadius, sweepSegments))
		default:
			lines = append(lines, p)
		}
	}
	ls, err := region.FromLines(lines...)
	if err != nil {
		return region.Region{}, err
	}
	swept := region.UnionAll(append(dots, ls.Buffer(c.ToolRadius))...)
	return swept, swept.Err()
}

// Preview returns the stock left after every cut, named StockName, followed
// by one mesh per cut of the material it removes. Cuts that never reach
// below the stock top, or have no paths, get no mesh.
func Preview(k kernel.Kernel, stock Stock, cuts []Cut) ([]*kernel.Mesh, error) {
	if stock.Bottom >= stock.Top {
		return nil, fmt.Errorf("tessellate: stock bottom %v is not below top %v", stock.Bottom, stock.Top)
	}

	var removed []kernel.Solid
	var names []string
	outline := stock.Region
	var envelope region.Region
	for i, c := range cuts {
		if c.ToolRadius <= 0 {
			return nil, fmt.Errorf("tessellate: cut %q: tool radius must be positive, got %v", c.Name, c.ToolRadius)
		}
		if c.Depth >= stock.Top {
			continue
		}
		swept, err := c.Swept()
		if err != nil {
			return nil, fmt.Errorf("tessellate: cut %q: %w", c.Name, err)
		}
		if swept.IsEmpty() {
			continue
		}
		envelope = envelope.Union(swept.Envelope())
		// The removed volume runs above the top face so the difference
		// leaves no skin.
		solid, err := k.Prism(swept, c.Depth, stock.Top+1)
		if err != nil {
			return nil, fmt.Errorf("tessellate: cut %q: %w", c.Name, err)
		}
		removed = append(removed, solid)
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("cut %d", i)
		}
		names = append(names, name)
	}
	if outline.IsEmpty() {
		outline = envelope
	}
	if outline.IsEmpty() {
		return nil, ErrNoStock
	}

	blank, err := k.Prism(outline, stock.Bottom, stock.Top)
	if err != nil {
		return nil, fmt.Errorf("tessellate: stock: %w", err)
	}
	left := blank
	for _, s := range removed {
		left = k.Difference(left, s)
	}

	mesh, err := k.ToMesh(left)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for stock: %w", err)
	}
	mesh.Name = StockName
	meshes := []*kernel.Mesh{mesh}

	for i, s := range removed {
		m, err := k.ToMesh(s)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for cut %q: %w", names[i], err)
		}
		m.Name = names[i]
		meshes = append(meshes, m)
	}
	return meshes, nil
}
