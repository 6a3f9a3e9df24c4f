// Package gouge verifies that toolpaths keep a round tool clear of material
// that must not be cut.
//
// Paths are tool-centre traces. Each segment is sampled and the kernel's
// distance field is evaluated at every sample; a violation is recorded
// where the tool disc would reach past the allowed boundary by more than
// the tolerance.
package gouge

import (
	"fmt"
	"math"

	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/kernel"
	"github.com/chazu/bicut/pkg/region"
)

// DefaultTolerance absorbs the arc approximation of the offset kernel.
const DefaultTolerance = 0.02

// Violation is one sample where the tool gouges.
type Violation struct {
	Path    int
	Segment int
	At      geom.Point
	// Depth is how far the tool disc reaches past the boundary.
	Depth float64
}

func (v Violation) String() string {
	return fmt.Sprintf("path %d segment %d at %v: %.4g deep", v.Path, v.Segment, v.At, v.Depth)
}

// Error reports the violations found by a check.
type Error struct {
	Violations []Violation
	// Worst is the deepest violation.
	Worst Violation
}

func (e *Error) Error() string {
	return fmt.Sprintf("gouge: %d samples gouge, worst %v", len(e.Violations), e.Worst)
}

// Checker samples paths against a distance field.
type Checker struct {
	Kernel kernel.Kernel
	// Tolerance is the allowed overcut. Zero selects DefaultTolerance.
	Tolerance float64
	// Spacing is the sample distance along each segment. Zero selects a
	// quarter of the tool radius.
	Spacing float64
	// Limit caps the number of recorded violations. Zero means no cap.
	Limit int
}

// Inside checks that a tool of the given radius following paths stays
// within allowed.
func (c Checker) Inside(paths []geom.Path, allowed region.Region, radius float64) error {
	f, err := c.Kernel.Field(allowed)
	if err != nil {
		return fmt.Errorf("gouge: allowed region: %w", err)
	}
	return c.check(paths, radius, func(p geom.Point) float64 {
		return f.Distance(p) + radius
	})
}

// Outside checks that a tool of the given radius following paths never
// touches forbidden. An empty forbidden region always passes.
func (c Checker) Outside(paths []geom.Path, forbidden region.Region, radius float64) error {
	if forbidden.IsEmpty() {
		return nil
	}
	f, err := c.Kernel.Field(forbidden)
	if err != nil {
		return fmt.Errorf("gouge: forbidden region: %w", err)
	}
	return c.check(paths, radius, func(p geom.Point) float64 {
		return radius - f.Distance(p)
	})
}

// check records every sample whose overcut exceeds the tolerance.
func (c Checker) check(paths []geom.Path, radius float64, overcut func(geom.Point) float64) error {
	tol := c.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	spacing := c.Spacing
	if spacing <= 0 {
		spacing = radius / 4
	}
	if !(spacing > 0) {
		return fmt.Errorf("gouge: invalid sample spacing %v", spacing)
	}

	var gerr Error
	record := func(path, seg int, p geom.Point) bool {
		d := overcut(p)
		if d <= tol {
			return true
		}
		v := Violation{Path: path, Segment: seg, At: p, Depth: d}
		if len(gerr.Violations) == 0 || d > gerr.Worst.Depth {
			gerr.Worst = v
		}
		gerr.Violations = append(gerr.Violations, v)
		return c.Limit <= 0 || len(gerr.Violations) < c.Limit
	}

walk:
	for i, path := range paths {
		if len(path) == 1 && !record(i, 0, path[0]) {
			break
		}
		for j := 1; j < len(path); j++ {
			a, b := path[j-1], path[j]
			n := int(math.Ceil(a.Dist(b) / spacing))
			if n < 1 {
				n = 1
			}
			for k := 0; k <= n; k++ {
				if k == 0 && j > 1 {
					continue
				}
				if !record(i, j-1, a.Lerp(b, float64(k)/float64(n))) {
					break walk
				}
			}
		}
	}
	if len(gerr.Violations) == 0 {
		return nil
	}
	return &gerr
}
