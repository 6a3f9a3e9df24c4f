package plan

import (
	"fmt"
	"math"

	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/gouge"
	"github.com/chazu/bicut/pkg/onion"
	"github.com/chazu/bicut/pkg/region"
	"github.com/chazu/bicut/pkg/stitch"
)

// Pocket tracks the material cleared around a region by successive steps.
// Required must be cleared; the tool may also remove anything in Allowed.
// Required is assumed to lie inside Allowed.
type Pocket struct {
	Required region.Region
	Allowed  region.Region
	// Cut is the area cleared so far.
	Cut region.Region
	// Checker, when set, verifies every planned path stays in Allowed.
	Checker *gouge.Checker
}

// AddStep plans one step: an optional profile pass along the required
// boundary followed by a clearing pass over whatever the step's tool can
// still usefully reach. Cut grows by the area the new paths sweep. The
// clearing paths come first.
func (p *Pocket) AddStep(step CutStep) ([]geom.Path, error) {
	if err := step.check(); err != nil {
		return nil, err
	}
	r := step.ToolRadius
	inset := r + step.SafetyMargin

	var profile []geom.Path
	if step.ProfilePass {
		productive := p.Required.Buffer(-inset).Outline().
			Difference(p.Cut.Buffer(-inset)).
			Simplify(step.SimplifyTolerance)
		p.Cut = p.Cut.Union(productive.Buffer(r))
		profile = productive.Lines()
	}

	allowable := p.Allowed.Buffer(-inset)
	remaining := p.Required.Difference(p.Cut)
	boundary := p.Required.Outline()
	if step.ProfilePass {
		// The profile pass already reached everything this near the
		// boundary.
		remaining = remaining.Difference(boundary.Buffer(2*r + step.SafetyMargin + step.SimplifyTolerance))
	}
	remaining = dropSlivers(remaining, step.SimplifyTolerance)

	productive := remaining.Buffer(r)
	if step.ProfilePass {
		productive = productive.Difference(boundary.Buffer(r + step.SafetyMargin + step.StepOver))
	}
	positions := allowable.Intersection(productive)
	p.Cut = p.Cut.Union(positions.Buffer(r))

	clearing, err := clear(positions, step)
	if err != nil {
		return nil, fmt.Errorf("plan: step %q: %w", step.Name, err)
	}
	paths := append(clearing, profile...)

	if p.Checker != nil && len(paths) > 0 {
		c := *p.Checker
		tol := c.Tolerance
		if tol <= 0 {
			tol = gouge.DefaultTolerance
		}
		c.Tolerance = tol + math.Max(step.SimplifyTolerance, 0)
		if err := c.Inside(paths, p.Allowed.Buffer(-step.SafetyMargin), r); err != nil {
			return nil, fmt.Errorf("plan: step %q: %w", step.Name, err)
		}
	}
	return paths, nil
}

// clear covers a region of tool positions with stitched offset loops.
func clear(positions region.Region, step CutStep) ([]geom.Path, error) {
	if !positions.Kind().Areal() {
		return nil, nil
	}
	cfg := onion.Config{Step: step.StepOver, SimplifyTolerance: simplifyOrOff(step.SimplifyTolerance)}
	if step.LinkDistance > 0 {
		levels, err := cfg.Levels(positions)
		if err != nil {
			return nil, err
		}
		return stitch.NewGraph(levels).Schedule(stitch.ScheduleConfig{
			Mode:         step.Mode,
			LinkDistance: step.LinkDistance,
			Bound:        positions,
		})
	}
	tree, err := cfg.Build(positions)
	if err != nil {
		return nil, err
	}
	return stitch.Tree(tree, step.Mode)
}

// simplifyOrOff maps a zero tolerance to disabled simplification.
func simplifyOrOff(tol float64) float64 {
	if tol == 0 {
		return -1
	}
	return tol
}

// dropSlivers removes components too thin to survive shrinking by tol.
func dropSlivers(r region.Region, tol float64) region.Region {
	if tol <= 0 || !r.Kind().Areal() {
		return r
	}
	var keep []region.Region
	for _, part := range r.Parts() {
		if !part.Buffer(-tol).IsEmpty() {
			keep = append(keep, part)
		}
	}
	return region.UnionAll(keep...)
}
