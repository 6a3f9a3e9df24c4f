// Package plan turns labelled regions into cutting programs: it partitions
// the regions so each can be cut without damaging its neighbours, clears
// the material around each one with a sequence of tools, and renders every
// pass as G-code.
package plan

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/bicut/pkg/stitch"
)

// ErrInvalidStep is returned for a CutStep with blocking validation errors.
var ErrInvalidStep = errors.New("plan: invalid cut step")

// CutStep is one tool's contribution to clearing a pocket.
type CutStep struct {
	Name       string
	ToolRadius float64
	// StepOver is the distance between successive clearing loops.
	StepOver float64
	// SafetyMargin is material left on the allowed boundary. A negative
	// margin lets a finishing tool reach past it.
	SafetyMargin      float64
	SimplifyTolerance float64
	Mode              stitch.Mode
	// ProfilePass adds a pass that follows the required boundary.
	ProfilePass bool
	// LinkDistance, when positive, orders loops with the dependency
	// scheduler and joins loops closer than this at cutting depth.
	LinkDistance float64
}

// Validate checks the step parameters.
func (s CutStep) Validate() ValidationResult {
	var res ValidationResult
	finite := func(field string, v float64) bool {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			res.errorf(field, "must be finite, got %v", v)
			return false
		}
		return true
	}
	if finite("tool-radius", s.ToolRadius) && s.ToolRadius <= 0 {
		res.errorf("tool-radius", "must be positive, got %v", s.ToolRadius)
	}
	if finite("step-over", s.StepOver) {
		switch {
		case s.StepOver <= 0:
			res.errorf("step-over", "must be positive, got %v", s.StepOver)
		case s.ToolRadius > 0 && s.StepOver > 2*s.ToolRadius:
			res.errorf("step-over", "%v exceeds the tool diameter %v and would leave ridges", s.StepOver, 2*s.ToolRadius)
		}
	}
	if finite("safety-margin", s.SafetyMargin) && s.ToolRadius > 0 && s.SafetyMargin <= -s.ToolRadius {
		res.errorf("safety-margin", "%v cancels the whole tool radius", s.SafetyMargin)
	}
	if finite("simplify-tolerance", s.SimplifyTolerance) {
		switch {
		case s.SimplifyTolerance < 0:
			res.errorf("simplify-tolerance", "must not be negative, got %v", s.SimplifyTolerance)
		case s.ToolRadius > 0 && s.SimplifyTolerance > s.ToolRadius/2:
			res.warnf("simplify-tolerance", "%v is large for tool radius %v", s.SimplifyTolerance, s.ToolRadius)
		}
	}
	if finite("link-distance", s.LinkDistance) && s.LinkDistance < 0 {
		res.errorf("link-distance", "must not be negative, got %v", s.LinkDistance)
	}
	if s.Mode != stitch.Climb && s.Mode != stitch.Conventional {
		res.errorf("mode", "unknown milling mode %v", s.Mode)
	}
	return res
}

// check returns ErrInvalidStep wrapping every blocking finding.
func (s CutStep) check() error {
	res := s.Validate()
	if res.OK() {
		return nil
	}
	msgs := make([]string, len(res.Errors))
	for i, e := range res.Errors {
		msgs[i] = e.Error()
	}
	name := s.Name
	if name == "" {
		name = "unnamed"
	}
	return fmt.Errorf("%w %q: %s", ErrInvalidStep, name, strings.Join(msgs, "; "))
}
