// Package onion computes nested inward offsets of a region: the "onion"
// levels a tool of finite radius follows to clear it, and the containment
// tree that links each level's components to the ones inside them.
package onion

import (
	"errors"
	"fmt"

	"github.com/chazu/bicut/pkg/region"
)

// DefaultSimplifyTolerance suppresses slivers left by numerical noise in
// each level.
const DefaultSimplifyTolerance = 0.1

// DefaultMaxLevels bounds the offset loop.
const DefaultMaxLevels = 10000

var (
	// ErrInvalidStep is returned for a zero, negative or non-finite step.
	ErrInvalidStep = errors.New("onion: step must be positive")
	// ErrTooManyLevels is returned when the offset loop hits its level cap.
	ErrTooManyLevels = errors.New("onion: level limit reached")
)

// Config controls level generation.
type Config struct {
	// Step is the distance between successive levels.
	Step float64
	// Inset is the offset of the outermost level. Zero follows the region
	// boundary itself.
	Inset float64
	// SimplifyTolerance is applied to every candidate level. Zero selects
	// DefaultSimplifyTolerance; a negative value disables simplification.
	SimplifyTolerance float64
	// Stop, when set, ends generation at the first level whose unsimplified
	// shrink lies entirely inside it.
	Stop *region.Region
	// MaxLevels caps the number of levels. Zero selects DefaultMaxLevels.
	MaxLevels int
}

// Levels shrinks r by successive multiples of step and returns the levels
// innermost first. See Config.Levels.
func Levels(r region.Region, step float64, stop *region.Region) ([]region.Region, error) {
	return Config{Step: step, Stop: stop}.Levels(r)
}

// Levels shrinks r by Inset, Inset+Step, Inset+2*Step, ... and keeps each
// simplified shrink while it is non-empty and, with a stop region, not yet
// inside the stop region. The first failing candidate ends the loop. The
// kept levels are returned innermost first; when the very first candidate
// fails the result is empty.
func (c Config) Levels(r region.Region) ([]region.Region, error) {
	if !(c.Step > 0) || c.Step > 1e300 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, c.Step)
	}
	tol := c.SimplifyTolerance
	if tol == 0 {
		tol = DefaultSimplifyTolerance
	}
	maxLevels := c.MaxLevels
	if maxLevels <= 0 {
		maxLevels = DefaultMaxLevels
	}

	levels := []region.Region{}
	for k := 0; ; k++ {
		shrink := r.Buffer(-(c.Inset + float64(k)*c.Step))
		candidate := shrink
		if tol > 0 {
			candidate = shrink.Simplify(tol)
		}
		if err := candidate.Err(); err != nil {
			return nil, fmt.Errorf("onion: level %d: %w", k, err)
		}
		if !candidate.Kind().Areal() || candidate.Area() <= region.AreaTolerance {
			break
		}
		if c.Stop != nil && c.Stop.Contains(shrink) {
			break
		}
		if len(levels) == maxLevels {
			return nil, fmt.Errorf("%w: %d levels at step %v", ErrTooManyLevels, maxLevels, c.Step)
		}
		levels = append(levels, candidate)
	}

	for i, j := 0, len(levels)-1; i < j; i, j = i+1, j-1 {
		levels[i], levels[j] = levels[j], levels[i]
	}
	return levels, nil
}
