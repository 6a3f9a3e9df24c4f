// Package bicut partitions adjacent regions so that each part can be cut by
// a tool of a given radius without the tool reaching material reserved for
// another part.
//
// A region is cuttable with respect to an area to avoid when it is the
// sweep of every tool position whose disc stays clear of that area. The
// bicuttable partition of a primary and a secondary region "presses" their
// shared boundary into radius arcs from both sides, so both returned parts
// are cuttable with respect to each other.
package bicut

import (
	"errors"
	"fmt"

	"github.com/chazu/bicut/pkg/region"
)

// DefaultSlack is the closing distance used to join nearly touching inputs
// and the tolerance of the coverage check.
const DefaultSlack = 0.01

// ErrInvalidRadius is returned for a non-positive tool radius.
var ErrInvalidRadius = errors.New("bicut: radius must be positive")

// PartitionFailure reports that a partition does not cover its inputs. It
// happens legitimately when small components of the two inputs interleave,
// for example in a checkerboard, so neither tool can reach the junctions.
type PartitionFailure struct {
	Primary   string
	Secondary string
	Radius    float64
	// Uncovered is the area of the inputs left outside both parts.
	Uncovered float64
}

func (e *PartitionFailure) Error() string {
	return fmt.Sprintf("bicut: partition of %s against %s at radius %g leaves %.4g uncovered",
		e.Primary, e.Secondary, e.Radius, e.Uncovered)
}

// AllowedPositions returns the tool centres whose disc of the given radius
// can touch toCut without touching toAvoid.
func AllowedPositions(toCut, toAvoid region.Region, radius float64) region.Region {
	return toCut.Buffer(radius).Difference(toAvoid.Buffer(radius))
}

// Cuttable returns the area swept by a tool of the given radius over every
// allowed position for toCut and toAvoid.
func Cuttable(toCut, toAvoid region.Region, radius float64) region.Region {
	return AllowedPositions(toCut, toAvoid, radius).Buffer(radius)
}

// Partitioner computes bicuttable partitions at one tool radius.
type Partitioner struct {
	Radius float64
	// Slack joins inputs closer than this and is the coverage tolerance.
	// Zero selects DefaultSlack.
	Slack float64
	// Labels names the regions passed to ChooseCuts in error reports.
	Labels []string
}

func (p Partitioner) slack() float64 {
	if p.Slack > 0 {
		return p.Slack
	}
	return DefaultSlack
}

// Total returns the union of regions with gaps narrower than the slack
// closed.
func (p Partitioner) Total(regions ...region.Region) region.Region {
	s := p.slack()
	return region.UnionAll(regions...).Buffer(s).Buffer(-s)
}

// ToBicuttable returns an enlarged primary and a mating secondary. Both are
// clipped to the closed union of the inputs, do not overlap, and together
// cover that union. When they do not cover it a *PartitionFailure is
// returned.
func (p Partitioner) ToBicuttable(primary, secondary region.Region) (enlarged, mating region.Region, err error) {
	return p.toBicuttable(primary, secondary, "primary", "secondary")
}

func (p Partitioner) toBicuttable(primary, secondary region.Region, pname, sname string) (enlarged, mating region.Region, err error) {
	r := p.Radius
	if !(r > 0) {
		return region.Region{}, region.Region{}, fmt.Errorf("%w: %v", ErrInvalidRadius, r)
	}
	total := p.Total(primary, secondary)

	inner := Cuttable(secondary, primary, r).Intersection(total)
	enlarged = Cuttable(primary, inner, r).Intersection(total)
	mating = Cuttable(secondary, enlarged, r).Intersection(total)

	covered := enlarged.Union(mating).Buffer(p.slack())
	rest := total.Difference(covered)
	if err := rest.Err(); err != nil {
		return region.Region{}, region.Region{}, fmt.Errorf("bicut: %s against %s: %w", pname, sname, err)
	}
	if rest.Area() > region.AreaTolerance {
		return region.Region{}, region.Region{}, &PartitionFailure{
			Primary:   pname,
			Secondary: sname,
			Radius:    r,
			Uncovered: rest.Area(),
		}
	}
	return enlarged, mating, nil
}

// ChooseCuts partitions an ordered list of regions, most favoured first.
// Region i is made bicuttable against the union of every region after it,
// then reduced by every part already claimed by an earlier region, and
// finally clipped to the closed union of all inputs. The parts are pairwise
// disjoint; earlier regions win disputed territory.
func (p Partitioner) ChooseCuts(regions []region.Region) ([]region.Region, error) {
	bicuttable := make([]region.Region, len(regions))
	for i := range regions {
		rest := region.UnionAll(regions[i+1:]...)
		enlarged, _, err := p.toBicuttable(regions[i], rest, p.label(i), p.restLabel(i+1, len(regions)))
		if err != nil {
			return nil, err
		}
		bicuttable[i] = enlarged
	}

	total := p.Total(regions...)
	out := make([]region.Region, len(regions))
	claimed := region.Region{}
	for i, b := range bicuttable {
		out[i] = b.Difference(claimed).Intersection(total)
		claimed = claimed.Union(out[i])
	}
	if err := claimed.Err(); err != nil {
		return nil, fmt.Errorf("bicut: %w", err)
	}
	return out, nil
}

func (p Partitioner) label(i int) string {
	if i < len(p.Labels) && p.Labels[i] != "" {
		return fmt.Sprintf("%q", p.Labels[i])
	}
	return fmt.Sprintf("region %d", i)
}

func (p Partitioner) restLabel(from, n int) string {
	switch n - from {
	case 0:
		return "nothing"
	case 1:
		return p.label(from)
	}
	return fmt.Sprintf("regions %d-%d", from, n-1)
}

// ToBicuttable partitions primary and secondary at the given radius with
// the default slack.
func ToBicuttable(primary, secondary region.Region, radius float64) (enlarged, mating region.Region, err error) {
	return Partitioner{Radius: radius}.ToBicuttable(primary, secondary)
}

// ChooseCuts partitions regions at the given radius with the default slack.
func ChooseCuts(regions []region.Region, radius float64) ([]region.Region, error) {
	return Partitioner{Radius: radius}.ChooseCuts(regions)
}
