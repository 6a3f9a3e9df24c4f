package geom

import (
	"fmt"
	"math"
)

// NotClosedLoopError is returned when a loop operation receives a point
// sequence whose endpoints do not coincide.
type NotClosedLoopError struct {
	First, Last Point
	Points      int
}

func (e *NotClosedLoopError) Error() string {
	if e.Points < 2 {
		return fmt.Sprintf("geom: not a closed loop: %d points", e.Points)
	}
	return fmt.Sprintf("geom: not a closed loop: starts at %v, ends at %v", e.First, e.Last)
}

// Loop is one closed boundary contour of a region.
type Loop struct {
	Points Path
	Hole   bool

	lengths []float64
}

// NewLoop validates that pts is closed and precomputes its arc-length
// parametrisation.
func NewLoop(pts Path, hole bool) (Loop, error) {
	if !pts.IsClosed() {
		e := &NotClosedLoopError{Points: len(pts)}
		if len(pts) > 0 {
			e.First, e.Last = pts.Start(), pts.End()
		}
		return Loop{}, e
	}
	return Loop{Points: pts, Hole: hole, lengths: pts.cumulative()}, nil
}

// Lengths returns the cumulative arc length at each vertex. The first entry
// is zero and the last is the perimeter.
// A Loop built without NewLoop computes them on every call.
func (l Loop) Lengths() []float64 {
	if l.lengths == nil && len(l.Points) > 0 {
		return l.Points.cumulative()
	}
	return l.lengths
}

// Perimeter returns the loop length.
func (l Loop) Perimeter() float64 {
	ls := l.Lengths()
	if len(ls) == 0 {
		return 0
	}
	return ls[len(ls)-1]
}

// Project returns the arc-length position of the loop point nearest to q
// and the distance to it.
func (l Loop) Project(q Point) (pos, dist float64) {
	pos, dsq := l.Points.project(q, l.Lengths())
	return pos, math.Sqrt(dsq)
}

// CutAt splits the loop's point sequence at arc-length position d. When d
// falls exactly on a vertex the split happens there and both halves share
// that vertex; otherwise a new vertex is interpolated at d. Positions at or
// outside the ends yield the whole sequence as the single part.
func (l Loop) CutAt(d float64) []Path {
	lengths := l.Lengths()
	if d <= 0 || d >= l.Perimeter() {
		return []Path{l.Points.Clone()}
	}
	for i, at := range lengths {
		if at == d {
			first := append(Path(nil), l.Points[:i+1]...)
			second := append(Path(nil), l.Points[i:]...)
			return []Path{first, second}
		}
		if at > d {
			cp := l.Points.interpolate(d, lengths)
			first := append(append(Path(nil), l.Points[:i]...), cp)
			second := append(Path{cp}, l.Points[i:]...)
			return []Path{first, second}
		}
	}
	return []Path{l.Points.Clone()}
}

// RepositionAt re-threads the loop so it starts and ends at arc-length
// position d. The traversal direction is unchanged.
func (l Loop) RepositionAt(d float64) Path {
	parts := l.CutAt(d)
	if len(parts) == 1 {
		return parts[0]
	}
	out := make(Path, 0, len(parts[0])+len(parts[1])-1)
	out = append(out, parts[1]...)
	return append(out, parts[0][1:]...)
}

// RepositionNear re-threads the loop to start at the loop point nearest to
// q. It also returns the distance from q to that point.
func (l Loop) RepositionNear(q Point) (Path, float64) {
	pos, dist := l.Project(q)
	return l.RepositionAt(pos), dist
}

// Reverse returns the loop traversed in the opposite direction.
func (l Loop) Reverse() Loop {
	pts := l.Points.Reverse()
	return Loop{Points: pts, Hole: l.Hole, lengths: pts.cumulative()}
}
