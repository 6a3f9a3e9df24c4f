// Package stitch orders offset-level boundary loops into tool paths. Loops
// are cut and re-threaded at the point nearest to where the tool already is,
// so consecutive loops join into one path instead of forcing a retract.
package stitch

import (
	"fmt"

	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/onion"
)

// Mode selects the traversal direction of the loops.
type Mode int

const (
	// Climb follows exteriors counter-clockwise and holes clockwise.
	Climb Mode = iota
	// Conventional reverses every loop.
	Conventional
)

func (m Mode) String() string {
	switch m {
	case Climb:
		return "climb"
	case Conventional:
		return "conventional"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "climb" or "conventional".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "climb", "":
		return Climb, nil
	case "conventional":
		return Conventional, nil
	}
	return 0, fmt.Errorf("stitch: unknown milling mode %q", s)
}

// Opposite returns the other mode. Mirroring a path swaps its mode.
func (m Mode) Opposite() Mode {
	if m == Conventional {
		return Climb
	}
	return Conventional
}

func (m Mode) orient(l geom.Loop) geom.Loop {
	if m == Conventional {
		return l.Reverse()
	}
	return l
}

// Tree stitches an offset tree depth first. Each node's children are
// stitched before its own boundary so interior cuts finish before the tool
// crosses to the enclosing level. The node boundary loop nearest to the end
// of the last child path is re-threaded to start there and appended to that
// path; the node's other loops each start a new path. Sibling subtrees and
// separate roots never join.
func Tree(t onion.Tree, mode Mode) ([]geom.Path, error) {
	paths := []geom.Path{}
	for _, root := range t.Roots {
		sub, err := stitchNode(t, root, mode)
		if err != nil {
			return nil, err
		}
		paths = append(paths, sub...)
	}
	return paths, nil
}

func stitchNode(t onion.Tree, id int, mode Mode) ([]geom.Path, error) {
	var paths []geom.Path
	for _, c := range t.Nodes[id].Children {
		sub, err := stitchNode(t, c, mode)
		if err != nil {
			return nil, err
		}
		paths = append(paths, sub...)
	}
	loops := t.Nodes[id].Region.Boundary()
	for i := range loops {
		loops[i] = mode.orient(loops[i])
	}
	return Splice(paths, loops)
}

// Splice appends loops to paths. When paths is non-empty, the loop nearest
// to the last path's end is re-threaded at its nearest point and
// concatenated onto that path; every other loop starts a new path. Each loop
// must be closed.
func Splice(paths []geom.Path, loops []geom.Loop) ([]geom.Path, error) {
	for _, l := range loops {
		if !l.Points.IsClosed() {
			e := &geom.NotClosedLoopError{Points: len(l.Points)}
			if len(l.Points) > 0 {
				e.First, e.Last = l.Points.Start(), l.Points.End()
			}
			return nil, fmt.Errorf("stitch: %w", e)
		}
	}
	spliced := -1
	if n := len(paths); n > 0 && len(loops) > 0 {
		end := paths[n-1].End()
		best, bestDist, bestPos := 0, 0.0, 0.0
		for i, l := range loops {
			pos, dist := l.Project(end)
			if i == 0 || dist < bestDist {
				best, bestDist, bestPos = i, dist, pos
			}
		}
		joined := append(paths[n-1].Clone(), loops[best].RepositionAt(bestPos)...)
		paths = append(paths[:n-1:n-1], joined)
		spliced = best
	}
	for i, l := range loops {
		if i != spliced {
			paths = append(paths, l.Points.Clone())
		}
	}
	return paths, nil
}
