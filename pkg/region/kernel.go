package region

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/bicut/pkg/geom"
	clipper "github.com/ctessum/go.clipper"
)

// Scale converts model units to the integer grid the clipping kernel works
// on. With millimetre input the grid resolution is 0.1 micron.
const Scale = 1e4

// DefaultArcTolerance is the largest deviation, in model units, between a
// true arc and the chords used to approximate it in round offsets. Chained
// offsets accumulate this error, so it stays well below the coverage slack
// of the partitioner.
const DefaultArcTolerance = 0.0005

// ErrKernel is matched by every KernelError.
var ErrKernel = errors.New("region: clipping kernel failed")

// KernelError reports a boolean operation the clipping kernel could not
// complete. The failed Region carries it; see Region.Err.
type KernelError struct {
	Op      clipper.ClipType
	Subject int
	Clip    int
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("%v (op %d, %d subject paths, %d clip paths)", ErrKernel, e.Op, e.Subject, e.Clip)
}

func (e *KernelError) Is(target error) bool { return target == ErrKernel }

// ---- conversion ----

func toInt(v float64) clipper.CInt {
	return clipper.CInt(math.Round(v * Scale))
}

// toClipperRing converts a ring to kernel form. Consecutive duplicates and
// the closing point are removed: the kernel compares points by identity and
// would otherwise keep zero-length edges.
func toClipperRing(ring geom.Path) clipper.Path {
	out := make(clipper.Path, 0, len(ring))
	for _, pt := range ring {
		ip := &clipper.IntPoint{X: toInt(pt.X), Y: toInt(pt.Y)}
		if n := len(out); n > 0 && out[n-1].X == ip.X && out[n-1].Y == ip.Y {
			continue
		}
		out = append(out, ip)
	}
	for len(out) > 1 && out[0].X == out[len(out)-1].X && out[0].Y == out[len(out)-1].Y {
		out = out[:len(out)-1]
	}
	return out
}

// toClipperLine converts an open line, dropping consecutive duplicates.
func toClipperLine(line geom.Path) clipper.Path {
	out := make(clipper.Path, 0, len(line))
	for _, pt := range line {
		ip := &clipper.IntPoint{X: toInt(pt.X), Y: toInt(pt.Y)}
		if n := len(out); n > 0 && out[n-1].X == ip.X && out[n-1].Y == ip.Y {
			continue
		}
		out = append(out, ip)
	}
	return out
}

func fromClipperPoints(path clipper.Path) geom.Path {
	out := make(geom.Path, len(path))
	for i, ip := range path {
		out[i] = geom.Pt(float64(ip.X)/Scale, float64(ip.Y)/Scale)
	}
	return out
}

// fromClipperRing converts a kernel contour to a closed ring with the
// requested orientation.
func fromClipperRing(path clipper.Path, ccw bool) geom.Path {
	out := fromClipperPoints(path)
	if len(out) > 0 {
		out = append(out, out[0])
	}
	if (out.SignedArea() > 0) != ccw {
		out = out.Reverse()
	}
	return out
}

func (r Region) polygonPaths() clipper.Paths {
	var out clipper.Paths
	for _, p := range r.polys {
		out = appendPolygonPaths(out, p)
	}
	return out
}

func appendPolygonPaths(out clipper.Paths, p Polygon) clipper.Paths {
	if ext := toClipperRing(p.Exterior); len(ext) >= 3 {
		out = append(out, ext)
	}
	for _, h := range p.Holes {
		if hp := toClipperRing(h); len(hp) >= 3 {
			out = append(out, hp)
		}
	}
	return out
}

func (r Region) linePaths() clipper.Paths {
	var out clipper.Paths
	for _, l := range r.lines {
		if lp := toClipperLine(l); len(lp) >= 2 {
			out = append(out, lp)
		}
	}
	return out
}

// treePolygons flattens a PolyTree by depth: even depths are exteriors and
// odd depths are holes of their parent. Depth is used instead of the node's
// own hole flag, which offset results do not keep consistent.
func treePolygons(tree *clipper.PolyTree) []Polygon {
	var out []Polygon
	var walk func(nodes []*clipper.PolyNode)
	walk = func(nodes []*clipper.PolyNode) {
		for _, n := range nodes {
			if n.IsOpen || len(n.Contour()) < 3 {
				continue
			}
			p := Polygon{Exterior: fromClipperRing(n.Contour(), true)}
			for _, h := range n.Childs() {
				if len(h.Contour()) >= 3 {
					p.Holes = append(p.Holes, fromClipperRing(h.Contour(), false))
				}
				walk(h.Childs())
			}
			out = append(out, p)
		}
	}
	if tree != nil {
		walk(tree.Childs())
	}
	return out
}

// ---- kernel operations ----

// execute runs a closed-path boolean operation with non-zero filling. Input
// with no usable paths yields no polygons.
func execute(op clipper.ClipType, subject, clip clipper.Paths) ([]Polygon, error) {
	c := clipper.NewClipper(clipper.IoNone)
	hasSubject := c.AddPaths(subject, clipper.PtSubject, true)
	hasClip := c.AddPaths(clip, clipper.PtClip, true)
	if !hasSubject && !hasClip {
		return nil, nil
	}
	tree, ok := c.Execute2(op, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil, &KernelError{Op: op, Subject: len(subject), Clip: len(clip)}
	}
	return treePolygons(tree), nil
}

// executeOpen clips open lines against closed paths.
func executeOpen(op clipper.ClipType, lines, clip clipper.Paths) ([]geom.Path, error) {
	c := clipper.NewClipper(clipper.IoNone)
	hasLines := c.AddPaths(lines, clipper.PtSubject, false)
	hasClip := c.AddPaths(clip, clipper.PtClip, true)
	if !hasLines {
		return nil, nil
	}
	if !hasClip {
		if op == clipper.CtIntersection {
			return nil, nil
		}
		var out []geom.Path
		for _, p := range lines {
			if len(p) >= 2 {
				out = append(out, fromClipperPoints(p))
			}
		}
		return out, nil
	}
	tree, ok := c.Execute2(op, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil, &KernelError{Op: op, Subject: len(lines), Clip: len(clip)}
	}
	var out []geom.Path
	for _, p := range c.OpenPathsFromPolyTree(tree) {
		if len(p) >= 2 {
			out = append(out, fromClipperPoints(p))
		}
	}
	return out, nil
}

// offset grows (delta > 0) or shrinks (delta < 0) paths with round joins and
// returns the normalised polygons.
func offset(paths clipper.Paths, delta float64, end clipper.EndType, arcTolerance float64) ([]Polygon, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	co := clipper.NewClipperOffset()
	co.ArcTolerance = arcTolerance * Scale
	co.AddPaths(paths, clipper.JtRound, end)
	return execute(clipper.CtUnion, co.Execute(delta*Scale), nil)
}

// pointInRing reports 1 inside, 0 outside and -1 on the boundary.
func pointInRing(p geom.Point, ring geom.Path) int {
	return clipper.PointInPolygon(&clipper.IntPoint{X: toInt(p.X), Y: toInt(p.Y)}, toClipperRing(ring))
}
