package geom

import "math"

// LoopTolerance is the largest gap between the first and last point of a
// point sequence that still counts as a closed loop.
const LoopTolerance = 3e-7

// Path is an ordered sequence of points. A closed ring repeats its first
// point at the end.
type Path []Point

// Path3 is a path with a height at every point.
type Path3 []Point3

// Start returns the first point. It panics on an empty path.
func (p Path) Start() Point { return p[0] }

// End returns the last point. It panics on an empty path.
func (p Path) End() Point { return p[len(p)-1] }

// IsClosed reports whether the path has at least two points and its first
// and last points coincide within LoopTolerance.
func (p Path) IsClosed() bool {
	return len(p) >= 2 && p[0].Near(p[len(p)-1], LoopTolerance)
}

// Length returns the total arc length.
func (p Path) Length() float64 {
	var l float64
	for i := 1; i < len(p); i++ {
		l += p[i-1].Dist(p[i])
	}
	return l
}

// Clone returns a copy that shares no storage with p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Reverse returns the path traversed in the opposite direction.
func (p Path) Reverse() Path {
	out := make(Path, len(p))
	for i, pt := range p {
		out[len(p)-1-i] = pt
	}
	return out
}

// SignedArea returns the shoelace area of the path treated as a ring.
// Counter-clockwise rings are positive.
func (p Path) SignedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	var a float64
	j := len(p) - 1
	for i := range p {
		a += (p[j].X + p[i].X) * (p[j].Y - p[i].Y)
		j = i
	}
	return -a / 2
}

// cumulative returns the arc length at every vertex.
func (p Path) cumulative() []float64 {
	out := make([]float64, len(p))
	for i := 1; i < len(p); i++ {
		out[i] = out[i-1] + p[i-1].Dist(p[i])
	}
	return out
}

// Project returns the arc-length position of the point on p nearest to q.
// When several points are equally near, the one closest to the start wins.
func (p Path) Project(q Point) float64 {
	d, _ := p.project(q, p.cumulative())
	return d
}

// Distance returns the distance from q to the nearest point of p.
func (p Path) Distance(q Point) float64 {
	if len(p) == 0 {
		return math.Inf(1)
	}
	_, dsq := p.project(q, p.cumulative())
	return math.Sqrt(dsq)
}

func (p Path) project(q Point, lengths []float64) (pos, distSq float64) {
	if len(p) == 0 {
		return 0, math.Inf(1)
	}
	pos, distSq = 0, q.DistSq(p[0])
	for i := 1; i < len(p); i++ {
		a, b := p[i-1], p[i]
		seg := b.Sub(a)
		segLenSq := seg.Dot(seg)
		t := 0.0
		if segLenSq > 0 {
			t = q.Sub(a).Dot(seg) / segLenSq
			t = math.Max(0, math.Min(1, t))
		}
		var at float64
		switch t {
		case 0:
			at = lengths[i-1]
		case 1:
			at = lengths[i]
		default:
			at = lengths[i-1] + t*math.Sqrt(segLenSq)
		}
		if d := q.DistSq(a.Lerp(b, t)); d < distSq {
			pos, distSq = at, d
		}
	}
	return pos, distSq
}

// Interpolate returns the point at arc-length position d, clamped to the
// ends of the path.
func (p Path) Interpolate(d float64) Point {
	return p.interpolate(d, p.cumulative())
}

func (p Path) interpolate(d float64, lengths []float64) Point {
	if d <= 0 || len(p) == 1 {
		return p[0]
	}
	for i := 1; i < len(p); i++ {
		if d <= lengths[i] {
			seg := lengths[i] - lengths[i-1]
			if seg == 0 {
				return p[i]
			}
			return p[i-1].Lerp(p[i], (d-lengths[i-1])/seg)
		}
	}
	return p[len(p)-1]
}

// Lift returns the path at constant height z.
func (p Path) Lift(z float64) Path3 {
	out := make(Path3, len(p))
	for i, pt := range p {
		out[i] = pt.At(z)
	}
	return out
}

// XY drops the heights.
func (p Path3) XY() Path {
	out := make(Path, len(p))
	for i, pt := range p {
		out[i] = pt.XY()
	}
	return out
}
