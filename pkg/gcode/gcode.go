// Package gcode turns planar toolpaths into depth passes and plain-text
// G-code for a router, and reads that G-code back.
//
// Only two command families are produced: rapid moves (G0 Z<h> and
// G0 X<x> Y<y>) and linear cutting moves (G1 X<x> Y<y> Z<z> F<feed>).
package gcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/bicut/pkg/geom"
)

// ErrInvalidStroke is returned for stroke parameters that cannot produce a
// finite set of depth passes.
var ErrInvalidStroke = errors.New("gcode: invalid stroke")

// levelEpsilon absorbs floating point drift when stepping down to ZMin.
const levelEpsilon = 1e-9

// Stroke describes how a set of planar paths is cut into the stock.
type Stroke struct {
	SafeHeight float64
	Feedrate   float64
	ZMax       float64
	ZMin       float64
	ZStep      float64
}

// Validate checks that the stroke describes a finite descent.
func (s Stroke) Validate() error {
	for _, v := range []float64{s.SafeHeight, s.Feedrate, s.ZMax, s.ZMin, s.ZStep} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite parameter in %+v", ErrInvalidStroke, s)
		}
	}
	switch {
	case s.ZStep <= 0:
		return fmt.Errorf("%w: z step %g must be positive", ErrInvalidStroke, s.ZStep)
	case s.Feedrate <= 0:
		return fmt.Errorf("%w: feedrate %g must be positive", ErrInvalidStroke, s.Feedrate)
	case s.ZMin > s.ZMax:
		return fmt.Errorf("%w: z min %g above z max %g", ErrInvalidStroke, s.ZMin, s.ZMax)
	case s.SafeHeight < s.ZMax:
		return fmt.Errorf("%w: safe height %g below z max %g", ErrInvalidStroke, s.SafeHeight, s.ZMax)
	}
	return nil
}

// Levels returns the cutting depths of the stroke.
func (s Stroke) Levels() ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return ZLevels(s.ZMax, s.ZMin, s.ZStep), nil
}

// Passes lifts paths to every cutting depth of the stroke.
func (s Stroke) Passes(paths []geom.Path) ([]geom.Path3, error) {
	levels, err := s.Levels()
	if err != nil {
		return nil, err
	}
	return DepthPasses(paths, levels), nil
}

// GCode cuts paths at every depth of the stroke and returns the program.
func (s Stroke) GCode(paths []geom.Path) (string, error) {
	passes, err := s.Passes(paths)
	if err != nil {
		return "", err
	}
	return PathsToGCode(passes, s.Feedrate, s.SafeHeight), nil
}

// ZLevels steps down from zmax by zstep. The first level is one step below
// zmax and the last is exactly zmin. A zmin equal to zmax yields the single
// level zmin; a zmin above zmax or a non-positive zstep yields nothing.
func ZLevels(zmax, zmin, zstep float64) []float64 {
	if !(zstep > 0) || zmin > zmax {
		return nil
	}
	var levels []float64
	for k := 1; ; k++ {
		z := zmax - float64(k)*zstep
		if z <= zmin+levelEpsilon {
			return append(levels, zmin)
		}
		levels = append(levels, z)
	}
}

// DepthPasses lifts every path to every level, level by level, so that all
// paths are cut at one depth before the tool descends.
func DepthPasses(paths []geom.Path, levels []float64) []geom.Path3 {
	out := make([]geom.Path3, 0, len(paths)*len(levels))
	for _, z := range levels {
		for _, p := range paths {
			if len(p) == 0 {
				continue
			}
			out = append(out, p.Lift(z))
		}
	}
	return out
}

// ReflectX mirrors paths across the Y axis, for cutting the second face of
// flipped stock. Mirroring reverses the orientation of closed loops.
func ReflectX(paths []geom.Path) []geom.Path {
	out := make([]geom.Path, len(paths))
	for i, p := range paths {
		q := make(geom.Path, len(p))
		for j, pt := range p {
			q[j] = geom.Pt(-pt.X, pt.Y)
		}
		out[i] = q
	}
	return out
}

// PathsToGCode renders depth passes as G-code. Lines are separated by
// newlines and the text has no trailing newline.
func PathsToGCode(passes []geom.Path3, feedrate, safeHeight float64) string {
	var b strings.Builder
	// strings.Builder never fails.
	_ = Write(&b, passes, feedrate, safeHeight)
	return b.String()
}

// Write streams the G-code for passes to w. Before each path whose start
// differs from the tool's last position the tool retracts to safeHeight and
// rapids to the start; every point is then a feed move. The program ends
// with a retract.
func Write(w io.Writer, passes []geom.Path3, feedrate, safeHeight float64) error {
	bw := bufio.NewWriter(w)
	e := emitter{w: bw, feed: number(feedrate), safe: strconv.FormatFloat(safeHeight, 'f', -1, 64)}
	for _, p := range passes {
		e.path(p)
	}
	e.line("G0 Z" + e.safe)
	return bw.Flush()
}

type emitter struct {
	w     *bufio.Writer
	feed  string
	safe  string
	last  geom.Point
	moved bool
	lines int
}

func (e *emitter) line(s string) {
	if e.lines > 0 {
		e.w.WriteByte('\n')
	}
	e.w.WriteString(s)
	e.lines++
}

func (e *emitter) path(p geom.Path3) {
	if len(p) == 0 {
		return
	}
	start := p[0].XY()
	if !e.moved || !e.last.Near(start, geom.LoopTolerance) {
		e.line("G0 Z" + e.safe)
		e.line("G0 X" + number(start.X) + " Y" + number(start.Y))
	}
	for _, pt := range p {
		e.line("G1 X" + number(pt.X) + " Y" + number(pt.Y) + " Z" + number(pt.Z) + " F" + e.feed)
	}
	e.last = p[len(p)-1].XY()
	e.moved = true
}

// number formats v to two decimals without a negative zero.
func number(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}
