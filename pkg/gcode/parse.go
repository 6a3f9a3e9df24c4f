package gcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/bicut/pkg/geom"
)

// MoveMode is the motion mode of a machine position.
type MoveMode int

const (
	MoveModeRapid MoveMode = iota
	MoveModeLinear
)

// State is the modal state in effect at a position.
type State struct {
	MoveMode MoveMode
	Feedrate float64
}

// Position is where a move leaves the tool.
type Position struct {
	X, Y, Z float64
	State   State
	// Retract marks a rapid move of the Z axis alone.
	Retract bool
}

// XY returns the planar part of the position.
func (p Position) XY() geom.Point { return geom.Pt(p.X, p.Y) }

// Machine replays the two command families written by Write and records
// every position the tool reaches. Positions[0] is the origin.
type Machine struct {
	Positions []Position
}

// NewMachine returns a machine at the origin.
func NewMachine() *Machine {
	return &Machine{Positions: []Position{{}}}
}

// Current returns the last position.
func (m *Machine) Current() Position {
	return m.Positions[len(m.Positions)-1]
}

var errSidewaysFeed = errors.New("feed move leaves the rapid target without plunging")

// Run executes G-code from r. Blank lines and lines starting with ';' or
// '(' are ignored. After a rapid positioning move the next feed move must
// start straight below it.
func (m *Machine) Run(r io.Reader) error {
	sc := bufio.NewScanner(r)
	n := 0
	afterRapid := false
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == ';' || text[0] == '(' {
			continue
		}
		fields := strings.Fields(text)
		words, err := parseWords(fields[1:])
		if err != nil {
			return &ParseError{Line: n, Text: text, Err: err}
		}
		pos := m.Current()
		pos.Retract = false
		x, hasX := words['X']
		y, hasY := words['Y']
		z, hasZ := words['Z']
		switch fields[0] {
		case "G0":
			switch {
			case hasZ && !hasX && !hasY:
				pos.Z = z
				pos.Retract = true
			case hasX && hasY && !hasZ:
				pos.X, pos.Y = x, y
				afterRapid = true
			default:
				return &ParseError{Line: n, Text: text}
			}
			pos.State.MoveMode = MoveModeRapid
		case "G1":
			if !hasX || !hasY || !hasZ {
				return &ParseError{Line: n, Text: text}
			}
			if afterRapid && (x != pos.X || y != pos.Y) {
				return &ParseError{Line: n, Text: text, Err: errSidewaysFeed}
			}
			afterRapid = false
			pos.X, pos.Y, pos.Z = x, y, z
			pos.State.MoveMode = MoveModeLinear
			if f, ok := words['F']; ok {
				pos.State.Feedrate = f
			}
		default:
			return &ParseError{Line: n, Text: text}
		}
		m.Positions = append(m.Positions, pos)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("gcode: read: %w", err)
	}
	return nil
}

// Program is G-code read back into paths.
type Program struct {
	// Paths holds one path per rapid positioning move.
	Paths []geom.Path3
	// Rapids counts G0 X/Y positioning moves.
	Rapids int
	// Retracts counts G0 Z moves, including the final one.
	Retracts int
	// SafeHeight is the height of the last retract.
	SafeHeight float64
	// Feedrate is the feed of the last cutting move.
	Feedrate float64
}

// Points returns the number of cutting moves.
func (p *Program) Points() int {
	n := 0
	for _, path := range p.Paths {
		n += len(path)
	}
	return n
}

// Program groups the recorded positions into paths. A rapid move ends the
// current path; a feed move before any positioning move starts a path of
// its own.
func (m *Machine) Program() *Program {
	prog := &Program{}
	var cur geom.Path3
	flush := func() {
		if len(cur) > 0 {
			prog.Paths = append(prog.Paths, cur)
		}
		cur = nil
	}
	for i := 1; i < len(m.Positions); i++ {
		pos := m.Positions[i]
		if pos.State.MoveMode == MoveModeLinear {
			cur = append(cur, geom.Point3{X: pos.X, Y: pos.Y, Z: pos.Z})
			prog.Feedrate = pos.State.Feedrate
			continue
		}
		if pos.Retract {
			prog.Retracts++
			prog.SafeHeight = pos.Z
			continue
		}
		flush()
		prog.Rapids++
	}
	flush()
	return prog
}

// ParseError reports a line that is not one of the emitted commands.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gcode: line %d %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("gcode: line %d %q: unsupported command", e.Line, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads the G-code written by Write.
func Parse(r io.Reader) (*Program, error) {
	m := NewMachine()
	if err := m.Run(r); err != nil {
		return nil, err
	}
	return m.Program(), nil
}

func parseWords(fields []string) (map[byte]float64, error) {
	words := make(map[byte]float64, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			return nil, fmt.Errorf("malformed word %q", f)
		}
		v, err := strconv.ParseFloat(f[1:], 64)
		if err != nil {
			return nil, err
		}
		words[f[0]] = v
	}
	return words, nil
}
