package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/bicut/pkg/gcode"
	"github.com/chazu/bicut/pkg/geom"
	"github.com/chazu/bicut/pkg/plan"
	"github.com/chazu/bicut/pkg/region"
	"github.com/chazu/bicut/pkg/stitch"
	"github.com/chazu/bicut/pkg/wkt"
	zygo "github.com/glycerine/zygomys/zygo"
)

// DefaultCircleSegments is the polygon resolution of (circle ...).
const DefaultCircleSegments = 64

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpRegion wraps a region so it can be passed between builtins.
type sexpRegion struct {
	r region.Region
}

func (s *sexpRegion) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(region %s)", s.r)
}
func (s *sexpRegion) Type() *zygo.RegisteredType { return nil }

// sexpStep wraps a plan.CutStep produced by `cut-step`.
type sexpStep struct {
	step plan.CutStep
}

func (s *sexpStep) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(cut-step %q :radius %g :step-over %g)", s.step.Name, s.step.ToolRadius, s.step.StepOver)
}
func (s *sexpStep) Type() *zygo.RegisteredType { return nil }

// sexpStroke wraps a gcode.Stroke produced by `stroke`.
type sexpStroke struct {
	stroke gcode.Stroke
}

func (s *sexpStroke) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(stroke :zmax %g :zmin %g :zstep %g)", s.stroke.ZMax, s.stroke.ZMin, s.stroke.ZStep)
}
func (s *sexpStroke) Type() *zygo.RegisteredType { return nil }

// sexpPass wraps a plan.Pass produced by `pass`.
type sexpPass struct {
	pass plan.Pass
}

func (s *sexpPass) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pass %q)", s.pass.Name)
}
func (s *sexpPass) Type() *zygo.RegisteredType { return nil }

// sexpJob is returned by `job` so a file can refer back to it.
type sexpJob struct {
	job *plan.Job
}

func (s *sexpJob) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(job %q)", s.job.Name)
}
func (s *sexpJob) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// A trailing keyword is a bare flag.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// float reads an optional numeric keyword into dst.
func (a kwArgs) float(key string, dst *float64) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// flag reads an optional boolean keyword into dst.
func (a kwArgs) flag(key string, dst *bool) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	b, err := toBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

// check rejects keywords outside allowed, which are almost always typos.
func (a kwArgs) check(allowed ...string) error {
	for k := range a.kw {
		found := false
		for _, want := range allowed {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown keyword :%s", k)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean. A bare trailing flag counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_climb) and plain strings ("climb").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toMode converts a keyword or string to a milling mode.
func toMode(s zygo.Sexp) (stitch.Mode, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected :climb or :conventional: %w", err)
	}
	return stitch.ParseMode(name)
}

// regionResult wraps the result of a region builtin, surfacing kernel
// failures as evaluation errors.
func regionResult(name string, r region.Region) (zygo.Sexp, error) {
	if err := r.Err(); err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
	}
	return &sexpRegion{r: r}, nil
}

// toRegion extracts a region from a sexpRegion or a WKT string.
func toRegion(s zygo.Sexp) (region.Region, error) {
	switch v := s.(type) {
	case *sexpRegion:
		return v.r, nil
	case *zygo.SexpStr:
		return wkt.Parse(v.S)
	}
	return region.Region{}, fmt.Errorf("expected region, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// numbers extracts exactly n numeric positional arguments.
func numbers(fn string, args []zygo.Sexp, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s requires exactly %d numbers, got %d arguments", fn, n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the job file builtins into a zygomys
// environment. Shapes and jobs are collected into res as they are defined.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, res *Result) {

	// -----------------------------------------------------------------------
	// (region "POLYGON((0 0, 10 0, 10 10, 0 0))")
	// -----------------------------------------------------------------------
	env.AddFunction("region", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("region requires a WKT string")
		}
		text, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("region: %w", err)
		}
		r, err := wkt.Parse(text)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("region: %w", err)
		}
		return &sexpRegion{r: r}, nil
	})

	// -----------------------------------------------------------------------
	// (rect x0 y0 x1 y1)
	// -----------------------------------------------------------------------
	env.AddFunction("rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := numbers("rect", args, 4)
		if err != nil {
			return zygo.SexpNull, err
		}
		if v[0] >= v[2] || v[1] >= v[3] {
			return zygo.SexpNull, fmt.Errorf("rect: corners (%g %g) (%g %g) enclose no area", v[0], v[1], v[2], v[3])
		}
		return &sexpRegion{r: region.Rect(v[0], v[1], v[2], v[3])}, nil
	})

	// -----------------------------------------------------------------------
	// (circle x y radius :segments 64)
	// -----------------------------------------------------------------------
	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check("segments"); err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		v, err := numbers("circle", pa.positional, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		if v[2] <= 0 {
			return zygo.SexpNull, fmt.Errorf("circle: radius must be positive, got %g", v[2])
		}
		segments := float64(DefaultCircleSegments)
		if err := pa.float("segments", &segments); err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		if segments < 3 {
			return zygo.SexpNull, fmt.Errorf("circle: segments must be at least 3, got %g", segments)
		}
		return regionResult("circle", region.Circle(geom.Pt(v[0], v[1]), v[2], int(segments)))
	})

	// -----------------------------------------------------------------------
	// (union a b ...) (difference a b ...) (offset r distance)
	// -----------------------------------------------------------------------
	env.AddFunction("union", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		rs := make([]region.Region, len(args))
		for i, a := range args {
			r, err := toRegion(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("union: argument %d: %w", i+1, err)
			}
			rs[i] = r
		}
		return regionResult("union", region.UnionAll(rs...))
	})

	env.AddFunction("difference", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("difference requires at least one region")
		}
		out, err := toRegion(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("difference: argument 1: %w", err)
		}
		for i, a := range args[1:] {
			r, err := toRegion(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("difference: argument %d: %w", i+2, err)
			}
			out = out.Difference(r)
		}
		return regionResult("difference", out)
	})

	env.AddFunction("offset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("offset requires a region and a distance")
		}
		r, err := toRegion(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset: %w", err)
		}
		d, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset: distance: %w", err)
		}
		return regionResult("offset", r.Buffer(d))
	})

	// -----------------------------------------------------------------------
	// (shape "walnut" (rect 0 0 10 10))
	// -----------------------------------------------------------------------
	env.AddFunction("shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("shape requires a label and a region")
		}
		label, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: label: %w", err)
		}
		if label == "" {
			return zygo.SexpNull, fmt.Errorf("shape: empty label")
		}
		if _, dup := res.Shapes[label]; dup {
			return zygo.SexpNull, fmt.Errorf("shape: %q defined twice", label)
		}
		r, err := toRegion(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape %q: %w", label, err)
		}
		res.Shapes[label] = r
		return &sexpRegion{r: r}, nil
	})

	// -----------------------------------------------------------------------
	// (cut-step :name "rough" :radius 3.175 :step-over 2.5 :margin 0.3
	//           :tolerance 0.05 :mode :climb :profile true :link 4)
	//
	// Registered as "cut_step"; the preprocessor rewrites the hyphen.
	// -----------------------------------------------------------------------
	env.AddFunction("cut_step", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check("name", "radius", "step-over", "margin", "tolerance", "mode", "profile", "link"); err != nil {
			return zygo.SexpNull, fmt.Errorf("cut-step: %w", err)
		}
		var st plan.CutStep
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cut-step: name: %w", err)
			}
			st.Name = s
		}
		for _, f := range []struct {
			key string
			dst *float64
		}{
			{"radius", &st.ToolRadius},
			{"step-over", &st.StepOver},
			{"margin", &st.SafetyMargin},
			{"tolerance", &st.SimplifyTolerance},
			{"link", &st.LinkDistance},
		} {
			if err := pa.float(f.key, f.dst); err != nil {
				return zygo.SexpNull, fmt.Errorf("cut-step: %w", err)
			}
		}
		if _, ok := pa.kw["step-over"]; !ok {
			st.StepOver = st.ToolRadius
		}
		if v, ok := pa.kw["mode"]; ok {
			m, err := toMode(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cut-step: mode: %w", err)
			}
			st.Mode = m
		}
		if err := pa.flag("profile", &st.ProfilePass); err != nil {
			return zygo.SexpNull, fmt.Errorf("cut-step: %w", err)
		}
		return &sexpStep{step: st}, nil
	})

	// -----------------------------------------------------------------------
	// (stroke :safe 5 :feed 800 :zmax 0 :zmin -3 :zstep 1)
	// -----------------------------------------------------------------------
	env.AddFunction("stroke", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check("safe", "feed", "zmax", "zmin", "zstep"); err != nil {
			return zygo.SexpNull, fmt.Errorf("stroke: %w", err)
		}
		var s gcode.Stroke
		for _, f := range []struct {
			key string
			dst *float64
		}{
			{"safe", &s.SafeHeight},
			{"feed", &s.Feedrate},
			{"zmax", &s.ZMax},
			{"zmin", &s.ZMin},
			{"zstep", &s.ZStep},
		} {
			if err := pa.float(f.key, f.dst); err != nil {
				return zygo.SexpNull, fmt.Errorf("stroke: %w", err)
			}
		}
		if err := s.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("stroke: %w", err)
		}
		return &sexpStroke{stroke: s}, nil
	})

	// -----------------------------------------------------------------------
	// (pass "rough" step stroke :facing true)
	// -----------------------------------------------------------------------
	env.AddFunction("pass", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check("facing"); err != nil {
			return zygo.SexpNull, fmt.Errorf("pass: %w", err)
		}
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("pass requires a name, a cut-step and a stroke")
		}
		passName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pass: name: %w", err)
		}
		st, ok := pa.positional[1].(*sexpStep)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("pass %q: expected cut-step, got %T", passName, pa.positional[1])
		}
		sk, ok := pa.positional[2].(*sexpStroke)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("pass %q: expected stroke, got %T", passName, pa.positional[2])
		}
		p := plan.Pass{Name: passName, Step: st.step, Stroke: sk.stroke}
		if p.Step.Name == "" {
			p.Step.Name = passName
		}
		if err := pa.flag("facing", &p.Facing); err != nil {
			return zygo.SexpNull, fmt.Errorf("pass %q: %w", passName, err)
		}
		return &sexpPass{pass: p}, nil
	})

	// -----------------------------------------------------------------------
	// (job "inlay" :order (list "walnut" "maple") :partition-radius 1.5
	//      :margin 6 :stock (rect ...) :reflect true :passes (list ...))
	// -----------------------------------------------------------------------
	env.AddFunction("job", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check("order", "partition-radius", "margin", "stock", "reflect", "passes"); err != nil {
			return zygo.SexpNull, fmt.Errorf("job: %w", err)
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("job requires exactly one name argument")
		}
		jobName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("job: name: %w", err)
		}
		if res.Lookup(jobName) != nil {
			return zygo.SexpNull, fmt.Errorf("job: %q defined twice", jobName)
		}
		j := &plan.Job{Name: jobName}

		if v, ok := pa.kw["order"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job %q: order: %w", jobName, err)
			}
			for i, item := range items {
				label, err := toString(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("job %q: order entry %d: %w", jobName, i+1, err)
				}
				j.Order = append(j.Order, label)
			}
		}
		if err := pa.float("partition-radius", &j.PartitionRadius); err != nil {
			return zygo.SexpNull, fmt.Errorf("job %q: %w", jobName, err)
		}
		if err := pa.float("margin", &j.Margin); err != nil {
			return zygo.SexpNull, fmt.Errorf("job %q: %w", jobName, err)
		}
		if v, ok := pa.kw["stock"]; ok {
			r, err := toRegion(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job %q: stock: %w", jobName, err)
			}
			j.Stock = r
		}
		if err := pa.flag("reflect", &j.Reflect); err != nil {
			return zygo.SexpNull, fmt.Errorf("job %q: %w", jobName, err)
		}
		if v, ok := pa.kw["passes"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job %q: passes: %w", jobName, err)
			}
			for i, item := range items {
				p, ok := item.(*sexpPass)
				if !ok {
					return zygo.SexpNull, fmt.Errorf("job %q: pass %d: expected pass, got %T (%s)",
						jobName, i+1, item, item.SexpString(nil))
				}
				j.Passes = append(j.Passes, p.pass)
			}
		}

		res.Jobs = append(res.Jobs, j)
		return &sexpJob{job: j}, nil
	})
}
