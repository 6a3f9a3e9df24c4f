// Package engine evaluates job files. A job file is a small Lisp program,
// run in a sandboxed zygomys interpreter, that defines shapes, cut steps
// and jobs for the planner.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/bicut/pkg/plan"
	"github.com/chazu/bicut/pkg/region"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	Job     string
}

// Result is what a job file defines.
type Result struct {
	Jobs []*plan.Job
	// Shapes holds the regions named with (shape ...), keyed by label.
	Shapes   map[string]region.Region
	Warnings []EvalWarning
}

func newResult() *Result {
	return &Result{Shapes: make(map[string]region.Region)}
}

// Lookup returns the job with the given name, or nil.
func (r *Result) Lookup(name string) *plan.Job {
	for _, j := range r.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// Engine wraps the zygomys interpreter.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	// Timeout bounds each evaluation. Zero selects EvalTimeout.
	Timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs a job file and collects what it defines.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure or an invalid job: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, superseded, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(source)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	limit := e.Timeout
	if limit <= 0 {
		limit = EvalTimeout
	}
	return waitWithTimeout(ch, gen, &e.mu, &e.generation, limit)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Result, []EvalError, error) {
	res := newResult()
	if strings.TrimSpace(source) == "" {
		return res, nil, nil
	}

	// Sandbox mode prevents job files from touching the filesystem.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, res)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	var evalErrs []EvalError
	for _, j := range res.Jobs {
		v := j.Validate()
		for _, ve := range v.Errors {
			evalErrs = append(evalErrs, EvalError{Message: fmt.Sprintf("job %q: %s", j.Name, ve.Error())})
		}
		for _, w := range v.Warnings {
			res.Warnings = append(res.Warnings, EvalWarning{Message: w.Error(), Job: j.Name})
		}
		for _, label := range j.Order {
			if _, ok := res.Shapes[label]; !ok && len(res.Shapes) > 0 {
				res.Warnings = append(res.Warnings, EvalWarning{
					Message: fmt.Sprintf("region %q is not defined by this file", label),
					Job:     j.Name,
				})
			}
		}
	}
	if len(evalErrs) > 0 {
		return nil, evalErrs, nil
	}
	return res, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
