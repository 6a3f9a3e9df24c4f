package engine

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

const twoJobSource = `
(shape "oak" (rect 0 0 10 10))
(shape "ash" (rect 10 0 20 10))
(def s (stroke :safe 5 :feed 500 :zmax 0 :zmin -1 :zstep 1))
(job "oak-first" :order (list "oak" "ash")
  :passes (list (pass "rough" (cut-step :radius 1) s)))
(job "ash-first" :order (list "ash" "oak")
  :passes (list (pass "rough" (cut-step :radius 1) s)))
`

func TestEvaluateBlankSource(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t  \n  "},
		{"comments only", ";; nothing to cut\n; still nothing\n"},
		{"no definitions", "(def x 10) (+ x 1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if len(evalErrs) > 0 {
				t.Fatalf("eval errors: %v", evalErrs)
			}
			if res == nil {
				t.Fatal("expected non-nil result")
			}
			if len(res.Jobs) != 0 || len(res.Shapes) != 0 || len(res.Warnings) != 0 {
				t.Errorf("expected empty result, got %d jobs %d shapes %d warnings",
					len(res.Jobs), len(res.Shapes), len(res.Warnings))
			}
			if res.Lookup("anything") != nil {
				t.Error("Lookup found a job in an empty result")
			}
		})
	}
}

func TestEvaluateLookup(t *testing.T) {
	res, evalErrs, err := NewEngine().Evaluate(twoJobSource)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	tests := []struct {
		job   string
		first string
	}{
		{"oak-first", "oak"},
		{"ash-first", "ash"},
	}
	for _, tt := range tests {
		t.Run(tt.job, func(t *testing.T) {
			j := res.Lookup(tt.job)
			if j == nil {
				t.Fatalf("job %q not found", tt.job)
			}
			if len(j.Order) != 2 || j.Order[0] != tt.first {
				t.Errorf("order = %v, want %q first", j.Order, tt.first)
			}
		})
	}
	if res.Lookup("walnut-first") != nil {
		t.Error("Lookup found an undefined job")
	}
}

// Each evaluation runs in a fresh sandbox, so a file that defines a shape
// can be evaluated again on the same engine without a duplicate error.
func TestEvaluateFreshSandbox(t *testing.T) {
	eng := NewEngine()
	for i := 0; i < 3; i++ {
		res, evalErrs, err := eng.Evaluate(twoJobSource)
		if err != nil {
			t.Fatalf("run %d: fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("run %d: eval errors: %v", i, evalErrs)
		}
		if len(res.Jobs) != 2 || len(res.Shapes) != 2 {
			t.Fatalf("run %d: got %d jobs %d shapes, want 2 and 2", i, len(res.Jobs), len(res.Shapes))
		}
	}
}

func TestEvaluateFailures(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantLine bool
	}{
		{"unclosed job", "(shape \"a\" (rect 0 0 1 1))\n(job \"j\" :order (list \"a\")", true},
		{"unclosed rect", "(rect 0 0 1", true},
		{"undefined step", `(job "j" :order (list "a") :passes (list (pass "p" rough s)))`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected eval errors, got fatal: %v", err)
			}
			if res != nil {
				t.Fatal("expected nil result")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval errors")
			}
			e := evalErrs[0]
			if e.Message == "" {
				t.Error("empty message")
			}
			if tt.wantLine && e.Line > 0 && !strings.HasPrefix(e.Error(), "line ") {
				t.Errorf("Error() = %q, want a line prefix", e.Error())
			}
		})
	}
}

func TestEvalErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  EvalError
		want string
	}{
		{"with line", EvalError{Line: 5, Message: `job "j": no regions`}, `line 5: job "j": no regions`},
		{"without line", EvalError{Message: "region: empty polygon"}, "region: empty polygon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvaluateTimeout(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(1)
	ch := make(chan evalResult) // never sends

	start := time.Now()
	res, evalErrs, err := waitWithTimeout(ch, 1, &mu, &gen, 20*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if res != nil || evalErrs != nil {
		t.Errorf("timed out evaluation returned %v, %v", res, evalErrs)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestEvaluateWithinTimeout(t *testing.T) {
	eng := &Engine{Timeout: time.Minute}
	res, evalErrs, err := eng.Evaluate(twoJobSource)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 || len(res.Jobs) != 2 {
		t.Fatalf("got %d jobs, errors %v", len(res.Jobs), evalErrs)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	eng := NewEngine()
	planned, evalErrs, err := eng.evaluate(twoJobSource)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("evaluate: %v %v", err, evalErrs)
	}

	tests := []struct {
		name    string
		gen     uint64
		current uint64
		wantErr error
	}{
		{"current", 3, 3, nil},
		{"superseded", 2, 3, ErrSuperseded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng.generation = tt.current
			ch := make(chan evalResult, 1)
			ch <- evalResult{result: planned}
			res, _, err := waitWithTimeout(ch, tt.gen, &eng.mu, &eng.generation, time.Second)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && res.Lookup("oak-first") == nil {
				t.Error("current result lost its jobs")
			}
			if tt.wantErr != nil && res != nil {
				t.Error("superseded result was delivered")
			}
		})
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short form", "line 3: symbol `rough` not found", 3, "symbol `rough` not found"},
		{"builtin error", `job: expected pass, got 1`, 0, "expected pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errors.New(tt.msg))
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1", len(errs))
			}
			if errs[0].Line != tt.wantLine {
				t.Errorf("line = %d, want %d", errs[0].Line, tt.wantLine)
			}
			if !strings.Contains(errs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", errs[0].Message, tt.wantMsg)
			}
		})
	}
}
