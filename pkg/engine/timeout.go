package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a job file runs past the engine's limit.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to an evaluation that finished after a
	// newer one was started on the same engine.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evalResult passes evaluation results through channels.
type evalResult struct {
	result *Result
	errors []EvalError
	err    error
}

// waitWithTimeout waits up to limit for a result from ch. A result whose
// generation is no longer current is discarded.
//
// On timeout the evaluating goroutine may still be running; the generation
// check discards its result when it eventually completes.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
	limit time.Duration,
) (*Result, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, ErrSuperseded
		}

		return res.result, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}
