package workflows

import (
	"fmt"
	"sort"
	"strings"
)

// ChainError reports a failed chain step with the index, item, and the state
// accumulated before the failing step. Unwrap exposes the underlying error.
//
//	var chainErr *workflows.ChainError[pipeline.Stage, pipeline.Result]
//	if errors.As(err, &chainErr) {
//	    log.Printf("stage %d failed", chainErr.StepIndex)
//	}
type ChainError[TItem, TContext any] struct {
	StepIndex int
	Item      TItem
	State     TContext
	Err       error
}

func (e *ChainError[TItem, TContext]) Error() string {
	return fmt.Sprintf("chain failed at step %d: %v", e.StepIndex, e.Err)
}

func (e *ChainError[TItem, TContext]) Unwrap() error {
	return e.Err
}

// TaskError captures the failure of one parallel task. Index is the position
// of the item in the slice given to ProcessParallel.
type TaskError[TItem any] struct {
	Index int
	Item  TItem
	Err   error
}

// ParallelResult separates successes from failures using dense slices, both
// in original item order. It carries partial results even when
// ProcessParallel returns an error.
type ParallelResult[TItem, TResult any] struct {
	Results []TResult
	Errors  []TaskError[TItem]
}

// ParallelError is returned when a fail-fast run sees any failure or a
// collect-all run sees every item fail.
//
// Message formats:
//   - "parallel execution failed: item 5: context canceled"
//   - "parallel execution failed: 20 items failed with 2 error types: 'context canceled' (18 items), 'missing required field' (2 items)"
type ParallelError[TItem any] struct {
	Errors []TaskError[TItem]
}

func (e *ParallelError[TItem]) Error() string {
	if len(e.Errors) == 0 {
		return "parallel execution failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("parallel execution failed: item %d: %v",
			e.Errors[0].Index, e.Errors[0].Err,
		)
	}

	errorCounts := make(map[string]int)
	for _, taskErr := range e.Errors {
		errorCounts[taskErr.Err.Error()]++
	}

	type errorSummary struct {
		msg   string
		count int
	}
	summaries := make([]errorSummary, 0, len(errorCounts))
	for msg, count := range errorCounts {
		summaries = append(summaries, errorSummary{msg, count})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].count != summaries[j].count {
			return summaries[i].count > summaries[j].count
		}
		return summaries[i].msg < summaries[j].msg
	})

	parts := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if s.count == 1 {
			parts = append(parts, fmt.Sprintf("'%s' (1 item)", s.msg))
		} else {
			parts = append(parts, fmt.Sprintf("'%s' (%d items)", s.msg, s.count))
		}
	}

	return fmt.Sprintf(
		"parallel execution failed: %d items failed with %d error types: %s",
		len(e.Errors), len(errorCounts), strings.Join(parts, ", "),
	)
}

// Unwrap returns every underlying task error so errors.Is and errors.As search
// across all failures.
func (e *ParallelError[TItem]) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, taskErr := range e.Errors {
		errs[i] = taskErr.Err
	}
	return errs
}

// ConditionalError reports a routing failure. Route is empty when the
// predicate itself failed.
type ConditionalError[TState any] struct {
	Route string
	State TState
	Err   error
}

func (e ConditionalError[TState]) Error() string {
	if e.Route == "" {
		return fmt.Sprintf("conditional routing failed: %v", e.Err)
	}
	return fmt.Sprintf("conditional routing failed for route '%s': %v", e.Route, e.Err)
}

func (e ConditionalError[TState]) Unwrap() error {
	return e.Err
}
