package workflows

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/fleetcare/observability"
	"github.com/tailored-agentic-units/fleetcare/orchestrate/config"
)

// StepProcessor processes a single item and returns the updated accumulated
// state. The maintenance pipeline uses it with one item per agent stage and
// the composite result as state:
//
//	processor := func(ctx context.Context, s Stage, acc Result) (Result, error) {
//	    return s.Run(ctx, acc)
//	}
type StepProcessor[TItem, TContext any] func(
	ctx context.Context,
	item TItem,
	state TContext,
) (TContext, error)

// ChainResult contains the results of chain execution.
//
// Final holds the state after the last completed step (the initial state when
// the first step fails). Intermediate is only populated when
// ChainConfig.CaptureIntermediateStates is true: index 0 is the initial state,
// index N the state after step N.
type ChainResult[TContext any] struct {
	Final        TContext
	Intermediate []TContext
	Steps        int
}

// ProcessChain folds items into state strictly in order. Each step starts only
// after the previous one returned; the first error stops the chain (fail-fast)
// and no later step runs. Context cancellation is checked before each step.
//
// Events: EventChainStart, EventStepStart and EventStepComplete per item,
// EventChainComplete. Failures are wrapped in *ChainError with the step index,
// the item, and the state at the failure point.
//
// An empty items slice returns the initial state with Steps = 0.
func ProcessChain[TItem, TContext any](
	ctx context.Context,
	cfg config.ChainConfig,
	items []TItem,
	initial TContext,
	processor StepProcessor[TItem, TContext],
	progress ProgressFunc[TContext],
) (ChainResult[TContext], error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return ChainResult[TContext]{}, fmt.Errorf("failed to resolve observer: %w", err)
	}

	emit := func(t observability.EventType, level observability.Level, data map[string]any) {
		observability.Emit(ctx, observer, observability.Event{
			Type:   t,
			Level:  level,
			Source: "workflows.ProcessChain",
			Data:   data,
		})
	}

	result := ChainResult[TContext]{Final: initial}

	emit(EventChainStart, observability.LevelVerbose, map[string]any{
		"item_count":            len(items),
		"has_progress_callback": progress != nil,
		"capture_intermediate":  cfg.CaptureIntermediateStates,
	})

	if cfg.CaptureIntermediateStates {
		result.Intermediate = make([]TContext, 0, len(items)+1)
		result.Intermediate = append(result.Intermediate, initial)
	}

	state := initial

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			emit(EventChainComplete, observability.LevelWarning, map[string]any{
				"steps_completed": i,
				"error":           true,
				"error_type":      "cancellation",
			})
			return result, &ChainError[TItem, TContext]{
				StepIndex: i,
				Item:      item,
				State:     state,
				Err:       fmt.Errorf("processing cancelled: %w", err),
			}
		}

		emit(EventStepStart, observability.LevelVerbose, map[string]any{
			"step_index":  i,
			"total_steps": len(items),
		})

		updated, err := processor(ctx, item, state)
		if err != nil {
			emit(EventStepComplete, observability.LevelWarning, map[string]any{
				"step_index":  i,
				"total_steps": len(items),
				"error":       true,
			})
			emit(EventChainComplete, observability.LevelWarning, map[string]any{
				"steps_completed": i,
				"error":           true,
				"error_type":      "processor",
			})
			return result, &ChainError[TItem, TContext]{
				StepIndex: i,
				Item:      item,
				State:     state,
				Err:       err,
			}
		}

		state = updated
		result.Final = state
		result.Steps = i + 1

		if cfg.CaptureIntermediateStates {
			result.Intermediate = append(result.Intermediate, state)
		}

		emit(EventStepComplete, observability.LevelVerbose, map[string]any{
			"step_index":  i,
			"total_steps": len(items),
			"error":       false,
		})

		if progress != nil {
			progress(i+1, len(items), state)
		}
	}

	emit(EventChainComplete, observability.LevelVerbose, map[string]any{
		"steps_completed": len(items),
		"error":           false,
	})

	return result, nil
}
