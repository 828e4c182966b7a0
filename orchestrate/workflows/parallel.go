package workflows

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/tailored-agentic-units/fleetcare/observability"
	"github.com/tailored-agentic-units/fleetcare/orchestrate/config"
)

// TaskProcessor handles one item independently of the others. Fleet scans use
// it to run a full pipeline per vehicle, each with its own access monitor.
type TaskProcessor[TItem, TResult any] func(
	ctx context.Context,
	item TItem,
) (TResult, error)

type indexedItem[TItem any] struct {
	index int
	item  TItem
}

type indexedResult[TResult any] struct {
	index  int
	result TResult
	err    error
}

// ProcessParallel runs processor over items with a bounded worker pool and
// returns results in original item order.
//
// With FailFast the first failure cancels the remaining work and returns a
// *ParallelError. Without it every item is attempted and an error is returned
// only when all items failed; partial failures are listed in Errors.
func ProcessParallel[TItem, TResult any](
	ctx context.Context,
	cfg config.ParallelConfig,
	items []TItem,
	processor TaskProcessor[TItem, TResult],
	progress ProgressFunc[TResult],
) (ParallelResult[TItem, TResult], error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return ParallelResult[TItem, TResult]{}, fmt.Errorf("failed to resolve observer: %w", err)
	}

	workerCount := 0
	if len(items) > 0 {
		workerCount = calculateWorkerCount(cfg.MaxWorkers, cfg.WorkerCap, len(items))
	}

	observability.Emit(ctx, observer, observability.Event{
		Type:   EventParallelStart,
		Level:  observability.LevelInfo,
		Source: "workflows.ProcessParallel",
		Data: map[string]any{
			"item_count":            len(items),
			"worker_count":          workerCount,
			"fail_fast":             cfg.FailFast(),
			"has_progress_callback": progress != nil,
		},
	})

	complete := func(result ParallelResult[TItem, TResult], failed bool) {
		level := observability.LevelInfo
		if failed {
			level = observability.LevelWarning
		}
		observability.Emit(ctx, observer, observability.Event{
			Type:   EventParallelComplete,
			Level:  level,
			Source: "workflows.ProcessParallel",
			Data: map[string]any{
				"items_processed": len(result.Results),
				"items_failed":    len(result.Errors),
				"error":           failed,
			},
		})
	}

	if len(items) == 0 {
		result := ParallelResult[TItem, TResult]{
			Results: []TResult{},
			Errors:  []TaskError[TItem]{},
		}
		complete(result, false)
		return result, nil
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workQueue := make(chan indexedItem[TItem], len(items))
	resultChannel := make(chan indexedResult[TResult], len(items))

	for i, item := range items {
		workQueue <- indexedItem[TItem]{index: i, item: item}
	}
	close(workQueue)

	var wg sync.WaitGroup
	var completed atomic.Int32
	failFast := cfg.FailFast()

	for id := range workerCount {
		wg.Go(func() {
			for {
				select {
				case <-workCtx.Done():
					return
				case work, ok := <-workQueue:
					if !ok {
						return
					}
					observability.Emit(workCtx, observer, observability.Event{
						Type:   EventWorkerStart,
						Level:  observability.LevelVerbose,
						Source: "workflows.ProcessParallel",
						Data:   map[string]any{"worker_id": id, "item_index": work.index},
					})

					res, err := processor(workCtx, work.item)
					resultChannel <- indexedResult[TResult]{index: work.index, result: res, err: err}

					observability.Emit(workCtx, observer, observability.Event{
						Type:   EventWorkerComplete,
						Level:  observability.LevelVerbose,
						Source: "workflows.ProcessParallel",
						Data:   map[string]any{"worker_id": id, "item_index": work.index, "error": err != nil},
					})

					if err != nil {
						if failFast {
							cancel()
							return
						}
						continue
					}
					if progress != nil {
						progress(int(completed.Add(1)), len(items), res)
					}
				}
			}
		})
	}

	wg.Wait()
	close(resultChannel)

	result := collectResults(resultChannel, items)

	if err := ctx.Err(); err != nil {
		complete(result, true)
		return result, fmt.Errorf("parallel execution cancelled: %w", err)
	}

	if len(result.Errors) > 0 && (failFast || len(result.Results) == 0) {
		complete(result, true)
		return result, &ParallelError[TItem]{Errors: result.Errors}
	}

	complete(result, false)
	return result, nil
}

func calculateWorkerCount(maxWorkers, workerCap, itemCount int) int {
	if maxWorkers > 0 {
		return maxWorkers
	}
	if workerCap <= 0 {
		workerCap = runtime.NumCPU() * 2
	}

	workers := min(runtime.NumCPU()*2, workerCap, itemCount)
	if workers <= 0 {
		workers = 1
	}
	return workers
}

func collectResults[TItem, TResult any](
	resultChannel <-chan indexedResult[TResult],
	items []TItem,
) ParallelResult[TItem, TResult] {
	byIndex := make(map[int]indexedResult[TResult], len(items))
	for r := range resultChannel {
		byIndex[r.index] = r
	}

	result := ParallelResult[TItem, TResult]{
		Results: make([]TResult, 0, len(byIndex)),
		Errors:  []TaskError[TItem]{},
	}
	for i := range items {
		r, ok := byIndex[i]
		if !ok {
			continue
		}
		if r.err != nil {
			result.Errors = append(result.Errors, TaskError[TItem]{Index: i, Item: items[i], Err: r.err})
			continue
		}
		result.Results = append(result.Results, r.result)
	}
	return result
}
