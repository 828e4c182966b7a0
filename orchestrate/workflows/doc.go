// Package workflows provides the generic execution patterns used across the
// fleet maintenance service.
//
// # Sequential Chain
//
// ProcessChain folds items into an accumulated state one at a time and stops
// on the first error. The maintenance pipeline runs its six agent stages this
// way, each stage reading the results of the stages before it:
//
//	result, err := workflows.ProcessChain(ctx, cfg.Chain, stages, pipeline.Result{}, runStage, nil)
//
// # Parallel Execution
//
// ProcessParallel runs independent items through a bounded worker pool and
// returns results in input order. Fleet scans run one pipeline per vehicle:
//
//	result, err := workflows.ProcessParallel(ctx, cfg.Parallel, vehicles, analyzeVehicle, nil)
//
// With fail-fast disabled, partial failures land in ParallelResult.Errors and
// only a run where every item failed returns an error.
//
// # Conditional Routing
//
// ProcessConditional evaluates a predicate once and dispatches to exactly one
// handler. The dashboard assistant routes classified intents this way.
//
// All three patterns resolve their observer by name from the observability
// registry and emit start/complete events through it.
package workflows
