package workflows

// ProgressFunc is called after each successful step (chains) or item
// (parallel runs). It is not called before the first step or on failure.
// completed is 1-indexed.
type ProgressFunc[TContext any] func(
	completed int,
	total int,
	state TContext,
)
