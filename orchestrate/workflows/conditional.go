package workflows

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/fleetcare/observability"
	"github.com/tailored-agentic-units/fleetcare/orchestrate/config"
)

// RoutePredicate picks a route name from the state. The assistant uses it to
// turn classified intents into route keys.
type RoutePredicate[TState any] func(state TState) (route string, err error)

type RouteHandler[TState any] func(
	ctx context.Context,
	state TState,
) (TState, error)

// Routes maps route names to handlers. Default handles any name without an
// entry; a nil Default makes unknown routes an error.
type Routes[TState any] struct {
	Handlers map[string]RouteHandler[TState]
	Default  RouteHandler[TState]
}

// ProcessConditional evaluates predicate once and runs exactly one handler.
func ProcessConditional[TState any](
	ctx context.Context,
	cfg config.ConditionalConfig,
	state TState,
	predicate RoutePredicate[TState],
	routes Routes[TState],
) (TState, error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return state, ConditionalError[TState]{
			State: state,
			Err:   fmt.Errorf("failed to get observer: %w", err),
		}
	}

	if err := ctx.Err(); err != nil {
		return state, ConditionalError[TState]{
			State: state,
			Err:   fmt.Errorf("context cancelled before evaluation: %w", err),
		}
	}

	observability.Emit(ctx, observer, observability.Event{
		Type:   EventRouteEvaluate,
		Level:  observability.LevelVerbose,
		Source: "workflows.ProcessConditional",
		Data: map[string]any{
			"route_count": len(routes.Handlers),
		},
	})

	route, err := predicate(state)
	if err != nil {
		return state, ConditionalError[TState]{
			State: state,
			Err:   fmt.Errorf("predicate evaluation failed: %w", err),
		}
	}

	handler, found := routes.Handlers[route]
	if !found {
		if routes.Default == nil {
			return state, ConditionalError[TState]{
				Route: route,
				State: state,
				Err:   fmt.Errorf("route '%s' not found and no default handler", route),
			}
		}
		handler = routes.Default
		route = "default"
	}

	observability.Emit(ctx, observer, observability.Event{
		Type:   EventRouteSelect,
		Level:  observability.LevelVerbose,
		Source: "workflows.ProcessConditional",
		Data: map[string]any{
			"route":       route,
			"has_default": routes.Default != nil,
		},
	})

	result, err := handler(ctx, state)
	if err != nil {
		return state, ConditionalError[TState]{
			Route: route,
			State: state,
			Err:   fmt.Errorf("handler execution failed: %w", err),
		}
	}

	observability.Emit(ctx, observer, observability.Event{
		Type:   EventRouteExecute,
		Level:  observability.LevelVerbose,
		Source: "workflows.ProcessConditional",
		Data: map[string]any{
			"route": route,
			"error": false,
		},
	})

	return result, nil
}
