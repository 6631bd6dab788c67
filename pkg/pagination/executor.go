package pagination

import (
	"context"
	"time"
)

// ParallelListExecution invokes fetch once per element of values on a
// bounded worker pool and returns the flattened resources in input order.
//
// This exists for endpoints that are keyed per entity rather than
// paginated, such as fetching N individually-addressed objects. The engine
// treats values opaquely; binding a value to the right wire parameter is
// the fetch function's job. Output order matches input order regardless of
// completion order, and the failure policy matches the parallel pager: all
// tasks settle first, then one error carrying every failure is returned.
func ParallelListExecution[T, V any](ctx context.Context, fetch ListFunc[T, V], values []V, cfg Config) ([]T, error) {
	cfg = cfg.withDefaults()
	if len(values) == 0 {
		return nil, nil
	}
	start := time.Now()

	cfg.Logger.Debug().
		Int("values", len(values)).
		Int("max_workers", cfg.MaxWorkers).
		Msg("Starting parallel list execution")

	slots := make([][]T, len(values))
	taskErrs := make([]error, len(values))

	fanOut(len(values), cfg.MaxWorkers, func(i int) {
		env, err := fetch(ctx, values[i])
		if err != nil {
			taskErrs[i] = err
			return
		}
		if fatal := issues(env, cfg); len(fatal) > 0 {
			taskErrs[i] = &QueryError{Details: fatal}
			return
		}
		slots[i] = env.Resources
	})

	if err := joinTaskErrors(taskErrs); err != nil {
		return nil, err
	}

	var all []T
	for _, out := range slots {
		all = append(all, out...)
	}

	cfg.Logger.Debug().
		Int("values", len(values)).
		Int("resources", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Parallel list execution complete")

	return all, nil
}
