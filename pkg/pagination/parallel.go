package pagination

import (
	"context"
	"time"
)

// AllPagesNumberedOffsetParallel fetches a numbered-offset endpoint with a
// bounded worker pool and returns the flattened resources in offset order.
//
// The first page is fetched alone to learn the authoritative total; the
// remaining offsets are then fanned out across the pool. Offset pages have
// no ordering dependency, so completion order is irrelevant: each task
// writes its own slot in an indexed buffer that is read back in offset order
// once every task has settled. Failing tasks never abort their siblings;
// all submitted work is awaited, then a single error is returned carrying
// every task's reported error details.
func AllPagesNumberedOffsetParallel[T any](ctx context.Context, fetch PageFunc[T], cfg Config) ([]T, error) {
	cfg = cfg.withDefaults()
	start := time.Now()

	// Probe phase: one call to learn the total.
	probe, err := fetch(ctx, 0, cfg.Limit)
	if err != nil {
		return nil, err
	}
	if fatal := issues(probe, cfg); len(fatal) > 0 {
		return nil, &QueryError{Details: fatal}
	}

	total := probe.Meta.Total
	if total <= cfg.Limit {
		// Everything fit in the probe page; no fan-out needed.
		return probe.Resources, nil
	}

	numPages := (total + cfg.Limit - 1) / cfg.Limit

	cfg.Logger.Debug().
		Int("total", total).
		Int("pages", numPages).
		Int("max_workers", cfg.MaxWorkers).
		Msg("Starting parallel page fetch")

	// One slot per page, written exactly once by whichever worker fetches
	// that page, read only after the pool joins.
	slots := make([][]T, numPages)
	slots[0] = probe.Resources
	taskErrs := make([]error, numPages)

	fanOut(numPages-1, cfg.MaxWorkers, func(i int) {
		page := i + 1 // page 0 is the probe
		env, err := fetch(ctx, page*cfg.Limit, cfg.Limit)
		if err != nil {
			taskErrs[page] = err
			return
		}
		if fatal := issues(env, cfg); len(fatal) > 0 {
			taskErrs[page] = &QueryError{Details: fatal}
			return
		}
		slots[page] = env.Resources
	})

	if err := joinTaskErrors(taskErrs); err != nil {
		return nil, err
	}

	all := make([]T, 0, total)
	for _, page := range slots {
		all = append(all, page...)
	}

	cfg.Logger.Debug().
		Int("pages", numPages).
		Int("resources", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Parallel page fetch complete")

	return all, nil
}
