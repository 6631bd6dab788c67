package pagination

import (
	"context"
	"time"
)

// AllPagesNumberedOffset walks a numbered-offset endpoint sequentially and
// returns the flattened resources of every page, in offset order.
//
// Termination is by cumulative count against the server-reported total, so
// limits that do not evenly divide the total need no special handling. A
// response without a next offset ends the walk even if the total accounting
// disagrees: absence of a next offset is authoritative, total is a hint.
func AllPagesNumberedOffset[T any](ctx context.Context, fetch PageFunc[T], cfg Config) ([]T, error) {
	cfg = cfg.withDefaults()
	start := time.Now()

	var all []T
	offset := 0
	pages := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		env, err := fetch(ctx, offset, cfg.Limit)
		if err != nil {
			return nil, err
		}
		if fatal := issues(env, cfg); len(fatal) > 0 {
			return nil, &QueryError{Details: fatal}
		}

		all = append(all, env.Resources...)
		pages++

		cfg.Logger.Debug().
			Int("offset", offset).
			Int("collected", len(all)).
			Int("total", env.Meta.Total).
			Msg("Fetched page")

		if env.Meta.NextOffset == nil {
			break
		}
		if len(all) >= env.Meta.Total {
			break
		}
		offset = *env.Meta.NextOffset
	}

	cfg.Logger.Debug().
		Int("pages", pages).
		Int("resources", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Serial page walk complete")

	return all, nil
}
