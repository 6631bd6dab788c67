package pagination

import (
	"context"
	"time"
)

// AllPagesTokenOffset walks a token-addressed endpoint and returns the
// flattened resources in traversal order. cfg.TokenField selects whether
// the cursor lives in the "offset" or "after" metadata field; the same
// field name is passed to fetch so it can name the request parameter.
//
// This pager is sequential by construction: the next page's address is an
// opaque cursor that is only known once the current page returns. The walk
// ends exactly when a response reports an empty cursor.
func AllPagesTokenOffset[T any](ctx context.Context, fetch TokenPageFunc[T], cfg Config) ([]T, error) {
	cfg = cfg.withDefaults()
	start := time.Now()

	var all []T
	token := ""
	pages := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		env, err := fetch(ctx, cfg.TokenField, token, cfg.Limit)
		if err != nil {
			return nil, err
		}
		if fatal := issues(env, cfg); len(fatal) > 0 {
			return nil, &QueryError{Details: fatal}
		}

		all = append(all, env.Resources...)
		pages++

		cfg.Logger.Debug().
			Int("collected", len(all)).
			Int("total", env.Meta.Total).
			Msg("Fetched token page")

		token = env.Meta.NextTokens.Get(cfg.TokenField)
		if token == "" {
			break
		}
	}

	cfg.Logger.Debug().
		Int("pages", pages).
		Int("resources", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Token page walk complete")

	return all, nil
}
