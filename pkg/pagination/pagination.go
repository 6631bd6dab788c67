// Package pagination implements the generic paging and fan-out engine that
// drives Falcon list endpoints to completion.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Default values applied when a Config field is left at its zero value.
const (
	// DefaultLimit is the default page size requested from the API.
	DefaultLimit = 100

	// DefaultMaxWorkers is the default worker pool size for parallel
	// paging and list execution.
	DefaultMaxWorkers = 10
)

// TokenField names the pagination metadata field that carries the next-page
// cursor. Falcon endpoints use two wire dialects with identical semantics.
type TokenField string

const (
	// TokenFieldOffset reads the cursor from the "offset" metadata field.
	TokenFieldOffset TokenField = "offset"

	// TokenFieldAfter reads the cursor from the "after" metadata field.
	TokenFieldAfter TokenField = "after"
)

// Config holds pager and executor configuration.
type Config struct {
	// Limit is the page size passed to every fetch call. Must be positive;
	// the engine never caps or adjusts it.
	Limit int

	// MaxWorkers bounds the worker pool used by the parallel pager and the
	// parallel list executor.
	MaxWorkers int

	// TokenField selects which metadata field the token pager reads the
	// next cursor from (default: "offset").
	TokenField TokenField

	// EscalateWarnings promotes warning entries embedded in a response into
	// the fatal error aggregate. When false, warnings are only logged.
	EscalateWarnings bool

	// Logger receives page progress and warning output.
	Logger zerolog.Logger
}

// DefaultConfig returns a safe default pager configuration.
func DefaultConfig() Config {
	return Config{
		Limit:      DefaultLimit,
		MaxWorkers: DefaultMaxWorkers,
		TokenField: TokenFieldOffset,
		Logger:     log.Logger,
	}
}

// withDefaults fills zero-valued fields so pagers can rely on the config.
func (c Config) withDefaults() Config {
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	if c.TokenField == "" {
		c.TokenField = TokenFieldOffset
	}
	return c
}

// Detail is one error or warning descriptor reported inside a response
// envelope, either in the top-level errors list or embedded in a resource.
type Detail struct {
	Field   string
	Message string
}

// String renders the detail as "field: message", omitting an empty field.
func (d Detail) String() string {
	if d.Field != "" {
		return d.Field + ": " + d.Message
	}
	return d.Message
}

// Tokens carries the next-page cursor under both wire dialect names.
// Exactly one of the two fields is populated by a token-paginated endpoint;
// both are empty on the final page.
type Tokens struct {
	Offset string
	After  string
}

// Get returns the cursor stored under the given field name.
func (t Tokens) Get(field TokenField) string {
	if field == TokenFieldAfter {
		return t.After
	}
	return t.Offset
}

// Meta is the pagination metadata attached to a response envelope.
type Meta struct {
	// Limit echoes the page size the server applied.
	Limit int

	// NextOffset is the next numbered offset to request. Nil means the
	// final page has been reached, regardless of what Total says.
	NextOffset *int

	// NextTokens holds the token dialects' next cursor.
	NextTokens Tokens

	// Total is the server-reported number of resources matching the
	// logical query. Stable across all pages of one query.
	Total int
}

// Envelope is the unit every fetch function returns: one page (or one
// per-item batch) of opaque resources plus the issues the server reported
// alongside them.
type Envelope[T any] struct {
	Resources []T
	Errors    []Detail
	Warnings  []Detail
	Meta      Meta
}

// PageFunc fetches one numbered-offset page. It must be safe to call
// concurrently with disjoint offsets.
type PageFunc[T any] func(ctx context.Context, offset, limit int) (*Envelope[T], error)

// TokenPageFunc fetches one token-addressed page. The engine passes the
// cursor field name through so the caller can name the request parameter to
// match the endpoint's dialect. An empty token requests the first page.
type TokenPageFunc[T any] func(ctx context.Context, field TokenField, token string, limit int) (*Envelope[T], error)

// ListFunc fetches the resources keyed by one value of a caller-supplied
// list. It must be safe to call concurrently with distinct values.
type ListFunc[T, V any] func(ctx context.Context, value V) (*Envelope[T], error)

// QueryError reports that one or more pages of a logical query carried
// server-side errors. It aggregates every failing page's descriptors.
type QueryError struct {
	Details []Detail
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	msgs := make([]string, len(e.Details))
	for i, d := range e.Details {
		msgs[i] = d.String()
	}
	return fmt.Sprintf("query returned %d error(s): %s", len(e.Details), strings.Join(msgs, "; "))
}

// issues separates an envelope's reported issues into fatal details,
// honoring the warning escalation flag. Non-escalated warnings are logged.
func issues[T any](env *Envelope[T], cfg Config) []Detail {
	var fatal []Detail
	fatal = append(fatal, env.Errors...)
	for _, w := range env.Warnings {
		if cfg.EscalateWarnings {
			fatal = append(fatal, w)
			continue
		}
		cfg.Logger.Warn().
			Str("field", w.Field).
			Msg(w.Message)
	}
	return fatal
}

// joinTaskErrors folds per-task errors into a single error after all tasks
// have settled. Envelope-level errors aggregate into one QueryError;
// transport errors propagate unchanged (joined when more than one occurred,
// and taking precedence over envelope errors).
func joinTaskErrors(taskErrs []error) error {
	var details []Detail
	var transport []error
	for _, err := range taskErrs {
		if err == nil {
			continue
		}
		var qe *QueryError
		if errors.As(err, &qe) {
			details = append(details, qe.Details...)
			continue
		}
		transport = append(transport, err)
	}
	if len(transport) > 0 {
		return errors.Join(transport...)
	}
	if len(details) > 0 {
		return &QueryError{Details: details}
	}
	return nil
}
