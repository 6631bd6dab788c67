// Package ioc provides the logic to interact with the Falcon IOC API:
// searching, fetching, creating, updating and deleting indicators of
// compromise within a tenant.
package ioc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hur/caracara/pkg/falcon"
	"github.com/hur/caracara/pkg/pagination"
)

// IOC API endpoints.
const (
	searchEndpoint  = "/iocs/queries/indicators/v1"
	entityEndpoint  = "/iocs/entities/indicators/v1"
	actionsEndpoint = "/iocs/entities/actions/v1"
)

// Config holds the IOC module configuration.
type Config struct {
	// PageLimit is the page size used when searching indicator IDs.
	PageLimit int

	// MaxWorkers bounds the worker pool for parallel search and lookup.
	MaxWorkers int

	// BatchSize is the number of IDs resolved per entity lookup call.
	BatchSize int

	// EscalateWarnings promotes API warnings into hard failures. When
	// false, warnings are logged and the operation proceeds.
	EscalateWarnings bool
}

// DefaultConfig returns a safe default module configuration.
func DefaultConfig() Config {
	return Config{
		PageLimit:  500,
		MaxWorkers: pagination.DefaultMaxWorkers,
		BatchSize:  100,
	}
}

// Module drives the Falcon IOC API.
type Module struct {
	client *falcon.Client
	config Config
	logger zerolog.Logger

	mu      sync.Mutex
	actions map[string]Action
}

// New creates an IOC module on top of a Falcon client.
func New(client *falcon.Client, cfg Config) *Module {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 500
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = pagination.DefaultMaxWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Module{
		client: client,
		config: cfg,
		logger: log.With().Str("component", "ioc").Logger(),
	}
}

// pagerConfig maps the module configuration onto the pagination engine's.
func (m *Module) pagerConfig() pagination.Config {
	return pagination.Config{
		Limit:            m.config.PageLimit,
		MaxWorkers:       m.config.MaxWorkers,
		EscalateWarnings: m.config.EscalateWarnings,
		Logger:           m.logger,
	}
}

// MutateOptions control create, update and delete calls.
type MutateOptions struct {
	// Comment is recorded in the tenant's audit log.
	Comment string

	// Retrodetects submits created indicators for retroactive detection.
	Retrodetects bool

	// EscalateWarnings makes the API reject the batch on warnings instead
	// of proceeding. Maps to the wire parameter ignore_warnings, inverted.
	EscalateWarnings bool
}

// mutateQuery renders the options as query parameters.
func (o MutateOptions) mutateQuery() url.Values {
	return url.Values{
		"retrodetects":    {strconv.FormatBool(o.Retrodetects)},
		"ignore_warnings": {strconv.FormatBool(!o.EscalateWarnings)},
	}
}

// SearchIndicatorIDs returns the IDs of every indicator matching the
// filter, using the parallel numbered-offset pager. An empty filter matches
// all indicators in the tenant.
func (m *Module) SearchIndicatorIDs(ctx context.Context, filter *Filter) ([]string, error) {
	m.logger.Info().Str("filter", filter.FQL()).Msg("Searching Falcon IOCs")

	fetch := func(ctx context.Context, offset, limit int) (*pagination.Envelope[string], error) {
		query := url.Values{
			"offset": {strconv.Itoa(offset)},
			"limit":  {strconv.Itoa(limit)},
		}
		if !filter.Empty() {
			query.Set("filter", filter.FQL())
		}
		resp, err := m.client.Get(ctx, searchEndpoint, query)
		if err != nil {
			return nil, err
		}
		return falcon.ToEnvelope[string](resp)
	}

	return pagination.AllPagesNumberedOffsetParallel(ctx, fetch, m.pagerConfig())
}

// SearchIndicatorIDsDeep walks the search endpoint with its "after" cursor
// dialect. The cursor survives past the numbered pagination depth cap, at
// the cost of strictly sequential page fetches.
func (m *Module) SearchIndicatorIDsDeep(ctx context.Context, filter *Filter) ([]string, error) {
	m.logger.Info().Str("filter", filter.FQL()).Msg("Searching Falcon IOCs by cursor")

	fetch := func(ctx context.Context, field pagination.TokenField, token string, limit int) (*pagination.Envelope[string], error) {
		query := url.Values{
			"limit": {strconv.Itoa(limit)},
		}
		if token != "" {
			query.Set(string(field), token)
		}
		if !filter.Empty() {
			query.Set("filter", filter.FQL())
		}
		resp, err := m.client.Get(ctx, searchEndpoint, query)
		if err != nil {
			return nil, err
		}
		return falcon.ToEnvelope[string](resp)
	}

	cfg := m.pagerConfig()
	cfg.TokenField = pagination.TokenFieldAfter
	return pagination.AllPagesTokenOffset(ctx, fetch, cfg)
}

// GetIndicators resolves indicator IDs into full indicators, fanning the
// entity lookups out in ID batches. Output order follows the input IDs.
func (m *Module) GetIndicators(ctx context.Context, ids []string) ([]Indicator, error) {
	fetch := func(ctx context.Context, batch []string) (*pagination.Envelope[Indicator], error) {
		query := url.Values{"ids": batch}
		resp, err := m.client.Get(ctx, entityEndpoint, query)
		if err != nil {
			return nil, err
		}
		return falcon.ToEnvelope[Indicator](resp)
	}

	return pagination.ParallelListExecution(ctx, fetch, batches(ids, m.config.BatchSize), m.pagerConfig())
}

// DescribeIndicators returns every indicator matching the filter.
// ErrNoIndicators is returned when nothing matched.
func (m *Module) DescribeIndicators(ctx context.Context, filter *Filter) ([]Indicator, error) {
	ids, err := m.SearchIndicatorIDs(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoIndicators
	}
	return m.GetIndicators(ctx, ids)
}

// Create creates one indicator and returns it as stored by the cloud.
// ErrNoIndicators is returned when the cloud reports success without an
// indicator resource.
func (m *Module) Create(ctx context.Context, indicator Indicator, opts MutateOptions) (Indicator, error) {
	created, err := m.CreateBatch(ctx, []Indicator{indicator}, opts)
	if err != nil {
		return Indicator{}, err
	}
	if len(created) == 0 {
		return Indicator{}, fmt.Errorf("create returned no indicator: %w", ErrNoIndicators)
	}
	return created[0], nil
}

// CreateBatch creates a collection of indicators in one call.
func (m *Module) CreateBatch(ctx context.Context, indicators []Indicator, opts MutateOptions) ([]Indicator, error) {
	payload := struct {
		Comment    string             `json:"comment,omitempty"`
		Indicators []indicatorRequest `json:"indicators"`
	}{
		Comment:    opts.Comment,
		Indicators: requestPayloads(indicators),
	}

	resp, err := m.client.Post(ctx, entityEndpoint, opts.mutateQuery(), payload)
	if err != nil {
		return nil, err
	}
	return m.envelopeResources(resp)
}

// Update pushes one indicator's modifiable fields to the cloud.
// ErrNoIndicators is returned when the cloud reports success without an
// indicator resource.
func (m *Module) Update(ctx context.Context, indicator Indicator, opts MutateOptions) (Indicator, error) {
	updated, err := m.UpdateBatch(ctx, []Indicator{indicator}, opts)
	if err != nil {
		return Indicator{}, err
	}
	if len(updated) == 0 {
		return Indicator{}, fmt.Errorf("update returned no indicator: %w", ErrNoIndicators)
	}
	return updated[0], nil
}

// UpdateBatch updates a collection of indicators in one call.
func (m *Module) UpdateBatch(ctx context.Context, indicators []Indicator, opts MutateOptions) ([]Indicator, error) {
	payload := struct {
		Comment    string             `json:"comment,omitempty"`
		Indicators []indicatorRequest `json:"indicators"`
	}{
		Comment:    opts.Comment,
		Indicators: requestPayloads(indicators),
	}

	resp, err := m.client.Patch(ctx, entityEndpoint, opts.mutateQuery(), payload)
	if err != nil {
		return nil, err
	}
	return m.envelopeResources(resp)
}

// Delete deletes one indicator by ID and returns the deleted ID.
func (m *Module) Delete(ctx context.Context, id, comment string) (string, error) {
	deleted, err := m.DeleteBatch(ctx, []string{id}, comment)
	if err != nil {
		return "", err
	}
	return deleted[0], nil
}

// DeleteBatch deletes a collection of indicators by ID and returns the IDs
// the cloud confirmed as deleted. ErrNoIndicators is returned when the
// cloud reports nothing was deleted.
func (m *Module) DeleteBatch(ctx context.Context, ids []string, comment string) ([]string, error) {
	query := url.Values{
		"ids":         ids,
		"from_parent": {"false"},
	}
	if comment != "" {
		query.Set("comment", comment)
	}

	resp, err := m.client.Delete(ctx, entityEndpoint, query)
	if err != nil {
		return nil, err
	}

	env, err := falcon.ToEnvelope[string](resp)
	if err != nil {
		return nil, err
	}
	deleted, err := checkEnvelope(env, m.config.EscalateWarnings, m.logger)
	if err != nil {
		return nil, err
	}
	if len(deleted) == 0 {
		return nil, ErrNoIndicators
	}
	return deleted, nil
}

// DeleteByFilter deletes every indicator matching the filter. An empty
// filter is rejected so a missing filter cannot wipe the tenant.
func (m *Module) DeleteByFilter(ctx context.Context, filter *Filter, comment string) ([]string, error) {
	if filter.Empty() {
		return nil, ErrMustProvideFilter
	}

	ids, err := m.SearchIndicatorIDs(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoIndicators
	}

	return m.DeleteBatch(ctx, ids, comment)
}

// Actions returns the valid IOC action types, cached after the first call.
// The actions endpoint reports an action id "none" that every other
// endpoint spells "no_action"; it is normalized here.
func (m *Module) Actions(ctx context.Context) (map[string]Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.actions != nil {
		return m.actions, nil
	}

	resp, err := m.client.Get(ctx, actionsEndpoint, nil)
	if err != nil {
		return nil, err
	}

	env, err := falcon.ToEnvelope[Action](resp)
	if err != nil {
		return nil, err
	}
	list, err := checkEnvelope(env, m.config.EscalateWarnings, m.logger)
	if err != nil {
		return nil, err
	}

	actions := make(map[string]Action, len(list))
	for _, action := range list {
		if action.ID == "none" {
			action.ID = "no_action"
		}
		actions[action.ID] = action
	}
	m.actions = actions
	return actions, nil
}

// envelopeResources validates a mutation reply and decodes its indicators.
func (m *Module) envelopeResources(resp *falcon.Response) ([]Indicator, error) {
	env, err := falcon.ToEnvelope[Indicator](resp)
	if err != nil {
		return nil, err
	}
	return checkEnvelope(env, m.config.EscalateWarnings, m.logger)
}

// checkEnvelope applies the engine's failure policy to a single-call
// envelope: top-level and embedded errors are fatal, warnings are logged
// unless escalated.
func checkEnvelope[T any](env *pagination.Envelope[T], escalate bool, logger zerolog.Logger) ([]T, error) {
	fatal := append([]pagination.Detail(nil), env.Errors...)
	for _, w := range env.Warnings {
		if escalate {
			fatal = append(fatal, w)
			continue
		}
		logger.Warn().Str("field", w.Field).Msg(w.Message)
	}
	if len(fatal) > 0 {
		return nil, &pagination.QueryError{Details: fatal}
	}
	return env.Resources, nil
}

// requestPayloads maps indicators onto their client-modifiable fields.
func requestPayloads(indicators []Indicator) []indicatorRequest {
	payloads := make([]indicatorRequest, len(indicators))
	for i, indicator := range indicators {
		payloads[i] = indicator.requestPayload()
	}
	return payloads
}

// batches splits ids into chunks of at most size elements.
func batches(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
