package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	falconRateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "falcon_rate_limit_remaining",
		Help: "Requests remaining in the current Falcon rate limit window",
	})

	falconRateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "falcon_rate_limit_blocks_total",
		Help: "Total number of requests blocked due to critical rate limit state",
	})

	falconRateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "falcon_rate_limit_throttles_total",
		Help: "Total number of requests throttled due to low remaining budget",
	})
)

// throttleDelay is the pause applied to requests while in the warning band.
const throttleDelay = 1 * time.Second

// Tracker monitors Falcon rate limit headers and gates requests.
type Tracker struct {
	store  Store
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker on top of the given store.
func NewTracker(store Store, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger,
	}
}

// GetState retrieves the current rate limit state. Missing or stale state
// yields a default healthy state: old observations must not keep blocking
// requests after the window has long rolled over.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	state, err := t.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}
	if state == nil || state.IsStale(StateMaxAge) {
		t.logger.Debug().Msg("No fresh rate limit state, returning default healthy state")
		return DefaultState(), nil
	}
	state.UpdateHealth()
	return state, nil
}

// UpdateFromHeaders parses the Falcon rate limit headers and stores the
// observed state. Replies without the headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	limitStr := headers.Get("X-Ratelimit-Limit")
	remainStr := headers.Get("X-Ratelimit-Remaining")
	if limitStr == "" || remainStr == "" {
		return nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return fmt.Errorf("parse X-Ratelimit-Limit header: %w", err)
	}
	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse X-Ratelimit-Remaining header: %w", err)
	}

	state := &State{
		Limit:      limit,
		Remaining:  remain,
		LastUpdate: time.Now(),
	}
	state.UpdateHealth()

	if err := t.store.Set(ctx, state); err != nil {
		return err
	}

	falconRateLimitRemaining.Set(float64(remain))

	logEvent := t.logger.Debug().
		Int("limit", limit).
		Int("remaining", remain).
		Bool("is_healthy", state.IsHealthy)

	if state.NeedsCriticalBlock() {
		logEvent = t.logger.Error().Int("limit", limit).Int("remaining", remain)
		logEvent.Msg("Falcon rate limit CRITICAL - requests will be blocked")
	} else if state.NeedsThrottling() {
		logEvent = t.logger.Warn().Int("limit", limit).Int("remaining", remain)
		logEvent.Msg("Falcon rate limit WARNING - requests will be throttled")
	} else {
		logEvent.Msg("Falcon rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be allowed based on the
// current rate limit state. Returns false when the budget is critically
// low; in the warning band it sleeps briefly and then allows the request.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, err
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Int("limit", state.Limit).
			Msg("Falcon rate limit critical - blocking request")

		falconRateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Int("limit", state.Limit).
			Msg("Falcon rate limit warning - throttling request")

		falconRateLimitThrottlesTotal.Inc()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(throttleDelay):
		}
	}

	return true, nil
}
