// Package ratelimit implements Falcon API rate limit tracking and request
// gating. It monitors the X-Ratelimit-Limit and X-Ratelimit-Remaining
// headers to back off before the API starts rejecting requests.
package ratelimit

import (
	"time"
)

// Thresholds for rate limit decisions, as fractions of the reported limit.
const (
	// CriticalFraction blocks all requests when the remaining budget falls
	// below this share of the limit.
	CriticalFraction = 0.02

	// WarningFraction applies throttling when the remaining budget falls
	// below this share of the limit.
	WarningFraction = 0.10

	// HealthyFraction indicates normal operation when the remaining budget
	// is at or above this share of the limit.
	HealthyFraction = 0.25
)

// StateMaxAge is how long tracked state is trusted before it is considered
// stale and replaced with a healthy default.
const StateMaxAge = 60 * time.Second

// State represents the most recently observed Falcon rate limit state.
type State struct {
	// Limit is the request budget of the current window, from the
	// X-Ratelimit-Limit header.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the current window, from
	// the X-Ratelimit-Remaining header.
	Remaining int `json:"remaining"`

	// LastUpdate is when this state was last refreshed from headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy indicates whether the remaining budget is comfortably
	// above the warning threshold.
	IsHealthy bool `json:"is_healthy"`
}

// DefaultState returns a healthy state used before any headers have been seen.
func DefaultState() *State {
	return &State{
		Limit:      0,
		Remaining:  0,
		LastUpdate: time.Now(),
		IsHealthy:  true,
	}
}

// IsStale returns true if the state is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// remainingFraction returns the remaining budget as a share of the limit.
func (s *State) remainingFraction() float64 {
	if s.Limit <= 0 {
		// No limit observed yet: assume healthy.
		return 1
	}
	return float64(s.Remaining) / float64(s.Limit)
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *State) NeedsCriticalBlock() bool {
	return s.remainingFraction() < CriticalFraction
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.remainingFraction() < WarningFraction && !s.NeedsCriticalBlock()
}

// UpdateHealth updates the IsHealthy field from the current budget.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.remainingFraction() >= HealthyFraction
}
