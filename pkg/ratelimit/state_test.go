package ratelimit

import (
	"testing"
	"time"
)

func TestState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *State
		maxAge   time.Duration
		expected bool
	}{
		{
			name: "fresh state",
			state: &State{
				LastUpdate: time.Now(),
			},
			maxAge:   time.Minute,
			expected: false,
		},
		{
			name: "stale state",
			state: &State{
				LastUpdate: time.Now().Add(-10 * time.Minute),
			},
			maxAge:   time.Minute,
			expected: true,
		},
		{
			name: "just under max age",
			state: &State{
				LastUpdate: time.Now().Add(-50 * time.Second),
			},
			maxAge:   time.Minute,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.state.IsStale(tt.maxAge)
			if result != tt.expected {
				t.Errorf("IsStale() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestState_NeedsCriticalBlock(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		remaining int
		expected  bool
	}{
		{
			name:      "well above critical threshold",
			limit:     6000,
			remaining: 3000,
			expected:  false,
		},
		{
			name:      "at critical threshold",
			limit:     6000,
			remaining: 120, // exactly 2%
			expected:  false,
		},
		{
			name:      "just below critical threshold",
			limit:     6000,
			remaining: 119,
			expected:  true,
		},
		{
			name:      "zero remaining",
			limit:     6000,
			remaining: 0,
			expected:  true,
		},
		{
			name:      "no limit observed yet",
			limit:     0,
			remaining: 0,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{Limit: tt.limit, Remaining: tt.remaining}
			result := state.NeedsCriticalBlock()
			if result != tt.expected {
				t.Errorf("NeedsCriticalBlock() = %v, want %v (remaining=%d/%d)", result, tt.expected, tt.remaining, tt.limit)
			}
		})
	}
}

func TestState_NeedsThrottling(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		remaining int
		expected  bool
	}{
		{
			name:      "healthy state",
			limit:     6000,
			remaining: 3000,
			expected:  false,
		},
		{
			name:      "at warning threshold",
			limit:     6000,
			remaining: 600, // exactly 10%
			expected:  false,
		},
		{
			name:      "just below warning threshold",
			limit:     6000,
			remaining: 599,
			expected:  true,
		},
		{
			name:      "just above critical threshold",
			limit:     6000,
			remaining: 121,
			expected:  true,
		},
		{
			name:      "below critical threshold",
			limit:     6000,
			remaining: 50,
			expected:  false, // critical blocks, not throttles
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{Limit: tt.limit, Remaining: tt.remaining}
			result := state.NeedsThrottling()
			if result != tt.expected {
				t.Errorf("NeedsThrottling() = %v, want %v (remaining=%d/%d)", result, tt.expected, tt.remaining, tt.limit)
			}
		})
	}
}

func TestState_UpdateHealth(t *testing.T) {
	tests := []struct {
		name            string
		limit           int
		remaining       int
		expectedHealthy bool
	}{
		{
			name:            "full budget",
			limit:           6000,
			remaining:       6000,
			expectedHealthy: true,
		},
		{
			name:            "at healthy threshold",
			limit:           6000,
			remaining:       1500, // exactly 25%
			expectedHealthy: true,
		},
		{
			name:            "just below healthy threshold",
			limit:           6000,
			remaining:       1499,
			expectedHealthy: false,
		},
		{
			name:            "warning state",
			limit:           6000,
			remaining:       300,
			expectedHealthy: false,
		},
		{
			name:            "no limit observed yet",
			limit:           0,
			remaining:       0,
			expectedHealthy: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{
				Limit:     tt.limit,
				Remaining: tt.remaining,
				IsHealthy: false, // start as unhealthy
			}
			state.UpdateHealth()

			if state.IsHealthy != tt.expectedHealthy {
				t.Errorf("UpdateHealth() set IsHealthy = %v, want %v (remaining=%d/%d)",
					state.IsHealthy, tt.expectedHealthy, tt.remaining, tt.limit)
			}
		})
	}
}

func TestThresholdConstants(t *testing.T) {
	// Verify threshold ordering
	if CriticalFraction >= WarningFraction {
		t.Errorf("CriticalFraction (%v) must be less than WarningFraction (%v)",
			CriticalFraction, WarningFraction)
	}

	if WarningFraction >= HealthyFraction {
		t.Errorf("WarningFraction (%v) must be less than HealthyFraction (%v)",
			WarningFraction, HealthyFraction)
	}
}
