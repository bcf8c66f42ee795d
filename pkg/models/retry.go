package models

import "time"

// BackoffStrategy names the delay curve applied between retry attempts.
type BackoffStrategy string

const (
	BackoffFixed       BackoffStrategy = "fixed"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy is a value object describing retry behavior for one step.
// MaxAttempts counts total attempts, not retries after the first.
type RetryPolicy struct {
	Enabled           bool            `json:"enabled"`
	MaxAttempts       int             `json:"max_attempts"        validate:"min=1"`
	Strategy          BackoffStrategy `json:"strategy,omitempty"`
	Multiplier        float64         `json:"multiplier,omitempty"`
	MaxBackoffSeconds int             `json:"max_backoff_seconds,omitempty"`
}

// DefaultRetryPolicy is a single attempt with no backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Enabled:           false,
		MaxAttempts:       1,
		Strategy:          BackoffFixed,
		Multiplier:        1,
		MaxBackoffSeconds: 60,
	}
}

// Attempts returns the number of attempts the policy allows. A disabled
// policy always yields a single attempt.
func (p RetryPolicy) Attempts() int {
	if !p.Enabled || p.MaxAttempts < 1 {
		return 1
	}

	return p.MaxAttempts
}

// BackoffDelay computes the sleep before retrying after attempt k (0-indexed):
// fixed is a constant second, linear grows as (k+1)*multiplier seconds,
// exponential doubles each attempt. All strategies are capped at
// MaxBackoffSeconds.
func (p RetryPolicy) BackoffDelay(attempt int) time.Duration {
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	var ms float64

	switch p.Strategy {
	case BackoffLinear:
		ms = float64(attempt+1) * 1000 * multiplier
	case BackoffExponential:
		ms = float64(int64(1)<<uint(attempt)) * 1000 * multiplier
	case BackoffFixed:
		ms = 1000
	default:
		ms = 1000
	}

	if p.MaxBackoffSeconds > 0 {
		if cap := float64(p.MaxBackoffSeconds) * 1000; ms > cap {
			ms = cap
		}
	}

	return time.Duration(ms) * time.Millisecond
}
