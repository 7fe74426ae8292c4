package cron

import "time"

// RetryConfig tunes how a failed cron job run is retried before being
// reported to the owning agent as a permanent failure.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig matches config.CronConfig's documented defaults
// (3 retries, 2s base backoff, 30s cap).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// NextDelay returns the exponential backoff delay before retry attempt n
// (1-indexed), capped at MaxDelay.
func (rc RetryConfig) NextDelay(attempt int) time.Duration {
	d := rc.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= rc.MaxDelay {
			return rc.MaxDelay
		}
	}
	if d > rc.MaxDelay {
		return rc.MaxDelay
	}
	return d
}
