package config

import "fmt"

// validate applies defaults to unset tuning knobs and rejects values that
// would break the coordinators (negative batch sizes, zero timeouts after
// explicit override).
func (c *StructuredConfig) validate() error {
	if c.Sync.BatchSize < 0 {
		return fmt.Errorf("%w: sync batch size must not be negative", ErrInvalidConfig)
	}
	if c.Sync.RetryAttempts < 0 {
		return fmt.Errorf("%w: sync retry attempts must not be negative", ErrInvalidConfig)
	}

	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = DefaultBatchSize
	}
	if c.Sync.BatchTimeout <= 0 {
		c.Sync.BatchTimeout = DefaultBatchTimeout
	}
	if c.Sync.PullInterval <= 0 {
		c.Sync.PullInterval = DefaultPullInterval
	}
	if c.Sync.RetryAttempts == 0 {
		c.Sync.RetryAttempts = DefaultRetryAttempts
	}
	if c.Sync.RetryBase <= 0 {
		c.Sync.RetryBase = DefaultRetryBase
	}
	if c.Sync.RetryCap <= 0 {
		c.Sync.RetryCap = DefaultRetryCap
	}

	if c.Remote.ProbeTimeout <= 0 {
		c.Remote.ProbeTimeout = DefaultProbeTimeout
	}
	if c.Remote.RequestTimeout <= 0 {
		c.Remote.RequestTimeout = DefaultRequestTimeout
	}

	if c.Network.CheckInterval <= 0 {
		c.Network.CheckInterval = DefaultCheckInterval
	}
	if c.Network.Debounce <= 0 {
		c.Network.Debounce = DefaultDebounce
	}

	return nil
}
