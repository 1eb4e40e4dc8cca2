package am

import (
	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/metrics"
	"github.com/teranos/tracekit/split"
)

// Validate checks that the configuration is valid. Every failure is a
// configuration error.
func (c *Config) Validate() error {
	// Builder: 0 workers falls back to one, negative is invalid
	if c.Builder.Workers < 0 {
		return errors.NewConfigurationError("builder.workers must be >= 0, got %d", c.Builder.Workers)
	}
	// Allowances: -1 disables the check
	if c.Builder.AllowedMissing < -1 {
		return errors.NewConfigurationError("builder.allowed_missing must be >= -1, got %d", c.Builder.AllowedMissing)
	}
	if c.Builder.AllowedOrphans < -1 {
		return errors.NewConfigurationError("builder.allowed_orphans must be >= -1, got %d", c.Builder.AllowedOrphans)
	}
	if c.Builder.IDBatchSize < 0 {
		return errors.NewConfigurationError("builder.id_batch_size must be >= 0, got %d", c.Builder.IDBatchSize)
	}

	for i, step := range c.Augment.Steps {
		if step.Kind == "" {
			return errors.NewConfigurationError("augment.steps[%d].kind cannot be empty", i)
		}
	}

	if _, err := split.ParseStrategy(c.Split.Strategy); err != nil {
		return errors.Wrap(err, "split.strategy")
	}
	if c.Split.ValPercentage < 0 || c.Split.ValPercentage > 1 {
		return errors.NewConfigurationError("split.val_percentage must be in [0,1], got %v", c.Split.ValPercentage)
	}
	if c.Split.EvalPercentage < 0 || c.Split.EvalPercentage > 1 {
		return errors.NewConfigurationError("split.eval_percentage must be in [0,1], got %v", c.Split.EvalPercentage)
	}
	if c.Split.ValPercentage+c.Split.EvalPercentage > 1+1e-9 {
		return errors.NewConfigurationError("split.val_percentage + split.eval_percentage must not exceed 1, got %v",
			c.Split.ValPercentage+c.Split.EvalPercentage)
	}
	if c.Split.Tolerance < 0 || c.Split.Tolerance > 1 {
		return errors.NewConfigurationError("split.tolerance must be in [0,1], got %v", c.Split.Tolerance)
	}

	for _, name := range c.Metrics.Names {
		if _, err := metrics.KindOf(name); err != nil {
			return errors.Wrap(err, "metrics.names")
		}
	}
	for _, k := range c.Metrics.K {
		if k <= 0 {
			return errors.NewConfigurationError("metrics.k entries must be > 0, got %d", k)
		}
	}

	if c.Log.Verbosity < 0 {
		return errors.NewConfigurationError("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	return nil
}
