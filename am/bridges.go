package am

import (
	"go.uber.org/zap"

	"github.com/teranos/tracekit/augment"
	"github.com/teranos/tracekit/builder"
	"github.com/teranos/tracekit/metrics"
	"github.com/teranos/tracekit/split"
)

// BuilderOptions translates the builder section into builder options
func (c *Config) BuilderOptions(log *zap.SugaredLogger) []builder.Option {
	return []builder.Option{
		builder.WithWorkers(c.Builder.Workers),
		builder.WithAllowedMissing(c.Builder.AllowedMissing),
		builder.WithAllowedOrphans(c.Builder.AllowedOrphans),
		builder.WithRemoveOrphans(c.Builder.RemoveOrphans),
		builder.WithBatchSize(c.Builder.IDBatchSize),
		builder.WithLogger(log),
	}
}

// AugmentSteps builds the configured pipeline steps with reg
func (c *Config) AugmentSteps(reg *augment.Registry) ([]augment.Step, error) {
	return reg.BuildAll(c.Augment.Steps)
}

// AugmentConfig returns the augmenter configuration
func (c *Config) AugmentConfig(log *zap.SugaredLogger) augment.Config {
	return augment.Config{
		Seed:      c.Augment.Seed,
		Symmetric: c.Augment.Symmetric,
		Balance:   c.Augment.Balance,
		Logger:    log,
	}
}

// SplitterConfig returns the train/val/eval split configuration
func (c *Config) SplitterConfig(log *zap.SugaredLogger) (split.RoleConfig, error) {
	strategy, err := split.ParseStrategy(c.Split.Strategy)
	if err != nil {
		return split.RoleConfig{}, err
	}
	return split.RoleConfig{
		Strategy:       strategy,
		ValPercentage:  c.Split.ValPercentage,
		EvalPercentage: c.Split.EvalPercentage,
		Config: split.Config{
			Seed:      c.Split.Seed,
			Tolerance: c.Split.Tolerance,
			Logger:    log,
		},
	}, nil
}

// EngineOptions translates the metrics section into engine options
func (c *Config) EngineOptions(log *zap.SugaredLogger) []metrics.Option {
	opts := []metrics.Option{
		metrics.WithThreshold(c.Metrics.Threshold),
		metrics.WithK(c.Metrics.K...),
		metrics.WithDefault(c.Metrics.DefaultValue),
		metrics.WithLogger(log),
	}
	if c.Metrics.Randomize {
		opts = append(opts, metrics.WithRandomize(c.Metrics.Seed))
	}
	return opts
}
