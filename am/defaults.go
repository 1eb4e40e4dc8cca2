package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Builder defaults
	v.SetDefault("builder.workers", 4)
	v.SetDefault("builder.allowed_missing", 0)
	v.SetDefault("builder.allowed_orphans", -1) // orphan check disabled
	v.SetDefault("builder.remove_orphans", false)
	v.SetDefault("builder.id_batch_size", 10)

	// Augment defaults
	v.SetDefault("augment.seed", 42)
	v.SetDefault("augment.symmetric", false)
	v.SetDefault("augment.balance", true)

	// Split defaults
	v.SetDefault("split.strategy", "link")
	v.SetDefault("split.val_percentage", 0.1)
	v.SetDefault("split.eval_percentage", 0.2)
	v.SetDefault("split.seed", 42)
	v.SetDefault("split.tolerance", 0.05)

	// Metrics defaults
	v.SetDefault("metrics.threshold", 0.5)
	v.SetDefault("metrics.k", []int{1, 2, 3})
	v.SetDefault("metrics.default_value", 0.0)
	v.SetDefault("metrics.randomize", false)
	v.SetDefault("metrics.seed", 42)

	// Log defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Builder: {Workers: %d}, Augment: {Steps: %d}, Split: {Strategy: %s}, Metrics: {Names: %d}}",
		c.Builder.Workers, len(c.Augment.Steps), c.Split.Strategy, len(c.Metrics.Names))
}
