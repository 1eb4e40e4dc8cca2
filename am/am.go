// Package am holds the tracekit configuration ("I am").
//
// Configuration is read with viper and merged from, in increasing order of
// precedence: built-in defaults, /etc/tracekit/tracekit.toml,
// ~/.tracekit/tracekit.toml, the nearest tracekit.toml found walking up from
// the working directory, and TRACEKIT_* environment variables.
package am

import "github.com/teranos/tracekit/augment"

// Config represents the tracekit configuration
type Config struct {
	Builder BuilderConfig `mapstructure:"builder" toml:"builder" yaml:"builder" json:"builder"`
	Augment AugmentConfig `mapstructure:"augment" toml:"augment" yaml:"augment" json:"augment"`
	Split   SplitConfig   `mapstructure:"split" toml:"split" yaml:"split" json:"split"`
	Metrics MetricsConfig `mapstructure:"metrics" toml:"metrics" yaml:"metrics" json:"metrics"`
	Log     LogConfig     `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
}

// BuilderConfig configures candidate-link generation
type BuilderConfig struct {
	Workers        int  `mapstructure:"workers" toml:"workers" yaml:"workers" json:"workers"`                         // concurrent layer mappings (default: 4)
	AllowedMissing int  `mapstructure:"allowed_missing" toml:"allowed_missing" yaml:"allowed_missing" json:"allowed_missing"` // -1 = unlimited
	AllowedOrphans int  `mapstructure:"allowed_orphans" toml:"allowed_orphans" yaml:"allowed_orphans" json:"allowed_orphans"` // -1 = unlimited (default)
	RemoveOrphans  bool `mapstructure:"remove_orphans" toml:"remove_orphans" yaml:"remove_orphans" json:"remove_orphans"`
	IDBatchSize    int  `mapstructure:"id_batch_size" toml:"id_batch_size" yaml:"id_batch_size" json:"id_batch_size"` // ids per line of an integrity error
}

// AugmentConfig configures the augmentation pipeline
type AugmentConfig struct {
	Seed      int64              `mapstructure:"seed" toml:"seed" yaml:"seed" json:"seed"`
	Symmetric bool               `mapstructure:"symmetric" toml:"symmetric" yaml:"symmetric" json:"symmetric"`
	Balance   bool               `mapstructure:"balance" toml:"balance" yaml:"balance" json:"balance"`
	Steps     []augment.StepSpec `mapstructure:"steps" toml:"steps" yaml:"steps" json:"steps"`
}

// SplitConfig configures train/val/eval preparation
type SplitConfig struct {
	Strategy       string  `mapstructure:"strategy" toml:"strategy" yaml:"strategy" json:"strategy"` // link, source or pretrain
	ValPercentage  float64 `mapstructure:"val_percentage" toml:"val_percentage" yaml:"val_percentage" json:"val_percentage"`
	EvalPercentage float64 `mapstructure:"eval_percentage" toml:"eval_percentage" yaml:"eval_percentage" json:"eval_percentage"`
	Seed           int64   `mapstructure:"seed" toml:"seed" yaml:"seed" json:"seed"`
	Tolerance      float64 `mapstructure:"tolerance" toml:"tolerance" yaml:"tolerance" json:"tolerance"`
}

// MetricsConfig configures evaluation
type MetricsConfig struct {
	Names        []string `mapstructure:"names" toml:"names" yaml:"names" json:"names"` // empty = every metric
	Threshold    float64  `mapstructure:"threshold" toml:"threshold" yaml:"threshold" json:"threshold"`
	K            []int    `mapstructure:"k" toml:"k" yaml:"k" json:"k"`
	DefaultValue float64  `mapstructure:"default_value" toml:"default_value" yaml:"default_value" json:"default_value"`
	Randomize    bool     `mapstructure:"randomize" toml:"randomize" yaml:"randomize" json:"randomize"`
	Seed         int64    `mapstructure:"seed" toml:"seed" yaml:"seed" json:"seed"`
}

// LogConfig configures logging output
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity" yaml:"verbosity" json:"verbosity"`
}
