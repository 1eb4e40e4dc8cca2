package builder

import (
	"go.uber.org/zap"

	"github.com/teranos/tracekit/errors"
)

// Unlimited disables an allowance check entirely
const Unlimited = -1

// Defaults applied by New
const (
	DefaultWorkers        = 4
	DefaultAllowedMissing = 0
	DefaultAllowedOrphans = Unlimited
)

// Option customizes a Builder
type Option func(*config)

type config struct {
	workers        int
	allowedMissing int
	allowedOrphans int
	removeOrphans  bool
	batchSize      int
	logger         *zap.SugaredLogger
}

func defaultConfig() config {
	return config{
		workers:        DefaultWorkers,
		allowedMissing: DefaultAllowedMissing,
		allowedOrphans: DefaultAllowedOrphans,
		batchSize:      errors.DefaultBatchSize,
	}
}

// WithWorkers bounds the number of layer mappings generated concurrently.
// Values below 1 fall back to a single worker.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = max(n, 1)
	}
}

// WithAllowedMissing sets how many artifact ids referenced by true links may
// be absent from the candidate domain before Build fails. Unlimited disables
// the check.
func WithAllowedMissing(n int) Option {
	return func(c *config) {
		c.allowedMissing = n
	}
}

// WithAllowedOrphans sets how many orphan artifacts (zero positive links) may
// exist before Build fails. Unlimited disables the check.
func WithAllowedOrphans(n int) Option {
	return func(c *config) {
		c.allowedOrphans = n
	}
}

// WithRemoveOrphans drops every candidate link that touches an orphan artifact
func WithRemoveOrphans(remove bool) Option {
	return func(c *config) {
		c.removeOrphans = remove
	}
}

// WithBatchSize sets how many offending ids are rendered per line of an
// integrity error
func WithBatchSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithLogger sets the parent logger; the builder logs under "builder"
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *config) {
		c.logger = l
	}
}
