package metrics

import "go.uber.org/zap"

// Defaults applied by NewEngine
const (
	DefaultThreshold = 0.5
	DefaultValue     = 0.0
)

// defaultK is the cut-off list for precision@k
var defaultK = []int{1, 2, 3}

// Option customizes an Engine
type Option func(*config)

type config struct {
	threshold float64
	ks        []int
	def       float64
	randomize bool
	seed      int64
	logger    *zap.SugaredLogger
}

func defaultConfig() config {
	return config{
		threshold: DefaultThreshold,
		ks:        append([]int(nil), defaultK...),
		def:       DefaultValue,
	}
}

// WithThreshold sets the score at or above which a prediction counts as a
// positive for the confusion matrix and the metrics derived from it
func WithThreshold(t float64) Option {
	return func(c *config) {
		c.threshold = t
	}
}

// WithK sets the cut-offs reported by precision_at_k
func WithK(ks ...int) Option {
	return func(c *config) {
		if len(ks) > 0 {
			c.ks = append([]int(nil), ks...)
		}
	}
}

// WithDefault sets the value a query metric takes when no query is defined
func WithDefault(v float64) Option {
	return func(c *config) {
		c.def = v
	}
}

// WithRandomize shuffles candidates within each query, seeded, before query
// metrics are computed. The matrix is shuffled in place.
func WithRandomize(seed int64) Option {
	return func(c *config) {
		c.randomize = true
		c.seed = seed
	}
}

// WithLogger sets the parent logger; the engine logs under "metrics"
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *config) {
		c.logger = l
	}
}
