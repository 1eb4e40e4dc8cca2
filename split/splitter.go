// Package split partitions trace datasets into disjoint subsets without
// leaking links or artifacts across partitions.
package split

import (
	"math"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/internal/util"
	"github.com/teranos/tracekit/logger"
	"github.com/teranos/tracekit/tracelink"
)

// fractionEpsilon absorbs float error when fractions are summed
const fractionEpsilon = 1e-9

// DefaultTolerance is the allowed deviation between a by-source partition's
// share and its requested fraction before a warning is logged
const DefaultTolerance = 0.05

// Strategy tags a split strategy
type Strategy string

const (
	// ByLink slices each label pool independently
	ByLink Strategy = "link"
	// BySource keeps every link of a source artifact in one partition
	BySource Strategy = "source"
	// Pretrain yields no trace links; the caller routes the data to a
	// non-trace dataset kind
	Pretrain Strategy = "pretrain"
)

// ParseStrategy resolves a strategy tag
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case ByLink:
		return ByLink, nil
	case BySource:
		return BySource, nil
	case Pretrain:
		return Pretrain, nil
	default:
		return "", errors.NewConfigurationError("unknown split strategy %q (supported: link, source, pretrain)", s)
	}
}

// Config holds the knobs shared by all strategies
type Config struct {
	Seed      int64
	Tolerance float64 // by-source only; 0 uses DefaultTolerance
	Logger    *zap.SugaredLogger
}

// Splitter partitions datasets by one strategy into fixed, ordered fractions
type Splitter struct {
	strategy  Strategy
	fractions []float64
	cfg       Config
	logger    *zap.SugaredLogger
}

// New validates the strategy and fractions. Every fraction must lie in [0,1]
// and together they must not exceed 1; violations fail here, never at split
// time.
func New(strategy Strategy, cfg Config, fractions ...float64) (*Splitter, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}
	if err := ValidateFractions(fractions); err != nil {
		return nil, err
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.Tolerance < 0 || cfg.Tolerance > 1 {
		return nil, errors.NewConfigurationError("split tolerance must be in [0,1], got %v", cfg.Tolerance)
	}
	return &Splitter{
		strategy:  strategy,
		fractions: append([]float64(nil), fractions...),
		cfg:       cfg,
		logger:    logger.Named(cfg.Logger, "split"),
	}, nil
}

// ValidateFractions checks a list of split fractions
func ValidateFractions(fractions []float64) error {
	if len(fractions) == 0 {
		return errors.NewConfigurationError("at least one split fraction is required")
	}
	sum := 0.0
	for i, f := range fractions {
		if math.IsNaN(f) || f < 0 || f > 1 {
			return errors.NewConfigurationError("split fraction %d must be in [0,1], got %v", i, f)
		}
		sum += f
	}
	if sum > 1+fractionEpsilon {
		return errors.NewConfigurationError("split fractions sum to %v, which exceeds 1", sum)
	}
	return nil
}

// Strategy returns the splitter's strategy tag
func (s *Splitter) Strategy() Strategy { return s.strategy }

// Fractions returns a copy of the configured fractions
func (s *Splitter) Fractions() []float64 { return append([]float64(nil), s.fractions...) }

// Passthrough reports whether the strategy yields no trace links
func (s *Splitter) Passthrough() bool { return s.strategy == Pretrain }

// Split partitions ds into one dataset per fraction. Partitions are pairwise
// link-id disjoint and together hold every link of ds, except for the
// pretrain strategy which returns empty partitions.
func (s *Splitter) Split(ds *tracelink.Dataset) ([]*tracelink.Dataset, error) {
	runID := uuid.NewString()
	rng := rand.New(rand.NewSource(s.cfg.Seed))

	var parts []*tracelink.Dataset
	var err error
	switch s.strategy {
	case ByLink:
		parts, err = s.splitByLink(ds, rng)
	case BySource:
		parts, err = s.splitBySource(ds, rng)
	case Pretrain:
		parts = make([]*tracelink.Dataset, len(s.fractions))
		for i := range parts {
			parts[i] = tracelink.NewDataset()
		}
		s.logger.Infow("pretrain split yields no trace links", logger.FieldRunID, runID)
	}
	if err != nil {
		return nil, err
	}

	for i, p := range parts {
		s.logger.Debugw("partition",
			logger.FieldRunID, runID,
			logger.FieldStrategy, string(s.strategy),
			logger.FieldPartition, i,
			logger.FieldPositives, len(p.PositiveIDs()),
			logger.FieldNegatives, len(p.NegativeIDs()))
	}
	return parts, nil
}

// Partition computes partition sizes for n items: round(n*fraction) for
// every partition but the last, which absorbs the rounding drift so the
// sizes always sum to n
func Partition(n int, fractions []float64) []int {
	sizes := make([]int, len(fractions))
	if len(fractions) == 0 {
		return sizes
	}
	remaining := n
	for i := 0; i < len(fractions)-1; i++ {
		size := int(math.Round(float64(n) * fractions[i]))
		size = min(size, remaining)
		sizes[i] = size
		remaining -= size
	}
	sizes[len(sizes)-1] = remaining
	return sizes
}

// pool groups the occurrences of a label pool by distinct id
type pool struct {
	ids    []string
	counts map[string]int
}

func newPool(occurrences []string) pool {
	p := pool{counts: make(map[string]int)}
	for _, id := range occurrences {
		if p.counts[id] == 0 {
			p.ids = append(p.ids, id)
		}
		p.counts[id]++
	}
	return p
}

// slice shuffles the distinct ids and cuts them by fraction. Every
// occurrence of an id lands in the same partition as the id.
func (p pool) slice(fractions []float64, rng *rand.Rand) [][]string {
	ids := append([]string(nil), p.ids...)
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	out := make([][]string, len(fractions))
	start := 0
	for i, size := range Partition(len(ids), fractions) {
		for _, id := range ids[start : start+size] {
			for c := 0; c < p.counts[id]; c++ {
				out[i] = append(out[i], id)
			}
		}
		start += size
	}
	return out
}

func (s *Splitter) splitByLink(ds *tracelink.Dataset, rng *rand.Rand) ([]*tracelink.Dataset, error) {
	positives := newPool(ds.PositiveIDs()).slice(s.fractions, rng)
	negatives := newPool(ds.NegativeIDs()).slice(s.fractions, rng)

	parts := make([]*tracelink.Dataset, len(s.fractions))
	for i := range parts {
		part, err := ds.Subset(positives[i], negatives[i])
		if err != nil {
			return nil, err
		}
		parts[i] = part
	}
	return parts, nil
}

func (s *Splitter) splitBySource(ds *tracelink.Dataset, rng *rand.Rand) ([]*tracelink.Dataset, error) {
	occurrences := make(map[string]int)
	for _, id := range ds.PositiveIDs() {
		occurrences[id]++
	}
	for _, id := range ds.NegativeIDs() {
		occurrences[id]++
	}

	groups := ds.GroupBySource()
	rng.Shuffle(len(groups), func(i, j int) { groups[i], groups[j] = groups[j], groups[i] })

	total := ds.Len()
	targets := Partition(total, s.fractions)
	sizes := make([]int, len(s.fractions))
	assigned := make(map[string]int, len(groups))

	for _, g := range groups {
		weight := 0
		for _, id := range g.LinkIDs {
			weight += occurrences[id]
		}
		best := 0
		for i := 1; i < len(targets); i++ {
			if targets[i]-sizes[i] > targets[best]-sizes[best] {
				best = i
			}
		}
		sizes[best] += weight
		assigned[g.SourceID] = best
	}

	positives := make([][]string, len(s.fractions))
	negatives := make([][]string, len(s.fractions))
	for _, id := range ds.PositiveIDs() {
		link, _ := ds.Get(id)
		i := assigned[link.SourceID()]
		positives[i] = append(positives[i], id)
	}
	for _, id := range ds.NegativeIDs() {
		link, _ := ds.Get(id)
		i := assigned[link.SourceID()]
		negatives[i] = append(negatives[i], id)
	}

	parts := make([]*tracelink.Dataset, len(s.fractions))
	for i := range parts {
		part, err := ds.Subset(positives[i], negatives[i])
		if err != nil {
			return nil, err
		}
		parts[i] = part

		if total > 0 {
			share := float64(sizes[i]) / float64(total)
			want := float64(targets[i]) / float64(total)
			if util.AbsFloat64(share-want) > s.cfg.Tolerance {
				s.logger.Warnw("source split deviates from requested fraction",
					logger.FieldPartition, i,
					logger.FieldSize, sizes[i],
					logger.FieldTarget, targets[i],
					"tolerance", s.cfg.Tolerance)
			}
		}
	}
	return parts, nil
}
