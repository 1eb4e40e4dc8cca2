package metrics

import (
	"math"
	"strconv"

	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/internal/util"
)

// Metric names understood by the Engine
const (
	ConfusionMatrix = "confusion_matrix"
	PrecisionMetric = "precision"
	Recall          = "recall"
	F1              = "f1"
	F2              = "f2"
	Specificity     = "specificity"
	Accuracy        = "accuracy"
	GlobalAP        = "average_precision"
	MAP             = "map"
	PrecisionAtK    = "precision_at_k"
	LagMetric       = "lag"
	MRR             = "mrr"
)

// Kind says what a metric is computed over
type Kind int

const (
	// Global metrics run once over the flattened labels and scores
	Global Kind = iota
	// Query metrics run per query over a QueryMatrix
	Query
)

func (k Kind) String() string {
	if k == Query {
		return "query"
	}
	return "global"
}

// result is a scalar value or a named group of values
type result struct {
	value float64
	group map[string]float64
}

type definition struct {
	kind    Kind
	compute func(*evaluation) (result, error)
}

var catalogOrder = []string{
	ConfusionMatrix, PrecisionMetric, Recall, F1, F2, Specificity, Accuracy,
	GlobalAP, MAP, PrecisionAtK, LagMetric, MRR,
}

var catalog = map[string]definition{
	ConfusionMatrix: {Global, func(e *evaluation) (result, error) {
		return result{group: e.confusion().Group()}, nil
	}},
	PrecisionMetric: {Global, scalar(func(e *evaluation) (float64, error) { return e.confusion().Precision() })},
	Recall:          {Global, scalar(func(e *evaluation) (float64, error) { return e.confusion().Recall() })},
	F1:              {Global, scalar(func(e *evaluation) (float64, error) { return e.confusion().FBeta(1) })},
	F2:              {Global, scalar(func(e *evaluation) (float64, error) { return e.confusion().FBeta(2) })},
	Specificity:     {Global, scalar(func(e *evaluation) (float64, error) { return e.confusion().Specificity() })},
	Accuracy:        {Global, scalar(func(e *evaluation) (float64, error) { return e.confusion().Accuracy() })},
	GlobalAP: {Global, scalar(func(e *evaluation) (float64, error) {
		return AveragePrecision(e.labels, e.scores)
	})},
	MAP: {Query, scalar(func(e *evaluation) (float64, error) {
		return e.matrix.QueryMetric(AveragePrecision, e.cfg.def)
	})},
	PrecisionAtK: {Query, func(e *evaluation) (result, error) {
		group := make(map[string]float64, len(e.cfg.ks))
		for _, k := range e.cfg.ks {
			v, err := e.matrix.QueryMetricAtK(Precision, k, e.cfg.def)
			if err != nil {
				return result{}, err
			}
			group["precision@"+strconv.Itoa(k)] = v
		}
		return result{group: group}, nil
	}},
	LagMetric: {Query, scalar(func(e *evaluation) (float64, error) {
		return e.matrix.QueryMetric(Lag, e.cfg.def)
	})},
	MRR: {Query, scalar(func(e *evaluation) (float64, error) {
		return e.matrix.QueryMetric(ReciprocalRank, e.cfg.def)
	})},
}

func scalar(f func(*evaluation) (float64, error)) func(*evaluation) (result, error) {
	return func(e *evaluation) (result, error) {
		v, err := f(e)
		return result{value: v}, err
	}
}

// Names returns every metric name in catalog order
func Names() []string {
	return append([]string(nil), catalogOrder...)
}

// KindOf returns the kind of a named metric
func KindOf(name string) (Kind, error) {
	def, ok := catalog[name]
	if !ok {
		return 0, errors.NewUnknownMetric(name)
	}
	return def.kind, nil
}

// Confusion counts predictions against labels at a threshold
type Confusion struct {
	TP, FP, TN, FN int
}

// NewConfusion classifies each score at or above threshold as positive.
// Unscored (NaN) entries count as predicted negatives.
func NewConfusion(labels []int, scores []float64, threshold float64) Confusion {
	var c Confusion
	for i, label := range labels {
		predicted := scores[i] >= threshold
		switch {
		case label == 1 && predicted:
			c.TP++
		case label == 1:
			c.FN++
		case predicted:
			c.FP++
		default:
			c.TN++
		}
	}
	return c
}

// Group renders the counts as a nested metric value
func (c Confusion) Group() map[string]float64 {
	return map[string]float64{
		"tp": float64(c.TP),
		"fp": float64(c.FP),
		"tn": float64(c.TN),
		"fn": float64(c.FN),
	}
}

func (c Confusion) Precision() (float64, error) {
	return defined(util.Ratio(float64(c.TP), float64(c.TP+c.FP)), "precision: no predicted positives")
}

func (c Confusion) Recall() (float64, error) {
	return defined(util.Ratio(float64(c.TP), float64(c.TP+c.FN)), "recall: no true links")
}

func (c Confusion) Specificity() (float64, error) {
	return defined(util.Ratio(float64(c.TN), float64(c.TN+c.FP)), "specificity: no false links")
}

func (c Confusion) Accuracy() (float64, error) {
	return defined(util.Ratio(float64(c.TP+c.TN), float64(c.TP+c.FP+c.TN+c.FN)), "accuracy: no predictions")
}

// FBeta is the weighted harmonic mean of precision and recall
func (c Confusion) FBeta(beta float64) (float64, error) {
	p, err := c.Precision()
	if err != nil {
		return 0, err
	}
	r, err := c.Recall()
	if err != nil {
		return 0, err
	}
	b2 := beta * beta
	return defined(util.Ratio((1+b2)*p*r, b2*p+r), "f-score: precision and recall are both zero")
}

func defined(v float64, what string) (float64, error) {
	if math.IsNaN(v) {
		return 0, errors.Wrap(errors.ErrUndefined, what)
	}
	return v, nil
}
