package metrics

import (
	"math"

	"github.com/teranos/tracekit/errors"
)

// probabilityEpsilon is how far a row sum may stray from 1 and still be
// read as a distribution
const probabilityEpsilon = 1e-6

// Predictions carries a model's output for a list of links: either one raw
// score per link or one two-class row per link
type Predictions struct {
	Scores        []float64
	Probabilities [][]float64
}

// Len returns the number of predictions
func (p Predictions) Len() int {
	if p.Probabilities != nil {
		return len(p.Probabilities)
	}
	return len(p.Scores)
}

// Normalize returns one positive-class score per link. Raw scores pass
// through. A two-class row that already forms a distribution yields its
// second entry; any other row is treated as logits and passed through a
// softmax first.
func (p Predictions) Normalize() ([]float64, error) {
	if p.Scores != nil && p.Probabilities != nil {
		return nil, errors.NewConfigurationError("predictions carry both scores and probabilities")
	}
	if p.Probabilities == nil {
		return append([]float64(nil), p.Scores...), nil
	}

	out := make([]float64, len(p.Probabilities))
	for i, row := range p.Probabilities {
		if len(row) != 2 {
			return nil, errors.Wrapf(errors.NewLengthMismatch("probability row", 2, len(row)), "row %d", i)
		}
		if isDistribution(row) {
			out[i] = row[1]
			continue
		}
		out[i] = softmaxPositive(row[0], row[1])
	}
	return out, nil
}

func isDistribution(row []float64) bool {
	sum := 0.0
	for _, v := range row {
		if v < 0 || v > 1 {
			return false
		}
		sum += v
	}
	return math.Abs(sum-1) <= probabilityEpsilon
}

// softmaxPositive is exp(b)/(exp(a)+exp(b)), written to stay finite for
// large logits
func softmaxPositive(a, b float64) float64 {
	return 1 / (1 + math.Exp(a-b))
}
