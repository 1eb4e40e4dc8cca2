package metrics

import (
	"github.com/teranos/tracekit/errors"
)

// QueryFunc scores one query from index-aligned labels (0 or 1) and
// prediction scores. Returning errors.ErrUndefined skips the query.
type QueryFunc func(labels []int, scores []float64) (float64, error)

// ranked returns the labels reordered by descending score and the number
// of positives. A query without positives is undefined.
func ranked(labels []int, scores []float64) ([]int, int, error) {
	if len(labels) != len(scores) {
		return nil, 0, errors.NewLengthMismatch("query scores", len(labels), len(scores))
	}
	out := make([]int, len(labels))
	positives := 0
	for i, idx := range Rank(scores) {
		out[i] = labels[idx]
		positives += labels[idx]
	}
	if positives == 0 {
		return nil, 0, errors.ErrUndefined
	}
	return out, positives, nil
}

// AveragePrecision is the mean of the precision at every rank that holds a
// true link
func AveragePrecision(labels []int, scores []float64) (float64, error) {
	order, positives, err := ranked(labels, scores)
	if err != nil {
		return 0, err
	}
	hits, sum := 0, 0.0
	for i, label := range order {
		if label == 1 {
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}
	return sum / float64(positives), nil
}

// Precision is the share of candidates that are true links. Combined with
// QueryMetricAtK it yields precision@k. Only an empty list is undefined.
func Precision(labels []int, scores []float64) (float64, error) {
	if len(labels) != len(scores) {
		return 0, errors.NewLengthMismatch("query scores", len(labels), len(scores))
	}
	if len(labels) == 0 {
		return 0, errors.ErrUndefined
	}
	positives := 0
	for _, label := range labels {
		positives += label
	}
	return float64(positives) / float64(len(labels)), nil
}

// Lag is the mean number of false links ranked above each true link, the
// distance between where a true link landed and where it ideally belongs
func Lag(labels []int, scores []float64) (float64, error) {
	order, positives, err := ranked(labels, scores)
	if err != nil {
		return 0, err
	}
	negatives, sum := 0, 0
	for _, label := range order {
		if label == 1 {
			sum += negatives
		} else {
			negatives++
		}
	}
	return float64(sum) / float64(positives), nil
}

// ReciprocalRank is 1/r for the rank r of the first true link
func ReciprocalRank(labels []int, scores []float64) (float64, error) {
	order, _, err := ranked(labels, scores)
	if err != nil {
		return 0, err
	}
	for i, label := range order {
		if label == 1 {
			return 1 / float64(i+1), nil
		}
	}
	return 0, errors.ErrUndefined
}
