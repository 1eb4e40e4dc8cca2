package metrics

import (
	"math"
	"math/rand"
	"sort"

	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/internal/util"
	"github.com/teranos/tracekit/tracelink"
)

// Candidate is one target ranked under a query
type Candidate struct {
	LinkID   string
	TargetID string
	Label    bool
	Score    float64 // NaN when unscored
}

// Scored reports whether the candidate carries a prediction score
func (c Candidate) Scored() bool { return !math.IsNaN(c.Score) }

// QueryMatrix groups scored links by source artifact. Each source is a query
// and its links are the query's candidates, kept in the order they were
// supplied.
type QueryMatrix struct {
	queries    []string
	candidates map[string][]Candidate
}

// NewQueryMatrix builds a matrix from index-aligned link ids and scores. A
// NaN score marks the link as unscored. Every id must name a link of ds.
func NewQueryMatrix(ds *tracelink.Dataset, linkIDs []string, scores []float64) (*QueryMatrix, error) {
	if len(linkIDs) != len(scores) {
		return nil, errors.NewLengthMismatch("query matrix scores", len(linkIDs), len(scores))
	}

	m := &QueryMatrix{candidates: make(map[string][]Candidate)}
	var missing []string
	for i, id := range linkIDs {
		link, ok := ds.Get(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		m.add(link, scores[i])
	}
	if len(missing) > 0 {
		return nil, errors.NewIntegrityError(errors.KindMissingReference, missing, -1)
	}
	return m, nil
}

// FromDataset builds a matrix over the distinct links of ds, using each
// link's recorded score
func FromDataset(ds *tracelink.Dataset) *QueryMatrix {
	m := &QueryMatrix{candidates: make(map[string][]Candidate)}
	for _, link := range ds.Links() {
		score, ok := link.Score()
		if !ok {
			score = math.NaN()
		}
		m.add(link, score)
	}
	return m
}

func (m *QueryMatrix) add(link *tracelink.TraceLink, score float64) {
	q := link.SourceID()
	if _, ok := m.candidates[q]; !ok {
		m.queries = append(m.queries, q)
	}
	m.candidates[q] = append(m.candidates[q], Candidate{
		LinkID:   link.ID,
		TargetID: link.TargetID(),
		Label:    link.Label,
		Score:    score,
	})
}

// Queries returns the query ids in first-appearance order
func (m *QueryMatrix) Queries() []string {
	return append([]string(nil), m.queries...)
}

// Candidates returns a copy of a query's candidates in their current order
func (m *QueryMatrix) Candidates(query string) []Candidate {
	return append([]Candidate(nil), m.candidates[query]...)
}

// QueryMetric computes f for every query and returns the mean over the
// queries where f is defined. Queries without a true link are skipped. def
// is returned when no query is defined.
func (m *QueryMatrix) QueryMetric(f QueryFunc, def float64) (float64, error) {
	return m.aggregate(f, 0, def)
}

// QueryMetricAtK is QueryMetric with each query truncated to its top k
// candidates by descending score
func (m *QueryMatrix) QueryMetricAtK(f QueryFunc, k int, def float64) (float64, error) {
	if k <= 0 {
		return 0, errors.NewConfigurationError("k must be positive, got %d", k)
	}
	return m.aggregate(f, k, def)
}

func (m *QueryMatrix) aggregate(f QueryFunc, k int, def float64) (float64, error) {
	values := make([]float64, 0, len(m.queries))
	for _, q := range m.queries {
		candidates := m.candidates[q]
		if !hasTrueLink(candidates) {
			continue
		}
		if k > 0 {
			candidates = topK(candidates, k)
		}
		labels, scores := columns(candidates)

		v, err := f(labels, scores)
		if errors.Is(err, errors.ErrUndefined) {
			continue
		}
		if err != nil {
			return 0, errors.Wrapf(err, "query %s", q)
		}
		values = append(values, v)
	}
	return util.Mean(values, def), nil
}

// Randomize shuffles the candidate order within every query. Labels stay
// attached to their scores; only tie-breaking between equal scores changes.
func (m *QueryMatrix) Randomize(rng *rand.Rand) {
	for _, q := range m.queries {
		c := m.candidates[q]
		rng.Shuffle(len(c), func(i, j int) { c[i], c[j] = c[j], c[i] })
	}
}

func hasTrueLink(candidates []Candidate) bool {
	for _, c := range candidates {
		if c.Label {
			return true
		}
	}
	return false
}

func topK(candidates []Candidate, k int) []Candidate {
	_, scores := columns(candidates)
	order := Rank(scores)
	if k < len(order) {
		order = order[:k]
	}
	out := make([]Candidate, len(order))
	for i, idx := range order {
		out[i] = candidates[idx]
	}
	return out
}

func columns(candidates []Candidate) ([]int, []float64) {
	labels := make([]int, len(candidates))
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		if c.Label {
			labels[i] = 1
		}
		scores[i] = c.Score
	}
	return labels, scores
}

// Rank returns the indices of scores ordered by descending score. Equal
// scores keep their input order and NaN (unscored) entries rank last.
func Rank(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := scores[order[a]], scores[order[b]]
		switch {
		case math.IsNaN(sa):
			return false
		case math.IsNaN(sb):
			return true
		default:
			return sa > sb
		}
	})
	return order
}
