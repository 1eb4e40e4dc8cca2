// Package metrics computes classification and retrieval metrics over scored
// trace links.
//
// Global metrics (confusion matrix and everything derived from it) run over
// the flattened labels and scores. Query metrics (MAP, precision@k, lag and
// MRR) group links by source artifact into a QueryMatrix and average over
// the queries where they are defined.
package metrics

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/logger"
	"github.com/teranos/tracekit/tracelink"
)

// Input is one batch to evaluate. Labels and Predictions are index-aligned.
// Query metrics use Matrix when set, and otherwise build one from Dataset
// and LinkIDs (index-aligned with Predictions).
type Input struct {
	Labels      []int
	Predictions Predictions
	Dataset     *tracelink.Dataset
	LinkIDs     []string
	Matrix      *QueryMatrix
}

// InputFromDataset evaluates the given links of ds against index-aligned
// predictions, taking labels from the links
func InputFromDataset(ds *tracelink.Dataset, linkIDs []string, p Predictions) (Input, error) {
	labels := make([]int, len(linkIDs))
	var missing []string
	for i, id := range linkIDs {
		link, ok := ds.Get(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		labels[i] = link.LabelInt()
	}
	if len(missing) > 0 {
		return Input{}, errors.NewIntegrityError(errors.KindMissingReference, missing, -1)
	}
	return Input{Labels: labels, Predictions: p, Dataset: ds, LinkIDs: linkIDs}, nil
}

// Report is the outcome of one evaluation
type Report struct {
	RunID   uuid.UUID                     `json:"run_id"`
	Values  map[string]float64            `json:"values"`
	Groups  map[string]map[string]float64 `json:"groups,omitempty"`
	Omitted map[string]string             `json:"omitted,omitempty"`
}

// Flatten merges scalar values and groups into one name → value map.
// Groups appear as nested maps.
func (r *Report) Flatten() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Values)+len(r.Groups))
	for name, v := range r.Values {
		out[name] = v
	}
	for name, g := range r.Groups {
		out[name] = g
	}
	return out
}

// Names returns the names of every computed metric, sorted
func (r *Report) Names() []string {
	names := make([]string, 0, len(r.Values)+len(r.Groups))
	for name := range r.Values {
		names = append(names, name)
	}
	for name := range r.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Engine evaluates named metrics
type Engine struct {
	cfg    config
	logger *zap.SugaredLogger
}

// NewEngine creates a metrics engine
func NewEngine(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.Named(cfg.logger, "metrics"),
	}
}

type evaluation struct {
	cfg    config
	labels []int
	scores []float64
	matrix *QueryMatrix
	cm     *Confusion
}

func (e *evaluation) confusion() Confusion {
	if e.cm == nil {
		c := NewConfusion(e.labels, e.scores, e.cfg.threshold)
		e.cm = &c
	}
	return *e.cm
}

// Evaluate computes the named metrics, or every metric when names is empty.
// Unknown names and malformed input fail before anything is computed. A
// metric that fails to compute is logged and listed in Report.Omitted; it
// never aborts the others.
func (e *Engine) Evaluate(in Input, names ...string) (*Report, error) {
	start := time.Now()
	if len(names) == 0 {
		names = Names()
	}
	names, needsMatrix, err := resolve(names)
	if err != nil {
		return nil, err
	}

	scores, err := in.Predictions.Normalize()
	if err != nil {
		return nil, err
	}
	if err := validateLabels(in.Labels, len(scores)); err != nil {
		return nil, err
	}

	ev := &evaluation{cfg: e.cfg, labels: in.Labels, scores: scores}
	if needsMatrix {
		if ev.matrix, err = e.queryMatrix(in, scores); err != nil {
			return nil, err
		}
	}

	report := &Report{
		RunID:   uuid.New(),
		Values:  make(map[string]float64),
		Groups:  make(map[string]map[string]float64),
		Omitted: make(map[string]string),
	}
	for _, name := range names {
		res, err := run(name, ev)
		if err != nil {
			e.logger.Errorw("metric failed",
				logger.FieldRunID, report.RunID.String(),
				logger.FieldMetric, name,
				logger.FieldError, err.Error())
			report.Omitted[name] = err.Error()
			continue
		}
		if res.group != nil {
			report.Groups[name] = res.group
		} else {
			report.Values[name] = res.value
		}
	}

	e.logger.Infow("evaluated metrics",
		logger.FieldRunID, report.RunID.String(),
		logger.FieldCount, len(report.Values)+len(report.Groups),
		"omitted", len(report.Omitted),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return report, nil
}

// resolve dedups names in request order and reports whether any of them
// needs a query matrix
func resolve(names []string) ([]string, bool, error) {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	needsMatrix := false
	for _, name := range names {
		kind, err := KindOf(name)
		if err != nil {
			return nil, false, err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
		needsMatrix = needsMatrix || kind == Query
	}
	return out, needsMatrix, nil
}

func validateLabels(labels []int, predictions int) error {
	if len(labels) != predictions {
		return errors.NewLengthMismatch("predictions", len(labels), predictions)
	}
	for i, l := range labels {
		if l != 0 && l != 1 {
			return errors.NewConfigurationError("label %d must be 0 or 1, got %d", i, l)
		}
	}
	return nil
}

func (e *Engine) queryMatrix(in Input, scores []float64) (*QueryMatrix, error) {
	m := in.Matrix
	if m == nil {
		if in.Dataset == nil {
			return nil, errors.NewConfigurationError("query metrics need a dataset or a query matrix")
		}
		var err error
		if m, err = NewQueryMatrix(in.Dataset, in.LinkIDs, scores); err != nil {
			return nil, err
		}
	}
	if e.cfg.randomize {
		m.Randomize(rand.New(rand.NewSource(e.cfg.seed)))
	}
	return m, nil
}

// run computes one metric, turning both returned errors and panics into a
// *errors.MetricError
func run(name string, ev *evaluation) (res result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &errors.MetricError{Metric: name, Err: errors.Newf("panic: %v", r)}
		}
	}()
	res, err = catalog[name].compute(ev)
	if err != nil {
		return result{}, &errors.MetricError{Metric: name, Err: err}
	}
	return res, nil
}
