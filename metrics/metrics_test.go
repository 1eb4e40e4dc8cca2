package metrics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/tracekit/augment"
	"github.com/teranos/tracekit/errors"
	tracetest "github.com/teranos/tracekit/internal/testing"
	"github.com/teranos/tracekit/tracelink"
)

// singleQuery returns one source linked to three targets labelled 1, 0, 1
func singleQuery(t *testing.T) (*tracelink.Dataset, []string) {
	t.Helper()
	src := tracelink.NewArtifact("req", "the report shall be exported as pdf")
	links := []*tracelink.TraceLink{
		tracelink.NewLink(src, tracelink.NewArtifact("a", "func ExportPDF()"), true),
		tracelink.NewLink(src, tracelink.NewArtifact("b", "func ParseCSV()"), false),
		tracelink.NewLink(src, tracelink.NewArtifact("c", "type PDFWriter struct"), true),
	}
	ds, err := tracelink.FromLinks(links...)
	require.NoError(t, err)
	return ds, []string{links[0].ID, links[1].ID, links[2].ID}
}

func TestQueryFuncs(t *testing.T) {
	labels := []int{1, 0, 1}
	perfect := []float64{0.9, 0.1, 0.8}
	worst := []float64{0.1, 0.9, 0.2}

	tests := []struct {
		name    string
		f       QueryFunc
		perfect float64
		worst   float64
	}{
		{name: "average precision", f: AveragePrecision, perfect: 1, worst: (1.0/2 + 2.0/3) / 2},
		{name: "lag", f: Lag, perfect: 0, worst: 1},
		{name: "reciprocal rank", f: ReciprocalRank, perfect: 1, worst: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.f(labels, perfect)
			require.NoError(t, err)
			assert.InDelta(t, tt.perfect, got, 1e-9)

			got, err = tt.f(labels, worst)
			require.NoError(t, err)
			assert.InDelta(t, tt.worst, got, 1e-9)

			_, err = tt.f([]int{0, 0}, []float64{0.3, 0.4})
			assert.ErrorIs(t, err, errors.ErrUndefined)
		})
	}
}

func TestPrecision(t *testing.T) {
	got, err := Precision([]int{1, 0, 1}, []float64{0.1, 0.9, 0.2})
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3, got, 1e-9)

	got, err = Precision([]int{0, 0}, []float64{0.3, 0.4})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	_, err = Precision(nil, nil)
	assert.ErrorIs(t, err, errors.ErrUndefined)
}

func TestRank_UnscoredLast(t *testing.T) {
	assert.Equal(t, []int{2, 1, 0}, Rank([]float64{math.NaN(), 0.2, 0.5}))
	assert.Equal(t, []int{0, 1, 2}, Rank([]float64{0.5, 0.5, 0.5}), "ties keep input order")
	assert.Equal(t, []int{1, 0, 2}, Rank([]float64{math.NaN(), 0.1, math.NaN()}))
}

func TestNewQueryMatrix_LengthMismatch(t *testing.T) {
	ds, ids := singleQuery(t)
	m, err := NewQueryMatrix(ds, ids, []float64{0.9, 0.1})
	require.Error(t, err)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, errors.ErrLengthMismatch)
}

func TestNewQueryMatrix_UnknownLink(t *testing.T) {
	ds, ids := singleQuery(t)
	_, err := NewQueryMatrix(ds, append(ids, "nope"), []float64{1, 0, 1, 0})
	require.Error(t, err)
	assert.True(t, errors.IsDataIntegrityError(err))
	assert.Contains(t, err.Error(), "nope")
}

func TestQueryMatrix_MAP(t *testing.T) {
	ds, ids := singleQuery(t)

	perfect, err := NewQueryMatrix(ds, ids, []float64{0.9, 0.1, 0.8})
	require.NoError(t, err)
	got, err := perfect.QueryMetric(AveragePrecision, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	worst, err := NewQueryMatrix(ds, ids, []float64{0.1, 0.9, 0.2})
	require.NoError(t, err)
	got, err = worst.QueryMetric(AveragePrecision, 0)
	require.NoError(t, err)
	assert.Less(t, got, 1.0)
}

func TestQueryMatrix_SkipsUndefinedQueries(t *testing.T) {
	ds := tracetest.BuildDataset(t, tracetest.TwoByTwoProject())
	m := FromDataset(ds)
	assert.Equal(t, []string{"s1", "s2"}, m.Queries())

	// Every link is unscored; s1 still has a defined AP and s2 has no true link
	got, err := m.QueryMetric(AveragePrecision, -1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	negatives, err := ds.Subset(nil, ds.NegativeIDs())
	require.NoError(t, err)
	got, err = FromDataset(negatives).QueryMetric(AveragePrecision, -1)
	require.NoError(t, err)
	assert.Equal(t, -1.0, got, "default when no query is defined")
}

func TestQueryMatrix_FromDatasetUsesRecordedScores(t *testing.T) {
	ds, ids := singleQuery(t)
	for i, score := range []float64{0.1, 0.9, 0.2} {
		link, _ := ds.Get(ids[i])
		link.SetScore(score)
	}
	c := FromDataset(ds).Candidates("req")
	require.Len(t, c, 3)
	assert.True(t, c[1].Scored())
	assert.Equal(t, 0.9, c[1].Score)
	assert.Equal(t, "b", c[1].TargetID)
}

func TestQueryMatrix_QueryMetricAtK(t *testing.T) {
	ds, ids := singleQuery(t)
	m, err := NewQueryMatrix(ds, ids, []float64{0.2, 0.9, 0.8})
	require.NoError(t, err)

	for k, want := range map[int]float64{1: 0, 2: 0.5, 3: 2.0 / 3, 10: 2.0 / 3} {
		got, err := m.QueryMetricAtK(Precision, k, 0)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9, "k=%d", k)
	}

	_, err = m.QueryMetricAtK(Precision, 0, 0)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestQueryMatrix_Randomize(t *testing.T) {
	ds := tracetest.BuildDataset(t, tracetest.GridProject(4, 12))
	ids := ds.IDs()
	scores := make([]float64, len(ids))
	want := make(map[string]Candidate, len(ids))
	for i := range ids {
		scores[i] = float64(i%7) / 7
	}
	m, err := NewQueryMatrix(ds, ids, scores)
	require.NoError(t, err)
	before := m.Candidates("REQ-000")
	for _, q := range m.Queries() {
		for _, c := range m.Candidates(q) {
			want[c.LinkID] = c
		}
	}

	m.Randomize(rand.New(rand.NewSource(4)))

	assert.NotEqual(t, before, m.Candidates("REQ-000"))
	for _, q := range m.Queries() {
		for _, c := range m.Candidates(q) {
			assert.Equal(t, want[c.LinkID], c)
		}
	}
}

func TestPredictions_Normalize(t *testing.T) {
	scores, err := Predictions{Probabilities: [][]float64{{0.2, 0.8}, {0, 0}, {1, 3}}}.Normalize()
	require.NoError(t, err)
	assert.InDelta(t, 0.8, scores[0], 1e-12)
	assert.InDelta(t, 0.5, scores[1], 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-2)), scores[2], 1e-12)

	raw := []float64{3.5, -1}
	scores, err = Predictions{Scores: raw}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, raw, scores)

	_, err = Predictions{Probabilities: [][]float64{{0.1, 0.2, 0.7}}}.Normalize()
	assert.ErrorIs(t, err, errors.ErrLengthMismatch)

	_, err = Predictions{Scores: raw, Probabilities: [][]float64{{0.5, 0.5}}}.Normalize()
	assert.True(t, errors.IsConfigurationError(err))
}

func TestEngine_GlobalMetrics(t *testing.T) {
	e := NewEngine()
	report, err := e.Evaluate(Input{
		Labels:      []int{1, 0, 1, 0},
		Predictions: Predictions{Scores: []float64{0.9, 0.6, 0.4, 0.1}},
	}, ConfusionMatrix, PrecisionMetric, Recall, F1, F2, Specificity, Accuracy, GlobalAP)
	require.NoError(t, err)

	assert.Empty(t, report.Omitted)
	assert.Equal(t, map[string]float64{"tp": 1, "fp": 1, "tn": 1, "fn": 1}, report.Groups[ConfusionMatrix])
	for _, name := range []string{PrecisionMetric, Recall, F1, F2, Specificity, Accuracy} {
		assert.InDelta(t, 0.5, report.Values[name], 1e-9, name)
	}
	assert.InDelta(t, (1.0+2.0/3)/2, report.Values[GlobalAP], 1e-9)
	assert.NotEqual(t, uuid.Nil, report.RunID)
}

func TestEngine_Threshold(t *testing.T) {
	report, err := NewEngine(WithThreshold(0.3)).Evaluate(Input{
		Labels:      []int{1, 0, 1, 0},
		Predictions: Predictions{Scores: []float64{0.9, 0.6, 0.4, 0.1}},
	}, Recall)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.Values[Recall])
}

func TestEngine_QueryMetrics(t *testing.T) {
	ds, ids := singleQuery(t)
	in, err := InputFromDataset(ds, ids, Predictions{Scores: []float64{0.9, 0.1, 0.8}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, in.Labels)

	report, err := NewEngine(WithK(1, 3)).Evaluate(in, MAP, PrecisionAtK, LagMetric, MRR)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.Values[MAP])
	assert.Equal(t, 0.0, report.Values[LagMetric])
	assert.Equal(t, 1.0, report.Values[MRR])
	assert.Equal(t, map[string]float64{"precision@1": 1, "precision@3": 2.0 / 3}, report.Groups[PrecisionAtK])

	worst, err := InputFromDataset(ds, ids, Predictions{Scores: []float64{0.1, 0.9, 0.2}})
	require.NoError(t, err)
	report, err = NewEngine().Evaluate(worst, MAP)
	require.NoError(t, err)
	assert.Less(t, report.Values[MAP], 1.0)
}

func TestEngine_UnknownMetric(t *testing.T) {
	report, err := NewEngine().Evaluate(Input{}, MAP, "ndcg")
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.IsConfigurationError(err))
	assert.ErrorIs(t, err, errors.ErrUnknownMetric)
	assert.Contains(t, err.Error(), "ndcg")
}

func TestEngine_FailingMetricIsOmitted(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := NewEngine(WithLogger(zap.New(core).Sugar()))

	// Nothing scores above the threshold, so precision has no denominator
	report, err := e.Evaluate(Input{
		Labels:      []int{1, 0, 0},
		Predictions: Predictions{Scores: []float64{0.1, 0.2, 0.3}},
	}, PrecisionMetric, Recall, F1, Accuracy)
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.Values[Recall])
	assert.InDelta(t, 2.0/3, report.Values[Accuracy], 1e-9)
	assert.Contains(t, report.Omitted, PrecisionMetric)
	assert.Contains(t, report.Omitted, F1)
	assert.NotContains(t, report.Values, PrecisionMetric)

	failures := logs.FilterMessage("metric failed").All()
	require.Len(t, failures, 2)
	assert.Equal(t, "metrics", failures[0].LoggerName)
	assert.Equal(t, PrecisionMetric, failures[0].ContextMap()["metric"])
}

func TestEngine_PanickingMetricIsOmitted(t *testing.T) {
	catalog["explode"] = definition{Global, func(*evaluation) (result, error) {
		panic("index out of range")
	}}
	t.Cleanup(func() { delete(catalog, "explode") })

	report, err := NewEngine().Evaluate(Input{
		Labels:      []int{1, 0},
		Predictions: Predictions{Scores: []float64{0.9, 0.1}},
	}, "explode", Accuracy)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.Values[Accuracy])
	assert.Contains(t, report.Omitted["explode"], "index out of range")
}

func TestEngine_InputValidation(t *testing.T) {
	e := NewEngine()

	_, err := e.Evaluate(Input{Labels: []int{1}, Predictions: Predictions{Scores: []float64{0.1, 0.2}}}, Accuracy)
	assert.ErrorIs(t, err, errors.ErrLengthMismatch)

	_, err = e.Evaluate(Input{Labels: []int{2}, Predictions: Predictions{Scores: []float64{0.1}}}, Accuracy)
	assert.True(t, errors.IsConfigurationError(err))

	_, err = e.Evaluate(Input{Labels: []int{1}, Predictions: Predictions{Scores: []float64{0.1}}}, MAP)
	assert.True(t, errors.IsConfigurationError(err), "query metric without a dataset")
}

func TestEngine_AllMetricsByDefault(t *testing.T) {
	ds := tracetest.BuildDataset(t, tracetest.GridProject(6, 4))
	ids := ds.IDs()
	scores := make([]float64, len(ids))
	for i, id := range ids {
		link, _ := ds.Get(id)
		scores[i] = 0.2
		if link.Label {
			scores[i] = 0.7
		}
	}
	in, err := InputFromDataset(ds, ids, Predictions{Scores: scores})
	require.NoError(t, err)

	report, err := NewEngine(WithRandomize(1)).Evaluate(in)
	require.NoError(t, err)
	assert.Empty(t, report.Omitted)
	assert.ElementsMatch(t, Names(), report.Names())
	assert.Equal(t, 1.0, report.Values[MAP])

	flat := report.Flatten()
	assert.Equal(t, 1.0, flat[F1])
	assert.IsType(t, map[string]float64{}, flat[ConfusionMatrix])
}

func TestEndToEnd_BalancedPerfectScores(t *testing.T) {
	ds := tracetest.BuildDataset(t, tracetest.TwoByTwoProject())
	require.Equal(t, 4, ds.Len())
	require.Len(t, ds.PositiveIDs(), 1)
	require.Len(t, ds.NegativeIDs(), 3)

	balanced, err := augment.Balance(ds, rand.New(rand.NewSource(21)))
	require.NoError(t, err)
	require.Equal(t, 2, balanced.Len())

	ids := append(balanced.PositiveIDs(), balanced.NegativeIDs()...)
	scores := make([]float64, len(ids))
	for i, id := range ids {
		if id == tracelink.LinkID("s1", "t1") {
			scores[i] = 1
		}
	}

	m, err := NewQueryMatrix(balanced, ids, scores)
	require.NoError(t, err)
	got, err := m.QueryMetric(AveragePrecision, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}
