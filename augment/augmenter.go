package augment

import (
	"math/rand"
	"strconv"

	"go.uber.org/zap"

	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/logger"
	"github.com/teranos/tracekit/tracelink"
)

// Config controls an augmentation pipeline
type Config struct {
	Seed      int64
	Symmetric bool // tracing is symmetric, so mirrored links are valid positives
	Balance   bool // resize negatives to the positive count after augmenting
	Logger    *zap.SugaredLogger
}

// Augmenter runs an ordered pipeline of steps over a dataset's positive links
type Augmenter struct {
	cfg    Config
	steps  []Step
	logger *zap.SugaredLogger
}

// StepReport counts what one step produced
type StepReport struct {
	Step        string `json:"step"`
	Results     int    `json:"results"`
	NewLinks    int    `json:"new_links"`
	Occurrences int    `json:"occurrences"` // results that resampled an existing link
	Skipped     int    `json:"skipped"`     // results that collided with a negative link
}

// Report summarizes an augmentation run
type Report struct {
	Steps           []StepReport `json:"steps"`
	PositivesBefore int          `json:"positives_before"`
	PositivesAfter  int          `json:"positives_after"`
	NegativesBefore int          `json:"negatives_before"`
	NegativesAfter  int          `json:"negatives_after"`
}

// New validates the pipeline. Step ids must be non-empty and unique, and
// steps that require symmetric tracing are rejected unless cfg.Symmetric.
func New(cfg Config, steps ...Step) (*Augmenter, error) {
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		if step == nil {
			return nil, errors.NewConfigurationError("augmentation pipeline contains a nil step")
		}
		id := step.ID()
		if id == "" {
			return nil, errors.NewConfigurationError("augmentation step has an empty id")
		}
		if seen[id] {
			return nil, errors.NewConfigurationError("augmentation step id %q is used twice", id)
		}
		seen[id] = true
		if sym, ok := step.(SymmetricStep); ok && sym.RequiresSymmetry() && !cfg.Symmetric {
			return nil, errors.NewConfigurationError("step %q mirrors links and requires symmetric tracing", id)
		}
	}
	return &Augmenter{
		cfg:    cfg,
		steps:  steps,
		logger: logger.Named(cfg.Logger, "augment"),
	}, nil
}

type staged struct {
	step    Step
	results []Result
}

// Run augments ds and returns a new dataset. Every step runs before anything
// is committed; if a step fails the error is returned and ds is untouched.
// Each run uses its own generator seeded from the config, so repeated runs
// over the same input give the same output.
func (a *Augmenter) Run(ds *tracelink.Dataset) (*tracelink.Dataset, *Report, error) {
	rng := rand.New(rand.NewSource(a.cfg.Seed))

	origins := distinctPositives(ds)
	pairs := make([]TextPair, len(origins))
	for i, link := range origins {
		pairs[i] = TextPair{Source: link.Source.Content, Target: link.Target.Content}
	}

	stages := make([]staged, 0, len(a.steps))
	for _, step := range a.steps {
		input := append([]TextPair(nil), pairs...)
		results, err := step.Apply(input, rng)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "augmentation step %q", step.ID())
		}
		for _, r := range results {
			if r.Origin < 0 || r.Origin >= len(origins) {
				return nil, nil, errors.NewComputationError("step %q returned origin %d outside [0,%d)", step.ID(), r.Origin, len(origins))
			}
		}
		stages = append(stages, staged{step: step, results: results})
	}

	out := ds.Clone()
	artifacts, _ := ds.Artifacts()
	report := &Report{
		PositivesBefore: len(ds.PositiveIDs()),
		NegativesBefore: len(ds.NegativeIDs()),
	}

	for _, st := range stages {
		sr, err := commit(out, artifacts, origins, st)
		if err != nil {
			return nil, nil, err
		}
		report.Steps = append(report.Steps, sr)
		a.logger.Debugw("committed augmentation step",
			logger.FieldStep, sr.Step,
			logger.FieldCount, sr.Results,
			"new_links", sr.NewLinks)
	}

	if a.cfg.Balance {
		balanced, err := Balance(out, rng)
		if err != nil {
			return nil, nil, err
		}
		out = balanced
	}

	report.PositivesAfter = len(out.PositiveIDs())
	report.NegativesAfter = len(out.NegativeIDs())
	a.logger.Infow("augmented dataset",
		"positives_before", report.PositivesBefore,
		logger.FieldPositives, report.PositivesAfter,
		logger.FieldNegatives, report.NegativesAfter,
		logger.FieldSeed, a.cfg.Seed)

	return out, report, nil
}

func commit(out *tracelink.Dataset, artifacts map[string]*tracelink.Artifact, origins []*tracelink.TraceLink, st staged) (StepReport, error) {
	sr := StepReport{Step: st.step.ID(), Results: len(st.results)}
	suffix := st.step.ID()

	for seq, r := range st.results {
		origin := origins[r.Origin]
		srcBase, tgtBase := origin.SourceID(), origin.TargetID()
		if r.Swapped {
			srcBase, tgtBase = tgtBase, srcBase
		}

		src, err := syntheticArtifact(artifacts, srcBase, suffix, r.Pair.Source, seq)
		if err != nil {
			return sr, err
		}
		tgt, err := syntheticArtifact(artifacts, tgtBase, suffix, r.Pair.Target, seq)
		if err != nil {
			return sr, err
		}

		link := tracelink.NewLink(src, tgt, true)
		existing, ok := out.Get(link.ID)
		switch {
		case !ok:
			if err := out.Add(link); err != nil {
				return sr, err
			}
			sr.NewLinks++
		case existing.Label:
			if err := out.AddOccurrence(link.ID); err != nil {
				return sr, err
			}
			sr.Occurrences++
		default:
			sr.Skipped++
		}
	}
	return sr, nil
}

func syntheticArtifact(artifacts map[string]*tracelink.Artifact, originalID, suffix, content string, seq int) (*tracelink.Artifact, error) {
	id, err := AssignID(artifacts, originalID, suffix, content, seq)
	if err != nil {
		return nil, err
	}
	if a, ok := artifacts[id]; ok {
		return a, nil
	}
	a := tracelink.NewArtifact(id, content)
	artifacts[id] = a
	return a, nil
}

// AssignID derives the id of a synthetic artifact: originalID + "_" + suffix.
// When that id already names an artifact with different content, the entry's
// within-step sequence number is appended. Identical content always maps to
// the same id; divergent content never reuses an id.
func AssignID(existing map[string]*tracelink.Artifact, originalID, suffix, content string, seq int) (string, error) {
	id := originalID + "_" + suffix
	if a, ok := existing[id]; !ok || a.Content == content {
		return id, nil
	}
	id += "_" + strconv.Itoa(seq)
	if a, ok := existing[id]; !ok || a.Content == content {
		return id, nil
	}
	return "", errors.NewIntegrityError(errors.KindDuplicateID, []string{id}, -1)
}

// Balance resizes the negative pool to the positive pool's size, drawing with
// replacement when it grows and without replacement when it shrinks
func Balance(ds *tracelink.Dataset, rng *rand.Rand) (*tracelink.Dataset, error) {
	return ds.ResizeNegatives(len(ds.PositiveIDs()), rng)
}

func distinctPositives(ds *tracelink.Dataset) []*tracelink.TraceLink {
	seen := make(map[string]bool)
	var links []*tracelink.TraceLink
	for _, id := range ds.PositiveIDs() {
		if seen[id] {
			continue
		}
		seen[id] = true
		link, _ := ds.Get(id)
		links = append(links, link)
	}
	return links
}
