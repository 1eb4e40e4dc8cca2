package project

import (
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/metrics"
	"github.com/teranos/tracekit/tracelink"
)

// ScoreSet is a model's predictions for a project's candidate links
type ScoreSet struct {
	FormatVersion string       `yaml:"format_version"`
	Scores        []ScoredLink `yaml:"scores"`
}

// ScoredLink carries either a raw score or a two-class probability row
type ScoredLink struct {
	Source        string    `yaml:"source"`
	Target        string    `yaml:"target"`
	Score         float64   `yaml:"score,omitempty"`
	Probabilities []float64 `yaml:"probabilities,omitempty"`
}

// LinkID returns the id of the scored link
func (s ScoredLink) LinkID() string { return tracelink.LinkID(s.Source, s.Target) }

// LoadScores reads a score file
func LoadScores(path string) (*ScoreSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scores %s", path)
	}
	s, err := ParseScores(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scores %s", path)
	}
	return s, nil
}

// ParseScores decodes a score file. Entries must all carry raw scores or all
// carry probability rows, and no link may be scored twice.
func ParseScores(data []byte) (*ScoreSet, error) {
	var s ScoreSet
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "failed to parse scores YAML")
	}
	if err := CheckFormat(s.FormatVersion); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(s.Scores))
	var duplicates []string
	for i, sl := range s.Scores {
		if (sl.Probabilities != nil) != s.probabilistic() {
			return nil, errors.NewConfigurationError("score %d (%s->%s) mixes raw scores and probability rows", i, sl.Source, sl.Target)
		}
		id := sl.LinkID()
		if seen[id] {
			duplicates = append(duplicates, sl.Source+"->"+sl.Target)
		}
		seen[id] = true
	}
	if len(duplicates) > 0 {
		return nil, errors.NewIntegrityError(errors.KindDuplicateScore, duplicates, -1)
	}
	return &s, nil
}

func (s *ScoreSet) probabilistic() bool {
	return len(s.Scores) > 0 && s.Scores[0].Probabilities != nil
}

// Align returns predictions index-aligned with linkIDs. Links without an
// entry are unscored. Entries naming links outside linkIDs are returned as
// unmatched.
func (s *ScoreSet) Align(linkIDs []string) (metrics.Predictions, []string) {
	byID := make(map[string]ScoredLink, len(s.Scores))
	for _, sl := range s.Scores {
		byID[sl.LinkID()] = sl
	}

	var p metrics.Predictions
	if s.probabilistic() {
		p.Probabilities = make([][]float64, len(linkIDs))
	} else {
		p.Scores = make([]float64, len(linkIDs))
	}

	used := make(map[string]bool, len(linkIDs))
	for i, id := range linkIDs {
		sl, ok := byID[id]
		used[id] = ok
		switch {
		case p.Probabilities != nil && ok:
			p.Probabilities[i] = sl.Probabilities
		case p.Probabilities != nil:
			p.Probabilities[i] = []float64{math.NaN(), math.NaN()}
		case ok:
			p.Scores[i] = sl.Score
		default:
			p.Scores[i] = math.NaN()
		}
	}

	var unmatched []string
	for _, sl := range s.Scores {
		if !used[sl.LinkID()] {
			unmatched = append(unmatched, sl.Source+"->"+sl.Target)
		}
	}
	return p, unmatched
}
