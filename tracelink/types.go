// Package tracelink defines the artifacts, candidate trace links and the
// dataset container every other tracekit package operates on.
package tracelink

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/teranos/tracekit/internal/util"
)

// linkIDBytes is the width of a link id digest before hex encoding
const linkIDBytes = 16

// FeatureFunc extracts a feature vector from artifact content
type FeatureFunc func(content string) []float64

// Artifact is a single traceable unit of content (a requirement, a code unit).
// Artifacts are immutable once created except for the memoized feature vector.
type Artifact struct {
	ID      string
	Content string
	Summary string // optional

	featuresOnce sync.Once
	features     []float64
}

// NewArtifact creates an artifact with the given id and content
func NewArtifact(id, content string) *Artifact {
	return &Artifact{ID: id, Content: content}
}

// WithSummary sets the optional summary and returns the artifact
func (a *Artifact) WithSummary(summary string) *Artifact {
	a.Summary = summary
	return a
}

// Features returns the artifact's feature vector, computing it with extract
// on first use. Later calls return the cached vector regardless of extract.
func (a *Artifact) Features(extract FeatureFunc) []float64 {
	a.featuresOnce.Do(func() {
		if extract != nil {
			a.features = extract(a.Content)
		}
	})
	return a.features
}

// Text returns the summary when present, otherwise the content
func (a *Artifact) Text() string {
	if a.Summary != "" {
		return a.Summary
	}
	return a.Content
}

// LayerMapping declares that two artifact layers are cross-joined into
// candidate links
type LayerMapping struct {
	SourceType string `mapstructure:"source" yaml:"source" json:"source"`
	TargetType string `mapstructure:"target" yaml:"target" json:"target"`
}

// String renders the mapping as "source->target"
func (m LayerMapping) String() string {
	return m.SourceType + "->" + m.TargetType
}

// LinkID derives the id of the ordered pair (sourceID, targetID). The id is
// the hex encoding of a truncated SHA-256 over the null-separated ids, so
// (a, b) and (b, a) have different ids.
func LinkID(sourceID, targetID string) string {
	h := sha256.New()
	h.Write([]byte(sourceID))
	h.Write([]byte{0})
	h.Write([]byte(targetID))
	return hex.EncodeToString(h.Sum(nil)[:linkIDBytes])
}

// TraceLink is a candidate or confirmed relation between a source and a
// target artifact
type TraceLink struct {
	ID          string
	Source      *Artifact
	Target      *Artifact
	Label       bool
	Explanation string // optional

	score *float64
}

// NewLink creates a link between source and target with a derived id
func NewLink(source, target *Artifact, label bool) *TraceLink {
	return &TraceLink{
		ID:     LinkID(source.ID, target.ID),
		Source: source,
		Target: target,
		Label:  label,
	}
}

// SourceID returns the id of the source artifact
func (l *TraceLink) SourceID() string { return l.Source.ID }

// TargetID returns the id of the target artifact
func (l *TraceLink) TargetID() string { return l.Target.ID }

// SamePair reports whether both links connect the same ordered artifact ids
func (l *TraceLink) SamePair(other *TraceLink) bool {
	return l.Source.ID == other.Source.ID && l.Target.ID == other.Target.ID
}

// Score returns the prediction score and whether one has been set
func (l *TraceLink) Score() (float64, bool) {
	if l.score == nil {
		return 0, false
	}
	return *l.score, true
}

// SetScore records the prediction score of the current run
func (l *TraceLink) SetScore(score float64) {
	l.score = util.Ptr(score)
}

// ClearScore drops the prediction score before a new run
func (l *TraceLink) ClearScore() {
	l.score = nil
}

// LabelInt returns 1 for a positive link and 0 otherwise
func (l *TraceLink) LabelInt() int {
	if l.Label {
		return 1
	}
	return 0
}

// String renders the link for logs
func (l *TraceLink) String() string {
	return fmt.Sprintf("%s->%s (label=%t)", l.Source.ID, l.Target.ID, l.Label)
}
