package builder

import (
	"github.com/teranos/tracekit/tracelink"
)

// ArtifactRecord is one artifact as delivered by a project reader
type ArtifactRecord struct {
	ID      string `yaml:"id" json:"id"`
	Content string `yaml:"content" json:"content"`
	Summary string `yaml:"summary,omitempty" json:"summary,omitempty"`
}

// LinkPair is a known true link between two artifact ids
type LinkPair struct {
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`
}

// Project is the normalized triple every project reader produces: artifact
// layers keyed by layer type, the known true links, and the layer mappings
// to cross-join. Layer slices keep reader order, which becomes the discovery
// order of the built dataset.
type Project struct {
	Layers    map[string][]ArtifactRecord
	TrueLinks []LinkPair
	Mappings  []tracelink.LayerMapping
}

// ArtifactCount returns the number of artifacts across all layers
func (p *Project) ArtifactCount() int {
	n := 0
	for _, layer := range p.Layers {
		n += len(layer)
	}
	return n
}

// CandidateCount returns the number of candidate links the mappings produce,
// before self pairs and duplicates are dropped
func (p *Project) CandidateCount() int {
	n := 0
	for _, m := range p.Mappings {
		n += len(p.Layers[m.SourceType]) * len(p.Layers[m.TargetType])
	}
	return n
}
