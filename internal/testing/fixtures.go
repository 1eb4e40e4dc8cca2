package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/teranos/tracekit/builder"
	"github.com/teranos/tracekit/tracelink"
)

// TwoByTwoProject returns {s1,s2} x {t1,t2} with (s1,t1) as the only true link
func TwoByTwoProject() *builder.Project {
	return &builder.Project{
		Layers: map[string][]builder.ArtifactRecord{
			"requirement": {
				{ID: "s1", Content: "the user shall log in with a password"},
				{ID: "s2", Content: "every change shall be written to the audit trail"},
			},
			"code": {
				{ID: "t1", Content: "class LoginController handles password login"},
				{ID: "t2", Content: "class AuditLog appends change records"},
			},
		},
		TrueLinks: []builder.LinkPair{{Source: "s1", Target: "t1"}},
		Mappings:  []tracelink.LayerMapping{{SourceType: "requirement", TargetType: "code"}},
	}
}

// GridProject returns a requirement layer of nSources artifacts and a code
// layer of nTargets artifacts. Source i is truly linked to targets
// i mod nTargets and (i+1) mod nTargets.
func GridProject(nSources, nTargets int) *builder.Project {
	p := &builder.Project{
		Layers: map[string][]builder.ArtifactRecord{
			"requirement": make([]builder.ArtifactRecord, 0, nSources),
			"code":        make([]builder.ArtifactRecord, 0, nTargets),
		},
		Mappings: []tracelink.LayerMapping{{SourceType: "requirement", TargetType: "code"}},
	}
	for i := 0; i < nSources; i++ {
		p.Layers["requirement"] = append(p.Layers["requirement"], builder.ArtifactRecord{
			ID:      fmt.Sprintf("REQ-%03d", i),
			Content: fmt.Sprintf("the system shall support feature %d", i),
		})
	}
	for j := 0; j < nTargets; j++ {
		p.Layers["code"] = append(p.Layers["code"], builder.ArtifactRecord{
			ID:      fmt.Sprintf("SRC-%03d", j),
			Content: fmt.Sprintf("func Feature%d() error", j),
		})
	}
	for i := 0; i < nSources; i++ {
		p.TrueLinks = append(p.TrueLinks,
			builder.LinkPair{Source: fmt.Sprintf("REQ-%03d", i), Target: fmt.Sprintf("SRC-%03d", i%nTargets)},
		)
		if nTargets > 1 {
			p.TrueLinks = append(p.TrueLinks,
				builder.LinkPair{Source: fmt.Sprintf("REQ-%03d", i), Target: fmt.Sprintf("SRC-%03d", (i+1)%nTargets)},
			)
		}
	}
	return p
}

// BuildDataset builds a project with default options and fails the test on error
func BuildDataset(t *testing.T, p *builder.Project) *tracelink.Dataset {
	t.Helper()

	ds, err := builder.New().Build(context.Background(), p)
	if err != nil {
		t.Fatalf("Failed to build dataset: %v", err)
	}
	return ds
}
