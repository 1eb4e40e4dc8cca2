// Package builder turns artifact layers and known true links into the full
// candidate-link dataset.
package builder

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/logger"
	"github.com/teranos/tracekit/tracelink"
)

// ctxCheckInterval is how many candidates a worker generates between
// context checks
const ctxCheckInterval = 1024

// Builder constructs candidate-link datasets from projects
type Builder struct {
	cfg    config
	logger *zap.SugaredLogger
}

// Report describes what a build found besides the dataset itself
type Report struct {
	Mappings       int             `json:"mappings"`
	Candidates     int             `json:"candidates"`
	DuplicatePairs int             `json:"duplicate_pairs"`
	MissingIDs     []string        `json:"missing_ids,omitempty"`
	OrphanIDs      []string        `json:"orphan_ids,omitempty"`
	OrphansRemoved bool            `json:"orphans_removed"`
	Stats          tracelink.Stats `json:"stats"`
}

// New creates a builder
func New(opts ...Option) *Builder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder{
		cfg:    cfg,
		logger: logger.Named(cfg.logger, "builder"),
	}
}

// Build constructs the candidate-link dataset of a project
func (b *Builder) Build(ctx context.Context, p *Project) (*tracelink.Dataset, error) {
	ds, _, err := b.BuildWithReport(ctx, p)
	return ds, err
}

// BuildWithReport constructs the dataset and reports missing references,
// orphans and duplicate pairs. For every layer mapping the full cross product
// of source and target artifacts becomes one link each; a link is positive
// iff its pair is a known true link.
func (b *Builder) BuildWithReport(ctx context.Context, p *Project) (*tracelink.Dataset, *Report, error) {
	start := time.Now()

	if err := validateMappings(p); err != nil {
		return nil, nil, err
	}
	artifacts, err := b.createArtifacts(p)
	if err != nil {
		return nil, nil, err
	}
	domain := candidateDomain(p)

	report := &Report{Mappings: len(p.Mappings)}

	report.MissingIDs = missingReferences(p.TrueLinks, domain.set)
	if len(report.MissingIDs) > 0 {
		if b.exceeds(len(report.MissingIDs), b.cfg.allowedMissing) {
			return nil, report, b.integrityError(errors.KindMissingReference, report.MissingIDs, b.cfg.allowedMissing)
		}
		b.logger.Warnw("true links reference artifacts outside the candidate domain",
			logger.FieldMissing, len(report.MissingIDs),
			logger.FieldAllowed, b.cfg.allowedMissing)
	}

	truth := make(map[LinkPair]bool, len(p.TrueLinks))
	for _, pair := range p.TrueLinks {
		truth[pair] = true
	}

	partials, err := b.generate(ctx, p, artifacts, truth)
	if err != nil {
		return nil, report, err
	}

	ds := tracelink.NewDataset()
	for _, partial := range partials {
		report.Candidates += len(partial)
		for _, link := range partial {
			if ds.Has(link.ID) {
				report.DuplicatePairs++
			}
			if err := ds.Add(link); err != nil {
				return nil, report, err
			}
		}
	}

	report.OrphanIDs = findOrphans(ds, domain.ordered)
	if len(report.OrphanIDs) > 0 {
		if b.exceeds(len(report.OrphanIDs), b.cfg.allowedOrphans) {
			return nil, report, b.integrityError(errors.KindOrphan, report.OrphanIDs, b.cfg.allowedOrphans)
		}
		if b.cfg.removeOrphans {
			ds, err = removeOrphans(ds, report.OrphanIDs)
			if err != nil {
				return nil, report, err
			}
			report.OrphansRemoved = true
		}
	}

	if err := ds.Validate(); err != nil {
		return nil, report, errors.Wrap(err, "built dataset failed validation")
	}
	report.Stats = ds.Stats()

	b.logger.Infow("built candidate links",
		logger.FieldMappings, report.Mappings,
		logger.FieldLinks, report.Stats.Links,
		logger.FieldPositives, report.Stats.Positives,
		logger.FieldNegatives, report.Stats.Negatives,
		logger.FieldOrphans, len(report.OrphanIDs),
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	return ds, report, nil
}

func (b *Builder) exceeds(count, allowed int) bool {
	return allowed != Unlimited && count > allowed
}

func (b *Builder) integrityError(kind errors.IntegrityKind, ids []string, allowed int) error {
	ie := errors.NewIntegrityError(kind, ids, allowed)
	ie.BatchSize = b.cfg.batchSize
	b.logger.Errorw("data integrity check failed", "kind", string(kind), logger.FieldCount, len(ids), logger.FieldAllowed, allowed)
	return ie
}

// generate fans the layer mappings out to a bounded worker pool. Workers only
// read the artifact map and the truth set; each writes its own slot of the
// result slice, which is read after Wait returns.
func (b *Builder) generate(ctx context.Context, p *Project, artifacts map[string]*tracelink.Artifact, truth map[LinkPair]bool) ([][]*tracelink.TraceLink, error) {
	partials := make([][]*tracelink.TraceLink, len(p.Mappings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.workers)

	for i, mapping := range p.Mappings {
		g.Go(func() error {
			links, err := crossJoin(gctx, p.Layers[mapping.SourceType], p.Layers[mapping.TargetType], artifacts, truth)
			if err != nil {
				return errors.Wrapf(err, "mapping %s", mapping)
			}
			partials[i] = links
			b.logger.Debugw("generated mapping", "mapping", mapping.String(), logger.FieldLinks, len(links))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}

func crossJoin(ctx context.Context, sources, targets []ArtifactRecord, artifacts map[string]*tracelink.Artifact, truth map[LinkPair]bool) ([]*tracelink.TraceLink, error) {
	links := make([]*tracelink.TraceLink, 0, len(sources)*len(targets))
	n := 0
	for _, src := range sources {
		for _, tgt := range targets {
			if src.ID == tgt.ID {
				continue
			}
			n++
			if n%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			label := truth[LinkPair{Source: src.ID, Target: tgt.ID}]
			links = append(links, tracelink.NewLink(artifacts[src.ID], artifacts[tgt.ID], label))
		}
	}
	return links, nil
}

func validateMappings(p *Project) error {
	if len(p.Mappings) == 0 {
		return errors.NewConfigurationError("project declares no layer mappings")
	}
	for _, m := range p.Mappings {
		if _, ok := p.Layers[m.SourceType]; !ok {
			return errors.NewConfigurationError("layer mapping %s references unknown source layer %q", m, m.SourceType)
		}
		if _, ok := p.Layers[m.TargetType]; !ok {
			return errors.NewConfigurationError("layer mapping %s references unknown target layer %q", m, m.TargetType)
		}
	}
	return nil
}

// createArtifacts creates every artifact once so that links generated by
// different workers share the same artifact objects
func (b *Builder) createArtifacts(p *Project) (map[string]*tracelink.Artifact, error) {
	layerTypes := make([]string, 0, len(p.Layers))
	for t := range p.Layers {
		layerTypes = append(layerTypes, t)
	}
	sort.Strings(layerTypes)

	artifacts := make(map[string]*tracelink.Artifact, p.ArtifactCount())
	var duplicates []string
	for _, t := range layerTypes {
		for _, rec := range p.Layers[t] {
			if _, ok := artifacts[rec.ID]; ok {
				duplicates = append(duplicates, rec.ID)
				continue
			}
			artifacts[rec.ID] = tracelink.NewArtifact(rec.ID, rec.Content).WithSummary(rec.Summary)
		}
	}
	if len(duplicates) > 0 {
		return nil, b.integrityError(errors.KindDuplicateID, duplicates, -1)
	}
	return artifacts, nil
}

type domain struct {
	set     map[string]bool
	ordered []string
}

// candidateDomain collects the artifacts of every layer a mapping touches, in
// mapping order
func candidateDomain(p *Project) domain {
	d := domain{set: make(map[string]bool)}
	for _, m := range p.Mappings {
		for _, layer := range [2]string{m.SourceType, m.TargetType} {
			for _, rec := range p.Layers[layer] {
				if !d.set[rec.ID] {
					d.set[rec.ID] = true
					d.ordered = append(d.ordered, rec.ID)
				}
			}
		}
	}
	return d
}

func missingReferences(trueLinks []LinkPair, domain map[string]bool) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, pair := range trueLinks {
		for _, id := range [2]string{pair.Source, pair.Target} {
			if !domain[id] && !seen[id] {
				seen[id] = true
				missing = append(missing, id)
			}
		}
	}
	return missing
}

func findOrphans(ds *tracelink.Dataset, domainIDs []string) []string {
	linked := make(map[string]bool)
	for _, id := range ds.PositiveIDs() {
		link, _ := ds.Get(id)
		linked[link.SourceID()] = true
		linked[link.TargetID()] = true
	}
	var orphans []string
	for _, id := range domainIDs {
		if !linked[id] {
			orphans = append(orphans, id)
		}
	}
	return orphans
}

// removeOrphans drops every link touching an orphan. Orphans have no positive
// links, so only negatives are removed.
func removeOrphans(ds *tracelink.Dataset, orphanIDs []string) (*tracelink.Dataset, error) {
	orphan := make(map[string]bool, len(orphanIDs))
	for _, id := range orphanIDs {
		orphan[id] = true
	}
	var negatives []string
	for _, id := range ds.NegativeIDs() {
		link, _ := ds.Get(id)
		if !orphan[link.SourceID()] && !orphan[link.TargetID()] {
			negatives = append(negatives, id)
		}
	}
	return ds.Subset(ds.PositiveIDs(), negatives)
}
