package tracelink

import (
	"math/rand"

	"github.com/teranos/tracekit/errors"
)

// Dataset owns a set of trace links in discovery order plus the ordered
// positive and negative id pools.
//
// Invariants, held by every Dataset returned from this package:
//   - the positive and negative pools never share an id
//   - the distinct ids of both pools equal the key set of the link map
//   - every id in the positive pool belongs to a link with Label == true
//
// A pool may hold the same id more than once after resampling; Len counts
// those occurrences, Size counts distinct links.
type Dataset struct {
	links    map[string]*TraceLink
	order    []string
	positive []string
	negative []string
}

// NewDataset creates an empty dataset
func NewDataset() *Dataset {
	return &Dataset{links: make(map[string]*TraceLink)}
}

// FromLinks creates a dataset from links in the given order
func FromLinks(links ...*TraceLink) (*Dataset, error) {
	ds := NewDataset()
	for _, link := range links {
		if err := ds.Add(link); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// Add registers a link. Re-adding the same ordered pair replaces the stored
// link (last writer wins) and moves it to the pool matching its label without
// counting it twice. A different pair that hashes to an existing id is a
// link id collision and fails.
func (d *Dataset) Add(link *TraceLink) error {
	existing, ok := d.links[link.ID]
	if !ok {
		d.links[link.ID] = link
		d.order = append(d.order, link.ID)
		d.appendToPool(link)
		return nil
	}
	if !existing.SamePair(link) {
		return errors.NewIntegrityError(errors.KindLinkIDCollision, []string{
			existing.SourceID() + "->" + existing.TargetID(),
			link.SourceID() + "->" + link.TargetID(),
		}, -1)
	}
	d.links[link.ID] = link
	if existing.Label != link.Label {
		d.positive = removeID(d.positive, link.ID)
		d.negative = removeID(d.negative, link.ID)
		d.appendToPool(link)
	}
	return nil
}

// AddOccurrence appends another occurrence of an existing link to its pool.
// This is how resampled duplicates are represented.
func (d *Dataset) AddOccurrence(id string) error {
	link, ok := d.links[id]
	if !ok {
		return errors.Wrapf(errors.ErrDataIntegrity, "link %s is not in the dataset", id)
	}
	d.appendToPool(link)
	return nil
}

func (d *Dataset) appendToPool(link *TraceLink) {
	if link.Label {
		d.positive = append(d.positive, link.ID)
	} else {
		d.negative = append(d.negative, link.ID)
	}
}

// Get returns the link with the given id
func (d *Dataset) Get(id string) (*TraceLink, bool) {
	link, ok := d.links[id]
	return link, ok
}

// Has reports whether the link id is part of the dataset
func (d *Dataset) Has(id string) bool {
	_, ok := d.links[id]
	return ok
}

// Len returns the number of pool occurrences (positives plus negatives)
func (d *Dataset) Len() int {
	return len(d.positive) + len(d.negative)
}

// Size returns the number of distinct links
func (d *Dataset) Size() int {
	return len(d.links)
}

// IDs returns the distinct link ids in discovery order
func (d *Dataset) IDs() []string {
	return append([]string(nil), d.order...)
}

// Links returns the distinct links in discovery order
func (d *Dataset) Links() []*TraceLink {
	out := make([]*TraceLink, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.links[id])
	}
	return out
}

// PositiveIDs returns a copy of the positive pool
func (d *Dataset) PositiveIDs() []string {
	return append([]string(nil), d.positive...)
}

// NegativeIDs returns a copy of the negative pool
func (d *Dataset) NegativeIDs() []string {
	return append([]string(nil), d.negative...)
}

// Clone returns a dataset with its own pools and map that shares the link
// objects with d
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		links:    make(map[string]*TraceLink, len(d.links)),
		order:    append([]string(nil), d.order...),
		positive: append([]string(nil), d.positive...),
		negative: append([]string(nil), d.negative...),
	}
	for id, link := range d.links {
		c.links[id] = link
	}
	return c
}

// Subset returns a dataset over the given pools, sharing link objects with d.
// Every id must exist in d and sit in the pool matching its label. The link
// map of the subset holds exactly the distinct ids of both pools, in the
// discovery order of d.
func (d *Dataset) Subset(positive, negative []string) (*Dataset, error) {
	keep := make(map[string]bool, len(positive)+len(negative))
	for _, id := range positive {
		link, ok := d.links[id]
		if !ok {
			return nil, errors.Wrapf(errors.ErrDataIntegrity, "subset references unknown link %s", id)
		}
		if !link.Label {
			return nil, errors.Wrapf(errors.ErrDataIntegrity, "link %s is negative but listed as positive", id)
		}
		keep[id] = true
	}
	for _, id := range negative {
		link, ok := d.links[id]
		if !ok {
			return nil, errors.Wrapf(errors.ErrDataIntegrity, "subset references unknown link %s", id)
		}
		if link.Label {
			return nil, errors.Wrapf(errors.ErrDataIntegrity, "link %s is positive but listed as negative", id)
		}
		keep[id] = true
	}

	s := &Dataset{
		links:    make(map[string]*TraceLink, len(keep)),
		positive: append([]string(nil), positive...),
		negative: append([]string(nil), negative...),
	}
	for _, id := range d.order {
		if keep[id] {
			s.links[id] = d.links[id]
			s.order = append(s.order, id)
		}
	}
	return s, nil
}

// ResizeNegatives returns a dataset whose negative pool holds n occurrences.
// Growing keeps every current occurrence and draws the rest with replacement;
// shrinking samples without replacement. Positives are untouched.
func (d *Dataset) ResizeNegatives(n int, rng *rand.Rand) (*Dataset, error) {
	return d.Subset(d.positive, resizePool(d.negative, n, rng))
}

// ResizePositives is the positive-pool counterpart of ResizeNegatives
func (d *Dataset) ResizePositives(n int, rng *rand.Rand) (*Dataset, error) {
	return d.Subset(resizePool(d.positive, n, rng), d.negative)
}

func resizePool(pool []string, n int, rng *rand.Rand) []string {
	switch {
	case n <= 0 || len(pool) == 0:
		return nil
	case n == len(pool):
		return append([]string(nil), pool...)
	case n > len(pool):
		out := append(make([]string, 0, n), pool...)
		for len(out) < n {
			out = append(out, pool[rng.Intn(len(pool))])
		}
		return out
	default:
		// Pick n positions without replacement, then restore pool order
		picked := rng.Perm(len(pool))[:n]
		chosen := make([]bool, len(pool))
		for _, i := range picked {
			chosen[i] = true
		}
		out := make([]string, 0, n)
		for i, id := range pool {
			if chosen[i] {
				out = append(out, id)
			}
		}
		return out
	}
}

// SourceGroup holds the distinct links of one source artifact
type SourceGroup struct {
	SourceID string
	LinkIDs  []string
}

// GroupBySource groups the distinct links by source artifact id. Groups are
// ordered by first appearance in discovery order.
func (d *Dataset) GroupBySource() []SourceGroup {
	index := make(map[string]int)
	var groups []SourceGroup
	for _, id := range d.order {
		src := d.links[id].SourceID()
		i, ok := index[src]
		if !ok {
			i = len(groups)
			index[src] = i
			groups = append(groups, SourceGroup{SourceID: src})
		}
		groups[i].LinkIDs = append(groups[i].LinkIDs, id)
	}
	return groups
}

// Artifacts returns every artifact referenced by the dataset keyed by id,
// together with the ids in discovery order
func (d *Dataset) Artifacts() (map[string]*Artifact, []string) {
	byID := make(map[string]*Artifact)
	var ids []string
	for _, id := range d.order {
		link := d.links[id]
		for _, a := range [2]*Artifact{link.Source, link.Target} {
			if _, ok := byID[a.ID]; !ok {
				byID[a.ID] = a
				ids = append(ids, a.ID)
			}
		}
	}
	return byID, ids
}

// Stats summarizes the label distribution of a dataset
type Stats struct {
	Links     int     `json:"links" yaml:"links"`
	Positives int     `json:"positives" yaml:"positives"`
	Negatives int     `json:"negatives" yaml:"negatives"`
	Sources   int     `json:"sources" yaml:"sources"`
	Ratio     float64 `json:"positive_ratio" yaml:"positive_ratio"`
}

// Stats returns counts for the dataset's pools
func (d *Dataset) Stats() Stats {
	s := Stats{
		Links:     len(d.links),
		Positives: len(d.positive),
		Negatives: len(d.negative),
		Sources:   len(d.GroupBySource()),
	}
	if total := s.Positives + s.Negatives; total > 0 {
		s.Ratio = float64(s.Positives) / float64(total)
	}
	return s
}

// Validate checks the dataset invariants and the link id derivation
func (d *Dataset) Validate() error {
	seen := make(map[string]bool, len(d.links))
	for _, id := range d.positive {
		link, ok := d.links[id]
		if !ok {
			return errors.Wrapf(errors.ErrDataIntegrity, "positive id %s has no link", id)
		}
		if !link.Label {
			return errors.Wrapf(errors.ErrDataIntegrity, "positive id %s is labeled negative", id)
		}
		seen[id] = true
	}
	for _, id := range d.negative {
		link, ok := d.links[id]
		if !ok {
			return errors.Wrapf(errors.ErrDataIntegrity, "negative id %s has no link", id)
		}
		if link.Label {
			return errors.Wrapf(errors.ErrDataIntegrity, "negative id %s is labeled positive", id)
		}
		seen[id] = true
	}
	if len(seen) != len(d.links) || len(d.order) != len(d.links) {
		return errors.Wrapf(errors.ErrDataIntegrity,
			"pools cover %d links but the dataset holds %d", len(seen), len(d.links))
	}
	for id, link := range d.links {
		if want := LinkID(link.SourceID(), link.TargetID()); want != id {
			return errors.Wrapf(errors.ErrDataIntegrity, "link %s is stored under id %s", want, id)
		}
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
