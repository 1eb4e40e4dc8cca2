// Package augment grows and rebalances the label distribution of a trace
// dataset by synthesizing positive links from existing ones.
package augment

import (
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/teranos/tracekit/errors"
)

// TextPair is the (source, target) text of one positive link
type TextPair struct {
	Source string
	Target string
}

// Result is one synthesized pair and the index of the input pair it came from
type Result struct {
	Pair   TextPair
	Origin int
	// Swapped marks a result whose source text came from the origin's target
	// artifact, so synthetic ids are derived from the swapped artifacts
	Swapped bool
}

// Step is one augmentation stage. Apply must not modify pairs and must draw
// randomness only from rng. ID is unique within a pipeline and becomes the
// suffix of synthetic artifact ids.
type Step interface {
	ID() string
	Apply(pairs []TextPair, rng *rand.Rand) ([]Result, error)
}

// SymmetricStep is implemented by steps that are only valid when tracing is
// symmetric
type SymmetricStep interface {
	RequiresSymmetry() bool
}

// selectIndices picks round(n*fraction) input positions without replacement
// and returns them in ascending order
func selectIndices(n int, fraction float64, rng *rand.Rand) []int {
	if fraction <= 0 || fraction >= 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := int(math.Round(float64(n) * fraction))
	picked := rng.Perm(n)[:k]
	sort.Ints(picked)
	return picked
}

func validateFraction(stepID string, fraction float64) error {
	if fraction < 0 || fraction > 1 {
		return errors.NewConfigurationError("step %s: fraction must be in [0,1], got %v", stepID, fraction)
	}
	return nil
}

// LexicalSubstitution replaces a fraction of words with alternatives from a
// synonym table
type LexicalSubstitution struct {
	Name     string              // step id, defaults to "lexical"
	Fraction float64             // share of pairs to augment, 0 means all
	Rate     float64             // share of words to replace in each text
	Synonyms map[string][]string // lower-case word -> alternatives
}

// ID implements Step
func (s *LexicalSubstitution) ID() string {
	if s.Name != "" {
		return s.Name
	}
	return string(KindLexical)
}

// Apply implements Step. Pairs where no word could be replaced produce no
// result.
func (s *LexicalSubstitution) Apply(pairs []TextPair, rng *rand.Rand) ([]Result, error) {
	if s.Rate <= 0 || s.Rate > 1 {
		return nil, errors.NewConfigurationError("step %s: rate must be in (0,1], got %v", s.ID(), s.Rate)
	}
	synonyms := s.Synonyms
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}

	var results []Result
	for _, i := range selectIndices(len(pairs), s.Fraction, rng) {
		src, srcChanged := s.substitute(pairs[i].Source, synonyms, rng)
		tgt, tgtChanged := s.substitute(pairs[i].Target, synonyms, rng)
		if !srcChanged && !tgtChanged {
			continue
		}
		results = append(results, Result{Pair: TextPair{Source: src, Target: tgt}, Origin: i})
	}
	return results, nil
}

func (s *LexicalSubstitution) substitute(text string, synonyms map[string][]string, rng *rand.Rand) (string, bool) {
	words := strings.Fields(text)
	var candidates []int
	for i, w := range words {
		if len(synonyms[strings.ToLower(w)]) > 0 {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return text, false
	}

	n := int(math.Round(s.Rate * float64(len(words))))
	n = min(max(n, 1), len(candidates))

	order := rng.Perm(len(candidates))
	for _, c := range order[:n] {
		pos := candidates[c]
		alts := synonyms[strings.ToLower(words[pos])]
		words[pos] = alts[rng.Intn(len(alts))]
	}
	return strings.Join(words, " "), true
}

// StructuralSwap mirrors a positive link by exchanging source and target
// roles. Only valid when tracing is symmetric.
type StructuralSwap struct {
	Name     string  // step id, defaults to "swap"
	Fraction float64 // share of pairs to mirror, 0 means all
}

// ID implements Step
func (s *StructuralSwap) ID() string {
	if s.Name != "" {
		return s.Name
	}
	return string(KindSwap)
}

// RequiresSymmetry implements SymmetricStep
func (s *StructuralSwap) RequiresSymmetry() bool { return true }

// Apply implements Step
func (s *StructuralSwap) Apply(pairs []TextPair, rng *rand.Rand) ([]Result, error) {
	var results []Result
	for _, i := range selectIndices(len(pairs), s.Fraction, rng) {
		results = append(results, Result{
			Pair:    TextPair{Source: pairs[i].Target, Target: pairs[i].Source},
			Origin:  i,
			Swapped: true,
		})
	}
	return results, nil
}

// Resample duplicates positive links exactly to inflate their representation
type Resample struct {
	Name     string  // step id, defaults to "resample"
	Fraction float64 // share of pairs to duplicate, 0 means all
	Copies   int     // copies per selected pair, defaults to 1
}

// ID implements Step
func (s *Resample) ID() string {
	if s.Name != "" {
		return s.Name
	}
	return string(KindResample)
}

// Apply implements Step
func (s *Resample) Apply(pairs []TextPair, rng *rand.Rand) ([]Result, error) {
	copies := max(s.Copies, 1)
	var results []Result
	for _, i := range selectIndices(len(pairs), s.Fraction, rng) {
		for c := 0; c < copies; c++ {
			results = append(results, Result{Pair: pairs[i], Origin: i})
		}
	}
	return results, nil
}
