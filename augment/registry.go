package augment

import (
	"sort"

	"github.com/teranos/tracekit/errors"
)

// Kind tags a step constructor
type Kind string

const (
	KindLexical  Kind = "lexical"
	KindSwap     Kind = "swap"
	KindResample Kind = "resample"
)

// StepSpec is the declarative form of a step, as read from configuration
type StepSpec struct {
	Kind     Kind    `mapstructure:"kind" yaml:"kind" toml:"kind" json:"kind"`
	ID       string  `mapstructure:"id" yaml:"id,omitempty" toml:"id,omitempty" json:"id,omitempty"`
	Fraction float64 `mapstructure:"fraction" yaml:"fraction" toml:"fraction" json:"fraction"`
	Rate     float64 `mapstructure:"rate" yaml:"rate,omitempty" toml:"rate,omitempty" json:"rate,omitempty"`
	Copies   int     `mapstructure:"copies" yaml:"copies,omitempty" toml:"copies,omitempty" json:"copies,omitempty"`
}

// Constructor builds a step from its spec
type Constructor func(spec StepSpec) (Step, error)

// Registry maps step kinds to constructors. Each registry is independent;
// there is no process-wide registry.
type Registry struct {
	ctors map[Kind]Constructor
}

// NewRegistry returns a registry holding the built-in steps
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[Kind]Constructor)}
	r.ctors[KindLexical] = func(spec StepSpec) (Step, error) {
		if err := validateFraction(string(spec.Kind), spec.Fraction); err != nil {
			return nil, err
		}
		rate := spec.Rate
		if rate == 0 {
			rate = 0.2
		}
		if rate < 0 || rate > 1 {
			return nil, errors.NewConfigurationError("step %s: rate must be in (0,1], got %v", spec.Kind, spec.Rate)
		}
		return &LexicalSubstitution{Name: spec.ID, Fraction: spec.Fraction, Rate: rate}, nil
	}
	r.ctors[KindSwap] = func(spec StepSpec) (Step, error) {
		if err := validateFraction(string(spec.Kind), spec.Fraction); err != nil {
			return nil, err
		}
		return &StructuralSwap{Name: spec.ID, Fraction: spec.Fraction}, nil
	}
	r.ctors[KindResample] = func(spec StepSpec) (Step, error) {
		if err := validateFraction(string(spec.Kind), spec.Fraction); err != nil {
			return nil, err
		}
		if spec.Copies < 0 {
			return nil, errors.NewConfigurationError("step %s: copies must be >= 0, got %d", spec.Kind, spec.Copies)
		}
		return &Resample{Name: spec.ID, Fraction: spec.Fraction, Copies: spec.Copies}, nil
	}
	return r
}

// Register adds a constructor for an additional step kind
func (r *Registry) Register(kind Kind, ctor Constructor) error {
	if kind == "" || ctor == nil {
		return errors.NewConfigurationError("step registration needs a kind and a constructor")
	}
	if _, exists := r.ctors[kind]; exists {
		return errors.NewConfigurationError("step kind %q is already registered", kind)
	}
	r.ctors[kind] = ctor
	return nil
}

// Build constructs the step described by spec
func (r *Registry) Build(spec StepSpec) (Step, error) {
	ctor, ok := r.ctors[spec.Kind]
	if !ok {
		return nil, errors.NewConfigurationError("unknown augmentation step kind %q", spec.Kind)
	}
	return ctor(spec)
}

// BuildAll constructs the steps of a pipeline in order
func (r *Registry) BuildAll(specs []StepSpec) ([]Step, error) {
	steps := make([]Step, 0, len(specs))
	for _, spec := range specs {
		step, err := r.Build(spec)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Kinds lists the registered step kinds in sorted order
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.ctors))
	for k := range r.ctors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
