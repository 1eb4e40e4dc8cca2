package augment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tracekit/errors"
)

func TestRegistry_Build(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []Kind{KindLexical, KindResample, KindSwap}, reg.Kinds())

	tests := []struct {
		name   string
		spec   StepSpec
		wantID string
		check  func(t *testing.T, s Step)
	}{
		{
			name:   "lexical default rate",
			spec:   StepSpec{Kind: KindLexical, Fraction: 0.5},
			wantID: "lexical",
			check: func(t *testing.T, s Step) {
				assert.Equal(t, 0.2, s.(*LexicalSubstitution).Rate)
			},
		},
		{
			name:   "named swap",
			spec:   StepSpec{Kind: KindSwap, ID: "mirror"},
			wantID: "mirror",
		},
		{
			name:   "resample copies",
			spec:   StepSpec{Kind: KindResample, Copies: 3},
			wantID: "resample",
			check: func(t *testing.T, s Step) {
				assert.Equal(t, 3, s.(*Resample).Copies)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, err := reg.Build(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, step.ID())
			if tt.check != nil {
				tt.check(t, step)
			}
		})
	}
}

func TestRegistry_BuildErrors(t *testing.T) {
	reg := NewRegistry()
	specs := map[string]StepSpec{
		"unknown kind":     {Kind: "paraphrase"},
		"fraction above 1": {Kind: KindSwap, Fraction: 1.5},
		"negative rate":    {Kind: KindLexical, Rate: -0.1},
		"negative copies":  {Kind: KindResample, Copies: -1},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Build(spec)
			require.Error(t, err)
			assert.True(t, errors.IsConfigurationError(err))
		})
	}

	_, err := reg.BuildAll([]StepSpec{{Kind: KindSwap}, {Kind: "paraphrase"}})
	assert.Error(t, err)
}

type constantStep struct{}

func (constantStep) ID() string { return "constant" }

func (constantStep) Apply(pairs []TextPair, rng *rand.Rand) ([]Result, error) {
	return nil, nil
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	ctor := func(StepSpec) (Step, error) { return constantStep{}, nil }

	require.NoError(t, reg.Register("constant", ctor))
	assert.Contains(t, reg.Kinds(), Kind("constant"))

	steps, err := reg.BuildAll([]StepSpec{{Kind: "constant"}, {Kind: KindResample}})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "constant", steps[0].ID())

	assert.Error(t, reg.Register("constant", ctor), "kinds register once")
	assert.Error(t, reg.Register("", ctor))
	assert.Error(t, reg.Register("other", nil))

	assert.NotContains(t, NewRegistry().Kinds(), Kind("constant"), "registries are independent")
}
