package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.False(t, IsConfigurationError(nil))
	assert.False(t, IsDataIntegrityError(nil))
	assert.False(t, IsComputationError(nil))
}

func TestNewConfigurationError(t *testing.T) {
	err := NewConfigurationError("val_percentage must be in [0,1], got %v", 1.5)

	assert.True(t, IsConfigurationError(err))
	assert.False(t, IsDataIntegrityError(err))
	assert.Contains(t, err.Error(), "val_percentage must be in [0,1], got 1.5")

	// Wrapping keeps the classification
	err = Wrap(err, "splitter")
	assert.True(t, Is(err, ErrConfiguration))
}

func TestNewLengthMismatch(t *testing.T) {
	err := NewLengthMismatch("scores", 4, 3)
	assert.True(t, Is(err, ErrLengthMismatch))
	assert.Contains(t, err.Error(), "expected 4 entries, got 3")
}

func TestNewUnknownMetric(t *testing.T) {
	err := NewUnknownMetric("ndcg")
	assert.True(t, IsConfigurationError(err))
	assert.True(t, Is(err, ErrUnknownMetric))
	assert.False(t, IsComputationError(err))
	assert.Contains(t, err.Error(), `"ndcg"`)
}

func TestIntegrityError_Batches(t *testing.T) {
	ids := make([]string, 23)
	for i := range ids {
		ids[i] = fmt.Sprintf("A%02d", i)
	}
	ie := NewIntegrityError(KindMissingReference, ids, 5)

	batches := ie.Batches()
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 10)
	assert.Len(t, batches[1], 10)
	assert.Equal(t, []string{"A20", "A21", "A22"}, batches[2])

	msg := ie.Error()
	assert.Contains(t, msg, "missing_reference: 23 offending ids (allowed 5)")
	assert.Contains(t, msg, "[3] A20, A21, A22")
}

func TestIntegrityError_CustomBatchSize(t *testing.T) {
	ie := &IntegrityError{Kind: KindOrphan, IDs: []string{"a", "b", "c"}, Allowed: -1, BatchSize: 2}

	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, ie.Batches())
	assert.NotContains(t, ie.Error(), "allowed")
}

func TestIntegrityError_Classification(t *testing.T) {
	var err error = NewIntegrityError(KindLinkIDCollision, []string{"x"}, -1)
	err = Wrap(err, "building dataset")

	assert.True(t, IsDataIntegrityError(err))

	var ie *IntegrityError
	require.True(t, As(err, &ie))
	assert.Equal(t, KindLinkIDCollision, ie.Kind)
	assert.Equal(t, []string{"x"}, ie.IDs)
}

func TestMetricError(t *testing.T) {
	cause := New("division by zero")
	var err error = &MetricError{Metric: "map", Err: cause}

	assert.True(t, IsComputationError(err))
	assert.Equal(t, `metric "map": division by zero`, err.Error())

	var me *MetricError
	require.True(t, As(err, &me))
	assert.Equal(t, "map", me.Metric)
}

func ExampleNewIntegrityError() {
	err := NewIntegrityError(KindMissingReference, []string{"REQ-1", "SRC-9"}, 0)
	fmt.Println(err)
	// Output:
	// missing_reference: 2 offending ids (allowed 0)
	//   [1] REQ-1, SRC-9
}
