package errors

import (
	"fmt"
	"strings"
)

// DefaultBatchSize is the number of ids rendered per line of an IntegrityError
const DefaultBatchSize = 10

// IntegrityKind names the structural rule an IntegrityError reports
type IntegrityKind string

const (
	KindMissingReference IntegrityKind = "missing_reference"
	KindOrphan           IntegrityKind = "orphan"
	KindLinkIDCollision  IntegrityKind = "link_id_collision"
	KindDuplicateID      IntegrityKind = "duplicate_artifact_id"
	KindDuplicateScore   IntegrityKind = "duplicate_score"
)

// IntegrityError lists every offending id behind a data integrity failure.
// Ids are kept in the order they were found.
type IntegrityError struct {
	Kind      IntegrityKind
	IDs       []string
	Allowed   int // allowance that was exceeded, -1 when no allowance applies
	BatchSize int
}

// NewIntegrityError creates an IntegrityError with the default batch size
func NewIntegrityError(kind IntegrityKind, ids []string, allowed int) *IntegrityError {
	return &IntegrityError{
		Kind:      kind,
		IDs:       ids,
		Allowed:   allowed,
		BatchSize: DefaultBatchSize,
	}
}

// Batches splits the offending ids into fixed-size batches
func (e *IntegrityError) Batches() [][]string {
	size := e.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][]string, 0, (len(e.IDs)+size-1)/size)
	for start := 0; start < len(e.IDs); start += size {
		end := min(start+size, len(e.IDs))
		batches = append(batches, e.IDs[start:end])
	}
	return batches
}

// Error renders a header line followed by one line per batch
func (e *IntegrityError) Error() string {
	var b strings.Builder
	if e.Allowed >= 0 {
		fmt.Fprintf(&b, "%s: %d offending ids (allowed %d)", e.Kind, len(e.IDs), e.Allowed)
	} else {
		fmt.Fprintf(&b, "%s: %d offending ids", e.Kind, len(e.IDs))
	}
	for i, batch := range e.Batches() {
		fmt.Fprintf(&b, "\n  [%d] %s", i+1, strings.Join(batch, ", "))
	}
	return b.String()
}

// Unwrap returns ErrDataIntegrity for errors.Is compatibility
func (e *IntegrityError) Unwrap() error {
	return ErrDataIntegrity
}

// MetricError reports a single metric that failed to compute
type MetricError struct {
	Metric string
	Err    error
}

// Error implements the error interface
func (e *MetricError) Error() string {
	return fmt.Sprintf("metric %q: %v", e.Metric, e.Err)
}

// Unwrap returns ErrComputation so callers can classify the failure
func (e *MetricError) Unwrap() error {
	return ErrComputation
}
