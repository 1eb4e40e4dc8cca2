// Package errors provides error handling for tracekit.
//
// This package re-exports github.com/cockroachdb/errors and adds the
// tracekit error taxonomy:
//   - ErrConfiguration: invalid options, fractions or metric names. Raised
//     eagerly, before any work is done.
//   - ErrDataIntegrity: the input data violates a structural rule (missing
//     artifact references, too many orphans, link id collisions). The
//     offending ids are carried by *IntegrityError.
//   - ErrComputation: a single metric failed to compute. Carried by
//     *MetricError; the metrics engine recovers from it.
//
// Usage:
//
//	if errors.Is(err, errors.ErrDataIntegrity) {
//	    var ie *errors.IntegrityError
//	    if errors.As(err, &ie) {
//	        for _, batch := range ie.Batches() { ... }
//	    }
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Mark      = crdb.Mark
)

// Taxonomy sentinels. Wrap these to add context while preserving errors.Is.
var (
	// ErrConfiguration indicates an invalid option, fraction or metric name
	ErrConfiguration = New("configuration error")

	// ErrDataIntegrity indicates the input data violates a structural rule
	ErrDataIntegrity = New("data integrity error")

	// ErrComputation indicates a single metric could not be computed
	ErrComputation = New("computation error")
)

// Narrower sentinels
var (
	// ErrLengthMismatch indicates two index-aligned inputs differ in length
	ErrLengthMismatch = New("length mismatch")

	// ErrUnknownMetric indicates a metric name that does not resolve
	ErrUnknownMetric = New("unknown metric")

	// ErrUndefined indicates a metric is undefined for an input (e.g. a query
	// without positive links). It is a skip signal, not a failure.
	ErrUndefined = New("metric undefined for input")
)

// NewConfigurationError creates a configuration error with a formatted message
func NewConfigurationError(format string, args ...interface{}) error {
	return Wrap(ErrConfiguration, Newf(format, args...).Error())
}

// NewComputationError creates a computation error with a formatted message
func NewComputationError(format string, args ...interface{}) error {
	return Wrap(ErrComputation, Newf(format, args...).Error())
}

// NewLengthMismatch reports two index-aligned inputs of different length
func NewLengthMismatch(what string, want, got int) error {
	return Wrapf(ErrLengthMismatch, "%s: expected %d entries, got %d", what, want, got)
}

// NewUnknownMetric reports a metric name that does not resolve. The error
// is a configuration error and also matches ErrUnknownMetric.
func NewUnknownMetric(name string) error {
	return Mark(Wrapf(ErrUnknownMetric, "%q", name), ErrConfiguration)
}

// IsConfigurationError checks if an error is or wraps ErrConfiguration
func IsConfigurationError(err error) bool {
	return err != nil && Is(err, ErrConfiguration)
}

// IsDataIntegrityError checks if an error is or wraps ErrDataIntegrity
func IsDataIntegrityError(err error) bool {
	return err != nil && Is(err, ErrDataIntegrity)
}

// IsComputationError checks if an error is or wraps ErrComputation
func IsComputationError(err error) bool {
	return err != nil && Is(err, ErrComputation)
}
