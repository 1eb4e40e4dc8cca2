package logger

// Standard field names for consistent structured logging across tracekit.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity
	FieldRunID     = "run_id"
	FieldComponent = "component"

	// Dataset shape
	FieldLinks     = "links"
	FieldPositives = "positives"
	FieldNegatives = "negatives"
	FieldMappings  = "mappings"
	FieldQueries   = "queries"

	// Operations
	FieldStep      = "step"
	FieldStrategy  = "strategy"
	FieldPartition = "partition"
	FieldMetric    = "metric"
	FieldSeed      = "seed"

	// Integrity tallies
	FieldMissing = "missing"
	FieldOrphans = "orphans"
	FieldAllowed = "allowed"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount      = "count"
	FieldSize       = "size"
	FieldTarget     = "target"
	FieldDurationMS = "duration_ms"
)
