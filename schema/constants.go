package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run tracking.
	DatabaseBackend string

	// ModelState represents how the active classifier was resolved.
	ModelState string

	// RunKind represents the kind of recorded run.
	RunKind string
)

// Metric names in the fixed vocabulary. These double as the feature schema.
const (
	MetricLOC           = "loc"
	MetricComments      = "num_comments"
	MetricFunctions     = "num_functions"
	MetricComplexity    = "cyclomatic_complexity_estimate"
	MetricAvgLineLength = "avg_line_length"
	MetricTodos         = "num_todos"
)

// FeatureColumns is the fixed, ordered feature schema consumed by classifiers.
// Order is load-bearing: vectors, training data and model artifacts all
// index into it. Never reorder.
var FeatureColumns = []string{
	MetricLOC,
	MetricComments,
	MetricFunctions,
	MetricComplexity,
	MetricAvgLineLength,
	MetricTodos,
}

// Positional indexes into FeatureColumns.
const (
	FeatureLOC = iota
	FeatureComments
	FeatureFunctions
	FeatureComplexity
	FeatureAvgLineLength
	FeatureTodos

	FeatureCount // always last
)

// Binary defect labels.
const (
	LabelClean     = 0
	LabelDefective = 1
)

// LabelName returns the display name for a binary label.
func LabelName(label int) string {
	if label == LabelDefective {
		return "Defective"
	}
	return "Clean"
}

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All run-store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Model provider states. A path resolves from unloaded to exactly one of
// loaded or fallback, then never changes for the process lifetime.
const (
	ModelUnloaded ModelState = "unloaded"
	ModelLoaded   ModelState = "loaded"
	ModelFallback ModelState = "fallback"
)

// All run kinds supported.
const (
	TrainRun   RunKind = "train"
	PredictRun RunKind = "predict"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid run-store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
