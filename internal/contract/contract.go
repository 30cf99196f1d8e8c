// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/defectlab/defectscan/schema"
)

// Classifier is the minimal capability a model backend exposes.
// Implementations must support concurrent read-only Predict calls once
// training is complete.
type Classifier interface {
	// Predict returns the binary defect label for an ordered feature vector.
	Predict(features schema.FeatureVector) (int, error)
}

// ProbaClassifier is an optional capability upgrade for backends that can
// report a probability distribution over {clean, defective}. Call sites
// check for it with a type assertion and fall back to hard labels.
type ProbaClassifier interface {
	Classifier

	// PredictProba returns [P(clean), P(defective)] for a feature vector.
	PredictProba(features schema.FeatureVector) ([2]float64, error)
}

// RunStore defines the interface for tracking model runs and prediction events.
// This allows the persistence layer to be mocked for testing.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID.
	BeginRun(kind schema.RunKind, modelName string, modelState schema.ModelState, startTime time.Time) (int64, error)

	// EndRun updates the run with completion data. accuracy is nil for
	// prediction-only runs.
	EndRun(runID int64, endTime time.Time, datasetRows int, accuracy *float64) error

	// RecordPrediction stores one prediction event under a run.
	RecordPrediction(runID int64, report *schema.FileReport) error

	// GetAllRuns returns every recorded run, oldest first.
	GetAllRuns() ([]schema.ModelRunRecord, error)

	// GetAllPredictions returns every recorded prediction event, oldest first.
	GetAllPredictions() ([]schema.PredictionEventRecord, error)

	// GetStatus returns status information about the run store.
	GetStatus() (schema.RunStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// RunManager defines the interface for accessing the run store.
// This allows the persistence layer to be mocked for testing.
type RunManager interface {
	GetRunStore() RunStore
}
