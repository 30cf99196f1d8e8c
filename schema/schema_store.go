package schema

import "time"

// RunStatus represents the status of the run store.
type RunStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	TotalRuns        int              `json:"total_runs"`
	LastRunID        int64            `json:"last_run_id"`
	LastRunTime      time.Time        `json:"last_run_time"`
	OldestRunTime    time.Time        `json:"oldest_run_time"`
	TotalPredictions int              `json:"total_predictions"`
	TableSizes       map[string]int64 `json:"table_sizes"`
}

// ModelRunRecord represents a row from the defect_model_runs table.
type ModelRunRecord struct {
	RunID       int64
	Kind        RunKind
	ModelName   string
	ModelState  ModelState
	DatasetRows int32
	Accuracy    *float64 // nil for prediction-only runs
	StartTime   time.Time
	EndTime     *time.Time
	DurationMs  *int32
}

// PredictionEventRecord represents a row from the defect_prediction_events table.
type PredictionEventRecord struct {
	EventID     int64
	RunID       int64
	FilePath    string
	Language    string
	Digest      string
	Label       int32
	Probability float64
	CreatedTime time.Time
}
