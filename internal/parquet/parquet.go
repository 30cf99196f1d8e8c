// Package parquet provides data structures and functions for exporting run
// tracking data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/defectlab/defectscan/schema"
	"github.com/parquet-go/parquet-go"
)

// ModelRun represents a single training or prediction run with metadata.
// This struct maps to the defect_model_runs database table.
type ModelRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// Kind is the run kind, either "train" or "predict"
	Kind string `parquet:"kind,snappy"`

	// ModelName describes the classifier that served this run
	ModelName string `parquet:"model_name,snappy"`

	// ModelState records how the classifier was resolved (loaded or fallback)
	ModelState string `parquet:"model_state,snappy"`

	// DatasetRows is the number of files or training rows processed
	DatasetRows int32 `parquet:"dataset_rows,snappy"`

	// Accuracy is the holdout accuracy for training runs (nullable)
	Accuracy *float64 `parquet:"accuracy,optional,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable, stored as TIMESTAMP with nanosecond precision)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`
}

// PredictionEvent represents one classifier verdict for a single file.
// This struct maps to the defect_prediction_events database table.
type PredictionEvent struct {
	// EventID is the unique identifier for this event
	EventID int64 `parquet:"event_id,snappy"`

	// RunID references the parent run
	RunID int64 `parquet:"run_id,snappy"`

	// FilePath is the path of the classified file
	FilePath string `parquet:"file_path,snappy"`

	// Language is the detected source language
	Language string `parquet:"language,snappy"`

	// Digest is the SHA-256 content digest of the file
	Digest string `parquet:"digest,snappy"`

	// Label is the binary verdict (0 clean, 1 defective)
	Label int32 `parquet:"label,snappy"`

	// Probability is the defective-class probability
	Probability float64 `parquet:"probability,snappy"`

	// CreatedTime is when this event was recorded (stored as TIMESTAMP with nanosecond precision)
	CreatedTime time.Time `parquet:"created_time,snappy"`
}

// WriteModelRunsParquet writes a slice of ModelRun structs to a Parquet file.
func WriteModelRunsParquet(data []ModelRun, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the ModelRun struct tags
	writer := parquet.NewGenericWriter[ModelRun](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WritePredictionEventsParquet writes a slice of PredictionEvent structs to a Parquet file.
func WritePredictionEventsParquet(data []PredictionEvent, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the PredictionEvent struct tags
	writer := parquet.NewGenericWriter[PredictionEvent](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// MockFetchModelRuns generates sample ModelRun data for demonstration.
func MockFetchModelRuns() []ModelRun {
	now := time.Now()
	startTime1 := now.Add(-2 * time.Hour)
	endTime1 := now.Add(-1*time.Hour - 58*time.Minute)
	durationMs1 := int32(endTime1.Sub(startTime1).Milliseconds())
	accuracy1 := 0.87

	startTime2 := now.Add(-24 * time.Hour)
	endTime2 := now.Add(-24*time.Hour + 3*time.Minute)
	durationMs2 := int32(endTime2.Sub(startTime2).Milliseconds())

	startTime3 := now.Add(-10 * time.Minute)
	// Note: endTime3, durationMs3, accuracy3 are nil to demonstrate nullable fields

	return []ModelRun{
		{
			RunID:         1,
			Kind:          string(schema.TrainRun),
			ModelName:     "saved model (defect_model.bin)",
			ModelState:    string(schema.ModelLoaded),
			DatasetRows:   9593,
			Accuracy:      &accuracy1,
			StartTime:     startTime1,
			EndTime:       &endTime1,
			RunDurationMs: &durationMs1,
		},
		{
			RunID:         2,
			Kind:          string(schema.PredictRun),
			ModelName:     "saved model (defect_model.bin)",
			ModelState:    string(schema.ModelLoaded),
			DatasetRows:   150,
			Accuracy:      nil, // Prediction runs carry no accuracy
			StartTime:     startTime2,
			EndTime:       &endTime2,
			RunDurationMs: &durationMs2,
		},
		{
			RunID:         3,
			Kind:          string(schema.PredictRun),
			ModelName:     "fallback random-forest (synthetic)",
			ModelState:    string(schema.ModelFallback),
			DatasetRows:   0,
			Accuracy:      nil,
			StartTime:     startTime3,
			EndTime:       nil, // Still running - nullable field
			RunDurationMs: nil, // Not yet calculated - nullable field
		},
	}
}

// MockFetchPredictionEvents generates sample PredictionEvent data for demonstration.
func MockFetchPredictionEvents() []PredictionEvent {
	now := time.Now()

	return []PredictionEvent{
		{
			EventID:     1,
			RunID:       2,
			FilePath:    "src/main.go",
			Language:    "Go",
			Digest:      "3c89d034f4ad5bad7c16c378ab9c06b52b8ebd46c968b5c0b2c1b0cbbb8e78b7",
			Label:       schema.LabelDefective,
			Probability: 0.91,
			CreatedTime: now.Add(-24 * time.Hour),
		},
		{
			EventID:     2,
			RunID:       2,
			FilePath:    "src/utils/helper.py",
			Language:    "Python",
			Digest:      "a948904f2f0f479b8f8197694b30184b0d2ed1c1cd2a1ec0fb85d299a192a447",
			Label:       schema.LabelClean,
			Probability: 0.12,
			CreatedTime: now.Add(-24 * time.Hour),
		},
		{
			EventID:     3,
			RunID:       2,
			FilePath:    "test/fixture.js",
			Language:    "JavaScript",
			Digest:      "1b4f0e9851971998e732078544c96b36c3d01cedf7caa332359d6f1d83567014",
			Label:       schema.LabelClean,
			Probability: 0.33,
			CreatedTime: now.Add(-23 * time.Hour),
		},
	}
}

// ConvertModelRunRecords converts schema.ModelRunRecord to ModelRun for Parquet export.
func ConvertModelRunRecords(records []schema.ModelRunRecord) []ModelRun {
	result := make([]ModelRun, len(records))
	for i, record := range records {
		result[i] = ModelRun{
			RunID:         record.RunID,
			Kind:          string(record.Kind),
			ModelName:     record.ModelName,
			ModelState:    string(record.ModelState),
			DatasetRows:   record.DatasetRows,
			Accuracy:      record.Accuracy,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.DurationMs,
		}
	}
	return result
}

// ConvertPredictionEventRecords converts schema.PredictionEventRecord to PredictionEvent for Parquet export.
func ConvertPredictionEventRecords(records []schema.PredictionEventRecord) []PredictionEvent {
	result := make([]PredictionEvent, len(records))
	for i, record := range records {
		result[i] = PredictionEvent{
			EventID:     record.EventID,
			RunID:       record.RunID,
			FilePath:    record.FilePath,
			Language:    record.Language,
			Digest:      record.Digest,
			Label:       record.Label,
			Probability: record.Probability,
			CreatedTime: record.CreatedTime,
		}
	}
	return result
}
