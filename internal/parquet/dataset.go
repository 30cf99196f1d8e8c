package parquet

import (
	"fmt"
	"os"

	"github.com/defectlab/defectscan/schema"
	"github.com/parquet-go/parquet-go"
)

// TrainingRow represents one labeled feature vector from the training set.
// Columns mirror the fixed feature schema plus the binary label.
type TrainingRow struct {
	// LOC is the non-empty line count
	LOC float64 `parquet:"loc,snappy"`

	// NumComments is the comment line count
	NumComments float64 `parquet:"num_comments,snappy"`

	// NumFunctions is the heuristic function signature count
	NumFunctions float64 `parquet:"num_functions,snappy"`

	// Complexity is the cyclomatic complexity estimate
	Complexity float64 `parquet:"cyclomatic_complexity_estimate,snappy"`

	// AvgLineLength is the mean character length of non-empty lines
	AvgLineLength float64 `parquet:"avg_line_length,snappy"`

	// NumTodos is the whole-word TODO/FIXME count
	NumTodos float64 `parquet:"num_todos,snappy"`

	// Label is the binary defect label (0 clean, 1 defective)
	Label int32 `parquet:"label,snappy"`
}

// WriteTrainingRowsParquet writes a slice of TrainingRow structs to a Parquet file.
func WriteTrainingRowsParquet(data []TrainingRow, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the TrainingRow struct tags
	writer := parquet.NewGenericWriter[TrainingRow](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// ConvertTrainingRecords maps schema training records to Parquet rows.
func ConvertTrainingRecords(records []schema.TrainingRecord) []TrainingRow {
	rows := make([]TrainingRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, TrainingRow{
			LOC:           r.Features[schema.FeatureLOC],
			NumComments:   r.Features[schema.FeatureComments],
			NumFunctions:  r.Features[schema.FeatureFunctions],
			Complexity:    r.Features[schema.FeatureComplexity],
			AvgLineLength: r.Features[schema.FeatureAvgLineLength],
			NumTodos:      r.Features[schema.FeatureTodos],
			Label:         int32(r.Label),
		})
	}
	return rows
}
