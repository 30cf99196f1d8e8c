package runstore

import (
	"errors"
	"fmt"

	"github.com/defectlab/defectscan/internal/parquet"
)

// ExecuteRunsExport performs the actual export of run tracking data to Parquet files.
func ExecuteRunsExport(outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--export is required for export command")
	}

	// Get the run store
	store := Manager.GetRunStore()
	if store == nil {
		return errors.New("run tracking is not enabled; set --run-backend first")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total model runs: %d\n", status.TotalRuns)
	fmt.Printf("Total prediction events: %d\n", status.TotalPredictions)

	// Retrieve all model runs
	modelRuns, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve model runs: %w", err)
	}

	// Retrieve all prediction events
	predictionEvents, err := store.GetAllPredictions()
	if err != nil {
		return fmt.Errorf("failed to retrieve prediction events: %w", err)
	}

	// Convert to Parquet format
	parquetModelRuns := parquet.ConvertModelRunRecords(modelRuns)
	parquetPredictionEvents := parquet.ConvertPredictionEventRecords(predictionEvents)

	// Write model runs to Parquet
	modelRunsFile := outputFile + ".model_runs.parquet"
	if err := parquet.WriteModelRunsParquet(parquetModelRuns, modelRunsFile); err != nil {
		return fmt.Errorf("failed to write model runs: %w", err)
	}
	fmt.Printf("Exported %d model runs to: %s\n", len(parquetModelRuns), modelRunsFile)

	// Write prediction events to Parquet
	predictionEventsFile := outputFile + ".prediction_events.parquet"
	if err := parquet.WritePredictionEventsParquet(parquetPredictionEvents, predictionEventsFile); err != nil {
		return fmt.Errorf("failed to write prediction events: %w", err)
	}
	fmt.Printf("Exported %d prediction events to: %s\n", len(parquetPredictionEvents), predictionEventsFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
