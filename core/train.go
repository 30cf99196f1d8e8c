package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/internal/ingest"
	"github.com/defectlab/defectscan/internal/model"
	"github.com/defectlab/defectscan/internal/outwriter"
	"github.com/defectlab/defectscan/internal/parquet"
	"github.com/defectlab/defectscan/internal/report"
	"github.com/defectlab/defectscan/schema"
)

// ExecuteTrain ingests labeled datasets, trains a forest, saves the artifact
// and prints the holdout evaluation.
func ExecuteTrain(cfg *contract.Config, mgr contract.RunManager) error {
	start := time.Now()

	// --- 1. Load labeled rows (datasets on disk, embedded sample fallback) ---
	records, ingestRep, source, err := loadTrainingData(cfg.DataDir)
	if err != nil {
		return err
	}

	// --- 2. Begin run tracking (if configured) ---
	var store contract.RunStore
	if mgr != nil {
		store = mgr.GetRunStore()
	}
	var runID int64
	if store != nil {
		runID, err = store.BeginRun(schema.TrainRun, model.LoadedModelName(cfg.ModelPath), schema.ModelLoaded, time.Now())
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
			runID = 0
		}
	}

	// --- 3. Train and evaluate ---
	forestCfg := model.DefaultForestConfig(cfg.Trees, model.DefaultSeed)
	forestCfg.Workers = cfg.Workers
	result, err := model.Train(forestCfg, records, model.DefaultHoldout)
	if err != nil {
		return err
	}

	// --- 4. Save the artifact ---
	if err := model.SaveArtifact(cfg.ModelPath, model.NewArtifact(result.Forest, source)); err != nil {
		return err
	}

	// --- 5. Optional HTML training report ---
	if cfg.ReportFile != "" {
		if err := report.WriteTrainingReport(cfg.ReportFile, result, records); err != nil {
			contract.LogWarn("Training report generation failed", err)
		}
	}

	// --- 6. Optional Parquet copy of the training set ---
	if cfg.ExportFile != "" {
		exportFile := cfg.ExportFile + ".training_rows.parquet"
		if err := parquet.WriteTrainingRowsParquet(parquet.ConvertTrainingRecords(records), exportFile); err != nil {
			contract.LogWarn("Training dataset export failed", err)
		} else {
			fmt.Printf("Exported %d training rows to: %s\n", len(records), exportFile)
		}
	}

	// --- 7. End run tracking ---
	if store != nil && runID > 0 {
		if err := store.EndRun(runID, time.Now(), len(records), &result.Eval.Accuracy); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}

	// --- 8. Render ---
	return outwriter.PrintTraining(ingestRep, result.Eval, cfg.ModelPath, source, cfg, time.Since(start))
}

// loadTrainingData reads every labeled dataset under dataDir. When the
// directory yields no usable rows, training proceeds on the embedded sample
// so a fresh checkout can still produce a model.
func loadTrainingData(dataDir string) ([]schema.TrainingRecord, *schema.IngestReport, string, error) {
	records, ingestRep, err := ingest.LoadDir(dataDir)
	switch {
	case err == nil:
		return records, ingestRep, model.SourcePromise, nil
	case errors.Is(err, ingest.ErrNoData):
		contract.LogWarn("No labeled datasets found, training on the embedded sample", err)
		records, ingestRep, err = ingest.SampleRecords()
		if err != nil {
			return nil, nil, "", err
		}
		return records, ingestRep, model.SourceSample, nil
	default:
		return nil, nil, "", err
	}
}
