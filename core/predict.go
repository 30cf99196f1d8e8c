package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/internal/model"
	"github.com/defectlab/defectscan/internal/outwriter"
	"github.com/defectlab/defectscan/schema"
)

// ExecuteAnalyze scans the configured paths, extracts metrics for every file
// and prints the reports without touching any model.
func ExecuteAnalyze(cfg *contract.Config) error {
	start := time.Now()

	files, err := CollectFiles(cfg.Paths, cfg.Excludes)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no files found")
	}

	reports := AnalyzeFiles(cfg, files)
	duration := time.Since(start)
	return outwriter.PrintMetricsReports(reports, cfg, duration)
}

// ExecutePredict runs the full prediction pipeline and prints files ranked
// by defect probability.
func ExecutePredict(cfg *contract.Config, mgr contract.RunManager) error {
	start := time.Now()

	reports, res, err := runPredictionCore(cfg, mgr)
	if err != nil {
		return err
	}

	ranked := RankReports(reports, cfg.ResultLimit)
	duration := time.Since(start)
	return outwriter.PrintPredictions(ranked, res.Name, res.State, cfg, duration)
}

// runPredictionCore performs the common discovery, extraction, classification
// and tracking steps shared by the predict and check commands.
func runPredictionCore(cfg *contract.Config, mgr contract.RunManager) ([]*schema.FileReport, *model.Resolution, error) {
	// --- 1. Resolve the classifier (load once, fall back once) ---
	res, err := model.Default.Get(cfg.ModelPath)
	if err != nil {
		return nil, nil, err
	}

	// --- 2. File discovery ---
	files, err := CollectFiles(cfg.Paths, cfg.Excludes)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, errors.New("no files found")
	}

	// --- 3. Begin run tracking (if configured) ---
	var store contract.RunStore
	if mgr != nil {
		store = mgr.GetRunStore()
	}
	var runID int64
	if store != nil {
		runID, err = store.BeginRun(schema.PredictRun, res.Name, res.State, time.Now())
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
			runID = 0
		}
	}

	// --- 4. Metric extraction ---
	reports := AnalyzeFiles(cfg, files)

	// --- 5. Classification ---
	if err := ClassifyReports(reports, res.Classifier, res.Name, res.State); err != nil {
		return nil, nil, err
	}

	// --- 6. End run tracking ---
	if store != nil && runID > 0 {
		for _, r := range reports {
			if err := store.RecordPrediction(runID, r); err != nil {
				contract.LogWarn(fmt.Sprintf("Run tracking failed for %s", r.Path), err)
			}
		}
		if err := store.EndRun(runID, time.Now(), len(reports), nil); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}

	return reports, res, nil
}

// ClassifyReports fills in predictions for every report in place.
func ClassifyReports(reports []*schema.FileReport, clf contract.Classifier, modelName string, state schema.ModelState) error {
	for _, r := range reports {
		if err := ClassifyReport(r, clf, modelName, state); err != nil {
			return err
		}
	}
	return nil
}

// ClassifyReport attaches a prediction to a single report. Classifiers that
// expose probabilities rank files by P(defective); plain classifiers degrade
// to the bare label.
func ClassifyReport(report *schema.FileReport, clf contract.Classifier, modelName string, state schema.ModelState) error {
	features := report.Features()
	prediction := schema.Prediction{ModelName: modelName, ModelState: state}

	if proba, ok := clf.(contract.ProbaClassifier); ok {
		probs, err := proba.PredictProba(features)
		if err != nil {
			return fmt.Errorf("classify %s: %w", report.Path, err)
		}
		prediction.Probability = probs[schema.LabelDefective]
		if probs[schema.LabelDefective] > probs[schema.LabelClean] {
			prediction.Label = schema.LabelDefective
		}
	} else {
		label, err := clf.Predict(features)
		if err != nil {
			return fmt.Errorf("classify %s: %w", report.Path, err)
		}
		prediction.Label = label
		prediction.Probability = float64(label)
	}

	report.Prediction = &prediction
	return nil
}
