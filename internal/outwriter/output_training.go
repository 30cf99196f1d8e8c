package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/schema"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintTraining outputs the ingestion summary and holdout evaluation after a
// training run, dispatching based on the output format configured.
func PrintTraining(ingest *schema.IngestReport, eval schema.Evaluation, modelPath, source string, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := printTrainingJSON(ingest, eval, modelPath, source, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := printTrainingCSV(eval, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable text
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrainingText(w, ingest, eval, modelPath, source, cfg, fmtFloat, duration)
		}, "Wrote text")
	}
	return nil
}

// printTrainingJSON writes the full training summary as one JSON document.
func printTrainingJSON(ingest *schema.IngestReport, eval schema.Evaluation, modelPath, source string, cfg *contract.Config) error {
	type jsonTrainingSummary struct {
		Ingest     *schema.IngestReport `json:"ingest"`
		Evaluation schema.Evaluation    `json:"evaluation"`
		ModelPath  string               `json:"model_path"`
		Source     string               `json:"source"`
	}

	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, jsonTrainingSummary{
			Ingest:     ingest,
			Evaluation: eval,
			ModelPath:  modelPath,
			Source:     source,
		})
	}, "Wrote JSON")
}

// printTrainingCSV writes the per-class holdout evaluation. The ingestion
// breakdown stays a text-only view.
func printTrainingCSV(eval schema.Evaluation, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		header := []string{"class", "precision", "recall", "f1", "support", "accuracy"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for label, m := range eval.PerClass {
				rec := []string{
					schema.LabelName(label),
					fmtFloat(m.Precision),
					fmtFloat(m.Recall),
					fmtFloat(m.F1),
					strconv.Itoa(m.Support),
					fmtFloat(eval.Accuracy),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
			return nil
		})
	}, "Wrote CSV")
}

// writeTrainingText writes the human-readable training summary.
func writeTrainingText(w io.Writer, ingest *schema.IngestReport, eval schema.Evaluation, modelPath, source string, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	// 1. Ingestion summary, one row per dataset source
	if err := writeIngestTable(w, ingest); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Ingested %s labeled row(s) from %d source(s)\n\n", humanize.Comma(int64(ingest.TotalRows)), len(ingest.Sources)); err != nil {
		return err
	}

	// 2. Holdout evaluation, one row per class
	if err := writeEvalTable(w, eval, fmtFloat); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Accuracy: %s on %s held-out row(s) (%s trained)\n", fmtFloat(eval.Accuracy), humanize.Comma(int64(eval.TestRows)), humanize.Comma(int64(eval.TrainRows))); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Confusion [actual clean: %d %d] [actual defective: %d %d]\n", eval.Confusion[0][0], eval.Confusion[0][1], eval.Confusion[1][0], eval.Confusion[1][1]); err != nil {
		return err
	}

	// 3. Artifact location and timing
	if _, err := fmt.Fprintf(w, "Model saved to %s (source: %s)\n", modelPath, source); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Training completed in %v with %d workers\n", duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}

// writeIngestTable renders one row per dataset source with kept and dropped
// row counts.
func writeIngestTable(w io.Writer, ingest *schema.IngestReport) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Source", "Kept", "Dropped", "Status"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, s := range ingest.Sources {
		status := "ok"
		if s.Skipped {
			status = "skipped: " + s.Reason
		}
		data = append(data, []string{
			s.Name,
			strconv.Itoa(s.RowsKept),
			strconv.Itoa(s.RowsDropped),
			status,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeEvalTable renders per-class precision, recall, F1 and support.
func writeEvalTable(w io.Writer, eval schema.Evaluation, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Class", "Precision", "Recall", "F1", "Support"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for label, m := range eval.PerClass {
		data = append(data, []string{
			schema.LabelName(label),
			fmtFloat(m.Precision),
			fmtFloat(m.Recall),
			fmtFloat(m.F1),
			strconv.Itoa(m.Support),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
