package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// predictionsFixedWidth is the room the rank, language, probability and label
// columns occupy in the predictions table, borders and padding included.
const predictionsFixedWidth = 48

// PrintPredictions outputs files ranked by defect probability, dispatching
// based on the output format configured.
func PrintPredictions(reports []*schema.FileReport, modelName string, state schema.ModelState, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := printPredictionsJSON(reports, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := printPredictionsCSV(reports, modelName, state, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePredictionsTable(w, reports, modelName, state, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// predictionOf unpacks a report's verdict, degrading to a clean zero when no
// classifier ran.
func predictionOf(r *schema.FileReport) (float64, int) {
	if r.Prediction == nil {
		return 0, schema.LabelClean
	}
	return r.Prediction.Probability, r.Prediction.Label
}

// printPredictionsJSON handles opening the file and calling the JSON writer.
func printPredictionsJSON(reports []*schema.FileReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writePredictionsJSON(w, reports)
	}, "Wrote JSON")
}

// printPredictionsCSV handles opening the file and calling the CSV writer.
func printPredictionsCSV(reports []*schema.FileReport, modelName string, state schema.ModelState, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		header := []string{"rank", "path", "language", "digest", "probability", "label", "model_name", "model_state"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			return writePredictionsCSVRows(cw, reports, modelName, state, fmtFloat)
		})
	}, "Wrote CSV")
}

// writePredictionsTable generates and writes the human-readable table.
func writePredictionsTable(w io.Writer, reports []*schema.FileReport, modelName string, state schema.ModelState, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	// 1. Define Headers
	table.Header([]string{"Rank", "Path", "Lang", "Probability", "Label"})

	// 2. Configure Alignment
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	pathWidth := getMaxTablePathWidth(predictionsFixedWidth)
	var data [][]string
	defective := 0
	for i, r := range reports {
		prob, label := predictionOf(r)
		if label == schema.LabelDefective {
			defective++
		}
		data = append(data, []string{
			strconv.Itoa(i + 1), // Rank
			contract.TruncatePath(r.Path, pathWidth), // File
			r.Language,
			fmtFloat(prob),                  // P(defective)
			labelText(label, cfg.UseColors), // Label
		})
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Compute summary stats
	if _, err := fmt.Fprintf(w, "Showing top %d file(s) (defective: %d, clean: %d)\n", len(reports), defective, len(reports)-defective); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Model: %s [%s]\n", modelName, contract.GetModelTag(state, cfg.UseColors)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Prediction completed in %v with %d workers. Run backend: %s\n", duration, cfg.Workers, runBackendLabel(cfg)); err != nil {
		return err
	}
	return nil
}

// writePredictionsCSVRows writes the ranked predictions in CSV format.
func writePredictionsCSVRows(w *csv.Writer, reports []*schema.FileReport, modelName string, state schema.ModelState, fmtFloat func(float64) string) error {
	for i, r := range reports {
		prob, label := predictionOf(r)
		rec := []string{
			strconv.Itoa(i + 1), // Rank
			r.Path,              // File Path
			r.Language,
			r.Digest,
			fmtFloat(prob),          // P(defective)
			schema.LabelName(label), // Label
			modelName,
			string(state),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writePredictionsJSON writes the ranked predictions in JSON format.
func writePredictionsJSON(w io.Writer, reports []*schema.FileReport) error {
	// 1. Prepare the data structure for JSON with rank and label added
	type jsonPrediction struct {
		Rank  int    `json:"rank"`
		Label string `json:"label"`
		schema.FileReport
	}

	output := make([]jsonPrediction, len(reports))
	for i, r := range reports {
		_, label := predictionOf(r)
		output[i] = jsonPrediction{
			Rank:       i + 1,
			Label:      schema.LabelName(label),
			FileReport: *r,
		}
	}

	// 2. Use the generic JSON writer
	return writeJSON(w, output)
}
