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

// runTimeLayout matches the layout used by the run store status view.
const runTimeLayout = "2006-01-02 15:04:05"

// PrintRuns outputs tracked model runs, dispatching based on the output
// format configured. The store returns runs in ascending id order; when the
// list exceeds the result limit only the newest runs are shown.
func PrintRuns(runs []schema.ModelRunRecord, cfg *contract.Config) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	total := len(runs)
	if total > cfg.ResultLimit {
		runs = runs[total-cfg.ResultLimit:]
	}

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := printRunsJSON(runs, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := printRunsCSV(runs, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsTable(w, runs, total, cfg, fmtFloat)
		}, "Wrote table")
	}
	return nil
}

// runAccuracy formats a run's holdout accuracy, blank for prediction-only
// runs that never record one.
func runAccuracy(r *schema.ModelRunRecord, fmtFloat func(float64) string) string {
	if r.Accuracy == nil {
		return "-"
	}
	return fmtFloat(*r.Accuracy)
}

// runDuration formats a run's wall time, blank for runs that never finished.
func runDuration(r *schema.ModelRunRecord) string {
	if r.DurationMs == nil {
		return "-"
	}
	return (time.Duration(*r.DurationMs) * time.Millisecond).String()
}

// printRunsJSON handles opening the file and calling the JSON writer.
func printRunsJSON(runs []schema.ModelRunRecord, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeRunsJSON(w, runs)
	}, "Wrote JSON")
}

// printRunsCSV handles opening the file and calling the CSV writer.
func printRunsCSV(runs []schema.ModelRunRecord, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		header := []string{"run_id", "kind", "model_name", "model_state", "dataset_rows", "accuracy", "start_time", "duration_ms"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			return writeRunsCSVRows(cw, runs, fmtFloat)
		})
	}, "Wrote CSV")
}

// writeRunsTable generates and writes the human-readable table.
func writeRunsTable(w io.Writer, runs []schema.ModelRunRecord, total int, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)

	// 1. Define Headers
	table.Header([]string{"Run", "Kind", "Model", "State", "Rows", "Accuracy", "Started", "Duration"})

	// 2. Configure Alignment
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	var data [][]string
	for i := range runs {
		r := &runs[i]
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			string(r.Kind),
			r.ModelName,
			contract.GetModelTag(r.ModelState, cfg.UseColors),
			strconv.Itoa(int(r.DatasetRows)),
			runAccuracy(r, fmtFloat),
			r.StartTime.Format(runTimeLayout),
			runDuration(r),
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
	if _, err := fmt.Fprintf(w, "Showing %d of %d tracked run(s). Run backend: %s\n", len(runs), total, runBackendLabel(cfg)); err != nil {
		return err
	}
	return nil
}

// writeRunsCSVRows writes the tracked runs in CSV format.
func writeRunsCSVRows(w *csv.Writer, runs []schema.ModelRunRecord, fmtFloat func(float64) string) error {
	for i := range runs {
		r := &runs[i]
		durationMs := ""
		if r.DurationMs != nil {
			durationMs = strconv.Itoa(int(*r.DurationMs))
		}
		accuracy := ""
		if r.Accuracy != nil {
			accuracy = fmtFloat(*r.Accuracy)
		}
		rec := []string{
			strconv.FormatInt(r.RunID, 10),
			string(r.Kind),
			r.ModelName,
			string(r.ModelState),
			strconv.Itoa(int(r.DatasetRows)),
			accuracy,
			r.StartTime.Format(time.RFC3339),
			durationMs,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeRunsJSON writes the tracked runs in JSON format.
func writeRunsJSON(w io.Writer, runs []schema.ModelRunRecord) error {
	// 1. Prepare the data structure for JSON with snake_case keys
	type jsonRun struct {
		RunID       int64      `json:"run_id"`
		Kind        string     `json:"kind"`
		ModelName   string     `json:"model_name"`
		ModelState  string     `json:"model_state"`
		DatasetRows int32      `json:"dataset_rows"`
		Accuracy    *float64   `json:"accuracy,omitempty"`
		StartTime   time.Time  `json:"start_time"`
		EndTime     *time.Time `json:"end_time,omitempty"`
		DurationMs  *int32     `json:"duration_ms,omitempty"`
	}

	output := make([]jsonRun, len(runs))
	for i := range runs {
		r := &runs[i]
		output[i] = jsonRun{
			RunID:       r.RunID,
			Kind:        string(r.Kind),
			ModelName:   r.ModelName,
			ModelState:  string(r.ModelState),
			DatasetRows: r.DatasetRows,
			Accuracy:    r.Accuracy,
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			DurationMs:  r.DurationMs,
		}
	}

	// 2. Use the generic JSON writer
	return writeJSON(w, output)
}
