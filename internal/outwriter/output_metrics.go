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

// metricsFixedWidth is the room the rank, language and six metric columns
// occupy in the metrics table, borders and padding included.
const metricsFixedWidth = 62

// PrintMetricsReports outputs metrics-only analysis results, dispatching based
// on the output format configured.
func PrintMetricsReports(reports []*schema.FileReport, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, fmtCount := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := printMetricsJSON(reports, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := printMetricsCSV(reports, cfg, fmtFloat, fmtCount); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsTable(w, reports, cfg, fmtFloat, fmtCount, duration)
		}, "Wrote table")
	}
	return nil
}

// printMetricsJSON handles opening the file and calling the JSON writer.
func printMetricsJSON(reports []*schema.FileReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeMetricsJSON(w, reports)
	}, "Wrote JSON")
}

// printMetricsCSV handles opening the file and calling the CSV writer.
func printMetricsCSV(reports []*schema.FileReport, cfg *contract.Config, fmtFloat, fmtCount func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		header := append([]string{"rank", "path", "language", "size_bytes", "digest"}, schema.FeatureColumns...)
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			return writeMetricsCSVRows(cw, reports, fmtFloat, fmtCount)
		})
	}, "Wrote CSV")
}

// writeMetricsTable generates and writes the human-readable table.
func writeMetricsTable(w io.Writer, reports []*schema.FileReport, cfg *contract.Config, fmtFloat, fmtCount func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	// 1. Define Headers
	table.Header([]string{"Rank", "Path", "Lang", "LOC", "Comments", "Funcs", "Complexity", "AvgLen", "TODOs"})

	// 2. Configure Alignment
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	pathWidth := getMaxTablePathWidth(metricsFixedWidth)
	var data [][]string
	for i, r := range reports {
		m := r.Metrics
		data = append(data, []string{
			strconv.Itoa(i + 1), // Rank
			contract.TruncatePath(r.Path, pathWidth), // File
			r.Language,
			fmtCount(m[schema.MetricLOC]),
			fmtCount(m[schema.MetricComments]),
			fmtCount(m[schema.MetricFunctions]),
			fmtCount(m[schema.MetricComplexity]),
			fmtFloat(m[schema.MetricAvgLineLength]),
			fmtCount(m[schema.MetricTodos]),
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
	var totalLOC, totalTodos float64
	for _, r := range reports {
		totalLOC += r.Metrics[schema.MetricLOC]
		totalTodos += r.Metrics[schema.MetricTodos]
	}
	if _, err := fmt.Fprintf(w, "Showing %d file(s) (total LOC: %.0f, total TODOs: %.0f)\n", len(reports), totalLOC, totalTodos); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers\n", duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}

// writeMetricsCSVRows writes one row per report with metric columns in
// feature schema order.
func writeMetricsCSVRows(w *csv.Writer, reports []*schema.FileReport, fmtFloat, fmtCount func(float64) string) error {
	for i, r := range reports {
		rec := []string{
			strconv.Itoa(i + 1), // Rank
			r.Path,              // File Path
			r.Language,
			strconv.FormatInt(r.SizeBytes, 10),
			r.Digest,
		}
		for j, v := range r.Features() {
			if schema.FeatureColumns[j] == schema.MetricAvgLineLength {
				rec = append(rec, fmtFloat(v))
			} else {
				rec = append(rec, fmtCount(v))
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeMetricsJSON writes the analysis results in JSON format.
func writeMetricsJSON(w io.Writer, reports []*schema.FileReport) error {
	// 1. Prepare the data structure for JSON with rank added
	type jsonFileReport struct {
		Rank int `json:"rank"`
		schema.FileReport
	}

	output := make([]jsonFileReport, len(reports))
	for i, r := range reports {
		output[i] = jsonFileReport{
			Rank:       i + 1,
			FileReport: *r,
		}
	}

	// 2. Use the generic JSON writer
	return writeJSON(w, output)
}
