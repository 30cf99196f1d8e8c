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

// checkFixedWidth is the room the rank and probability columns occupy in the
// flagged-files table, borders and padding included.
const checkFixedWidth = 30

// PrintCheckResult renders a gate verdict, dispatching based on the output
// format configured. Render failures degrade to a warning so the process exit
// code keeps reflecting the verdict alone.
func PrintCheckResult(result *schema.CheckResult, cfg *contract.Config, duration time.Duration) {
	fmtFloat, _ := createFormatters(cfg.Precision)

	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = printCheckJSON(result, cfg)
	case schema.CSVOut:
		err = printCheckCSV(result, cfg, fmtFloat)
	default:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCheckText(w, result, cfg, fmtFloat, duration)
		}, "Wrote text")
	}
	if err != nil {
		contract.LogWarn("Failed to render check result", err)
	}
}

// printCheckJSON writes the whole gate result as a single JSON document.
func printCheckJSON(result *schema.CheckResult, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, result)
	}, "Wrote JSON")
}

// printCheckCSV writes the flagged files, worst first.
func printCheckCSV(result *schema.CheckResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		header := []string{"rank", "path", "probability", "threshold", "passed"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for i, f := range result.Flagged {
				rec := []string{
					strconv.Itoa(i + 1),
					f.Path,
					fmtFloat(f.Probability),
					fmtFloat(result.Threshold),
					strconv.FormatBool(result.Passed),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
			return nil
		})
	}, "Wrote CSV")
}

// writeCheckText writes the human-readable gate verdict with flagged files
// listed worst first.
func writeCheckText(w io.Writer, result *schema.CheckResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "Defect gate (threshold %s, model %s)\n", fmtFloat(result.Threshold), result.ModelName); err != nil {
		return err
	}

	if len(result.Flagged) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Rank", "Path", "Probability"})
		table.Configure(func(tcfg *tablewriter.Config) {
			tcfg.Row.Alignment.Global = tw.AlignRight
		})

		pathWidth := getMaxTablePathWidth(checkFixedWidth)
		var data [][]string
		for i, f := range result.Flagged {
			data = append(data, []string{
				strconv.Itoa(i + 1),
				contract.TruncatePath(f.Path, pathWidth),
				fmtFloat(f.Probability),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, checkVerdictLine(result, cfg.UseEmojis, fmtFloat)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Check completed in %v with %d workers\n", duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}

// checkVerdictLine builds the one-line verdict summary.
func checkVerdictLine(result *schema.CheckResult, useEmojis bool, fmtFloat func(float64) string) string {
	if result.Passed {
		verdict := "PASS"
		if useEmojis {
			verdict = "✅ PASS"
		}
		if result.TotalFiles == 0 {
			return fmt.Sprintf("%s: no files checked", verdict)
		}
		return fmt.Sprintf("%s: %d file(s) below threshold (max %s at %s, avg %s)",
			verdict, result.TotalFiles, fmtFloat(result.MaxProb), result.MaxProbPath, fmtFloat(result.AvgProb))
	}

	verdict := "FAIL"
	if useEmojis {
		verdict = "❌ FAIL"
	}
	return fmt.Sprintf("%s: %d of %d file(s) at or above threshold (max %s at %s, avg %s)",
		verdict, len(result.Flagged), result.TotalFiles, fmtFloat(result.MaxProb), result.MaxProbPath, fmtFloat(result.AvgProb))
}
