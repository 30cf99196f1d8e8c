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
)

// PrintIngest outputs a dataset ingestion dry-run summary, dispatching based
// on the output format configured. Nothing is trained or written; this is
// the rendering half of the 'datasets' command.
func PrintIngest(ingest *schema.IngestReport, dataDir string, cfg *contract.Config, duration time.Duration) error {
	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := printIngestJSON(ingest, dataDir, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := printIngestCSV(ingest, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable text
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeIngestText(w, ingest, dataDir, duration)
		}, "Wrote text")
	}
	return nil
}

// printIngestJSON writes the ingestion summary as one JSON document.
func printIngestJSON(ingest *schema.IngestReport, dataDir string, cfg *contract.Config) error {
	type jsonIngestSummary struct {
		DataDir string               `json:"data_dir"`
		Ingest  *schema.IngestReport `json:"ingest"`
	}

	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, jsonIngestSummary{DataDir: dataDir, Ingest: ingest})
	}, "Wrote JSON")
}

// printIngestCSV writes one row per dataset source.
func printIngestCSV(ingest *schema.IngestReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		header := []string{"source", "rows_kept", "rows_dropped", "skipped", "reason"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, s := range ingest.Sources {
				rec := []string{
					s.Name,
					strconv.Itoa(s.RowsKept),
					strconv.Itoa(s.RowsDropped),
					strconv.FormatBool(s.Skipped),
					s.Reason,
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
			return nil
		})
	}, "Wrote CSV")
}

// writeIngestText writes the human-readable ingestion summary.
func writeIngestText(w io.Writer, ingest *schema.IngestReport, dataDir string, duration time.Duration) error {
	if err := writeIngestTable(w, ingest); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Resolved %s labeled row(s) from %d source(s) under %s\n", humanize.Comma(int64(ingest.TotalRows)), len(ingest.Sources), dataDir); err != nil {
		return err
	}
	if skipped := ingest.SkippedSources(); len(skipped) > 0 {
		if _, err := fmt.Fprintf(w, "Skipped source(s): %v\n", skipped); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Inspection completed in %v\n", duration)
	return err
}
