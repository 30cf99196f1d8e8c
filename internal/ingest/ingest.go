// Package ingest normalizes heterogeneous defect datasets into the fixed
// feature schema with a binary label.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/defectlab/defectscan/schema"
)

// ErrNoData reports that no source yielded a single usable row. Callers fall
// back to the embedded sample dataset.
var ErrNoData = errors.New("no usable training data")

// Ordered alias tables for column resolution. The first header present in a
// source wins; matching is exact-case because the upstream datasets ship
// these exact capitalizations.
var (
	labelAliases      = []string{"defects", "label"}
	locAliases        = []string{"loc", "lOCode", "locCodeAndComment"}
	complexityAliases = []string{"v(g)", "branchCount"}
)

// Optional columns: absent means 0.0 for every row.
const (
	commentColumn  = "lOComment"
	halsteadColumn = "n"
)

// promiseSources is the canonical PROMISE file set probed under a data dir.
// Other files are never read, so stray CSVs (exports, reports) cannot leak
// into the training set. A missing file is simply an absent source.
var promiseSources = []string{"cm1.csv", "jm1.csv", "kc1.csv", "kc2.csv", "pc1.csv"}

// resolvedColumns holds the per-source column indices after alias lookup.
// Optional columns are -1 when absent.
type resolvedColumns struct {
	label     int
	labelName string
	loc       int
	cplx      int
	comment   int
	halstead  int
}

// LoadDir probes dir for the canonical PROMISE sources, normalizes each one
// present and concatenates the surviving rows in canonical order. Sources
// with unusable schemas are skipped and reported, never fatal. When nothing
// usable remains the error wraps ErrNoData.
func LoadDir(dir string) ([]schema.TrainingRecord, *schema.IngestReport, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("data directory %s: %w", dir, ErrNoData)
		}
		return nil, nil, fmt.Errorf("read data directory %s: %w", dir, err)
	}

	var names []string
	for _, name := range promiseSources {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil || !os.IsNotExist(err) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("no PROMISE sources under %s: %w", dir, ErrNoData)
	}

	// Sources parse independently; results merge in canonical order so the
	// combined dataset is stable across runs.
	perSource := make([][]schema.TrainingRecord, len(names))
	reports := make([]schema.SourceReport, len(names))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			f, err := os.Open(filepath.Join(dir, name))
			if err != nil {
				reports[i] = schema.SourceReport{Name: name, Skipped: true, Reason: err.Error()}
				return nil
			}
			defer f.Close()
			perSource[i], reports[i] = LoadSource(name, f)
			return nil
		})
	}
	_ = g.Wait() // source failures land in reports, never here

	ingestRep := &schema.IngestReport{Sources: reports}
	var records []schema.TrainingRecord
	for _, rows := range perSource {
		records = append(records, rows...)
	}
	ingestRep.TotalRows = len(records)

	if len(records) == 0 {
		return nil, ingestRep, fmt.Errorf("all %d sources empty or skipped: %w", len(names), ErrNoData)
	}
	return records, ingestRep, nil
}

// LoadSource normalizes one CSV source. Structural problems (missing header,
// no resolvable required column) skip the whole source; bad cells drop only
// their row. The returned report always carries the outcome.
func LoadSource(name string, r io.Reader) ([]schema.TrainingRecord, schema.SourceReport) {
	report := schema.SourceReport{Name: name}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		report.Skipped = true
		report.Reason = fmt.Sprintf("unreadable header: %v", err)
		return nil, report
	}

	cols, err := resolveColumns(header)
	if err != nil {
		report.Skipped = true
		report.Reason = err.Error()
		return nil, report
	}

	var records []schema.TrainingRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				report.RowsDropped++
				continue
			}
			report.Skipped = true
			report.Reason = fmt.Sprintf("malformed csv: %v", err)
			return nil, report
		}

		record, ok := buildRecord(row, cols)
		if !ok {
			report.RowsDropped++
			continue
		}
		records = append(records, record)
		report.RowsKept++
	}

	return records, report
}

// resolveColumns maps the source header onto the internal schema using the
// ordered alias tables.
func resolveColumns(header []string) (resolvedColumns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	cols := resolvedColumns{comment: -1, halstead: -1}

	var ok bool
	if cols.label, cols.labelName, ok = firstPresent(index, labelAliases); !ok {
		return cols, fmt.Errorf("no label column (tried %s)", strings.Join(labelAliases, ", "))
	}
	if cols.loc, _, ok = firstPresent(index, locAliases); !ok {
		return cols, fmt.Errorf("no loc column (tried %s)", strings.Join(locAliases, ", "))
	}
	if cols.cplx, _, ok = firstPresent(index, complexityAliases); !ok {
		return cols, fmt.Errorf("no complexity column (tried %s)", strings.Join(complexityAliases, ", "))
	}
	if idx, found := index[commentColumn]; found {
		cols.comment = idx
	}
	if idx, found := index[halsteadColumn]; found {
		cols.halstead = idx
	}
	return cols, nil
}

// firstPresent returns the index of the first alias found in the header.
func firstPresent(index map[string]int, aliases []string) (int, string, bool) {
	for _, alias := range aliases {
		if idx, ok := index[alias]; ok {
			return idx, alias, true
		}
	}
	return 0, "", false
}

// buildRecord converts one raw row into a training record. Any missing or
// unparseable cell in a mapped column drops the row.
func buildRecord(row []string, cols resolvedColumns) (schema.TrainingRecord, bool) {
	label, ok := parseLabel(row[cols.label], cols.labelName)
	if !ok {
		return schema.TrainingRecord{}, false
	}
	loc, ok := parseCell(row, cols.loc)
	if !ok {
		return schema.TrainingRecord{}, false
	}
	cplx, ok := parseCell(row, cols.cplx)
	if !ok {
		return schema.TrainingRecord{}, false
	}
	comments, ok := parseOptionalCell(row, cols.comment)
	if !ok {
		return schema.TrainingRecord{}, false
	}
	halstead, ok := parseOptionalCell(row, cols.halstead)
	if !ok {
		return schema.TrainingRecord{}, false
	}

	// The external schema has no line lengths; the mean is reconstructed from
	// the Halstead length with zero loc treated as one line.
	divisor := loc
	if divisor == 0 {
		divisor = 1
	}

	metrics := schema.MetricsRecord{
		schema.MetricLOC:           loc,
		schema.MetricComments:      comments,
		schema.MetricFunctions:     0.0, // no equivalent signal upstream
		schema.MetricComplexity:    cplx,
		schema.MetricAvgLineLength: halstead / divisor,
		schema.MetricTodos:         0.0,
	}
	return schema.TrainingRecord{Features: schema.ToFeatures(metrics), Label: label}, true
}

// parseLabel interprets the label cell according to which alias matched:
// "defects" carries true/false strings, "label" carries 0/1 integers.
func parseLabel(cell, labelName string) (int, bool) {
	value := strings.TrimSpace(cell)
	if labelName == "defects" {
		switch strings.ToLower(value) {
		case "true":
			return schema.LabelDefective, true
		case "false":
			return schema.LabelClean, true
		default:
			return 0, false
		}
	}
	n, err := strconv.Atoi(value)
	if err != nil || (n != schema.LabelClean && n != schema.LabelDefective) {
		return 0, false
	}
	return n, true
}

// parseCell parses a required numeric cell.
func parseCell(row []string, idx int) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseOptionalCell parses a numeric cell whose column may be absent.
// An absent column is 0.0; a present column with a bad cell drops the row.
func parseOptionalCell(row []string, idx int) (float64, bool) {
	if idx < 0 {
		return 0, true
	}
	return parseCell(row, idx)
}
