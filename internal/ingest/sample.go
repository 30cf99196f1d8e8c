package ingest

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/defectlab/defectscan/schema"
)

// SampleSourceName labels the embedded dataset in reports.
const SampleSourceName = "embedded sample"

// The embedded fallback dataset carries the internal schema directly: one
// column per feature plus a 0/1 label.
//
//go:embed sample.csv
var sampleCSV string

// SampleRecords loads the embedded fallback dataset. It exists so a fresh
// checkout with no datasets on disk can still train a working model.
func SampleRecords() ([]schema.TrainingRecord, *schema.IngestReport, error) {
	records, report, err := loadNativeSource(SampleSourceName, strings.NewReader(sampleCSV))
	if err != nil {
		return nil, nil, fmt.Errorf("embedded sample dataset: %w", err)
	}
	return records, &schema.IngestReport{
		Sources:   []schema.SourceReport{report},
		TotalRows: len(records),
	}, nil
}

// loadNativeSource parses a CSV already in the internal schema: every
// feature column by its exact name plus a "label" column. Unlike external
// sources, a structural problem here is an error because the data ships
// inside the binary.
func loadNativeSource(name string, r io.Reader) ([]schema.TrainingRecord, schema.SourceReport, error) {
	report := schema.SourceReport{Name: name}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, report, fmt.Errorf("unreadable header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	featureIdx := make([]int, schema.FeatureCount)
	for i, column := range schema.FeatureColumns {
		idx, ok := index[column]
		if !ok {
			return nil, report, fmt.Errorf("missing feature column %s", column)
		}
		featureIdx[i] = idx
	}
	labelIdx, ok := index["label"]
	if !ok {
		return nil, report, errors.New("missing label column")
	}

	var records []schema.TrainingRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("malformed csv: %w", err)
		}

		features := make(schema.FeatureVector, schema.FeatureCount)
		rowOK := true
		for i, idx := range featureIdx {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
			if err != nil {
				rowOK = false
				break
			}
			features[i] = v
		}
		label, err := strconv.Atoi(strings.TrimSpace(row[labelIdx]))
		if err != nil || (label != schema.LabelClean && label != schema.LabelDefective) {
			rowOK = false
		}
		if !rowOK {
			report.RowsDropped++
			continue
		}

		records = append(records, schema.TrainingRecord{Features: features, Label: label})
		report.RowsKept++
	}

	if len(records) == 0 {
		return nil, report, errors.New("no usable rows")
	}
	return records, report, nil
}
