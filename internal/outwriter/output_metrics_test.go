package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metricsReport builds a metrics-only report for writer tests.
func metricsReport(path, lang string, loc, comments, funcs, complexity, avgLen, todos float64) *schema.FileReport {
	return &schema.FileReport{
		Path:      path,
		Language:  lang,
		SizeBytes: 256,
		Digest:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Metrics: schema.MetricsRecord{
			schema.MetricLOC:           loc,
			schema.MetricComments:      comments,
			schema.MetricFunctions:     funcs,
			schema.MetricComplexity:    complexity,
			schema.MetricAvgLineLength: avgLen,
			schema.MetricTodos:         todos,
		},
	}
}

func TestWriteMetricsJSON(t *testing.T) {
	reports := []*schema.FileReport{
		metricsReport("core/parser.go", "go", 120, 30, 8, 14, 28.75, 2),
	}

	var buf bytes.Buffer
	err := writeMetricsJSON(&buf, reports)
	require.NoError(t, err)

	// Parse the JSON to verify structure
	var result []map[string]any
	err = json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, err)
	require.Len(t, result, 1)

	assert.Equal(t, float64(1), result[0]["rank"])
	assert.Equal(t, "core/parser.go", result[0]["path"])
	assert.Equal(t, "go", result[0]["language"])

	metrics, ok := result[0]["metrics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 120.0, metrics["loc"])
	assert.Equal(t, 28.75, metrics["avg_line_length"])
}

func TestWriteMetricsJSONRanksSequential(t *testing.T) {
	reports := []*schema.FileReport{
		metricsReport("a.go", "go", 10, 1, 1, 2, 20, 0),
		metricsReport("b.go", "go", 20, 2, 2, 4, 22, 1),
		metricsReport("c.go", "go", 30, 3, 3, 6, 24, 2),
	}

	var buf bytes.Buffer
	err := writeMetricsJSON(&buf, reports)
	require.NoError(t, err)

	var result []map[string]any
	err = json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, float64(1), result[0]["rank"])
	assert.Equal(t, float64(2), result[1]["rank"])
	assert.Equal(t, float64(3), result[2]["rank"])
}

func TestWriteMetricsCSVRows(t *testing.T) {
	fmtFloat, fmtCount := createFormatters(2)
	reports := []*schema.FileReport{
		metricsReport("a.go", "go", 4, 1, 1, 3, 12.5, 0),
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writeMetricsCSVRows(w, reports, fmtFloat, fmtCount)
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "1,a.go,go,256,")
	// Metric columns follow the feature schema order
	assert.True(t, strings.HasSuffix(lines[0], "4,1,1,3,12.50,0"), lines[0])
}

func TestPrintMetricsReportsTable(t *testing.T) {
	reports := []*schema.FileReport{
		metricsReport("core/parser.go", "go", 120, 30, 8, 14, 28.75, 2),
		metricsReport("web/app.js", "javascript", 80, 5, 3, 6, 31.2, 1),
	}

	outFile := filepath.Join(t.TempDir(), "metrics.txt")
	cfg := &contract.Config{
		Output:     schema.TextOut,
		OutputFile: outFile,
		Precision:  2,
		Workers:    4,
	}

	err := PrintMetricsReports(reports, cfg, 150*time.Millisecond)
	require.NoError(t, err)

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)
	output := string(content)

	assert.Contains(t, output, "core/parser.go")
	assert.Contains(t, output, "web/app.js")
	assert.Contains(t, output, "28.75")
	assert.Contains(t, output, "120")
	assert.Contains(t, output, "Showing 2 file(s) (total LOC: 200, total TODOs: 3)")
	assert.Contains(t, output, "Analysis completed in 150ms with 4 workers")
}

func TestPrintMetricsReportsJSON(t *testing.T) {
	reports := []*schema.FileReport{
		metricsReport("a.go", "go", 4, 1, 1, 3, 12.5, 0),
	}

	outFile := filepath.Join(t.TempDir(), "metrics.json")
	cfg := &contract.Config{
		Output:     schema.JSONOut,
		OutputFile: outFile,
		Precision:  2,
	}

	err := PrintMetricsReports(reports, cfg, time.Millisecond)
	require.NoError(t, err)

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var result []map[string]any
	require.NoError(t, json.Unmarshal(content, &result))
	require.Len(t, result, 1)
	assert.Equal(t, "a.go", result[0]["path"])
}

func TestPrintMetricsReportsCSV(t *testing.T) {
	reports := []*schema.FileReport{
		metricsReport("a.go", "go", 4, 1, 1, 3, 12.5, 0),
	}

	outFile := filepath.Join(t.TempDir(), "metrics.csv")
	cfg := &contract.Config{
		Output:     schema.CSVOut,
		OutputFile: outFile,
		Precision:  2,
	}

	err := PrintMetricsReports(reports, cfg, time.Millisecond)
	require.NoError(t, err)

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2) // header + 1 row
	assert.Equal(t,
		"rank,path,language,size_bytes,digest,loc,num_comments,num_functions,cyclomatic_complexity_estimate,avg_line_length,num_todos",
		lines[0])
	assert.Contains(t, lines[1], "a.go")
}

func TestPrintMetricsReportsEmpty(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "empty.txt")
	cfg := &contract.Config{
		Output:     schema.TextOut,
		OutputFile: outFile,
		Precision:  2,
		Workers:    1,
	}

	err := PrintMetricsReports(nil, cfg, 5*time.Millisecond)
	require.NoError(t, err)

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Showing 0 file(s)")
	assert.Contains(t, string(content), "Analysis completed in 5ms")
}
