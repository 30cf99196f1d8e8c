package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/schema"
)

func TestDecodeBytes(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"plain ascii", []byte("hello"), "hello"},
		{"valid utf-8", []byte("héllo"), "héllo"},
		{"latin-1 byte widened", []byte{0xE9}, "é"},
		{"mixed invalid sequence", []byte{'a', 0xFF, 'b'}, "a\u00FFb"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeBytes(tt.raw))
		})
	}
}

func TestDigest(t *testing.T) {
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Digest([]byte("abc")))
	assert.Len(t, Digest(nil), 64)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "Python", DetectLanguage("src/main.py", []byte("print('hi')\n")))
	assert.Equal(t, "Go", DetectLanguage("main.go", []byte("package main\n")))
}

func TestAnalyzeBytesBuildsFullReport(t *testing.T) {
	raw := []byte("def foo():\n    pass\n")
	report := AnalyzeBytes("pkg/mod.py", raw)

	assert.Equal(t, "pkg/mod.py", report.Path)
	assert.Equal(t, "Python", report.Language)
	assert.Equal(t, int64(len(raw)), report.SizeBytes)
	assert.Len(t, report.Digest, 64)
	assert.Equal(t, 2.0, report.Metrics[schema.MetricLOC])
	assert.Nil(t, report.Prediction)
}

func TestAnalyzeBytesCacheReturnsIndependentRecords(t *testing.T) {
	raw := []byte("x = 1\n")

	first := AnalyzeBytes("a.py", raw)
	second := AnalyzeBytes("b.py", raw)

	require.Equal(t, first.Metrics, second.Metrics)
	first.Metrics[schema.MetricLOC] = 999
	assert.Equal(t, 1.0, second.Metrics[schema.MetricLOC], "cached metrics must not be shared")
}

func TestAnalyzeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "score.py")
	require.NoError(t, os.WriteFile(path, []byte("if x and y:\n    pass\n"), 0o644))

	report, err := AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, report.Path)
	assert.Equal(t, 3.0, report.Metrics[schema.MetricComplexity])

	_, err = AnalyzeFile(filepath.Join(dir, "missing.py"))
	assert.Error(t, err)
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(rel, content string) string {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	app := mustWrite("app.py", "x = 1\n")
	util := mustWrite("lib/util.js", "var x;\n")
	vendored := mustWrite("node_modules/dep/index.js", "x\n")
	mustWrite(".git/config", "[core]\n")

	files, err := CollectFiles([]string{dir}, []string{"node_modules/", ".git/"})
	require.NoError(t, err)
	assert.Equal(t, []string{app, util}, files)

	// Explicitly listed files bypass the excludes, and overlaps deduplicate.
	files, err = CollectFiles([]string{dir, vendored, app}, []string{"node_modules/", ".git/"})
	require.NoError(t, err)
	assert.Equal(t, []string{app, util, vendored}, files)

	_, err = CollectFiles([]string{filepath.Join(dir, "missing")}, nil)
	assert.Error(t, err)
}

func TestAnalyzeFilesSortedAndResilient(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"c.py", "a.py", "b.py"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
		paths = append(paths, path)
	}
	// A vanished file is logged and skipped, never fatal.
	paths = append(paths, filepath.Join(dir, "gone.py"))

	cfg := &contract.Config{Workers: 4}
	reports := AnalyzeFiles(cfg, paths)

	require.Len(t, reports, 3)
	assert.Equal(t, filepath.Join(dir, "a.py"), reports[0].Path)
	assert.Equal(t, filepath.Join(dir, "b.py"), reports[1].Path)
	assert.Equal(t, filepath.Join(dir, "c.py"), reports[2].Path)
}
