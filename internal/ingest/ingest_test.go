package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defectlab/defectscan/schema"
)

func TestLoadSourcePromiseColumns(t *testing.T) {
	csvData := "loc,v(g),ev(g),n,lOComment,defects\n" +
		"11,2,1,40,3,false\n" +
		"120,14,3,600,25,true\n"

	records, report := LoadSource("cm1.csv", strings.NewReader(csvData))

	require.False(t, report.Skipped)
	assert.Equal(t, 2, report.RowsKept)
	assert.Equal(t, 0, report.RowsDropped)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, schema.LabelClean, first.Label)
	assert.Equal(t, 11.0, first.Features[schema.FeatureLOC])
	assert.Equal(t, 3.0, first.Features[schema.FeatureComments])
	assert.Equal(t, 0.0, first.Features[schema.FeatureFunctions])
	assert.Equal(t, 2.0, first.Features[schema.FeatureComplexity])
	assert.InDelta(t, 40.0/11.0, first.Features[schema.FeatureAvgLineLength], 1e-9)
	assert.Equal(t, 0.0, first.Features[schema.FeatureTodos])

	assert.Equal(t, schema.LabelDefective, records[1].Label)
}

func TestLoadSourceDefectsParsing(t *testing.T) {
	tests := []struct {
		name      string
		cell      string
		wantLabel int
		wantDrop  bool
	}{
		{"capitalized true", "True", schema.LabelDefective, false},
		{"lower true", "true", schema.LabelDefective, false},
		{"upper false", "FALSE", schema.LabelClean, false},
		{"lower false", "false", schema.LabelClean, false},
		{"junk drops row", "maybe", 0, true},
		{"numeric drops row", "1", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csvData := "loc,v(g),defects\n5,1," + tt.cell + "\n"
			records, report := LoadSource("x.csv", strings.NewReader(csvData))

			require.False(t, report.Skipped)
			if tt.wantDrop {
				assert.Empty(t, records)
				assert.Equal(t, 1, report.RowsDropped)
				return
			}
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantLabel, records[0].Label)
		})
	}
}

func TestLoadSourceIntegerLabels(t *testing.T) {
	csvData := "lOCode,branchCount,label\n" +
		"25,4,1\n" +
		"30,2,0\n" +
		"40,3,2\n" + // out of range, dropped
		"50,5,x\n" // unparseable, dropped

	records, report := LoadSource("jm1.csv", strings.NewReader(csvData))

	require.False(t, report.Skipped)
	assert.Equal(t, 2, report.RowsKept)
	assert.Equal(t, 2, report.RowsDropped)
	require.Len(t, records, 2)
	assert.Equal(t, schema.LabelDefective, records[0].Label)
	assert.Equal(t, 25.0, records[0].Features[schema.FeatureLOC])
	assert.Equal(t, 4.0, records[0].Features[schema.FeatureComplexity])
	// No lOComment or n columns: both default to zero.
	assert.Equal(t, 0.0, records[0].Features[schema.FeatureComments])
	assert.Equal(t, 0.0, records[0].Features[schema.FeatureAvgLineLength])
}

func TestLoadSourceAliasPriority(t *testing.T) {
	// Every alias present at once: the first of each ordered table must win.
	csvData := "loc,lOCode,locCodeAndComment,v(g),branchCount,defects,label\n" +
		"10,99,98,7,96,true,0\n"

	records, report := LoadSource("x.csv", strings.NewReader(csvData))

	require.False(t, report.Skipped)
	require.Len(t, records, 1)
	assert.Equal(t, 10.0, records[0].Features[schema.FeatureLOC], "loc must outrank lOCode")
	assert.Equal(t, 7.0, records[0].Features[schema.FeatureComplexity], "v(g) must outrank branchCount")
	assert.Equal(t, schema.LabelDefective, records[0].Label, "defects must outrank label")
}

func TestLoadSourceFallbackAliases(t *testing.T) {
	csvData := "locCodeAndComment,branchCount,defects\n30,5,true\n"

	records, report := LoadSource("kc2.csv", strings.NewReader(csvData))

	require.False(t, report.Skipped)
	require.Len(t, records, 1)
	assert.Equal(t, 30.0, records[0].Features[schema.FeatureLOC])
	assert.Equal(t, 5.0, records[0].Features[schema.FeatureComplexity])
}

func TestLoadSourceHeaderMatchingIsExactCase(t *testing.T) {
	csvData := "LOC,V(G),DEFECTS\n5,1,true\n"

	records, report := LoadSource("shouty.csv", strings.NewReader(csvData))

	assert.True(t, report.Skipped)
	assert.Contains(t, report.Reason, "label")
	assert.Empty(t, records)
}

func TestLoadSourceSchemaSkips(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantReason string
	}{
		{"no label aliases", "loc,v(g)\n", "no label column"},
		{"no loc aliases", "v(g),defects\n", "no loc column"},
		{"no complexity aliases", "loc,defects\n", "no complexity column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, report := LoadSource("x.csv", strings.NewReader(tt.header))
			assert.True(t, report.Skipped)
			assert.Contains(t, report.Reason, tt.wantReason)
		})
	}
}

func TestLoadSourceRowDrops(t *testing.T) {
	csvData := "loc,v(g),n,defects\n" +
		"10,2,50,false\n" + // kept
		",2,50,false\n" + // empty loc
		"10,?,50,true\n" + // PROMISE-style missing marker
		"10,2,50\n" + // ragged row
		"10,2,,false\n" // empty optional cell still drops

	records, report := LoadSource("x.csv", strings.NewReader(csvData))

	require.False(t, report.Skipped)
	assert.Equal(t, 1, report.RowsKept)
	assert.Equal(t, 4, report.RowsDropped)
	require.Len(t, records, 1)
}

func TestLoadSourceZeroLOCDivisor(t *testing.T) {
	csvData := "loc,v(g),n,defects\n0,1,50,false\n"

	records, report := LoadSource("x.csv", strings.NewReader(csvData))

	require.False(t, report.Skipped)
	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].Features[schema.FeatureLOC])
	assert.Equal(t, 50.0, records[0].Features[schema.FeatureAvgLineLength])
}

func TestLoadDirSkipsBadSourcesAndKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	write("jm1.csv", "loc,v(g),defects\n200,9,true\n")
	write("cm1.csv", "loc,v(g),defects\n100,3,false\n")
	write("kc1.csv", "size,weight\n1,2\n")
	write("notes.txt", "not a dataset\n")

	records, report, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 100.0, records[0].Features[schema.FeatureLOC], "sources must merge in canonical order")
	assert.Equal(t, 200.0, records[1].Features[schema.FeatureLOC])

	require.Len(t, report.Sources, 3, "absent canonical files and non-sources do not appear")
	assert.Equal(t, 2, report.TotalRows)

	skipped := report.SkippedSources()
	require.Len(t, skipped, 1)
	assert.Equal(t, "kc1.csv", skipped[0])
}

func TestLoadDirIgnoresNonCanonicalFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	// A stray CSV with resolvable headers (an exported report, say) must
	// never join the training set.
	write("cm1.csv", "loc,v(g),defects\n100,3,false\n")
	write("export.csv", "loc,v(g),defects\n999,99,true\n")

	records, report, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, 100.0, records[0].Features[schema.FeatureLOC])
	require.Len(t, report.Sources, 1)
	assert.Equal(t, "cm1.csv", report.Sources[0].Name)
}

func TestLoadDirNoData(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, _, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("empty directory", func(t *testing.T) {
		_, _, err := LoadDir(t.TempDir())
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("all sources skipped", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cm1.csv"), []byte("x,y\n1,2\n"), 0o644))

		_, report, err := LoadDir(dir)
		assert.ErrorIs(t, err, ErrNoData)
		require.NotNil(t, report)
		assert.Len(t, report.SkippedSources(), 1)
	})

	t.Run("rows all dropped", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "jm1.csv"), []byte("loc,v(g),defects\n?,?,maybe\n"), 0o644))

		_, _, err := LoadDir(dir)
		assert.ErrorIs(t, err, ErrNoData)
	})
}
