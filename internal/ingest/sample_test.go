package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defectlab/defectscan/schema"
)

func TestSampleRecords(t *testing.T) {
	records, report, err := SampleRecords()
	require.NoError(t, err)

	assert.Equal(t, 48, len(records))
	require.Len(t, report.Sources, 1)
	assert.Equal(t, SampleSourceName, report.Sources[0].Name)
	assert.Equal(t, 48, report.TotalRows)
	assert.Zero(t, report.Sources[0].RowsDropped)

	var counts [2]int
	for _, r := range records {
		require.Len(t, r.Features, schema.FeatureCount)
		counts[r.Label]++
	}
	assert.Positive(t, counts[schema.LabelClean])
	assert.Positive(t, counts[schema.LabelDefective])
}

func TestLoadNativeSourceValidation(t *testing.T) {
	tests := []struct {
		name    string
		csvData string
		wantErr string
	}{
		{
			"missing feature column",
			"loc,num_comments,label\n1,2,0\n",
			"missing feature column",
		},
		{
			"missing label column",
			strings.Join(schema.FeatureColumns, ",") + "\n1,2,3,4,5,6\n",
			"missing label column",
		},
		{
			"no usable rows",
			strings.Join(schema.FeatureColumns, ",") + ",label\nx,2,3,4,5,6,0\n",
			"no usable rows",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := loadNativeSource("test", strings.NewReader(tt.csvData))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadNativeSourceRowHandling(t *testing.T) {
	csvData := strings.Join(schema.FeatureColumns, ",") + ",label\n" +
		"10,1,2,3,20.5,0,0\n" +
		"200,5,9,40,45.0,3,1\n" +
		"30,2,1,4,18.0,0,7\n" // label out of range, dropped

	records, report, err := loadNativeSource("test", strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, 2, report.RowsKept)
	assert.Equal(t, 1, report.RowsDropped)
	require.Len(t, records, 2)

	assert.Equal(t, schema.FeatureVector{10, 1, 2, 3, 20.5, 0}, records[0].Features)
	assert.Equal(t, schema.LabelClean, records[0].Label)
	assert.Equal(t, schema.LabelDefective, records[1].Label)
}
