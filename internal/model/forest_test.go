package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defectlab/defectscan/schema"
)

// separableRecords builds n records split evenly between a low cluster with
// label 0 and a high cluster with label 1, separable on every feature.
func separableRecords(n int) []schema.TrainingRecord {
	records := make([]schema.TrainingRecord, n)
	for i := range records {
		features := make(schema.FeatureVector, schema.FeatureCount)
		label := schema.LabelClean
		if i%2 == 1 {
			label = schema.LabelDefective
			for j := range features {
				features[j] = 10 + float64(i%5)
			}
		} else {
			for j := range features {
				features[j] = float64(i % 3)
			}
		}
		records[i] = schema.TrainingRecord{Features: features, Label: label}
	}
	return records
}

func TestTrainForestSeparable(t *testing.T) {
	forest, err := TrainForest(DefaultForestConfig(50, 7), separableRecords(40))
	require.NoError(t, err)
	require.Len(t, forest.Trees, 50)

	low := make(schema.FeatureVector, schema.FeatureCount)
	high := make(schema.FeatureVector, schema.FeatureCount)
	for i := range high {
		high[i] = 12
	}

	lowLabel, err := forest.Predict(low)
	require.NoError(t, err)
	assert.Equal(t, schema.LabelClean, lowLabel)

	highLabel, err := forest.Predict(high)
	require.NoError(t, err)
	assert.Equal(t, schema.LabelDefective, highLabel)
}

func TestTrainForestDeterministic(t *testing.T) {
	records := separableRecords(60)

	first, err := TrainForest(ForestConfig{Trees: 30, MinSplit: 2, Seed: 42, Workers: 4}, records)
	require.NoError(t, err)
	second, err := TrainForest(ForestConfig{Trees: 30, MinSplit: 2, Seed: 42, Workers: 1}, records)
	require.NoError(t, err)

	assert.Equal(t, first.Trees, second.Trees, "same seed must grow identical trees regardless of worker count")

	third, err := TrainForest(ForestConfig{Trees: 30, MinSplit: 2, Seed: 43}, records)
	require.NoError(t, err)
	assert.NotEqual(t, first.Trees, third.Trees, "different seeds should grow different trees")
}

func TestTrainForestRejectsBadInputs(t *testing.T) {
	valid := separableRecords(10)

	tests := []struct {
		name    string
		cfg     ForestConfig
		records []schema.TrainingRecord
	}{
		{"no records", DefaultForestConfig(10, 1), nil},
		{"zero trees", DefaultForestConfig(0, 1), valid},
		{"negative trees", DefaultForestConfig(-5, 1), valid},
		{
			"ragged features",
			DefaultForestConfig(10, 1),
			[]schema.TrainingRecord{
				{Features: schema.FeatureVector{1, 2, 3, 4, 5, 6}, Label: 0},
				{Features: schema.FeatureVector{1, 2}, Label: 1},
			},
		},
		{
			"label out of range",
			DefaultForestConfig(10, 1),
			[]schema.TrainingRecord{
				{Features: schema.FeatureVector{1, 2, 3, 4, 5, 6}, Label: 2},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TrainForest(tt.cfg, tt.records)
			assert.Error(t, err)
		})
	}
}

func TestPredictRejectsWrongVectorLength(t *testing.T) {
	forest, err := TrainForest(DefaultForestConfig(10, 1), separableRecords(20))
	require.NoError(t, err)

	_, err = forest.Predict(schema.FeatureVector{1, 2})
	assert.ErrorContains(t, err, "feature vector has 2 values")
}

func TestPredictProbaSumsToOne(t *testing.T) {
	forest, err := TrainForest(DefaultForestConfig(25, 3), separableRecords(40))
	require.NoError(t, err)

	probes := []schema.FeatureVector{
		{0, 0, 0, 0, 0, 0},
		{5, 5, 5, 5, 5, 5},
		{12, 12, 12, 12, 12, 12},
	}
	for _, probe := range probes {
		proba, err := forest.PredictProba(probe)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, proba[0]+proba[1], 1e-9)
		assert.GreaterOrEqual(t, proba[0], 0.0)
		assert.GreaterOrEqual(t, proba[1], 0.0)
	}
}

func TestFeatureUsageNormalized(t *testing.T) {
	forest, err := TrainForest(DefaultForestConfig(20, 9), separableRecords(40))
	require.NoError(t, err)

	usage := forest.FeatureUsage()
	require.Len(t, usage, schema.FeatureCount)

	var total float64
	for _, u := range usage {
		assert.GreaterOrEqual(t, u, 0.0)
		total += u
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func BenchmarkForestPredict(b *testing.B) {
	forest, err := TrainForest(DefaultForestConfig(DefaultTreeCount, 42), SyntheticDataset())
	if err != nil {
		b.Fatal(err)
	}
	probe := schema.FeatureVector{120, 14, 6, 18, 42.5, 2}

	b.ResetTimer()
	for b.Loop() {
		if _, err := forest.Predict(probe); err != nil {
			b.Fatal(err)
		}
	}
}
