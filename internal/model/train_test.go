package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defectlab/defectscan/schema"
)

// ruleClassifier predicts defective when the first feature exceeds a cutoff.
type ruleClassifier struct {
	cutoff float64
}

func (c *ruleClassifier) Predict(features schema.FeatureVector) (int, error) {
	if features[0] > c.cutoff {
		return schema.LabelDefective, nil
	}
	return schema.LabelClean, nil
}

func TestTrainSplitsAndEvaluates(t *testing.T) {
	result, err := Train(DefaultForestConfig(FallbackTreeCount, SyntheticSeed), SyntheticDataset(), DefaultHoldout)
	require.NoError(t, err)

	assert.Equal(t, 96, result.Eval.TrainRows)
	assert.Equal(t, 32, result.Eval.TestRows)
	assert.GreaterOrEqual(t, result.Eval.Accuracy, 0.0)
	assert.LessOrEqual(t, result.Eval.Accuracy, 1.0)

	var total int
	for _, row := range result.Eval.Confusion {
		for _, cell := range row {
			total += cell
		}
	}
	assert.Equal(t, 32, total, "confusion matrix must cover every holdout row")
}

func TestTrainDeterministic(t *testing.T) {
	first, err := Train(DefaultForestConfig(20, 42), SyntheticDataset(), DefaultHoldout)
	require.NoError(t, err)
	second, err := Train(DefaultForestConfig(20, 42), SyntheticDataset(), DefaultHoldout)
	require.NoError(t, err)

	assert.Equal(t, first.Eval, second.Eval)
	assert.Equal(t, first.Forest.Trees, second.Forest.Trees)
}

func TestTrainRejectsTinyDatasets(t *testing.T) {
	records := separableRecords(3)
	_, err := Train(DefaultForestConfig(10, 1), records, DefaultHoldout)
	assert.ErrorContains(t, err, "at least 4 labeled rows")
}

func TestTrainClampsHoldout(t *testing.T) {
	records := separableRecords(8)

	tests := []struct {
		name    string
		holdout float64
	}{
		{"zero falls back to default", 0},
		{"negative falls back to default", -1},
		{"full dataset falls back to default", 1.5},
		{"tiny fraction keeps one test row", 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Train(DefaultForestConfig(10, 1), records, tt.holdout)
			require.NoError(t, err)
			assert.Positive(t, result.Eval.TestRows)
			assert.Positive(t, result.Eval.TrainRows)
			assert.Equal(t, len(records), result.Eval.TrainRows+result.Eval.TestRows)
		})
	}
}

func TestEvaluatePerfectClassifier(t *testing.T) {
	records := []schema.TrainingRecord{
		{Features: schema.FeatureVector{0, 0, 0, 0, 0, 0}, Label: schema.LabelClean},
		{Features: schema.FeatureVector{1, 0, 0, 0, 0, 0}, Label: schema.LabelClean},
		{Features: schema.FeatureVector{9, 0, 0, 0, 0, 0}, Label: schema.LabelDefective},
		{Features: schema.FeatureVector{8, 0, 0, 0, 0, 0}, Label: schema.LabelDefective},
	}

	eval, err := Evaluate(&ruleClassifier{cutoff: 5}, records)
	require.NoError(t, err)

	assert.Equal(t, 1.0, eval.Accuracy)
	for class := range 2 {
		assert.Equal(t, 1.0, eval.PerClass[class].Precision)
		assert.Equal(t, 1.0, eval.PerClass[class].Recall)
		assert.Equal(t, 1.0, eval.PerClass[class].F1)
		assert.Equal(t, 2, eval.PerClass[class].Support)
	}
}

func TestEvaluateHandlesMissingPredictedClass(t *testing.T) {
	// Cutoff above every value: the classifier never predicts defective.
	records := []schema.TrainingRecord{
		{Features: schema.FeatureVector{0, 0, 0, 0, 0, 0}, Label: schema.LabelClean},
		{Features: schema.FeatureVector{1, 0, 0, 0, 0, 0}, Label: schema.LabelDefective},
	}

	eval, err := Evaluate(&ruleClassifier{cutoff: 100}, records)
	require.NoError(t, err)

	assert.Equal(t, 0.5, eval.Accuracy)
	assert.Equal(t, 0.0, eval.PerClass[schema.LabelDefective].Precision)
	assert.Equal(t, 0.0, eval.PerClass[schema.LabelDefective].Recall)
	assert.Equal(t, 0.0, eval.PerClass[schema.LabelDefective].F1)
	assert.Equal(t, 1, eval.PerClass[schema.LabelDefective].Support)
	assert.Equal(t, 0.5, eval.PerClass[schema.LabelClean].Precision)
	assert.Equal(t, 1.0, eval.PerClass[schema.LabelClean].Recall)
}

func TestEvaluateRejectsEmptyInput(t *testing.T) {
	_, err := Evaluate(&ruleClassifier{}, nil)
	assert.ErrorContains(t, err, "no evaluation records")
}
