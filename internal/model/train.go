package model

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/schema"
)

// DefaultHoldout is the fraction of rows reserved for evaluation.
const DefaultHoldout = 0.25

// MinTrainRows is the smallest dataset that still leaves both a training and
// a holdout row after the split.
const MinTrainRows = 4

// shuffleStream keeps the split shuffle on a PCG stream no tree ever uses.
const shuffleStream = math.MaxUint64

// TrainResult bundles the trained forest with its holdout evaluation.
type TrainResult struct {
	Forest *Forest
	Eval   schema.Evaluation
}

// Train shuffles records deterministically, holds out a test fraction,
// trains a forest on the rest and evaluates it on the holdout.
func Train(cfg ForestConfig, records []schema.TrainingRecord, holdout float64) (*TrainResult, error) {
	n := len(records)
	if n < MinTrainRows {
		return nil, fmt.Errorf("need at least %d labeled rows to train and evaluate (received %d)", MinTrainRows, n)
	}
	if holdout <= 0 || holdout >= 1 {
		holdout = DefaultHoldout
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, shuffleStream))
	shuffled := make([]schema.TrainingRecord, n)
	for i, j := range rng.Perm(n) {
		shuffled[i] = records[j]
	}

	testN := int(float64(n) * holdout)
	if testN < 1 {
		testN = 1
	}
	if testN > n-1 {
		testN = n - 1
	}
	trainSet := shuffled[:n-testN]
	testSet := shuffled[n-testN:]

	forest, err := TrainForest(cfg, trainSet)
	if err != nil {
		return nil, fmt.Errorf("train forest: %w", err)
	}

	eval, err := Evaluate(forest, testSet)
	if err != nil {
		return nil, fmt.Errorf("evaluate holdout: %w", err)
	}
	eval.TrainRows = len(trainSet)
	eval.TestRows = len(testSet)

	return &TrainResult{Forest: forest, Eval: eval}, nil
}

// Evaluate scores a classifier against labeled records and returns accuracy,
// the confusion matrix and per-class precision, recall and F1.
func Evaluate(clf contract.Classifier, records []schema.TrainingRecord) (schema.Evaluation, error) {
	var eval schema.Evaluation
	if len(records) == 0 {
		return eval, fmt.Errorf("no evaluation records")
	}

	for i, r := range records {
		predicted, err := clf.Predict(r.Features)
		if err != nil {
			return eval, fmt.Errorf("predict evaluation record %d: %w", i, err)
		}
		eval.Confusion[r.Label][predicted]++
	}

	correct := eval.Confusion[0][0] + eval.Confusion[1][1]
	eval.Accuracy = float64(correct) / float64(len(records))

	for class := range 2 {
		support := eval.Confusion[class][0] + eval.Confusion[class][1]
		predicted := eval.Confusion[0][class] + eval.Confusion[1][class]
		truePositive := float64(eval.Confusion[class][class])

		metrics := schema.ClassMetrics{Support: support}
		if predicted > 0 {
			metrics.Precision = truePositive / float64(predicted)
		}
		if support > 0 {
			metrics.Recall = truePositive / float64(support)
		}
		if metrics.Precision+metrics.Recall > 0 {
			metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
		}
		eval.PerClass[class] = metrics
	}

	return eval, nil
}
