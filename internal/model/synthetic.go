package model

import (
	"math/rand/v2"

	"github.com/defectlab/defectscan/schema"
)

// Fallback dataset constants. Every process that falls back trains on the
// exact same 128 rows, so fallback predictions agree across machines.
const (
	SyntheticSeed    = 42
	SyntheticSamples = 128
)

// Synthetic label rule weights over standard-normal feature draws.
const (
	syntheticTodoWeight = 0.8
	syntheticLOCWeight  = 0.4
	syntheticCutoff     = 0.5
)

// SyntheticDataset generates the deterministic fallback training set. Feature
// values are standard-normal draws from a fixed PCG stream and the label is a
// linear rule over the complexity, todo and size columns.
func SyntheticDataset() []schema.TrainingRecord {
	rng := rand.New(rand.NewPCG(SyntheticSeed, 0))

	records := make([]schema.TrainingRecord, SyntheticSamples)
	for i := range records {
		features := make(schema.FeatureVector, schema.FeatureCount)
		for j := range features {
			features[j] = rng.NormFloat64()
		}

		label := schema.LabelClean
		score := features[schema.FeatureComplexity] +
			syntheticTodoWeight*features[schema.FeatureTodos] +
			syntheticLOCWeight*features[schema.FeatureLOC]
		if score > syntheticCutoff {
			label = schema.LabelDefective
		}

		records[i] = schema.TrainingRecord{Features: features, Label: label}
	}
	return records
}

// trainFallback builds the synthetic fallback forest. Both the dataset and
// the forest seeds are fixed, so the resulting model is reproducible.
func trainFallback() (*Forest, error) {
	cfg := DefaultForestConfig(FallbackTreeCount, SyntheticSeed)
	return TrainForest(cfg, SyntheticDataset())
}
