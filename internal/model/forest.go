// Package model implements the random-forest classifier backend, the model
// artifact codec and the load-or-fallback provider.
package model

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/schema"
)

// Forest tuning defaults.
const (
	DefaultTreeCount    = 200
	FallbackTreeCount   = 100
	DefaultMinSplitSize = 2
	DefaultSeed         = 42
)

// ForestConfig holds the tunables for forest training.
type ForestConfig struct {
	Trees    int
	MaxDepth int // 0 means unbounded
	MinSplit int
	Seed     uint64
	Workers  int // 0 means GOMAXPROCS
}

// DefaultForestConfig returns the training defaults with the given seed.
func DefaultForestConfig(trees int, seed uint64) ForestConfig {
	return ForestConfig{
		Trees:    trees,
		MinSplit: DefaultMinSplitSize,
		Seed:     seed,
	}
}

// TreeNode is one node of a decision tree. Exported fields keep the structure
// stable under msgpack round trips.
type TreeNode struct {
	Feature   int       `msgpack:"f"` // split feature index, unused on leaves
	Threshold float64   `msgpack:"t"` // go left when value <= threshold
	Left      *TreeNode `msgpack:"l"`
	Right     *TreeNode `msgpack:"r"`
	Leaf      bool      `msgpack:"e"`
	Label     int       `msgpack:"v"` // majority label, meaningful on leaves
}

// Forest is a random forest of CART trees over the fixed feature schema.
// It is read-only after training: concurrent Predict calls are safe.
type Forest struct {
	Trees       []*TreeNode `msgpack:"trees"`
	NumFeatures int         `msgpack:"num_features"`
	Seed        uint64      `msgpack:"seed"`
}

// Compile-time checks: Forest satisfies both classifier capabilities.
var (
	_ contract.Classifier      = (*Forest)(nil)
	_ contract.ProbaClassifier = (*Forest)(nil)
)

// Predict returns the majority-vote label for a feature vector.
func (f *Forest) Predict(features schema.FeatureVector) (int, error) {
	proba, err := f.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if proba[schema.LabelDefective] > proba[schema.LabelClean] {
		return schema.LabelDefective, nil
	}
	return schema.LabelClean, nil
}

// PredictProba returns the tree vote fractions as [P(clean), P(defective)].
func (f *Forest) PredictProba(features schema.FeatureVector) ([2]float64, error) {
	var proba [2]float64
	if len(features) != f.NumFeatures {
		return proba, fmt.Errorf("feature vector has %d values, schema expects %d", len(features), f.NumFeatures)
	}
	if len(f.Trees) == 0 {
		return proba, fmt.Errorf("forest has no trees")
	}

	var votes [2]int
	for _, root := range f.Trees {
		votes[classify(root, features)]++
	}
	total := float64(len(f.Trees))
	proba[schema.LabelClean] = float64(votes[schema.LabelClean]) / total
	proba[schema.LabelDefective] = float64(votes[schema.LabelDefective]) / total
	return proba, nil
}

// classify walks a tree down to a leaf label.
func classify(node *TreeNode, features schema.FeatureVector) int {
	for !node.Leaf {
		if features[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Label
}

// TrainForest builds a forest from labeled records. Each tree owns a PCG
// stream seeded from (cfg.Seed, tree index) before any goroutine is spawned,
// so results are identical regardless of scheduling.
func TrainForest(cfg ForestConfig, records []schema.TrainingRecord) (*Forest, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no training records")
	}
	if cfg.Trees <= 0 {
		return nil, fmt.Errorf("tree count must be positive (received %d)", cfg.Trees)
	}
	numFeatures := len(records[0].Features)
	for i, r := range records {
		if len(r.Features) != numFeatures {
			return nil, fmt.Errorf("record %d has %d features, expected %d", i, len(r.Features), numFeatures)
		}
		if r.Label != schema.LabelClean && r.Label != schema.LabelDefective {
			return nil, fmt.Errorf("record %d has label %d, expected 0 or 1", i, r.Label)
		}
	}

	minSplit := cfg.MinSplit
	if minSplit < 2 {
		minSplit = DefaultMinSplitSize
	}

	forest := &Forest{
		Trees:       make([]*TreeNode, cfg.Trees),
		NumFeatures: numFeatures,
		Seed:        cfg.Seed,
	}

	var g errgroup.Group
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i := range cfg.Trees {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
			sample := bootstrap(rng, len(records))
			forest.Trees[i] = buildTree(rng, records, sample, numFeatures, cfg.MaxDepth, minSplit, 0)
			return nil
		})
	}
	_ = g.Wait() // tree builders never fail

	return forest, nil
}

// bootstrap draws n indices with replacement.
func bootstrap(rng *rand.Rand, n int) []int {
	sample := make([]int, n)
	for i := range sample {
		sample[i] = rng.IntN(n)
	}
	return sample
}

// buildTree recursively grows a CART tree with Gini impurity splits over a
// random subset of features at each node.
func buildTree(rng *rand.Rand, records []schema.TrainingRecord, sample []int, numFeatures, maxDepth, minSplit, depth int) *TreeNode {
	counts := countLabels(records, sample)

	// Stop on purity, exhaustion or depth.
	if counts[0] == 0 || counts[1] == 0 || len(sample) < minSplit || (maxDepth > 0 && depth >= maxDepth) {
		return leafNode(counts)
	}

	feature, threshold, ok := bestSplit(rng, records, sample, numFeatures)
	if !ok {
		return leafNode(counts)
	}

	var left, right []int
	for _, idx := range sample {
		if records[idx].Features[feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leafNode(counts)
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(rng, records, left, numFeatures, maxDepth, minSplit, depth+1),
		Right:     buildTree(rng, records, right, numFeatures, maxDepth, minSplit, depth+1),
	}
}

// leafNode returns a leaf carrying the majority label of counts.
func leafNode(counts [2]int) *TreeNode {
	label := schema.LabelClean
	if counts[schema.LabelDefective] > counts[schema.LabelClean] {
		label = schema.LabelDefective
	}
	return &TreeNode{Leaf: true, Label: label}
}

// countLabels tallies the labels of the sampled records.
func countLabels(records []schema.TrainingRecord, sample []int) [2]int {
	var counts [2]int
	for _, idx := range sample {
		counts[records[idx].Label]++
	}
	return counts
}

// bestSplit evaluates candidate thresholds on a random subset of features and
// returns the split with the lowest weighted Gini impurity.
func bestSplit(rng *rand.Rand, records []schema.TrainingRecord, sample []int, numFeatures int) (int, float64, bool) {
	mtry := max(1, int(math.Sqrt(float64(numFeatures))))
	candidates := rng.Perm(numFeatures)[:mtry]

	bestGini := math.Inf(1)
	bestFeature := -1
	bestThreshold := 0.0

	values := make([]float64, 0, len(sample))
	for _, feature := range candidates {
		values = values[:0]
		for _, idx := range sample {
			values = append(values, records[idx].Features[feature])
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			threshold := (values[i] + values[i-1]) / 2
			gini := weightedGini(records, sample, feature, threshold)
			if gini < bestGini {
				bestGini = gini
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// weightedGini computes the size-weighted Gini impurity of a candidate split.
func weightedGini(records []schema.TrainingRecord, sample []int, feature int, threshold float64) float64 {
	var leftCounts, rightCounts [2]int
	for _, idx := range sample {
		if records[idx].Features[feature] <= threshold {
			leftCounts[records[idx].Label]++
		} else {
			rightCounts[records[idx].Label]++
		}
	}

	total := float64(len(sample))
	return float64(leftCounts[0]+leftCounts[1])/total*gini(leftCounts) +
		float64(rightCounts[0]+rightCounts[1])/total*gini(rightCounts)
}

// FeatureUsage returns the fraction of split nodes testing each feature.
// It serves as a cheap importance proxy for training reports.
func (f *Forest) FeatureUsage() []float64 {
	counts := make([]float64, f.NumFeatures)
	var total float64

	var walk func(*TreeNode)
	walk = func(n *TreeNode) {
		if n == nil || n.Leaf {
			return
		}
		counts[n.Feature]++
		total++
		walk(n.Left)
		walk(n.Right)
	}
	for _, root := range f.Trees {
		walk(root)
	}

	if total > 0 {
		for i := range counts {
			counts[i] /= total
		}
	}
	return counts
}

// gini computes the Gini impurity of a binary label count.
func gini(counts [2]int) float64 {
	n := float64(counts[0] + counts[1])
	if n == 0 {
		return 0
	}
	p0 := float64(counts[0]) / n
	p1 := float64(counts[1]) / n
	return 1 - p0*p0 - p1*p1
}
