// Package schema has configs, models and shared constants for all parts of defectscan.
package schema

// MetricsRecord maps metric names from the fixed vocabulary to non-negative values.
// It is produced fresh per analysis and has no identity beyond its values.
type MetricsRecord map[string]float64

// FeatureVector is an ordered sequence of feature values, one per entry in
// FeatureColumns. Its length is always FeatureCount; metrics absent from the
// source record are zero. This is the only input type classifiers accept.
type FeatureVector []float64

// TrainingRecord pairs a feature vector with a binary defect label.
type TrainingRecord struct {
	Features FeatureVector
	Label    int
}

// Prediction is the classifier outcome for a single input.
type Prediction struct {
	Label       int        `json:"label"`       // 0 clean, 1 defective
	Probability float64    `json:"probability"` // probability of the defective class
	ModelName   string     `json:"model_name"`
	ModelState  ModelState `json:"model_state"`
}

// FileReport represents the analysis outcome for a single file or text input.
// Prediction is nil for metrics-only analysis.
type FileReport struct {
	Path       string        `json:"path,omitempty"`
	Language   string        `json:"language,omitempty"`
	SizeBytes  int64         `json:"size_bytes"`
	Digest     string        `json:"digest"`
	Metrics    MetricsRecord `json:"metrics"`
	Prediction *Prediction   `json:"prediction,omitempty"`
}

// Features returns the report's metrics as an ordered feature vector.
func (r *FileReport) Features() FeatureVector {
	return ToFeatures(r.Metrics)
}

// ToFeatures maps a metrics record into an ordered, fixed-schema vector.
// Missing keys default to zero. The result always has length FeatureCount.
func ToFeatures(m MetricsRecord) FeatureVector {
	v := make(FeatureVector, FeatureCount)
	for i, name := range FeatureColumns {
		if val, ok := m[name]; ok {
			v[i] = val
		}
	}
	return v
}
