package model

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/defectlab/defectscan/schema"
)

// ArtifactFormatVersion is bumped whenever the serialized layout changes.
// Loaders reject artifacts written with a different version.
const ArtifactFormatVersion = 1

// Artifact source tags, recorded at training time.
const (
	SourcePromise   = "promise"
	SourceSample    = "sample"
	SourceSynthetic = "synthetic"
)

// Artifact is the on-disk envelope around a trained forest. The feature
// schema is stored alongside the model so a loader can refuse artifacts
// trained against a different column order.
type Artifact struct {
	FormatVersion int       `msgpack:"format_version"`
	FeatureSchema []string  `msgpack:"feature_schema"`
	CreatedAt     time.Time `msgpack:"created_at"`
	Source        string    `msgpack:"source"`
	Forest        *Forest   `msgpack:"forest"`
}

// NewArtifact wraps a forest in the current envelope.
func NewArtifact(forest *Forest, source string) *Artifact {
	return &Artifact{
		FormatVersion: ArtifactFormatVersion,
		FeatureSchema: slices.Clone(schema.FeatureColumns),
		CreatedAt:     time.Now().UTC(),
		Source:        source,
		Forest:        forest,
	}
}

// SaveArtifact writes the artifact to path atomically. The payload lands in a
// temp file in the destination directory first and is renamed into place, so
// readers never observe a partial artifact.
func SaveArtifact(path string, artifact *Artifact) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()

	enc := msgpack.NewEncoder(tmp)
	if err := enc.Encode(artifact); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("flush artifact: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace artifact %s: %w", path, err)
	}
	return nil
}

// LoadArtifact reads and validates an artifact. Any failure, from a missing
// file to a schema mismatch, comes back as an error so callers can decide
// whether to fall back.
func LoadArtifact(path string) (*Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", path, err)
	}
	defer file.Close()

	var artifact Artifact
	dec := msgpack.NewDecoder(file)
	if err := dec.Decode(&artifact); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}

	if err := validateArtifact(&artifact); err != nil {
		return nil, fmt.Errorf("validate artifact %s: %w", path, err)
	}
	return &artifact, nil
}

// validateArtifact rejects envelopes this build cannot serve predictions from.
func validateArtifact(artifact *Artifact) error {
	if artifact.FormatVersion != ArtifactFormatVersion {
		return fmt.Errorf("format version %d is not supported (expected %d)", artifact.FormatVersion, ArtifactFormatVersion)
	}
	if !slices.Equal(artifact.FeatureSchema, schema.FeatureColumns) {
		return fmt.Errorf("feature schema %v does not match %v", artifact.FeatureSchema, schema.FeatureColumns)
	}
	if artifact.Forest == nil || len(artifact.Forest.Trees) == 0 {
		return fmt.Errorf("artifact carries no trained trees")
	}
	if artifact.Forest.NumFeatures != schema.FeatureCount {
		return fmt.Errorf("forest expects %d features, schema has %d", artifact.Forest.NumFeatures, schema.FeatureCount)
	}
	for i, root := range artifact.Forest.Trees {
		if err := validateTree(root, artifact.Forest.NumFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// validateTree rejects structurally broken trees: a nil node, a split node
// missing a child, or a split on a feature outside the schema. Every node a
// prediction could reach must be walkable.
func validateTree(node *TreeNode, numFeatures int) error {
	if node == nil {
		return fmt.Errorf("nil node")
	}
	if node.Leaf {
		return nil
	}
	if node.Feature < 0 || node.Feature >= numFeatures {
		return fmt.Errorf("split feature %d outside schema of %d", node.Feature, numFeatures)
	}
	if node.Left == nil || node.Right == nil {
		return fmt.Errorf("split node missing a child")
	}
	if err := validateTree(node.Left, numFeatures); err != nil {
		return err
	}
	return validateTree(node.Right, numFeatures)
}
