package cmd

import (
	"github.com/defectlab/defectscan/core"
	"github.com/defectlab/defectscan/internal/contract"
	"github.com/spf13/cobra"
)

// trainCmd runs the offline training pipeline.
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a classifier from labeled datasets and save the artifact",
	Long: `Ingest labeled defect datasets, train a random forest and serialize it.

The data directory is probed for PROMISE-style CSVs (cm1.csv, jm1.csv,
kc1.csv, kc2.csv, pc1.csv). Sources with unusable schemas are skipped and
reported; their failure never aborts the others. When no usable rows are
found at all, training proceeds on the embedded sample dataset so a fresh
checkout can still produce a model.

The trained forest is evaluated on a 25% holdout (accuracy, per-class
precision/recall/F1, confusion matrix) and written atomically to --model.
Subsequent predict/check/serve runs pick it up as a loaded model.

Examples:
  # Train from ./data into the default artifact path
  defectscan train

  # Larger forest, custom artifact location
  defectscan train --data-dir datasets/ --trees 500 --model models/rf.bin

  # Emit an HTML report and a Parquet copy of the training set
  defectscan train --report training.html --export training

  # Record the training run in SQLite
  defectscan train --run-backend sqlite`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTrain(cfg, runManager); err != nil {
			contract.LogFatal("Training failed", err)
		}
	},
}
