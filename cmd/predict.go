package cmd

import (
	"github.com/defectlab/defectscan/core"
	"github.com/defectlab/defectscan/internal/contract"
	"github.com/spf13/cobra"
)

// predictCmd runs the full extraction-to-classification pipeline.
var predictCmd = &cobra.Command{
	Use:   "predict [path...]",
	Short: "Rank files by predicted defect probability",
	Long: `Run the full pipeline: extract metrics, vectorize, classify, rank.

Files are ranked by the probability of the defective class in descending
order, truncated to --limit. Labels are colorized in table output
(red = Defective, green = Clean).

The classifier is resolved once per model path: a valid artifact at --model
is loaded; a missing or unreadable artifact falls back to a deterministic
synthetic model so predictions are always available. The active model and
its state (loaded/fallback) are printed with the results.

When --run-backend is configured, the run and every prediction event are
recorded for later inspection with 'defectscan runs'.

Examples:
  # Predict over the current directory
  defectscan predict

  # Use a trained artifact and show the top 10
  defectscan predict src/ --model defect_model.bin --limit 10

  # Machine-readable output for CI tooling
  defectscan predict . --output json --output-file predictions.json

  # Track predictions in SQLite
  defectscan predict . --run-backend sqlite`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePredict(cfg, runManager); err != nil {
			contract.LogFatal("Prediction failed", err)
		}
	},
}
