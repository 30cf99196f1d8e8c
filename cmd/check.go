package cmd

import (
	"github.com/defectlab/defectscan/core"
	"github.com/defectlab/defectscan/internal/contract"
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Enforce a defect probability threshold for CI/CD pipelines (fails build on violations)",
	Long: `Classify every matching file and fail with a non-zero exit code when any
file's defect probability reaches the threshold.

Designed specifically for CI/CD integration - the exit code reflects the
gate verdict, so a pipeline step fails exactly when risky files are present.

Default threshold: 0.5

Use cases:
- Pull request gates - block merges that introduce high-risk files
- Release validation - ensure no critical files before deployment
- Quality enforcement - maintain code health standards

Examples:
  # Gate the working tree at the default threshold
  defectscan check

  # Stricter gate for a release branch
  defectscan check src/ --threshold 0.8

  # Gate against a trained model artifact
  defectscan check . --model defect_model.bin --threshold 0.7`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Threshold validation is done in ProcessAndValidate
		if err := core.ExecuteCheck(cfg, runManager); err != nil {
			contract.LogFatal("Policy check failed", err)
		}
	},
}
