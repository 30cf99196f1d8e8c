package cmd

import (
	"github.com/defectlab/defectscan/core"
	"github.com/defectlab/defectscan/internal/contract"
	"github.com/spf13/cobra"
)

// datasetsCmd inspects dataset ingestion without training anything.
var datasetsCmd = &cobra.Command{
	Use:   "datasets [data-dir]",
	Short: "Dry-run dataset ingestion and show per-source resolution outcomes",
	Long: `Resolve and parse the PROMISE datasets in a directory without training.

The directory is probed for the canonical file set (cm1.csv, jm1.csv,
kc1.csv, kc2.csv, pc1.csv); missing files are simply absent sources and
other files are never read.

Shows one row per source: rows kept, rows dropped (missing or unparseable
cells), and the skip reason for sources whose schema cannot be resolved
(no usable label, loc or complexity column).

No model is trained and nothing is written - this is purely informational.

Use this to:
- Verify new PROMISE-style CSVs resolve before a long training run
- See how many rows survive the missing-value drop
- Debug column-mapping issues in heterogeneous datasets

Examples:
  # Inspect the default data directory
  defectscan datasets

  # Inspect a staging directory as JSON
  defectscan datasets staging/ --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		dataDir := cfg.DataDir
		if len(args) == 1 {
			dataDir = args[0]
		}
		if err := core.ExecuteDatasets(cfg, dataDir); err != nil {
			contract.LogFatal("Dataset inspection failed", err)
		}
	},
}
