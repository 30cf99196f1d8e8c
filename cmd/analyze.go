package cmd

import (
	"github.com/defectlab/defectscan/core"
	"github.com/defectlab/defectscan/internal/contract"
	"github.com/spf13/cobra"
)

// analyzeCmd computes lexical metrics without touching any model.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path...]",
	Short: "Extract lexical metrics from source files (no prediction)",
	Long: `Compute the six lexical metrics for every matching file under the given paths.

Metrics per file:
- loc: non-empty lines
- num_comments: lines starting with # or // or containing /*
- num_functions: def/function/C-like signature matches (heuristic)
- cyclomatic_complexity_estimate: branching tokens + 1
- avg_line_length: mean character length of non-empty lines
- num_todos: whole-word TODO/FIXME count

No model is loaded and no prediction is made - this is purely informational.

Use cases:
- Inspect what the classifier would see for a file
- Feed metrics into external tooling via --output csv/json
- Spot-check comment density and TODO debt across a tree

Examples:
  # Analyze the current directory
  defectscan analyze

  # Analyze specific files as CSV
  defectscan analyze src/parser.py src/lexer.py --output csv

  # Analyze a tree, excluding generated code
  defectscan analyze . --exclude "gen/,third_party/"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(cfg); err != nil {
			contract.LogFatal("Analysis failed", err)
		}
	},
}
