package schema

// FlaggedFile is one file whose defect probability crossed the gate
// threshold.
type FlaggedFile struct {
	Path        string  `json:"path"`
	Probability float64 `json:"probability"`
}

// CheckResult summarizes a policy gate run over predicted defect
// probabilities.
type CheckResult struct {
	Threshold   float64       `json:"threshold"`
	TotalFiles  int           `json:"total_files"`
	Flagged     []FlaggedFile `json:"flagged"`
	MaxProb     float64       `json:"max_probability"`
	MaxProbPath string        `json:"max_probability_path"`
	AvgProb     float64       `json:"avg_probability"`
	ModelName   string        `json:"model_name"`
	Passed      bool          `json:"passed"`
}
