package core

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/internal/outwriter"
	"github.com/defectlab/defectscan/schema"
)

// ExecuteCheck runs the prediction pipeline as a CI/CD gate. Files whose
// defect probability reaches the configured threshold fail the check and the
// process exits non-zero.
func ExecuteCheck(cfg *contract.Config, mgr contract.RunManager) error {
	start := time.Now()

	reports, res, err := runPredictionCore(cfg, mgr)
	if err != nil {
		return err
	}

	result := BuildCheckResult(reports, cfg.Threshold, res.Name)
	outwriter.PrintCheckResult(result, cfg, time.Since(start))

	if !result.Passed {
		fmt.Printf("%d file(s) above threshold\n", len(result.Flagged))
		os.Exit(1)
	}
	return nil
}

// BuildCheckResult gates classified reports against a probability threshold.
func BuildCheckResult(reports []*schema.FileReport, threshold float64, modelName string) *schema.CheckResult {
	result := &schema.CheckResult{
		Threshold:  threshold,
		TotalFiles: len(reports),
		ModelName:  modelName,
	}

	var sum float64
	for _, r := range reports {
		p := probabilityOf(r)
		sum += p
		if p > result.MaxProb || result.MaxProbPath == "" {
			result.MaxProb = p
			result.MaxProbPath = r.Path
		}
		if p >= threshold {
			result.Flagged = append(result.Flagged, schema.FlaggedFile{Path: r.Path, Probability: p})
		}
	}
	if len(reports) > 0 {
		result.AvgProb = sum / float64(len(reports))
	}

	// Worst offenders first, ties broken by path.
	sort.Slice(result.Flagged, func(i, j int) bool {
		if result.Flagged[i].Probability != result.Flagged[j].Probability {
			return result.Flagged[i].Probability > result.Flagged[j].Probability
		}
		return result.Flagged[i].Path < result.Flagged[j].Path
	})

	result.Passed = len(result.Flagged) == 0
	return result
}
