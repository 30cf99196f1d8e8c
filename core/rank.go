package core

import (
	"sort"

	"github.com/defectlab/defectscan/schema"
)

// RankReports sorts reports by defect probability in descending order,
// breaking ties by path for stable output, and returns the top 'limit'
// reports. A non-positive limit returns everything.
func RankReports(reports []*schema.FileReport, limit int) []*schema.FileReport {
	sort.Slice(reports, func(i, j int) bool {
		pi, pj := probabilityOf(reports[i]), probabilityOf(reports[j])
		if pi != pj {
			return pi > pj
		}
		return reports[i].Path < reports[j].Path
	})
	if limit > 0 && len(reports) > limit {
		return reports[:limit]
	}
	return reports
}

// probabilityOf reads the ranked probability, treating unclassified reports
// as zero risk.
func probabilityOf(r *schema.FileReport) float64 {
	if r.Prediction == nil {
		return 0
	}
	return r.Prediction.Probability
}
