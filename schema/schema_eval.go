package schema

// ClassMetrics holds per-class evaluation figures from a holdout split.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation summarizes classifier quality on a holdout set.
// Confusion is indexed [actual][predicted].
type Evaluation struct {
	Accuracy  float64         `json:"accuracy"`
	PerClass  [2]ClassMetrics `json:"per_class"`
	Confusion [2][2]int       `json:"confusion"`
	TrainRows int             `json:"train_rows"`
	TestRows  int             `json:"test_rows"`
}

// SourceReport describes the ingestion outcome for one dataset source.
type SourceReport struct {
	Name        string `json:"name"`
	RowsKept    int    `json:"rows_kept"`
	RowsDropped int    `json:"rows_dropped"`
	Skipped     bool   `json:"skipped"`
	Reason      string `json:"reason,omitempty"`
}

// IngestReport summarizes a multi-source dataset ingestion.
type IngestReport struct {
	Sources   []SourceReport `json:"sources"`
	TotalRows int            `json:"total_rows"`
}

// SkippedSources returns the names of sources that failed schema resolution.
func (r *IngestReport) SkippedSources() []string {
	var skipped []string
	for _, s := range r.Sources {
		if s.Skipped {
			skipped = append(skipped, s.Name)
		}
	}
	return skipped
}
