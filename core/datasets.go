package core

import (
	"errors"
	"time"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/internal/ingest"
	"github.com/defectlab/defectscan/internal/outwriter"
	"github.com/defectlab/defectscan/schema"
)

// ExecuteDatasets runs dataset ingestion as a dry run and prints per-source
// resolution outcomes. Training data is parsed and dropped; no model is
// touched.
func ExecuteDatasets(cfg *contract.Config, dataDir string) error {
	start := time.Now()

	_, ingestRep, err := ingest.LoadDir(dataDir)
	if errors.Is(err, ingest.ErrNoData) {
		// A directory with no usable rows is still a valid answer here; the
		// report shows why each source failed.
		if ingestRep == nil {
			ingestRep = &schema.IngestReport{}
		}
		err = nil
	}
	if err != nil {
		return err
	}

	return outwriter.PrintIngest(ingestRep, dataDir, cfg, time.Since(start))
}
