// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/schema"
)

// labelText renders a binary label for table cells, colored when enabled.
func labelText(label int, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(label)
	}
	return schema.LabelName(label)
}

// runBackendLabel names the run-store backend for summary footers. An empty
// backend means run tracking is disabled.
func runBackendLabel(cfg *contract.Config) string {
	if cfg.RunBackend == "" {
		return "disabled"
	}
	return string(cfg.RunBackend)
}
