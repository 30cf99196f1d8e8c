package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/defectlab/defectscan/internal/httpserver"
	"github.com/spf13/cobra"
)

// serveCmd exposes the pipeline over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for upload-based analysis and prediction",
	Long: `Serve the analysis pipeline over HTTP.

Endpoints:
  POST /api/v1/analyze - metrics for an uploaded file or raw text body
  POST /api/v1/predict - metrics plus defect label and probability
  GET  /healthz        - liveness, model state, uptime
  GET  /metrics        - Prometheus metrics

Uploads decode as UTF-8 with a Latin-1 fallback, so any byte stream is
accepted up to --max-upload. Requests are rate limited per client IP and
CORS is configurable via --origins. The model is resolved once on first
use and shared read-only across requests.

The server drains in-flight requests on SIGINT/SIGTERM before exiting.

Examples:
  # Serve on the default port
  defectscan serve

  # Custom port and a trained model
  defectscan serve --port 9000 --model defect_model.bin

  # Restrict CORS and tighten the rate limit
  defectscan serve --origins "https://ci.example.com" --rate-limit 30`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Serving defectscan API on :%d\n", cfg.Port)
		return httpserver.New(cfg, version).Run(ctx)
	},
}
