// Package httpserver has the REST API over the analysis pipeline.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/schema"
)

// predictionCacheSize bounds the digest-keyed prediction cache.
const predictionCacheSize = 4096

// Server serves analysis and prediction over HTTP. Handlers share only
// read-only or thread-safe state, so gin runs them concurrently as-is.
type Server struct {
	cfg       *contract.Config
	version   string
	started   time.Time
	metrics   *apiMetrics
	limiter   *ipLimiter
	predCache *lru.Cache[string, schema.Prediction]
	engine    *gin.Engine
}

// New assembles the router, middleware chain and instruments.
func New(cfg *contract.Config, version string) *Server {
	cache, _ := lru.New[string, schema.Prediction](predictionCacheSize)
	s := &Server{
		cfg:       cfg,
		version:   version,
		started:   time.Now(),
		metrics:   newAPIMetrics(),
		limiter:   newIPLimiter(cfg.RateLimitPerMin),
		predCache: cache,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	// Metrics run first so rejected requests still show up in the counters.
	engine.Use(s.metrics.middleware())
	engine.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	engine.Use(s.limiter.middleware())

	api := engine.Group("/api/v1")
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/predict", s.handlePredict)

	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/metrics", gin.WrapH(s.metrics.handler()))

	s.engine = engine
	return s
}

// Handler exposes the configured router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then drains in-flight requests within the
// shutdown window.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), contract.DefaultShutdownWaitMs*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown incomplete: %w", err)
	}
	return nil
}

// corsConfig builds the CORS policy from the configured origins. A "*" entry
// switches to allow-all, which the cors package requires to be exclusive.
func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
