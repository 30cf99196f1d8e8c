package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/defectlab/defectscan/core"
	"github.com/defectlab/defectscan/internal/model"
	"github.com/defectlab/defectscan/schema"
)

// handleAnalyze returns the metrics report for the uploaded content.
func (s *Server) handleAnalyze(c *gin.Context) {
	name, raw, ok := s.readUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, core.AnalyzeBytes(name, raw))
}

// handlePredict returns the metrics report plus the defect prediction.
// Predictions are memoized by content digest; provider resolution is terminal
// per path, so a digest's prediction never changes within a process.
func (s *Server) handlePredict(c *gin.Context) {
	name, raw, ok := s.readUpload(c)
	if !ok {
		return
	}

	res, err := model.Default.Get(s.cfg.ModelPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "model unavailable"})
		return
	}

	report := core.AnalyzeBytes(name, raw)
	if pred, hit := s.predCache.Get(report.Digest); hit {
		s.metrics.cacheHits.Inc()
		report.Prediction = &pred
	} else {
		s.metrics.cacheMisses.Inc()
		if err := core.ClassifyReport(report, res.Classifier, res.Name, res.State); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
			return
		}
		s.predCache.Add(report.Digest, *report.Prediction)
	}

	s.metrics.predictions.WithLabelValues(
		schema.LabelName(report.Prediction.Label),
		string(report.Prediction.ModelState),
	).Inc()
	c.JSON(http.StatusOK, report)
}

// handleHealthz reports liveness plus the model lifecycle state.
func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"model_state": model.Default.State(s.cfg.ModelPath),
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"version":     s.version,
	})
}

// readUpload pulls the content under analysis from the request: a multipart
// field named "file" when present, the raw body otherwise. The reported false
// means a response has already been written.
func (s *Server) readUpload(c *gin.Context) (name string, raw []byte, ok bool) {
	// The cap applies to the whole body, multipart framing included.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	if c.ContentType() == "multipart/form-data" {
		header, err := c.FormFile("file")
		if err != nil {
			s.rejectUpload(c, err, "multipart upload requires a 'file' field")
			return "", nil, false
		}
		file, err := header.Open()
		if err != nil {
			s.rejectUpload(c, err, "failed to open uploaded file")
			return "", nil, false
		}
		defer func() { _ = file.Close() }()
		raw, err = io.ReadAll(file)
		if err != nil {
			s.rejectUpload(c, err, "failed to read uploaded file")
			return "", nil, false
		}
		return header.Filename, raw, true
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.rejectUpload(c, err, "failed to read request body")
		return "", nil, false
	}
	return c.Query("filename"), raw, true
}

// rejectUpload maps an upload failure to 413 when the size cap tripped and
// 400 otherwise.
func (s *Server) rejectUpload(c *gin.Context, err error, msg string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("upload exceeds the %s limit", humanize.IBytes(uint64(s.cfg.MaxUploadBytes))),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
