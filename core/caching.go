package core

import (
	"maps"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/defectlab/defectscan/schema"
)

// metricsCacheSize bounds the digest-keyed extractor cache.
const metricsCacheSize = 1024

// metricsCache memoizes extractor output by content digest, so re-scans of
// unchanged content skip the regex passes entirely.
var metricsCache, _ = lru.New[string, schema.MetricsRecord](metricsCacheSize)

// cachedMetrics returns the metrics for text, computing and caching them on
// first sight of the digest. Callers always receive their own copy.
func cachedMetrics(digest, text string) schema.MetricsRecord {
	if m, ok := metricsCache.Get(digest); ok {
		return maps.Clone(m)
	}
	m := Analyze(text)
	metricsCache.Add(digest, m)
	return maps.Clone(m)
}
