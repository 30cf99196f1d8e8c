// Package core has core logic for analysis, prediction and ranking.
package core

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/defectlab/defectscan/schema"
)

// Lexical token patterns. These run on raw text with no language awareness;
// the imprecision is part of each metric's contract.
var (
	// controlTokenPattern approximates branching for the complexity estimate.
	controlTokenPattern = regexp.MustCompile(`\b(if|elif|for|while|and|or|case|except|catch|&&|\|\|)\b`)

	// Function signature patterns, applied independently over the whole text.
	// A line matching more than one pattern counts more than once; downstream
	// models were trained against these biased counts, so the overlap stays.
	pythonFuncPattern = regexp.MustCompile(`\bdef\s+\w+\s*\(`)
	jsFuncPattern     = regexp.MustCompile(`\bfunction\s+\w+\s*\(`)
	cLikeFuncPattern  = regexp.MustCompile(`\b\w+\s+\w+\s*\(.*\)\s*\{`)

	todoPattern = regexp.MustCompile(`(?i)\b(TODO|FIXME)\b`)
)

// Analyze computes the lexical metrics record for raw source text.
// It is a total function: every input, including empty, whitespace-only or
// binary-looking text, yields a record with all six schema keys populated.
func Analyze(text string) schema.MetricsRecord {
	text = normalizeNewlines(text)

	var loc, comments, totalLen int
	for line := range strings.SplitSeq(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		loc++
		totalLen += utf8.RuneCountInString(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") || strings.Contains(trimmed, "/*") {
			comments++
		}
	}

	var avgLineLength float64
	if loc > 0 {
		avgLineLength = float64(totalLen) / float64(loc)
	}

	functions := countMatches(pythonFuncPattern, text) +
		countMatches(jsFuncPattern, text) +
		countMatches(cLikeFuncPattern, text)

	return schema.MetricsRecord{
		schema.MetricLOC:           float64(loc),
		schema.MetricComments:      float64(comments),
		schema.MetricFunctions:     float64(functions),
		schema.MetricComplexity:    1.0 + float64(countMatches(controlTokenPattern, text)),
		schema.MetricAvgLineLength: avgLineLength,
		schema.MetricTodos:         float64(countMatches(todoPattern, text)),
	}
}

// countMatches counts non-overlapping matches of re in text.
func countMatches(re *regexp.Regexp, text string) int {
	return len(re.FindAllStringIndex(text, -1))
}

// normalizeNewlines rewrites CRLF and lone CR line endings to LF so that the
// line metrics see one line per logical line.
func normalizeNewlines(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
