package mcp_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defectlab/defectscan/internal/contract"
	mcp_internal "github.com/defectlab/defectscan/internal/mcp"
	"github.com/defectlab/defectscan/internal/model"
	"github.com/defectlab/defectscan/schema"
)

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerAnalyzeCode(t *testing.T) {
	baseCfg := &contract.Config{ModelPath: filepath.Join(t.TempDir(), "model.bin")}
	s := mcp_internal.NewMCPServer(baseCfg)

	res := callTool(t, s, "analyze_code", map[string]any{
		"code":     "def handler(req):\n    # TODO: validate input\n    if req:\n        return req\n",
		"filename": "handler.py",
	})
	require.False(t, res.IsError)

	var report schema.FileReport
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &report))
	assert.Equal(t, "handler.py", report.Path)
	assert.Equal(t, "Python", report.Language)
	assert.InDelta(t, 4.0, report.Metrics[schema.MetricLOC], 1e-9)
	assert.InDelta(t, 1.0, report.Metrics[schema.MetricTodos], 1e-9)
	assert.Nil(t, report.Prediction)
}

func TestMCPServerAnalyzeCodeMissingCode(t *testing.T) {
	baseCfg := &contract.Config{ModelPath: filepath.Join(t.TempDir(), "model.bin")}
	s := mcp_internal.NewMCPServer(baseCfg)

	res := callTool(t, s, "analyze_code", map[string]any{"code": ""})
	assert.True(t, res.IsError, "The response should indicate an error state")
	assert.Contains(t, resultText(t, res), "code is required")
}

func TestMCPServerPredictDefect(t *testing.T) {
	baseCfg := &contract.Config{ModelPath: filepath.Join(t.TempDir(), "model.bin")}
	s := mcp_internal.NewMCPServer(baseCfg)

	res := callTool(t, s, "predict_defect", map[string]any{
		"code":     "if x and y:\n    pass # TODO fix\n",
		"filename": "check.py",
	})
	require.False(t, res.IsError)

	var outcome map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &outcome))
	assert.Contains(t, []any{"Clean", "Defective"}, outcome["label"])
	assert.Equal(t, string(schema.ModelFallback), outcome["model_state"])
	assert.Equal(t, model.FallbackModelName, outcome["model_name"])
	assert.Equal(t, "Python", outcome["language"])

	prob := outcome["probability"].(float64)
	assert.GreaterOrEqual(t, prob, 0.0)
	assert.LessOrEqual(t, prob, 1.0)
}

func TestMCPServerModelStatus(t *testing.T) {
	baseCfg := &contract.Config{ModelPath: filepath.Join(t.TempDir(), "model.bin")}
	s := mcp_internal.NewMCPServer(baseCfg)

	t.Run("configured path falls back", func(t *testing.T) {
		res := callTool(t, s, "model_status", map[string]any{})
		require.False(t, res.IsError)

		var status map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &status))
		assert.Equal(t, baseCfg.ModelPath, status["model_path"])
		assert.Equal(t, model.FallbackModelName, status["model_name"])
		assert.Equal(t, string(schema.ModelFallback), status["model_state"])
	})

	t.Run("explicit path overrides config", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "other.bin")
		res := callTool(t, s, "model_status", map[string]any{"model_path": other})
		require.False(t, res.IsError)

		var status map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &status))
		assert.Equal(t, other, status["model_path"])
	})
}
