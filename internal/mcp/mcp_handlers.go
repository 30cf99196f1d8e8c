package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/defectlab/defectscan/core"
	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/internal/model"
	"github.com/defectlab/defectscan/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
}

// predictOutcome is the JSON shape returned by the predict_defect tool.
type predictOutcome struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
	ModelName   string  `json:"model_name"`
	ModelState  string  `json:"model_state"`
	Language    string  `json:"language"`
}

// modelStatus is the JSON shape returned by the model_status tool.
type modelStatus struct {
	ModelPath  string `json:"model_path"`
	ModelName  string `json:"model_name"`
	ModelState string `json:"model_state"`
}

func (h *toolHandler) handleAnalyzeCode(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := request.GetString("code", "")
	if code == "" {
		return mcp.NewToolResultError("code is required"), nil
	}
	filename := request.GetString("filename", "")

	report := core.AnalyzeBytes(filename, []byte(code))
	jsonData, _ := json.MarshalIndent(report, "", "  ")

	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handlePredictDefect(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := request.GetString("code", "")
	if code == "" {
		return mcp.NewToolResultError("code is required"), nil
	}
	filename := request.GetString("filename", "")

	res, err := model.Default.Get(h.baseCfg.ModelPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("model unavailable: %v", err)), nil
	}

	report := core.AnalyzeBytes(filename, []byte(code))
	if err := core.ClassifyReport(report, res.Classifier, res.Name, res.State); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("prediction failed: %v", err)), nil
	}

	outcome := predictOutcome{
		Label:       schema.LabelName(report.Prediction.Label),
		Probability: report.Prediction.Probability,
		ModelName:   report.Prediction.ModelName,
		ModelState:  string(report.Prediction.ModelState),
		Language:    report.Language,
	}
	jsonData, _ := json.MarshalIndent(outcome, "", "  ")

	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleModelStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("model_path", h.baseCfg.ModelPath)

	res, err := model.Default.Get(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("model resolution failed: %v", err)), nil
	}

	status := modelStatus{
		ModelPath:  path,
		ModelName:  res.Name,
		ModelState: string(res.State),
	}
	jsonData, _ := json.MarshalIndent(status, "", "  ")

	return mcp.NewToolResultText(string(jsonData)), nil
}
