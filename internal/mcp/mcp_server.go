// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/defectlab/defectscan/internal/contract"
)

// NewMCPServer initializes and configures the Defectscan MCP server without
// starting it. This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config) *server.MCPServer {
	s := server.NewMCPServer(
		"Defectscan Analysis Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg}

	// --- 1. Tool: analyze_code ---
	s.AddTool(mcp.NewTool("analyze_code",
		mcp.WithDescription("Compute static defect-related metrics (lines of code, comments, functions, complexity estimate, average line length, TODO count) for a snippet of source code."),
		mcp.WithString("code", mcp.Description("Source code to analyze."), mcp.Required()),
		mcp.WithString("filename", mcp.Description("Optional file name used for language detection.")),
	), h.handleAnalyzeCode)

	// --- 2. Tool: predict_defect ---
	s.AddTool(mcp.NewTool("predict_defect",
		mcp.WithDescription("Predict whether a snippet of source code is defect-prone, returning the label, probability and the model used."),
		mcp.WithString("code", mcp.Description("Source code to classify."), mcp.Required()),
		mcp.WithString("filename", mcp.Description("Optional file name used for language detection.")),
	), h.handlePredictDefect)

	// --- 3. Tool: model_status ---
	s.AddTool(mcp.NewTool("model_status",
		mcp.WithDescription("Resolve and report the state of the prediction model (loaded from an artifact or synthetic fallback)."),
		mcp.WithString("model_path", mcp.Description("Path to a model artifact (defaults to the configured model path).")),
	), h.handleModelStatus)

	return s
}

// StartMCPServer starts the Defectscan MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config) error {
	s := NewMCPServer(baseCfg)
	return server.ServeStdio(s)
}
