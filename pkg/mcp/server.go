// Package mcp adapts the antigravity daemon to the Model Context Protocol,
// exposing its analysis router and status over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/antigravity-ai/antigravity/pkg/client"
)

// Server bridges MCP clients to a running daemon.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
}

// NewServer creates a new MCP server instance.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"antigravity",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		"antigravity://status",
		"Provider Budget Status",
		mcp.WithResourceDescription("Per-provider AI request budgets and the next scheduled push"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadStatus)

	s.mcpServer.AddResource(mcp.NewResource(
		"antigravity://audit",
		"AI Call Audit Log",
		mcp.WithResourceDescription("Recent AI provider attempts with outcomes and latencies"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadAudit)

	s.mcpServer.AddResource(mcp.NewResource(
		"antigravity://report/market-monitor",
		"Latest Market Monitor Snapshot",
		mcp.WithResourceDescription("The most recent scraped market breadth data"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadReport)

	s.mcpServer.AddResource(mcp.NewResource(
		"antigravity://report/momentum50",
		"Latest Momentum 50 Snapshot",
		mcp.WithResourceDescription("The most recent scraped momentum watchlist"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadReport)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"analyze",
		mcp.WithDescription("Run a prompt through the daemon's rate-limited AI provider router. Fails over between providers automatically."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The analysis prompt")),
		mcp.WithString("prefer", mcp.Description("Preferred provider (e.g. 'zhipu', 'gemini')")),
	), s.handleAnalyze)

	s.mcpServer.AddTool(mcp.NewTool(
		"daily_push",
		mcp.WithDescription("Trigger the daily market data push (scrape, analyze, publish). Runs asynchronously."),
	), s.handleDailyPush)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"antigravity-aware",
		mcp.WithPromptDescription("Provides context about the assistant's data sources and budgets"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadStatus(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status, err := s.apiClient.GetStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleReadAudit(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries, err := s.apiClient.GetAudit(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit log: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit log: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleReadReport(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name := strings.TrimPrefix(request.Params.URI, "antigravity://report/")
	raw, err := s.apiClient.GetReport(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s report: %w", name, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(raw),
		},
	}, nil
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt := mcp.ParseString(request, "prompt", "")
	prefer := mcp.ParseString(request, "prefer", "")

	if prompt == "" {
		return mcp.NewToolResultError("prompt is required"), nil
	}

	result, err := s.apiClient.Analyze(ctx, prompt, prefer)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	if !result.Available {
		return mcp.NewToolResultText("All AI providers are currently exhausted or rate-limited. Try again later."), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Provider: %s\n\n%s", result.Provider, result.Text)), nil
}

func (s *Server) handleDailyPush(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.apiClient.TriggerPush(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText("Daily push started. Results will be delivered to the configured chat."), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "antigravity-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are interacting with Antigravity, a personal research assistant daemon.

Concepts:
- Provider: an AI backend (zhipu, gemini, claude) with per-minute and per-day request budgets.
- Router: picks the first available provider, retries transient failures, and fails over.
- Daily push: scrapes market breadth and momentum data, analyzes it, and publishes markdown notes plus chat summaries.
- Audit log: every provider attempt is recorded with its outcome and latency.

Use the 'analyze' tool for AI analysis; the daemon enforces provider budgets for you.
If analysis reports all providers exhausted, wait rather than hammering the tool.
Use 'daily_push' to trigger the full data pipeline on demand.
`

	return mcp.NewGetPromptResult(
		"antigravity-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
