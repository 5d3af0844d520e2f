package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestMCPServer_ReadStatus(t *testing.T) {
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/status" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"providers":[{"name":"zhipu","minute_count":3,"minute_limit":30}]}`))
			return
		}
		http.NotFound(w, r)
	})
	ts := httptest.NewServer(apiHandler)
	defer ts.Close()

	s := NewServer(ts.URL)

	req := mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: "antigravity://status",
		},
	}

	result, err := s.handleReadStatus(context.Background(), req)
	if err != nil {
		t.Fatalf("handleReadStatus failed: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("Expected 1 resource content, got %d", len(result))
	}

	content, ok := result[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("Expected TextResourceContents")
	}
	if content.MIMEType != "application/json" {
		t.Errorf("Expected application/json, got %s", content.MIMEType)
	}

	var status map[string]interface{}
	if err := json.Unmarshal([]byte(content.Text), &status); err != nil {
		t.Errorf("Failed to parse result JSON: %v", err)
	}
	if _, ok := status["providers"]; !ok {
		t.Error("Expected providers key in status")
	}
}

func TestMCPServer_ReadReport(t *testing.T) {
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/report/market-monitor" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"date":"2/3/2026","latest":{"up_4pct":312}}`))
			return
		}
		http.NotFound(w, r)
	})
	ts := httptest.NewServer(apiHandler)
	defer ts.Close()

	s := NewServer(ts.URL)

	req := mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: "antigravity://report/market-monitor",
		},
	}

	result, err := s.handleReadReport(context.Background(), req)
	if err != nil {
		t.Fatalf("handleReadReport failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 resource content, got %d", len(result))
	}

	content, ok := result[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("Expected TextResourceContents")
	}
	if !strings.Contains(content.Text, `"up_4pct":312`) {
		t.Errorf("unexpected payload: %s", content.Text)
	}
}

func TestMCPServer_Analyze(t *testing.T) {
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/analyze" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"text":"breadth is weak","provider":"zhipu","available":true}`))
			return
		}
		http.NotFound(w, r)
	})
	ts := httptest.NewServer(apiHandler)
	defer ts.Close()

	s := NewServer(ts.URL)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "analyze",
			Arguments: map[string]interface{}{
				"prompt": "how is market breadth?",
			},
		},
	}

	result, err := s.handleAnalyze(context.Background(), req)
	if err != nil {
		t.Fatalf("handleAnalyze failed: %v", err)
	}
	if result.IsError {
		t.Errorf("Expected success, got error")
	}

	if len(result.Content) == 0 {
		t.Fatal("Expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok || !strings.Contains(text.Text, "breadth is weak") {
		t.Errorf("unexpected content: %+v", result.Content[0])
	}
}

func TestMCPServer_AnalyzeUnavailable(t *testing.T) {
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"","provider":"","available":false}`))
	})
	ts := httptest.NewServer(apiHandler)
	defer ts.Close()

	s := NewServer(ts.URL)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "analyze",
			Arguments: map[string]interface{}{"prompt": "anything"},
		},
	}

	result, err := s.handleAnalyze(context.Background(), req)
	if err != nil {
		t.Fatalf("handleAnalyze failed: %v", err)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok || !strings.Contains(text.Text, "exhausted") {
		t.Errorf("unexpected content: %+v", result.Content[0])
	}
}

func TestMCPServer_AnalyzeRequiresPrompt(t *testing.T) {
	s := NewServer("http://127.0.0.1:1")

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "analyze",
			Arguments: map[string]interface{}{},
		},
	}

	result, err := s.handleAnalyze(context.Background(), req)
	if err != nil {
		t.Fatalf("handleAnalyze failed: %v", err)
	}
	if !result.IsError {
		t.Error("Expected an error result for a missing prompt")
	}
}

func TestMCPServer_DailyPush(t *testing.T) {
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/push" && r.Method == http.MethodPost {
			w.WriteHeader(http.StatusAccepted)
			w.Write([]byte(`{"started":true}`))
			return
		}
		http.NotFound(w, r)
	})
	ts := httptest.NewServer(apiHandler)
	defer ts.Close()

	s := NewServer(ts.URL)

	result, err := s.handleDailyPush(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handleDailyPush failed: %v", err)
	}
	if result.IsError {
		t.Error("Expected success")
	}
}
