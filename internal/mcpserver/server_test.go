package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/cardgrid/internal/analysis"
	"github.com/starford/cardgrid/internal/fetch"
	"github.com/starford/cardgrid/internal/models"
	"github.com/starford/cardgrid/internal/pipeline"
	"github.com/starford/cardgrid/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	store, _ := testutil.TestStore(t)
	analyzer := testutil.AnalysisServer(t, http.StatusOK, `{"verdict":"hold"}`)
	svc := pipeline.NewService(
		fetch.New(fetch.Config{Timeout: 5 * time.Second}),
		analysis.New(analyzer.URL, 5*time.Second),
		store,
	)
	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// We call the handler directly.
	// Since mcp-go doesn't expose a direct "call tool" test helper, we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "project_json":
		result, err = srv.projectJSON(ctx, req)
	case "summarize_page":
		result, err = srv.summarizePage(ctx, req)
	case "analyze_product":
		result, err = srv.analyzeProduct(ctx, req)
	case "get_annotation":
		result, err = srv.getAnnotation(ctx, req)
	case "rate_content":
		result, err = srv.rateContent(ctx, req)
	case "save_feedback":
		result, err = srv.saveFeedback(ctx, req)
	case "get_card_format":
		result, err = srv.getCardFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestProjectJSON(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "project_json", map[string]interface{}{"json": `["a", {"b": 1}]`})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var res struct {
		Cards  []models.Card `json:"cards"`
		Status string        `json:"status"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Cards) != 2 || res.Cards[0].Label != "0" || res.Cards[1].Label != "1" {
		t.Errorf("cards = %+v, want labels 0 and 1", res.Cards)
	}
	if res.Cards[1].Detail != "{\n  \"b\": 1\n}" {
		t.Errorf("detail = %q", res.Cards[1].Detail)
	}
}

func TestProjectJSON_Malformed(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "project_json", map[string]interface{}{"json": "{nope"})
	if !r.IsError {
		t.Fatal("expected error for malformed JSON")
	}
	if text := resultText(r); !strings.HasPrefix(text, "Error: invalid JSON input") {
		t.Errorf("error text = %q", text)
	}
}

func TestSummarizePage(t *testing.T) {
	srv := testServer(t)
	page := testutil.PageServer(t, "text/plain", "# Hello\n\nSee [docs](https://docs.example.com/x).\n")

	r := callTool(t, srv, "summarize_page", map[string]interface{}{"url": page.URL})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"label": "Title"`) || !strings.Contains(text, `"host": "docs.example.com"`) {
		t.Errorf("summary = %s", text)
	}
}

func TestAnalyzeProduct(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "analyze_product", map[string]interface{}{"url": "example.com/etf"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var res struct {
		Raw        string `json:"raw"`
		Identifier string `json:"identifier"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Raw != "{\n  \"verdict\": \"hold\"\n}" {
		t.Errorf("raw = %q", res.Raw)
	}
	if res.Identifier != "https://example.com/etf" {
		t.Errorf("identifier = %q", res.Identifier)
	}
}

func TestRateAndReadAnnotation(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "rate_content", map[string]interface{}{"id": "doc", "rating": float64(5)})
	if r.IsError {
		t.Fatalf("rate: %s", resultText(r))
	}
	r = callTool(t, srv, "save_feedback", map[string]interface{}{"id": "doc", "feedback": "useful"})
	if r.IsError {
		t.Fatalf("feedback: %s", resultText(r))
	}

	r = callTool(t, srv, "get_annotation", map[string]interface{}{"id": "doc"})
	var rec models.Annotation
	if err := json.Unmarshal([]byte(resultText(r)), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Rating == nil || *rec.Rating != 5 || rec.Feedback != "useful" {
		t.Errorf("annotation = %+v", rec)
	}
}

func TestRateContent_NormalizesIdentifier(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "rate_content", map[string]interface{}{"id": " Example.com/fund ", "rating": float64(3)})
	if r.IsError {
		t.Fatalf("rate: %s", resultText(r))
	}
	var view pipeline.AnnotationView
	if err := json.Unmarshal([]byte(resultText(r)), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.ID != "https://example.com/fund" {
		t.Errorf("id = %q, want normalized URL", view.ID)
	}

	r = callTool(t, srv, "get_annotation", map[string]interface{}{"id": "https://example.com/fund"})
	if err := json.Unmarshal([]byte(resultText(r)), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Rating == nil || *view.Rating != 3 {
		t.Errorf("rating = %v, want 3", view.Rating)
	}

	r = callTool(t, srv, "get_annotation", map[string]interface{}{"id": "ftp://example.com/fund"})
	if !r.IsError {
		t.Error("expected error for non-http identifier")
	}
}

func TestRateContent_OutOfRange(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "rate_content", map[string]interface{}{"id": "doc", "rating": float64(0)})
	if !r.IsError {
		t.Error("expected error for rating 0")
	}
}

func TestRateContent_MissingArgs(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "rate_content", map[string]interface{}{"id": "doc"})
	if !r.IsError {
		t.Error("expected error for missing rating")
	}
}

func TestGetCardFormat(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_card_format", map[string]interface{}{})
	if resultText(r) != CardFormatContract {
		t.Error("card format mismatch")
	}
}
