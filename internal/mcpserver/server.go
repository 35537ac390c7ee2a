// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes cardgrid projections and annotations for LLM integration
// via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/cardgrid/internal/pipeline"
)

// CardFormatURI is the resource URI of the card format contract.
const CardFormatURI = "cardgrid://card-format"

// Server wraps the MCP server with cardgrid tools.
type Server struct {
	mcp *server.MCPServer
	svc *pipeline.Service
}

// New creates a new MCP server with all cardgrid tools registered.
func New(svc *pipeline.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"cardgrid",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("project_json",
		mcp.WithDescription("Project a JSON value into an ordered list of cards, one per top-level entry. "+
			"See the get_card_format tool or the "+CardFormatURI+" resource for the card fields."),
		mcp.WithString("json", mcp.Required(), mcp.Description("Raw JSON text")),
	), s.projectJSON)

	s.mcp.AddTool(mcp.NewTool("summarize_page",
		mcp.WithDescription("Fetch a web page and summarize it into title, summary, headings and link cards, "+
			"followed by the rating and feedback cards for the page."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL; https:// is assumed when the scheme is missing")),
	), s.summarizePage)

	s.mcp.AddTool(mcp.NewTool("analyze_product",
		mcp.WithDescription("Submit a financial product URL to the analysis API and return its pretty-printed response."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Product page URL")),
	), s.analyzeProduct)

	s.mcp.AddTool(mcp.NewTool("get_annotation",
		mcp.WithDescription("Read the stored rating and feedback for an identifier."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Page URL; normalized the same way as summarize_page")),
	), s.getAnnotation)

	s.mcp.AddTool(mcp.NewTool("rate_content",
		mcp.WithDescription("Rate an identifier from 1 to 5."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Page URL; normalized the same way as summarize_page")),
		mcp.WithNumber("rating", mcp.Required(), mcp.Description("Whole number from 1 to 5")),
	), s.rateContent)

	s.mcp.AddTool(mcp.NewTool("save_feedback",
		mcp.WithDescription("Replace the free-text feedback for an identifier. An empty text clears it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Page URL; normalized the same way as summarize_page")),
		mcp.WithString("feedback", mcp.Required(), mcp.Description("Feedback text, at most 5000 characters")),
	), s.saveFeedback)

	s.mcp.AddTool(mcp.NewTool("get_card_format",
		mcp.WithDescription("Returns the card format returned by the projection tools."),
	), s.getCardFormat)

	// Resource: card format contract.
	s.mcp.AddResource(
		mcp.NewResource(CardFormatURI, "Card Format",
			mcp.WithResourceDescription("Fields and ordering rules of the cards returned by the projection tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCardFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) projectJSON(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("json")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultOf(s.svc.ProjectJSON(ctx, raw)), nil
}

func (s *Server) summarizePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultOf(s.svc.SummarizePage(ctx, url)), nil
}

func (s *Server) analyzeProduct(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultOf(s.svc.Analyze(ctx, url)), nil
}

func (s *Server) getAnnotation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.svc.Annotation(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return marshalResult(view), nil
}

func (s *Server) rateContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rating, err := req.RequireInt("rating")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.svc.Rate(ctx, id, rating)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return marshalResult(view), nil
}

func (s *Server) saveFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	feedback, err := req.RequireString("feedback")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.svc.SetFeedback(ctx, id, feedback)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return marshalResult(view), nil
}

func (s *Server) getCardFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CardFormatContract), nil
}

func (s *Server) readCardFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CardFormatURI,
			MIMEType: "text/markdown",
			Text:     CardFormatContract,
		},
	}, nil
}

// resultOf renders a pipeline result. Failed runs are tool errors carrying
// the status line.
func resultOf(res pipeline.Result) *mcp.CallToolResult {
	if res.Err != nil {
		return mcp.NewToolResultError(res.Status)
	}
	return marshalResult(res)
}

func marshalResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}
