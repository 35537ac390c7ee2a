package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/cardgrid/internal/mcpserver"
	"github.com/starford/cardgrid/internal/pipeline"
)

// Input kinds accepted by RunOnce.
const (
	InputJSON     = "json"
	InputPage     = "page"
	InputAnalysis = "analysis"
)

// RunOnce runs a single input through the pipeline and writes the result as
// indented JSON to out. A failed run still writes its error card and status;
// the returned error is the run's error.
func RunOnce(ctx context.Context, out io.Writer, kind, input string, opts ...Option) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	svc, backend, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	var res pipeline.Result
	switch kind {
	case InputJSON:
		res = svc.ProjectJSON(ctx, input)
	case InputPage:
		res = svc.SummarizePage(ctx, input)
	case InputAnalysis:
		res = svc.Analyze(ctx, input)
	default:
		return fmt.Errorf("unknown input kind %q", kind)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return res.Err
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
// Logs must not share stdout with the protocol, so callers pass a log
// output such as stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	svc, backend, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	logger.Info("MCP server starting on stdio",
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("analysis_url", cfg.Analysis.BaseURL))
	if err := mcpserver.New(svc).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
