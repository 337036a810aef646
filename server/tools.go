package server

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bububa/research-assistant/server/metrics"
)

const (
	ToolCrewResearch    = "crew_research"
	ToolQuickSearch     = "quick_search"
	ToolHealthCheck     = "health_check"
	ToolGetCapabilities = "get_capabilities"
)

type QueryInput struct {
	Query string `json:"query" jsonschema:"The research question or topic"`
}

type EmptyInput struct{}

type ReportOutput struct {
	Report string `json:"report" jsonschema:"Markdown report"`
}

func (s *Server) registerTools() error {
	if err := addReportTool(s, ToolCrewResearch,
		"Research a topic with a team of AI agents (searcher, analyst, writer) and return a markdown report. Falls back to a plain web search report when no LLM is available.",
		func(ctx context.Context, in QueryInput) (string, error) {
			return s.cfg.Researcher.Research(ctx, in.Query), nil
		}); err != nil {
		return err
	}
	if err := addReportTool(s, ToolQuickSearch,
		"Search the web for a topic and return the formatted results without AI analysis.",
		func(ctx context.Context, in QueryInput) (string, error) {
			return s.cfg.Researcher.QuickSearch(ctx, in.Query), nil
		}); err != nil {
		return err
	}
	if err := addReportTool(s, ToolHealthCheck,
		"Check that web search works and report which LLM mode is in use.",
		func(ctx context.Context, _ EmptyInput) (string, error) {
			report, err := s.cfg.Researcher.HealthCheck(ctx)
			if err != nil {
				s.log.Warn("mcp/tool: health check failed", "error", err)
			}
			return report, nil
		}); err != nil {
		return err
	}
	return addReportTool(s, ToolGetCapabilities,
		"Describe the capabilities and configuration of the research assistant.",
		func(_ context.Context, _ EmptyInput) (string, error) {
			return s.cfg.Researcher.Capabilities(), nil
		})
}

// addReportTool registers a tool answering with a ReportOutput. run is
// executed on the worker pool.
func addReportTool[In any](s *Server, name string, description string, run func(context.Context, In) (string, error)) error {
	req, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("failed to create %s input schema: %w", name, err)
	}
	res, err := jsonschema.For[ReportOutput](nil)
	if err != nil {
		return fmt.Errorf("failed to create %s output schema: %w", name, err)
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:         name,
		Description:  description,
		InputSchema:  req,
		OutputSchema: res,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, ReportOutput, error) {
		startTime := time.Now()
		s.log.Debug("mcp/tool: handling call", "tool", name)

		report, err := s.submit(ctx, func(ctx context.Context) (string, error) {
			return run(ctx, in)
		})
		duration := time.Since(startTime).Seconds()
		metrics.ToolCallDuration.WithLabelValues(name).Observe(duration)
		if err != nil {
			metrics.ToolCallsTotal.WithLabelValues(name, "error").Inc()
			return nil, ReportOutput{}, err
		}
		metrics.ToolCallsTotal.WithLabelValues(name, "success").Inc()
		return nil, ReportOutput{Report: report}, nil
	})
	return nil
}

// submit runs fn on the worker pool and waits for it or for ctx
func (s *Server) submit(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	task := s.pool.SubmitErr(func() (string, error) {
		metrics.PoolRunningWorkers.Set(float64(s.pool.RunningWorkers()))
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-task.Done():
		return task.Wait()
	}
}
