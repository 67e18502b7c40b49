package server

// In this file: job and history inspection tools.

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
)

func (s *Server) toolGetJob() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("get_job",
			mcplib.WithDescription("Get the status and outcome of one render job."),
			mcplib.WithString("job_id", mcplib.Required(), mcplib.Description("The job ID returned by an editing tool.")),
		),
		Handler: s.handleGetJob,
	}
}

func (s *Server) handleGetJob(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, _ := stringArg(req, "job_id")
	if id == "" {
		return resultErr(errors.New("get_job: job_id is required")), nil
	}
	job, ok := s.jobs.Get(id)
	if !ok {
		return resultErr(fmt.Errorf("get_job: unknown job: %s", id)), nil
	}
	return resultJSON(job)
}

func (s *Server) toolListJobs() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("list_jobs",
			mcplib.WithDescription("List recent render jobs, newest first."),
		),
		Handler: s.handleListJobs,
	}
}

func (s *Server) handleListJobs(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return resultJSON(s.jobs.List())
}

func (s *Server) toolCancelJob() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("cancel_job",
			mcplib.WithDescription("Cancel a running render job, killing its external process."),
			mcplib.WithString("job_id", mcplib.Required(), mcplib.Description("The job ID to cancel.")),
		),
		Handler: s.handleCancelJob,
	}
}

func (s *Server) handleCancelJob(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, _ := stringArg(req, "job_id")
	if id == "" {
		return resultErr(errors.New("cancel_job: job_id is required")), nil
	}
	if err := s.jobs.Cancel(id); err != nil {
		return resultErr(fmt.Errorf("cancel_job: %w", err)), nil
	}
	return resultText(fmt.Sprintf("Job %s cancelled.", id)), nil
}

func (s *Server) toolJobEvents() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("job_events",
			mcplib.WithDescription("Read the sequenced event log of render jobs: status transitions and external command runs. Pass the last seen seq to read incrementally."),
			mcplib.WithNumber("since_seq", mcplib.Description("Return only events with seq greater than this. Defaults to 0 (all retained events).")),
		),
		Handler: s.handleJobEvents,
	}
}

func (s *Server) handleJobEvents(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	since := intArg(req, "since_seq", 0)
	return resultJSON(s.bus.Since(int64(since)))
}

func (s *Server) toolRenderHistory() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("render_history",
			mcplib.WithDescription("Read recent completed renders from the persistent history ledger, newest first."),
			mcplib.WithNumber("limit", mcplib.Description("Maximum number of entries. Defaults to 20.")),
		),
		Handler: s.handleRenderHistory,
	}
}

func (s *Server) handleRenderHistory(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if s.history == nil {
		return resultErr(errors.New("render_history: no history store configured")), nil
	}
	entries, err := s.history.Recent(ctx, intArg(req, "limit", 20))
	if err != nil {
		return resultErr(fmt.Errorf("render_history: %w", err)), nil
	}
	return resultJSON(entries)
}
