package server

// In this file: inspection tools (media probing and dependency checks).

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
)

func (s *Server) toolGetVideoInfo() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("get_video_info",
			mcplib.WithDescription("Get metadata for a video: duration, dimensions, fps, codecs, bitrate, audio details and file size. Accepts a file path or a clip reference."),
			mcplib.WithString("video",
				mcplib.Required(),
				mcplib.Description("Path to the video file, or a clip:// reference."),
			),
		),
		Handler: s.handleGetVideoInfo,
	}
}

func (s *Server) handleGetVideoInfo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	path, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("get_video_info: %w", err)), nil
	}

	info, err := s.editor.Probe(ctx, path)
	if err != nil {
		return resultErr(err), nil
	}
	return resultJSON(info)
}

func (s *Server) toolCheckDependencies() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("check_dependencies",
			mcplib.WithDescription("Verify that ffmpeg, ffprobe and yt-dlp are available and the output directory is writable. Run this when editing tools fail to start."),
		),
		Handler: s.handleCheckDependencies,
	}
}

func (s *Server) handleCheckDependencies(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if s.checker == nil {
		return resultErr(errors.New("check_dependencies: no checker configured")), nil
	}
	return resultJSON(s.checker.Run(s.settings))
}
