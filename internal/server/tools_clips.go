package server

// In this file: managed intermediate clip tools.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"video-editor-mcp/internal/clips"
)

func (s *Server) toolListClips() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("list_clips",
			mcplib.WithDescription("List the managed intermediate clips produced by edits called without output_name, oldest first."),
		),
		Handler: s.handleListClips,
	}
}

func (s *Server) handleListClips(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return resultJSON(s.clips.List())
}

func (s *Server) toolDiscardClip() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("discard_clip",
			mcplib.WithDescription("Delete one managed intermediate clip and its file."),
			mcplib.WithString("clip",
				mcplib.Required(),
				mcplib.Description("The clip:// reference to discard."),
			),
		),
		Handler: s.handleDiscardClip,
	}
}

func (s *Server) handleDiscardClip(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ref, _ := stringArg(req, "clip")
	if !strings.HasPrefix(ref, clips.Scheme) {
		return resultErr(errors.New("discard_clip: clip must be a clip:// reference")), nil
	}
	if err := s.clips.Discard(ref); err != nil {
		return resultErr(fmt.Errorf("discard_clip: %w", err)), nil
	}
	return resultText(fmt.Sprintf("Clip %s discarded.", ref)), nil
}
