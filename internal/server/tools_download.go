package server

// In this file: media retrieval tools backed by yt-dlp.

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
)

func (s *Server) toolDownloadVideo() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("download_video",
			mcplib.WithDescription("Download a video from a URL into the output directory and return its file path. Use list_formats first to pick a specific quality."),
			mcplib.WithString("url", mcplib.Required(), mcplib.Description("The video page URL.")),
			mcplib.WithString("format", mcplib.Description("Optional yt-dlp format selector, e.g. \"bestvideo+bestaudio\" or a format_id from list_formats.")),
			mcplib.WithString("output_name", mcplib.Description("Optional file name (without extension). Defaults to the video title.")),
		),
		Handler: s.handleDownloadVideo,
	}
}

func (s *Server) handleDownloadVideo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	url, _ := stringArg(req, "url")
	if url == "" {
		return resultErr(errors.New("download_video: url is required")), nil
	}
	format, _ := stringArg(req, "format")
	outputName, _ := stringArg(req, "output_name")

	var path string
	job, err := s.render(ctx, "download_video", url, func(c context.Context) (string, error) {
		var derr error
		path, derr = s.downloader.Video(c, url, format, outputName)
		return path, derr
	})
	if err != nil {
		return resultErr(err), nil
	}
	return resultJSON(renderOutcome{
		Success:    true,
		JobID:      job.ID,
		OutputPath: path,
		Message:    "Video downloaded",
	})
}

func (s *Server) toolDownloadAudio() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("download_audio",
			mcplib.WithDescription("Download only the audio track of a URL, extracted to an audio file."),
			mcplib.WithString("url", mcplib.Required(), mcplib.Description("The video page URL.")),
			mcplib.WithString("audio_format", mcplib.Description("Target audio format, e.g. \"mp3\" or \"m4a\". Defaults to the best available.")),
			mcplib.WithString("output_name", mcplib.Description("Optional file name (without extension). Defaults to the video title.")),
		),
		Handler: s.handleDownloadAudio,
	}
}

func (s *Server) handleDownloadAudio(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	url, _ := stringArg(req, "url")
	if url == "" {
		return resultErr(errors.New("download_audio: url is required")), nil
	}
	audioFormat, _ := stringArg(req, "audio_format")
	outputName, _ := stringArg(req, "output_name")

	var path string
	job, err := s.render(ctx, "download_audio", url, func(c context.Context) (string, error) {
		var derr error
		path, derr = s.downloader.Audio(c, url, audioFormat, outputName)
		return path, derr
	})
	if err != nil {
		return resultErr(err), nil
	}
	return resultJSON(renderOutcome{
		Success:    true,
		JobID:      job.ID,
		OutputPath: path,
		Message:    "Audio downloaded",
	})
}

func (s *Server) toolListFormats() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("list_formats",
			mcplib.WithDescription("List the downloadable formats of a URL without downloading anything."),
			mcplib.WithString("url", mcplib.Required(), mcplib.Description("The video page URL.")),
		),
		Handler: s.handleListFormats,
	}
}

func (s *Server) handleListFormats(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	url, _ := stringArg(req, "url")
	if url == "" {
		return resultErr(errors.New("list_formats: url is required")), nil
	}

	info, err := s.downloader.Formats(ctx, url)
	if err != nil {
		return resultErr(fmt.Errorf("list_formats: %w", err)), nil
	}
	return resultJSON(info)
}
