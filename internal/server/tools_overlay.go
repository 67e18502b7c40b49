package server

// In this file: compositing tools (text, image and video overlays plus
// subtitle burn-in).

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"video-editor-mcp/internal/ffmpeg"
)

func (s *Server) toolAddTextOverlay() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("add_text_overlay",
			mcplib.WithDescription("Draw text on a video for a time window. Requires a configured font file; run check_dependencies if the overlay fails."),
			videoOption(),
			mcplib.WithString("text", mcplib.Required(), mcplib.Description("The text to draw.")),
			mcplib.WithNumber("x", mcplib.Description("Horizontal position in pixels from the left. Defaults to 10.")),
			mcplib.WithNumber("y", mcplib.Description("Vertical position in pixels from the top. Defaults to 10.")),
			mcplib.WithNumber("font_size", mcplib.Description("Font size in points. Defaults to 24.")),
			mcplib.WithString("color", mcplib.Description("Text color, e.g. \"white\", \"red\", \"#00ff00\". Defaults to white.")),
			mcplib.WithNumber("start_time", mcplib.Description("When the text appears, in seconds. Defaults to 0.")),
			mcplib.WithNumber("duration", mcplib.Required(), mcplib.Description("How long the text stays visible, in seconds.")),
			outputNameOption(),
		),
		Handler: s.handleAddTextOverlay,
	}
}

func (s *Server) handleAddTextOverlay(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	text, _ := stringArg(req, "text")
	duration, ok := floatArg(req, "duration")
	if !ok {
		return resultErr(errors.New("add_text_overlay: duration is required")), nil
	}
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("add_text_overlay: %w", err)), nil
	}

	overlay := ffmpeg.TextOverlay{
		Text:     text,
		X:        intArg(req, "x", 10),
		Y:        intArg(req, "y", 10),
		FontSize: intArg(req, "font_size", 24),
		Duration: duration,
	}
	overlay.Color, _ = stringArg(req, "color")
	overlay.Start, _ = floatArg(req, "start_time")

	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("text_overlay", outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "add_text_overlay", in, func(c context.Context) (string, error) {
		return out, s.editor.DrawText(c, in, out, overlay)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef, "Text overlay added"))
}

func (s *Server) toolAddImageOverlay() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("add_image_overlay",
			mcplib.WithDescription("Place an image (e.g. a watermark or logo) on a video for a time window."),
			videoOption(),
			mcplib.WithString("image", mcplib.Required(), mcplib.Description("Path to the overlay image (PNG with alpha works best).")),
			mcplib.WithNumber("x", mcplib.Description("Horizontal position in pixels from the left. Defaults to 10.")),
			mcplib.WithNumber("y", mcplib.Description("Vertical position in pixels from the top. Defaults to 10.")),
			mcplib.WithNumber("start_time", mcplib.Description("When the image appears, in seconds. Defaults to 0.")),
			mcplib.WithNumber("duration", mcplib.Required(), mcplib.Description("How long the image stays visible, in seconds.")),
			outputNameOption(),
		),
		Handler: s.handleAddImageOverlay,
	}
}

func (s *Server) handleAddImageOverlay(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	image, _ := stringArg(req, "image")
	if image == "" {
		return resultErr(errors.New("add_image_overlay: image is required")), nil
	}
	duration, ok := floatArg(req, "duration")
	if !ok {
		return resultErr(errors.New("add_image_overlay: duration is required")), nil
	}
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("add_image_overlay: %w", err)), nil
	}

	overlay := ffmpeg.ImageOverlay{
		X:        intArg(req, "x", 10),
		Y:        intArg(req, "y", 10),
		Duration: duration,
	}
	overlay.Start, _ = floatArg(req, "start_time")

	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("image_overlay", outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "add_image_overlay", in, func(c context.Context) (string, error) {
		return out, s.editor.OverlayImage(c, in, image, out, overlay)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef, "Image overlay added"))
}

func (s *Server) toolAddVideoOverlay() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("add_video_overlay",
			mcplib.WithDescription("Place a second video on top of a base video (picture-in-picture) with adjustable transparency."),
			videoOption(),
			mcplib.WithString("overlay_video", mcplib.Required(), mcplib.Description("Path or clip:// reference of the video to overlay.")),
			mcplib.WithNumber("x", mcplib.Description("Horizontal position in pixels from the left. Defaults to 10.")),
			mcplib.WithNumber("y", mcplib.Description("Vertical position in pixels from the top. Defaults to 10.")),
			mcplib.WithNumber("opacity", mcplib.Description("Overlay opacity in (0, 1]. Defaults to 1.")),
			mcplib.WithNumber("duration", mcplib.Required(), mcplib.Description("How long the overlay stays visible, in seconds.")),
			outputNameOption(),
		),
		Handler: s.handleAddVideoOverlay,
	}
}

func (s *Server) handleAddVideoOverlay(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	overlayVideo, _ := stringArg(req, "overlay_video")
	duration, ok := floatArg(req, "duration")
	if !ok {
		return resultErr(errors.New("add_video_overlay: duration is required")), nil
	}
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("add_video_overlay: %w", err)), nil
	}
	overlayPath, err := s.resolveInput("overlay_video", overlayVideo)
	if err != nil {
		return resultErr(fmt.Errorf("add_video_overlay: %w", err)), nil
	}

	overlay := ffmpeg.VideoOverlay{
		X:        intArg(req, "x", 10),
		Y:        intArg(req, "y", 10),
		Opacity:  1,
		Duration: duration,
	}
	if opacity, ok := floatArg(req, "opacity"); ok {
		overlay.Opacity = opacity
	}

	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("video_overlay", outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "add_video_overlay", in, func(c context.Context) (string, error) {
		return out, s.editor.OverlayVideo(c, in, overlayPath, out, overlay)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef, "Video overlay added"))
}

func (s *Server) toolBurnSubtitles() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("burn_subtitles",
			mcplib.WithDescription("Burn a subtitle file (SRT or ASS) into the video frames."),
			videoOption(),
			mcplib.WithString("subtitles", mcplib.Required(), mcplib.Description("Path to the subtitle file.")),
			outputNameOption(),
		),
		Handler: s.handleBurnSubtitles,
	}
}

func (s *Server) handleBurnSubtitles(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	subtitles, _ := stringArg(req, "subtitles")
	if subtitles == "" {
		return resultErr(errors.New("burn_subtitles: subtitles is required")), nil
	}
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("burn_subtitles: %w", err)), nil
	}

	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("subtitles", outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "burn_subtitles", in, func(c context.Context) (string, error) {
		return out, s.editor.BurnSubtitles(c, in, subtitles, out)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef, "Subtitles burned in"))
}
