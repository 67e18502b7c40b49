package server

// In this file: the editing tools. Every handler follows the same shape:
// extract and validate arguments, resolve the input (path or clip ref),
// pick the output destination, then run the edit as a tracked render job.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"video-editor-mcp/internal/ffmpeg"
)

// outputNameOption is the shared optional output_name argument.
func outputNameOption() mcplib.ToolOption {
	return mcplib.WithString("output_name",
		mcplib.Description("File name for the result (e.g. \"final.mp4\"), written to the output directory. Omit to keep the result as a managed clip for further editing."),
	)
}

// videoOption is the shared required video argument.
func videoOption() mcplib.ToolOption {
	return mcplib.WithString("video",
		mcplib.Required(),
		mcplib.Description("Path to the input video, or a clip:// reference."),
	)
}

// extOf picks the output extension matching an input path.
func extOf(path string) string {
	if ext := filepath.Ext(path); ext != "" {
		return ext
	}
	return ".mp4"
}

func (s *Server) toolTrimVideo() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("trim_video",
			mcplib.WithDescription("Cut a video to the range [start_time, end_time), in seconds."),
			videoOption(),
			mcplib.WithNumber("start_time", mcplib.Required(), mcplib.Description("Start of the kept range in seconds.")),
			mcplib.WithNumber("end_time", mcplib.Required(), mcplib.Description("End of the kept range in seconds.")),
			outputNameOption(),
		),
		Handler: s.handleTrimVideo,
	}
}

func (s *Server) handleTrimVideo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	start, okStart := floatArg(req, "start_time")
	end, okEnd := floatArg(req, "end_time")
	if !okStart || !okEnd {
		return resultErr(errors.New("trim_video: start_time and end_time are required")), nil
	}
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("trim_video: %w", err)), nil
	}
	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("trim", outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "trim_video", in, func(c context.Context) (string, error) {
		return out, s.editor.Trim(c, in, out, start, end)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef,
		fmt.Sprintf("Video trimmed to %.2fs-%.2fs", start, end)))
}

func (s *Server) toolMergeVideos() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("merge_videos",
			mcplib.WithDescription("Concatenate two or more videos into one, in the given order. Inputs are re-encoded so mixed formats are safe."),
			mcplib.WithArray("videos",
				mcplib.Required(),
				mcplib.Description("Paths or clip:// references, in playback order."),
				mcplib.Items(map[string]any{"type": "string"}),
			),
			outputNameOption(),
		),
		Handler: s.handleMergeVideos,
	}
}

func (s *Server) handleMergeVideos(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	videos, ok := stringSliceArg(req, "videos")
	if !ok || len(videos) < 2 {
		return resultErr(errors.New("merge_videos: at least two videos are required")), nil
	}
	inputs := make([]string, len(videos))
	for i, v := range videos {
		in, err := s.resolveInput("videos", v)
		if err != nil {
			return resultErr(fmt.Errorf("merge_videos: %w", err)), nil
		}
		inputs[i] = in
	}
	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("merge", outName, extOf(inputs[0]))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "merge_videos", inputs[0], func(c context.Context) (string, error) {
		return out, s.editor.Merge(c, inputs, out)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef,
		fmt.Sprintf("Merged %d videos", len(inputs))))
}

func (s *Server) toolResizeVideo() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("resize_video",
			mcplib.WithDescription("Scale a video to exact pixel dimensions."),
			videoOption(),
			mcplib.WithNumber("width", mcplib.Required(), mcplib.Description("Target width in pixels.")),
			mcplib.WithNumber("height", mcplib.Required(), mcplib.Description("Target height in pixels.")),
			outputNameOption(),
		),
		Handler: s.handleResizeVideo,
	}
}

func (s *Server) handleResizeVideo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	width := intArg(req, "width", 0)
	height := intArg(req, "height", 0)
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("resize_video: %w", err)), nil
	}
	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("resize", outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "resize_video", in, func(c context.Context) (string, error) {
		return out, s.editor.Resize(c, in, out, width, height)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef,
		fmt.Sprintf("Video resized to %dx%d", width, height)))
}

func (s *Server) toolCropVideo() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("crop_video",
			mcplib.WithDescription("Crop a video to the rectangle between corners (x1, y1) and (x2, y2), in pixels from the top-left."),
			videoOption(),
			mcplib.WithNumber("x1", mcplib.Required(), mcplib.Description("Left edge of the kept rectangle.")),
			mcplib.WithNumber("y1", mcplib.Required(), mcplib.Description("Top edge of the kept rectangle.")),
			mcplib.WithNumber("x2", mcplib.Required(), mcplib.Description("Right edge of the kept rectangle.")),
			mcplib.WithNumber("y2", mcplib.Required(), mcplib.Description("Bottom edge of the kept rectangle.")),
			outputNameOption(),
		),
		Handler: s.handleCropVideo,
	}
}

func (s *Server) handleCropVideo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	x1 := intArg(req, "x1", -1)
	y1 := intArg(req, "y1", -1)
	x2 := intArg(req, "x2", -1)
	y2 := intArg(req, "y2", -1)
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("crop_video: %w", err)), nil
	}
	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("crop", outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "crop_video", in, func(c context.Context) (string, error) {
		return out, s.editor.Crop(c, in, out, x1, y1, x2, y2)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef,
		fmt.Sprintf("Video cropped to %dx%d", x2-x1, y2-y1)))
}

func (s *Server) toolRotateVideo() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("rotate_video",
			mcplib.WithDescription("Rotate a video counter-clockwise by an angle in degrees. Multiples of 90 are lossless transposes; other angles enlarge the canvas to fit."),
			videoOption(),
			mcplib.WithNumber("angle", mcplib.Required(), mcplib.Description("Rotation angle in degrees, counter-clockwise.")),
			outputNameOption(),
		),
		Handler: s.handleRotateVideo,
	}
}

func (s *Server) handleRotateVideo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	angle, ok := floatArg(req, "angle")
	if !ok {
		return resultErr(errors.New("rotate_video: angle is required")), nil
	}
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("rotate_video: %w", err)), nil
	}
	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("rotate", outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "rotate_video", in, func(c context.Context) (string, error) {
		return out, s.editor.Rotate(c, in, out, angle)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef,
		fmt.Sprintf("Video rotated by %g degrees", angle)))
}

func (s *Server) toolChangeSpeed() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("change_speed",
			mcplib.WithDescription("Speed a video up or slow it down. Audio pitch is preserved."),
			videoOption(),
			mcplib.WithNumber("speed_factor", mcplib.Required(), mcplib.Description("Playback speed multiplier, e.g. 2.0 for double speed, 0.5 for half speed.")),
			outputNameOption(),
		),
		Handler: s.handleChangeSpeed,
	}
}

func (s *Server) handleChangeSpeed(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	factor, ok := floatArg(req, "speed_factor")
	if !ok {
		return resultErr(errors.New("change_speed: speed_factor is required")), nil
	}
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("change_speed: %w", err)), nil
	}
	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("speed", outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "change_speed", in, func(c context.Context) (string, error) {
		return out, s.editor.ChangeSpeed(c, in, out, factor)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef,
		fmt.Sprintf("Video speed changed by factor %g", factor)))
}

func (s *Server) toolAddAudio() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("add_audio",
			mcplib.WithDescription("Replace a video's audio track with an audio file. The result ends at the shorter of the two."),
			videoOption(),
			mcplib.WithString("audio",
				mcplib.Required(),
				mcplib.Description("Path to the audio file, or a clip:// reference."),
			),
			outputNameOption(),
		),
		Handler: s.handleAddAudio,
	}
}

func (s *Server) handleAddAudio(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	audio, _ := stringArg(req, "audio")
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("add_audio: %w", err)), nil
	}
	audioPath, err := s.resolveInput("audio", audio)
	if err != nil {
		return resultErr(fmt.Errorf("add_audio: %w", err)), nil
	}
	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("add_audio", outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "add_audio", in, func(c context.Context) (string, error) {
		return out, s.editor.ReplaceAudio(c, in, audioPath, out)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef, "Audio track replaced"))
}

func (s *Server) toolFadeIn() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("fade_in",
			mcplib.WithDescription("Fade a video (and its audio) in from black over the given duration."),
			videoOption(),
			mcplib.WithNumber("duration", mcplib.Required(), mcplib.Description("Fade duration in seconds.")),
			outputNameOption(),
		),
		Handler: s.handleFadeIn,
	}
}

func (s *Server) handleFadeIn(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return s.handleFade(ctx, req, "fade_in")
}

func (s *Server) toolFadeOut() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("fade_out",
			mcplib.WithDescription("Fade a video (and its audio) out to black over the final given duration."),
			videoOption(),
			mcplib.WithNumber("duration", mcplib.Required(), mcplib.Description("Fade duration in seconds.")),
			outputNameOption(),
		),
		Handler: s.handleFadeOut,
	}
}

func (s *Server) handleFadeOut(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return s.handleFade(ctx, req, "fade_out")
}

// handleFade is the shared body of fade_in and fade_out.
func (s *Server) handleFade(ctx context.Context, req mcplib.CallToolRequest, tool string) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	duration, ok := floatArg(req, "duration")
	if !ok {
		return resultErr(fmt.Errorf("%s: duration is required", tool)), nil
	}
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("%s: %w", tool, err)), nil
	}
	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput(tool, outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, tool, in, func(c context.Context) (string, error) {
		if tool == "fade_in" {
			return out, s.editor.FadeIn(c, in, out, duration)
		}
		return out, s.editor.FadeOut(c, in, out, duration)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef,
		fmt.Sprintf("Fade applied over %gs", duration)))
}

func (s *Server) toolGrayscaleVideo() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("grayscale_video",
			mcplib.WithDescription("Convert a video to grayscale."),
			videoOption(),
			outputNameOption(),
		),
		Handler: s.handleGrayscaleVideo,
	}
}

func (s *Server) handleGrayscaleVideo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return s.handleSimpleFilter(ctx, req, "grayscale_video", "grayscale",
		"Video converted to grayscale", s.editor.Grayscale)
}

func (s *Server) toolMirrorVideo() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("mirror_video",
			mcplib.WithDescription("Mirror a video horizontally."),
			videoOption(),
			outputNameOption(),
		),
		Handler: s.handleMirrorVideo,
	}
}

func (s *Server) handleMirrorVideo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return s.handleSimpleFilter(ctx, req, "mirror_video", "mirror",
		"Video mirrored horizontally", s.editor.Mirror)
}

// handleSimpleFilter is the shared body of single-input no-parameter edits.
func (s *Server) handleSimpleFilter(ctx context.Context, req mcplib.CallToolRequest, tool, op, message string, edit func(ctx context.Context, in, out string) error) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("%s: %w", tool, err)), nil
	}
	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput(op, outName, extOf(in))
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, tool, in, func(c context.Context) (string, error) {
		return out, edit(c, in, out)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef, message))
}

func (s *Server) toolConvertFormat() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("convert_format",
			mcplib.WithDescription("Convert a video to another container format or codec."),
			videoOption(),
			mcplib.WithString("format", mcplib.Description("Target container extension, e.g. \"mp4\", \"mkv\", \"webm\". Defaults to mp4.")),
			mcplib.WithString("codec", mcplib.Description("Video codec, e.g. \"libx264\", \"libx265\", \"libvpx-vp9\". Defaults to libx264.")),
			mcplib.WithNumber("fps", mcplib.Description("Optional output frame rate.")),
			mcplib.WithString("bitrate", mcplib.Description("Optional video bitrate, e.g. \"2M\".")),
			outputNameOption(),
		),
		Handler: s.handleConvertFormat,
	}
}

func (s *Server) handleConvertFormat(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("convert_format: %w", err)), nil
	}

	format, _ := stringArg(req, "format")
	ext := ".mp4"
	if format != "" {
		ext = "." + format
	}
	conv := ffmpeg.Conversion{
		Codec: "libx264",
		FPS:   intArg(req, "fps", 0),
	}
	if codec, _ := stringArg(req, "codec"); codec != "" {
		conv.Codec = codec
	}
	conv.Bitrate, _ = stringArg(req, "bitrate")

	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("convert", outName, ext)
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "convert_format", in, func(c context.Context) (string, error) {
		return out, s.editor.Convert(c, in, out, conv)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef,
		fmt.Sprintf("Video converted with codec %s", conv.Codec)))
}

func (s *Server) toolSplitVideo() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("split_video",
			mcplib.WithDescription("Split a video at the given timestamps into consecutive segments. N timestamps yield N+1 parts."),
			videoOption(),
			mcplib.WithArray("split_times",
				mcplib.Required(),
				mcplib.Description("Timestamps in seconds, strictly increasing, inside the clip duration."),
				mcplib.Items(map[string]any{"type": "number"}),
			),
			outputNameOption(),
		),
		Handler: s.handleSplitVideo,
	}
}

func (s *Server) handleSplitVideo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	times, ok := floatSliceArg(req, "split_times")
	if !ok || len(times) == 0 {
		return resultErr(errors.New("split_video: split_times is required")), nil
	}
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("split_video: %w", err)), nil
	}

	// Each segment is an independent output: either "<name>_partN.<ext>"
	// in the output dir, or its own managed clip.
	outName, _ := stringArg(req, "output_name")
	ext := extOf(in)
	var clipRefs []string
	var outPath func(i int) string
	if outName == "" {
		outPath = func(i int) string {
			ref, p := s.clips.Allocate("split", ext)
			clipRefs = append(clipRefs, ref)
			return p
		}
	} else {
		base := filepath.Base(outName)
		if e := filepath.Ext(base); e != "" {
			ext = e
			base = base[:len(base)-len(e)]
		}
		dir := s.settings.OutputDir
		if err := mkOutputDir(dir); err != nil {
			return resultErr(err), nil
		}
		outPath = func(i int) string {
			return filepath.Join(dir, fmt.Sprintf("%s_part%d%s", base, i+1, ext))
		}
	}

	var paths []string
	job, err := s.render(ctx, "split_video", in, func(c context.Context) (string, error) {
		var rerr error
		paths, rerr = s.editor.Split(c, in, times, outPath)
		if rerr != nil || len(paths) == 0 {
			return "", rerr
		}
		return paths[0], nil
	})
	if err != nil {
		for _, ref := range clipRefs {
			s.releaseClip(ref)
		}
		return resultErr(err), nil
	}

	outcome := renderOutcome{
		Success: true,
		JobID:   job.ID,
		Message: fmt.Sprintf("Video split into %d parts", len(paths)),
	}
	if len(clipRefs) > 0 {
		outcome.Clips = clipRefs
	} else {
		outcome.OutputPaths = paths
	}
	return resultJSON(outcome)
}

func (s *Server) toolExtractFrames() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("extract_frames",
			mcplib.WithDescription("Extract PNG frames from a time range of a video at a sampling rate."),
			videoOption(),
			mcplib.WithNumber("start_time", mcplib.Required(), mcplib.Description("Start of the sampled range in seconds.")),
			mcplib.WithNumber("end_time", mcplib.Required(), mcplib.Description("End of the sampled range in seconds.")),
			mcplib.WithNumber("fps", mcplib.Description("Frames per second to sample. Defaults to 1.")),
			mcplib.WithString("output_dir",
				mcplib.Description("Directory name for the frames, created under the output directory. Omit for a managed temporary directory."),
			),
		),
		Handler: s.handleExtractFrames,
	}
}

func (s *Server) handleExtractFrames(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	video, _ := stringArg(req, "video")
	start, okStart := floatArg(req, "start_time")
	end, okEnd := floatArg(req, "end_time")
	if !okStart || !okEnd {
		return resultErr(errors.New("extract_frames: start_time and end_time are required")), nil
	}
	fps := intArg(req, "fps", 1)
	in, err := s.resolveInput("video", video)
	if err != nil {
		return resultErr(fmt.Errorf("extract_frames: %w", err)), nil
	}

	dirName, _ := stringArg(req, "output_dir")
	var outDir string
	if dirName == "" {
		outDir = filepath.Join(s.clips.Dir(), "frames-"+uuid.NewString())
	} else {
		if err := mkOutputDir(s.settings.OutputDir); err != nil {
			return resultErr(err), nil
		}
		outDir = filepath.Join(s.settings.OutputDir, filepath.Base(dirName))
	}

	job, err := s.render(ctx, "extract_frames", in, func(c context.Context) (string, error) {
		return s.editor.ExtractFrames(c, in, outDir, start, end, fps)
	})
	if err != nil {
		return resultErr(err), nil
	}
	return resultJSON(renderOutcome{
		Success:    true,
		JobID:      job.ID,
		OutputPath: outDir,
		Message:    fmt.Sprintf("Frames extracted at %d fps", fps),
	})
}

func (s *Server) toolImagesToVideo() mcpsrv.ServerTool {
	return mcpsrv.ServerTool{
		Tool: mcplib.NewTool("images_to_video",
			mcplib.WithDescription("Build a video from a directory of PNG images, ordered alphabetically."),
			mcplib.WithString("images_dir",
				mcplib.Required(),
				mcplib.Description("Directory containing the PNG frame sequence."),
			),
			mcplib.WithNumber("fps", mcplib.Description("Playback frame rate. Defaults to 24.")),
			outputNameOption(),
		),
		Handler: s.handleImagesToVideo,
	}
}

func (s *Server) handleImagesToVideo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	imagesDir, _ := stringArg(req, "images_dir")
	if imagesDir == "" {
		return resultErr(errors.New("images_to_video: images_dir is required")), nil
	}
	fps := intArg(req, "fps", 24)

	outName, _ := stringArg(req, "output_name")
	out, clipRef, err := s.resolveOutput("images_to_video", outName, ".mp4")
	if err != nil {
		return resultErr(err), nil
	}

	job, err := s.render(ctx, "images_to_video", imagesDir, func(c context.Context) (string, error) {
		return out, s.editor.ImagesToVideo(c, imagesDir, out, fps)
	})
	if err != nil {
		s.releaseClip(clipRef)
		return resultErr(err), nil
	}
	return resultJSON(editOutcome(job, out, clipRef,
		fmt.Sprintf("Image sequence rendered at %d fps", fps)))
}

// mkOutputDir ensures the configured output directory exists.
func mkOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}
