package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"video-editor-mcp/internal/runner"
)

// TextOverlay describes a timed drawtext overlay.
type TextOverlay struct {
	Text     string
	X, Y     int
	FontSize int
	Color    string
	Start    float64
	Duration float64
}

// ImageOverlay describes a timed image watermark.
type ImageOverlay struct {
	X, Y     int
	Start    float64
	Duration float64
}

// VideoOverlay describes a picture-in-picture overlay with transparency.
type VideoOverlay struct {
	X, Y     int
	Opacity  float64
	Duration float64
}

// Conversion describes a format/codec conversion.
type Conversion struct {
	Codec   string
	FPS     int
	Bitrate string
}

// Config carries Editor construction parameters.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	FontFile    string
	Runner      runner.Runner
	LogSink     runner.LogSink
}

// Editor runs video-editing operations by delegating to ffmpeg/ffprobe.
type Editor struct {
	ffmpegPath  string
	ffprobePath string
	fontFile    string
	runner      runner.Runner
	sink        runner.LogSink
	stat        func(string) (os.FileInfo, error)
	mkdirAll    func(string, os.FileMode) error
}

// New constructs an editor with OS dependencies filled in.
func New(cfg Config) *Editor {
	e := &Editor{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		fontFile:    cfg.FontFile,
		runner:      cfg.Runner,
		sink:        cfg.LogSink,
		stat:        os.Stat,
		mkdirAll:    os.MkdirAll,
	}
	if e.ffmpegPath == "" {
		e.ffmpegPath = "ffmpeg"
	}
	if e.ffprobePath == "" {
		e.ffprobePath = "ffprobe"
	}
	if e.runner == nil {
		e.runner = runner.ExecRunner{}
	}
	return e
}

// Trim cuts the clip to [start, end).
func (e *Editor) Trim(ctx context.Context, in, out string, start, end float64) error {
	const op = "trim"
	if start < 0 || end < 0 {
		return opErr(op, "start and end times must be non-negative")
	}
	if start >= end {
		return opErr(op, "start time must be less than end time")
	}
	if err := e.checkInput(op, in); err != nil {
		return err
	}

	args := ffArgs([]string{in}, trimArgs(start, end), true, out)
	return e.run(ctx, op, args, out)
}

// Merge concatenates two or more clips into one re-encoded output.
func (e *Editor) Merge(ctx context.Context, inputs []string, out string) error {
	const op = "merge"
	if len(inputs) < 2 {
		return opErr(op, "at least two videos are required")
	}
	allAudio := true
	for _, in := range inputs {
		info, err := e.Probe(ctx, in)
		if err != nil {
			return err
		}
		if !info.HasAudio {
			allAudio = false
		}
	}

	var fc strings.Builder
	for i := range inputs {
		if allAudio {
			fmt.Fprintf(&fc, "[%d:v][%d:a]", i, i)
		} else {
			fmt.Fprintf(&fc, "[%d:v]", i)
		}
	}
	if allAudio {
		fmt.Fprintf(&fc, "concat=n=%d:v=1:a=1[v][a]", len(inputs))
	} else {
		fmt.Fprintf(&fc, "concat=n=%d:v=1:a=0[v]", len(inputs))
	}

	opArgs := []string{"-filter_complex", fc.String(), "-map", "[v]"}
	if allAudio {
		opArgs = append(opArgs, "-map", "[a]")
	}
	args := ffArgs(inputs, opArgs, true, out)
	return e.run(ctx, op, args, out)
}

// Resize scales the clip to exact dimensions.
func (e *Editor) Resize(ctx context.Context, in, out string, width, height int) error {
	const op = "resize"
	if width <= 0 || height <= 0 {
		return opErr(op, "width and height must be positive")
	}
	if err := e.checkInput(op, in); err != nil {
		return err
	}

	args := ffArgs([]string{in}, []string{"-vf", scaleFilter(width, height)}, true, out)
	return e.run(ctx, op, args, out)
}

// Crop keeps the rectangle between corners (x1, y1) and (x2, y2).
func (e *Editor) Crop(ctx context.Context, in, out string, x1, y1, x2, y2 int) error {
	const op = "crop"
	if x1 < 0 || y1 < 0 || x2 <= x1 || y2 <= y1 {
		return opErr(op, "invalid crop rectangle: need x2 > x1, y2 > y1, all non-negative")
	}
	if err := e.checkInput(op, in); err != nil {
		return err
	}

	args := ffArgs([]string{in}, []string{"-vf", cropFilter(x1, y1, x2, y2)}, true, out)
	return e.run(ctx, op, args, out)
}

// Rotate turns the clip counter-clockwise by angle degrees.
func (e *Editor) Rotate(ctx context.Context, in, out string, angle float64) error {
	const op = "rotate"
	if err := e.checkInput(op, in); err != nil {
		return err
	}

	args := ffArgs([]string{in}, []string{"-vf", rotateFilter(angle)}, true, out)
	return e.run(ctx, op, args, out)
}

// ChangeSpeed retimes video and audio by the given factor (2.0 = twice as fast).
func (e *Editor) ChangeSpeed(ctx context.Context, in, out string, factor float64) error {
	const op = "speed"
	if factor <= 0 {
		return opErr(op, "speed factor must be positive (e.g. 2.0 for double speed)")
	}
	info, err := e.Probe(ctx, in)
	if err != nil {
		return err
	}

	opArgs := []string{"-filter_complex", speedFilterComplex(factor, info.HasAudio), "-map", "[v]"}
	if info.HasAudio {
		opArgs = append(opArgs, "-map", "[a]")
	}
	args := ffArgs([]string{in}, opArgs, true, out)
	return e.run(ctx, op, args, out)
}

// ReplaceAudio swaps the clip's audio track for the given audio file.
func (e *Editor) ReplaceAudio(ctx context.Context, in, audio, out string) error {
	const op = "add_audio"
	if err := e.checkInput(op, in); err != nil {
		return err
	}
	if err := e.checkInput(op, audio); err != nil {
		return err
	}

	opArgs := []string{"-map", "0:v", "-map", "1:a", "-shortest"}
	args := ffArgs([]string{in, audio}, opArgs, true, out)
	return e.run(ctx, op, args, out)
}

// FadeIn fades video (and audio, when present) in from black over duration.
func (e *Editor) FadeIn(ctx context.Context, in, out string, duration float64) error {
	const op = "fade_in"
	if duration <= 0 {
		return opErr(op, "fade duration must be positive")
	}
	info, err := e.Probe(ctx, in)
	if err != nil {
		return err
	}

	args := ffArgs([]string{in}, fadeArgs("in", 0, duration, info.HasAudio), true, out)
	return e.run(ctx, op, args, out)
}

// FadeOut fades video (and audio, when present) out to black at the clip end.
func (e *Editor) FadeOut(ctx context.Context, in, out string, duration float64) error {
	const op = "fade_out"
	if duration <= 0 {
		return opErr(op, "fade duration must be positive")
	}
	info, err := e.Probe(ctx, in)
	if err != nil {
		return err
	}
	if info.Duration <= duration {
		return opErr(op, "fade duration %g exceeds clip duration %g", duration, info.Duration)
	}

	start := info.Duration - duration
	args := ffArgs([]string{in}, fadeArgs("out", start, duration, info.HasAudio), true, out)
	return e.run(ctx, op, args, out)
}

// DrawText renders a timed text overlay using the configured font file.
func (e *Editor) DrawText(ctx context.Context, in, out string, o TextOverlay) error {
	const op = "text_overlay"
	if strings.TrimSpace(o.Text) == "" {
		return opErr(op, "text cannot be empty")
	}
	if o.FontSize <= 0 {
		return opErr(op, "font size must be positive")
	}
	if o.Duration <= 0 {
		return opErr(op, "duration must be positive")
	}
	if o.Color == "" {
		o.Color = "white"
	}
	if err := e.checkInput(op, in); err != nil {
		return err
	}

	args := ffArgs([]string{in}, []string{"-vf", drawtextFilter(o, e.fontFile)}, true, out)
	return e.run(ctx, op, args, out)
}

// OverlayImage places an image watermark on the clip for a time window.
func (e *Editor) OverlayImage(ctx context.Context, in, image, out string, o ImageOverlay) error {
	const op = "image_overlay"
	if o.Duration <= 0 {
		return opErr(op, "duration must be positive")
	}
	if err := e.checkInput(op, in); err != nil {
		return err
	}
	if err := e.checkInput(op, image); err != nil {
		return err
	}

	fc := overlayFilterComplex(o.X, o.Y, 1, o.Start, o.Duration)
	opArgs := []string{"-filter_complex", fc, "-map", "[v]", "-map", "0:a?"}
	args := ffArgs([]string{in, image}, opArgs, true, out)
	return e.run(ctx, op, args, out)
}

// OverlayVideo places a second clip on top of the base with transparency.
func (e *Editor) OverlayVideo(ctx context.Context, base, overlay, out string, o VideoOverlay) error {
	const op = "video_overlay"
	if o.Duration <= 0 {
		return opErr(op, "duration must be positive")
	}
	if o.Opacity <= 0 || o.Opacity > 1 {
		return opErr(op, "opacity must be in (0, 1]")
	}
	if err := e.checkInput(op, base); err != nil {
		return err
	}
	if err := e.checkInput(op, overlay); err != nil {
		return err
	}

	fc := overlayFilterComplex(o.X, o.Y, o.Opacity, 0, o.Duration)
	opArgs := []string{"-filter_complex", fc, "-map", "[v]", "-map", "0:a?"}
	args := ffArgs([]string{base, overlay}, opArgs, true, out)
	return e.run(ctx, op, args, out)
}

// Grayscale removes color by zeroing saturation.
func (e *Editor) Grayscale(ctx context.Context, in, out string) error {
	const op = "grayscale"
	if err := e.checkInput(op, in); err != nil {
		return err
	}

	args := ffArgs([]string{in}, []string{"-vf", "hue=s=0"}, true, out)
	return e.run(ctx, op, args, out)
}

// Mirror flips the clip horizontally.
func (e *Editor) Mirror(ctx context.Context, in, out string) error {
	const op = "mirror"
	if err := e.checkInput(op, in); err != nil {
		return err
	}

	args := ffArgs([]string{in}, []string{"-vf", "hflip"}, true, out)
	return e.run(ctx, op, args, out)
}

// BurnSubtitles renders an SRT/ASS subtitle file into the video stream.
func (e *Editor) BurnSubtitles(ctx context.Context, in, subtitles, out string) error {
	const op = "subtitles"
	if err := e.checkInput(op, in); err != nil {
		return err
	}
	if err := e.checkInput(op, subtitles); err != nil {
		return err
	}

	args := ffArgs([]string{in}, []string{"-vf", subtitlesFilter(subtitles)}, true, out)
	return e.run(ctx, op, args, out)
}

// Convert re-encodes with an explicit codec and optional fps/bitrate.
func (e *Editor) Convert(ctx context.Context, in, out string, c Conversion) error {
	const op = "convert"
	if strings.TrimSpace(c.Codec) == "" {
		return opErr(op, "codec is required")
	}
	if err := e.checkInput(op, in); err != nil {
		return err
	}

	opArgs := []string{"-c:v", c.Codec}
	if c.FPS > 0 {
		opArgs = append(opArgs, "-r", fmt.Sprint(c.FPS))
	}
	if c.Bitrate != "" {
		opArgs = append(opArgs, "-b:v", c.Bitrate)
	}
	opArgs = append(opArgs, "-c:a", "aac")
	args := ffArgs([]string{in}, opArgs, false, out)
	return e.run(ctx, op, args, out)
}

// Split cuts the clip at the given times and renders each segment
// concurrently. outPath names the file for segment index i (0-based).
// Returned paths are ordered by segment index.
func (e *Editor) Split(ctx context.Context, in string, times []float64, outPath func(i int) string) ([]string, error) {
	const op = "split"
	if len(times) == 0 {
		return nil, opErr(op, "at least one split time is required")
	}
	if !sort.Float64sAreSorted(times) {
		return nil, opErr(op, "split times must be in increasing order")
	}
	info, err := e.Probe(ctx, in)
	if err != nil {
		return nil, err
	}
	for i, ts := range times {
		if ts <= 0 || ts >= info.Duration {
			return nil, opErr(op, "split time %g is outside the clip duration (0, %g)", ts, info.Duration)
		}
		if i > 0 && ts == times[i-1] {
			return nil, opErr(op, "duplicate split time %g", ts)
		}
	}

	bounds := append(append([]float64{0}, times...), info.Duration)
	paths := make([]string, len(bounds)-1)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < len(bounds)-1; i++ {
		start, end := bounds[i], bounds[i+1]
		out := outPath(i)
		paths[i] = out
		g.Go(func() error {
			args := ffArgs([]string{in}, trimArgs(start, end), true, out)
			return e.run(gctx, op, args, out)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// ExtractFrames writes PNG frames sampled at fps from [start, end) into
// outDir and returns the directory path.
func (e *Editor) ExtractFrames(ctx context.Context, in, outDir string, start, end float64, fps int) (string, error) {
	const op = "extract_frames"
	if start < 0 || end <= start {
		return "", opErr(op, "need 0 <= start < end")
	}
	if fps <= 0 {
		return "", opErr(op, "fps must be positive")
	}
	if err := e.checkInput(op, in); err != nil {
		return "", err
	}
	if err := e.mkdirAll(outDir, 0o755); err != nil {
		return "", &OpError{Op: op, Message: "cannot create output directory: " + outDir, Err: err}
	}

	pattern := filepath.Join(outDir, "frame_%04d.png")
	opArgs := append(trimArgs(start, end), "-vf", fmt.Sprintf("fps=%d", fps))
	args := append([]string{}, globalArgs...)
	args = append(args, "-i", in)
	args = append(args, opArgs...)
	args = append(args, pattern)

	log, err := e.exec(ctx, args)
	if err != nil {
		return "", &OpError{Op: op, Message: "ffmpeg frame extraction failed", CommandLog: log, Err: err}
	}
	return outDir, nil
}

// ImagesToVideo builds a video from an alphabetically ordered image
// sequence directory.
func (e *Editor) ImagesToVideo(ctx context.Context, imagesDir, out string, fps int) error {
	const op = "images_to_video"
	if fps <= 0 {
		return opErr(op, "fps must be positive")
	}
	info, err := e.stat(imagesDir)
	if err != nil {
		return &OpError{Op: op, Message: "cannot access images directory: " + imagesDir, Err: err}
	}
	if !info.IsDir() {
		return opErr(op, "images path is not a directory: %s", imagesDir)
	}

	args := append([]string{}, globalArgs...)
	args = append(args,
		"-framerate", fmt.Sprint(fps),
		"-pattern_type", "glob",
		"-i", filepath.Join(imagesDir, "*.png"),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		out,
	)
	return e.run(ctx, op, args, out)
}

// checkInput verifies an input path is non-empty and exists.
func (e *Editor) checkInput(op, path string) error {
	if strings.TrimSpace(path) == "" {
		return opErr(op, "input path is required")
	}
	if _, err := e.stat(path); err != nil {
		return &OpError{Op: op, Message: "cannot access input file: " + path, Err: err}
	}
	return nil
}

// run executes ffmpeg and verifies the expected output file appeared.
func (e *Editor) run(ctx context.Context, op string, args []string, out string) error {
	log, err := e.exec(ctx, args)
	if err != nil {
		return &OpError{Op: op, Message: "ffmpeg failed", CommandLog: log, Err: err}
	}
	if _, err := e.stat(out); err != nil {
		return &OpError{Op: op, Message: "ffmpeg completed but output file is missing", CommandLog: log, Err: err}
	}
	return nil
}

// exec runs one ffmpeg invocation and reports it to the log sink.
func (e *Editor) exec(ctx context.Context, args []string) (runner.CommandLog, error) {
	res, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	log := res.Log(e.ffmpegPath, args)
	e.emit(ctx, log)
	return log, err
}

// emit forwards a command log when a sink is configured.
func (e *Editor) emit(ctx context.Context, log runner.CommandLog) {
	if e.sink != nil {
		e.sink(ctx, log)
	}
}

// fileSize returns the byte size of a file via the injected stat.
func fileSize(stat func(string) (os.FileInfo, error), path string) (int64, error) {
	info, err := stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// NewForTests constructs an editor with injectable dependencies.
func NewForTests(cfg Config, stat func(string) (os.FileInfo, error), mkdirAll func(string, os.FileMode) error) *Editor {
	e := New(cfg)
	if stat != nil {
		e.stat = stat
	}
	if mkdirAll != nil {
		e.mkdirAll = mkdirAll
	}
	return e
}
