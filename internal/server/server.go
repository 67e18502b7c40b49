package server

// In this file: MCP server construction, transport management, and shared
// helpers for tool handlers.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"video-editor-mcp/internal/clips"
	"video-editor-mcp/internal/domain"
	"video-editor-mcp/internal/download"
	"video-editor-mcp/internal/ffmpeg"
	"video-editor-mcp/internal/history"
	"video-editor-mcp/internal/jobs"
)

const (
	serverName    = "video-editor-mcp"
	serverVersion = "1.0.0"
)

// Editor is the video-editing backend the tool handlers delegate to.
type Editor interface {
	Probe(ctx context.Context, path string) (domain.VideoInfo, error)
	Trim(ctx context.Context, in, out string, start, end float64) error
	Merge(ctx context.Context, inputs []string, out string) error
	Resize(ctx context.Context, in, out string, width, height int) error
	Crop(ctx context.Context, in, out string, x1, y1, x2, y2 int) error
	Rotate(ctx context.Context, in, out string, angle float64) error
	ChangeSpeed(ctx context.Context, in, out string, factor float64) error
	ReplaceAudio(ctx context.Context, in, audio, out string) error
	FadeIn(ctx context.Context, in, out string, duration float64) error
	FadeOut(ctx context.Context, in, out string, duration float64) error
	DrawText(ctx context.Context, in, out string, o ffmpeg.TextOverlay) error
	OverlayImage(ctx context.Context, in, image, out string, o ffmpeg.ImageOverlay) error
	OverlayVideo(ctx context.Context, base, overlay, out string, o ffmpeg.VideoOverlay) error
	Grayscale(ctx context.Context, in, out string) error
	Mirror(ctx context.Context, in, out string) error
	BurnSubtitles(ctx context.Context, in, subtitles, out string) error
	Convert(ctx context.Context, in, out string, c ffmpeg.Conversion) error
	Split(ctx context.Context, in string, times []float64, outPath func(i int) string) ([]string, error)
	ExtractFrames(ctx context.Context, in, outDir string, start, end float64, fps int) (string, error)
	ImagesToVideo(ctx context.Context, imagesDir, out string, fps int) error
}

// Downloader is the media retrieval backend (yt-dlp).
type Downloader interface {
	Video(ctx context.Context, url, format, outputName string) (string, error)
	Audio(ctx context.Context, url, audioFormat, outputName string) (string, error)
	Formats(ctx context.Context, url string) (download.MediaInfo, error)
}

// History is the render ledger consulted by render_history.
type History interface {
	Record(ctx context.Context, e history.Entry) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// DependencyChecker produces the check_dependencies report.
type DependencyChecker interface {
	Run(settings domain.Settings) domain.DiagnosticReport
}

// Config carries Server construction parameters.
type Config struct {
	Settings   domain.Settings
	Editor     Editor
	Downloader Downloader
	Clips      *clips.Registry
	Jobs       *jobs.Manager
	Events     *jobs.EventBus
	History    History
	Checker    DependencyChecker
	Logger     *zap.Logger
}

// Server wraps an MCP server and the video-editing backends it exposes.
type Server struct {
	mcp        *mcpsrv.MCPServer
	editor     Editor
	downloader Downloader
	clips      *clips.Registry
	jobs       *jobs.Manager
	bus        *jobs.EventBus
	history    History
	checker    DependencyChecker
	settings   domain.Settings
	logger     *zap.Logger
	sem        *semaphore.Weighted
}

// New creates an MCP server populated with all tools. The server does not
// start listening until one of the Serve* methods is called.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	slots := int64(cfg.Settings.MaxParallelRenders)
	if slots <= 0 {
		slots = 1
	}

	s := &Server{
		editor:     cfg.Editor,
		downloader: cfg.Downloader,
		clips:      cfg.Clips,
		jobs:       cfg.Jobs,
		bus:        cfg.Events,
		history:    cfg.History,
		checker:    cfg.Checker,
		settings:   cfg.Settings,
		logger:     cfg.Logger,
		sem:        semaphore.NewWeighted(slots),
	}

	mcpServer := mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithInstructions(instructions(cfg.Settings)),
	)
	for _, t := range s.tools() {
		mcpServer.AddTool(t.Tool, t.Handler)
	}
	s.mcp = mcpServer
	return s
}

// instructions describe the server and its conventions to the agent.
func instructions(settings domain.Settings) string {
	return fmt.Sprintf(`You are connected to a video-editor MCP server.

Editing tools delegate to ffmpeg, download tools to yt-dlp. Named outputs
are written to %q.

Conventions:
- Any "video"/"audio" argument accepts a filesystem path or a clip
  reference ("clip://<id>").
- Omit "output_name" to keep a result as a managed intermediate clip and
  chain further edits without re-naming every step; pass "output_name"
  (a bare file name such as "final.mp4") on the last step to write the
  file to the output directory.
- Use get_video_info before edits that depend on duration or dimensions,
  and check_dependencies if tools fail to start.
- Every edit is recorded as a job; job_events and render_history expose
  execution details.
`, settings.OutputDir)
}

// tools returns all MCP tools that this server exposes.
func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		s.toolGetVideoInfo(),
		s.toolCheckDependencies(),
		s.toolTrimVideo(),
		s.toolMergeVideos(),
		s.toolResizeVideo(),
		s.toolCropVideo(),
		s.toolRotateVideo(),
		s.toolChangeSpeed(),
		s.toolAddAudio(),
		s.toolFadeIn(),
		s.toolFadeOut(),
		s.toolGrayscaleVideo(),
		s.toolMirrorVideo(),
		s.toolConvertFormat(),
		s.toolSplitVideo(),
		s.toolExtractFrames(),
		s.toolImagesToVideo(),
		s.toolAddTextOverlay(),
		s.toolAddImageOverlay(),
		s.toolAddVideoOverlay(),
		s.toolBurnSubtitles(),
		s.toolDownloadVideo(),
		s.toolDownloadAudio(),
		s.toolListFormats(),
		s.toolListClips(),
		s.toolDiscardClip(),
		s.toolGetJob(),
		s.toolListJobs(),
		s.toolCancelJob(),
		s.toolJobEvents(),
		s.toolRenderHistory(),
	}
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.Info("mcp server listening on stdio")
	if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// ServeHTTP runs the MCP server as a Streamable HTTP server on addr until
// ctx is cancelled.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr}
	streamSrv := mcpsrv.NewStreamableHTTPServer(s.mcp,
		mcpsrv.WithStreamableHTTPServer(httpSrv),
	)

	s.logger.Info("mcp server listening on http", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := streamSrv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp http server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("mcp server shutting down")
		if err := streamSrv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("mcp http server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// renderOutcome is the JSON payload returned by successful edit tools.
type renderOutcome struct {
	Success     bool     `json:"success"`
	OutputPath  string   `json:"output_path,omitempty"`
	OutputPaths []string `json:"output_paths,omitempty"`
	Clip        string   `json:"clip,omitempty"`
	Clips       []string `json:"clips,omitempty"`
	JobID       string   `json:"job_id,omitempty"`
	Message     string   `json:"message"`
}

// render runs fn as a tracked render job under the concurrency limit,
// publishes its lifecycle events, and records the outcome in the ledger.
// fn returns the final output path, recorded on success.
func (s *Server) render(ctx context.Context, tool, input string, fn func(ctx context.Context) (string, error)) (domain.Job, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return domain.Job{}, fmt.Errorf("acquire render slot: %w", err)
	}
	defer s.sem.Release(1)

	jctx, cancel := context.WithCancel(ctx)
	defer cancel()

	job := s.jobs.Begin(tool, input, cancel)
	jctx = jobs.WithJobID(jctx, job.ID)
	s.publishStatus(job.ID, domain.JobStatusRunning, "Running "+tool)

	started := time.Now()
	outputPath, err := fn(jctx)
	elapsed := time.Since(started)

	status := domain.JobStatusDone
	errMsg := ""
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		status = domain.JobStatusCancelled
		errMsg = "cancelled"
		outputPath = ""
	default:
		status = domain.JobStatusFailed
		errMsg = err.Error()
		outputPath = ""
	}

	_ = s.jobs.Finish(job.ID, status, outputPath, errMsg)
	done, _ := s.jobs.Get(job.ID)
	s.publishStatus(job.ID, done.Status, tool+" "+string(done.Status))

	entry := history.Entry{
		JobID:      job.ID,
		Tool:       tool,
		Input:      input,
		Output:     outputPath,
		Status:     string(done.Status),
		Error:      errMsg,
		ExitCode:   exitCodeOf(err),
		DurationMS: elapsed.Milliseconds(),
	}
	if s.history != nil {
		if herr := s.history.Record(ctx, entry); herr != nil {
			// The ledger is best effort; a render must not fail because
			// bookkeeping did.
			s.logger.Warn("record render history", zap.Error(herr))
		}
	}

	if err != nil {
		s.logger.Warn("render failed", zap.String("tool", tool), zap.String("job", job.ID), zap.Error(err))
		return done, err
	}
	s.logger.Info("render completed",
		zap.String("tool", tool),
		zap.String("job", job.ID),
		zap.Duration("elapsed", elapsed),
	)
	return done, nil
}

// publishStatus sends a normalized status event.
func (s *Server) publishStatus(jobID string, status domain.JobStatus, message string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// exitCodeOf extracts the external command exit code from backend errors.
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var opErr *ffmpeg.OpError
	if errors.As(err, &opErr) {
		return opErr.CommandLog.ExitCode
	}
	var dlErr *download.Error
	if errors.As(err, &dlErr) {
		return dlErr.CommandLog.ExitCode
	}
	return -1
}

// resultText is a helper that wraps text in a successful CallToolResult.
func resultText(text string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(text)
}

// resultErr is a helper that wraps an error in a CallToolResult with IsError=true.
func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// resultJSON is a helper that serialises v to JSON and returns a CallToolResult.
func resultJSON(v any) (*mcplib.CallToolResult, error) {
	return mcplib.NewToolResultJSON(v)
}

// stringArg extracts a named string argument from a tool call request.
func stringArg(req mcplib.CallToolRequest, name string) (string, bool) {
	args := req.GetArguments()
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// floatArg extracts a named number argument. The MCP protocol serialises
// numbers as float64.
func floatArg(req mcplib.CallToolRequest, name string) (float64, bool) {
	args := req.GetArguments()
	if args == nil {
		return 0, false
	}
	v, ok := args[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// intArg extracts a named int argument with a default.
func intArg(req mcplib.CallToolRequest, name string, defaultVal int) int {
	if f, ok := floatArg(req, name); ok {
		return int(f)
	}
	return defaultVal
}

// stringSliceArg extracts a named string-array argument.
func stringSliceArg(req mcplib.CallToolRequest, name string) ([]string, bool) {
	args := req.GetArguments()
	if args == nil {
		return nil, false
	}
	raw, ok := args[name].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// floatSliceArg extracts a named number-array argument.
func floatSliceArg(req mcplib.CallToolRequest, name string) ([]float64, bool) {
	args := req.GetArguments()
	if args == nil {
		return nil, false
	}
	raw, ok := args[name].([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}
