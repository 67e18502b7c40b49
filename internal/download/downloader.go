package download

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-editor-mcp/internal/runner"
)

// Format is one downloadable format reported by yt-dlp.
type Format struct {
	ID         string  `json:"format_id"`
	Ext        string  `json:"ext"`
	Resolution string  `json:"resolution,omitempty"`
	Note       string  `json:"format_note,omitempty"`
	Filesize   int64   `json:"filesize,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	VCodec     string  `json:"vcodec,omitempty"`
	ACodec     string  `json:"acodec,omitempty"`
}

// MediaInfo summarizes a remote media page and its available formats.
type MediaInfo struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Duration float64  `json:"duration,omitempty"`
	Uploader string   `json:"uploader,omitempty"`
	Formats  []Format `json:"formats"`
}

// Error is a download failure with command context.
type Error struct {
	Message    string            `json:"message"`
	CommandLog runner.CommandLog `json:"commandLog"`
	Err        error             `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return "download: " + e.Message
	}
	return fmt.Sprintf("download: %s (exit=%d)", e.Message, e.CommandLog.ExitCode)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Downloader retrieves remote media by delegating to yt-dlp.
type Downloader struct {
	ytdlpPath string
	outputDir string
	runner    runner.Runner
	sink      runner.LogSink
	stat      func(string) (os.FileInfo, error)
	mkdirAll  func(string, os.FileMode) error
}

// Config carries Downloader construction parameters.
type Config struct {
	YtdlpPath string
	OutputDir string
	Runner    runner.Runner
	LogSink   runner.LogSink
}

// New constructs a downloader with OS dependencies filled in.
func New(cfg Config) *Downloader {
	d := &Downloader{
		ytdlpPath: cfg.YtdlpPath,
		outputDir: cfg.OutputDir,
		runner:    cfg.Runner,
		sink:      cfg.LogSink,
		stat:      os.Stat,
		mkdirAll:  os.MkdirAll,
	}
	if d.ytdlpPath == "" {
		d.ytdlpPath = "yt-dlp"
	}
	if d.runner == nil {
		d.runner = runner.ExecRunner{}
	}
	return d
}

// Video downloads a video and returns the final file path. format is a
// yt-dlp format selector; outputName overrides the default title-based
// file name (extension decided by yt-dlp).
func (d *Downloader) Video(ctx context.Context, url, format, outputName string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", &Error{Message: "url is required"}
	}
	if err := d.mkdirAll(d.outputDir, 0o755); err != nil {
		return "", &Error{Message: "cannot create output directory: " + d.outputDir, Err: err}
	}

	args := []string{
		"--no-playlist",
		"--no-simulate",
		"--print", "after_move:filepath",
		"-o", d.outputTemplate(outputName),
	}
	if format != "" {
		args = append(args, "-f", format)
	}
	args = append(args, url)

	return d.fetch(ctx, args)
}

// Audio downloads and extracts the audio track of a remote video.
// audioFormat is e.g. "mp3" or "m4a"; empty keeps yt-dlp's default.
func (d *Downloader) Audio(ctx context.Context, url, audioFormat, outputName string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", &Error{Message: "url is required"}
	}
	if err := d.mkdirAll(d.outputDir, 0o755); err != nil {
		return "", &Error{Message: "cannot create output directory: " + d.outputDir, Err: err}
	}

	args := []string{
		"--no-playlist",
		"--no-simulate",
		"-x",
		"--print", "after_move:filepath",
		"-o", d.outputTemplate(outputName),
	}
	if audioFormat != "" {
		args = append(args, "--audio-format", audioFormat)
	}
	args = append(args, url)

	return d.fetch(ctx, args)
}

// Formats lists the formats available for a URL without downloading.
func (d *Downloader) Formats(ctx context.Context, url string) (MediaInfo, error) {
	if strings.TrimSpace(url) == "" {
		return MediaInfo{}, &Error{Message: "url is required"}
	}

	args := []string{"--no-playlist", "-J", url}
	res, err := d.runner.Run(ctx, d.ytdlpPath, args...)
	log := res.Log(d.ytdlpPath, args)
	d.emit(ctx, log)
	if err != nil {
		return MediaInfo{}, &Error{Message: "yt-dlp metadata query failed", CommandLog: log, Err: err}
	}

	var info MediaInfo
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return MediaInfo{}, &Error{Message: "cannot parse yt-dlp output", CommandLog: log, Err: err}
	}
	return info, nil
}

// fetch runs a download invocation and extracts the printed final path.
func (d *Downloader) fetch(ctx context.Context, args []string) (string, error) {
	res, err := d.runner.Run(ctx, d.ytdlpPath, args...)
	log := res.Log(d.ytdlpPath, args)
	d.emit(ctx, log)
	if err != nil {
		return "", &Error{Message: "yt-dlp failed", CommandLog: log, Err: err}
	}

	path := finalPath(res.Stdout)
	if path == "" {
		return "", &Error{Message: "yt-dlp did not report a downloaded file path", CommandLog: log}
	}
	if _, err := d.stat(path); err != nil {
		return "", &Error{Message: "yt-dlp reported a missing file: " + path, CommandLog: log, Err: err}
	}
	return path, nil
}

// outputTemplate builds the -o template, defaulting to the media title.
func (d *Downloader) outputTemplate(outputName string) string {
	name := strings.TrimSpace(outputName)
	if name == "" {
		return filepath.Join(d.outputDir, "%(title)s.%(ext)s")
	}
	// Strip any caller-supplied directories and extension; yt-dlp picks
	// the extension for the chosen format.
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(d.outputDir, name+".%(ext)s")
}

// finalPath returns the last non-empty stdout line, which is the
// after_move:filepath value printed once the download completes.
func finalPath(stdout string) string {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// emit forwards a command log when a sink is configured.
func (d *Downloader) emit(ctx context.Context, log runner.CommandLog) {
	if d.sink != nil {
		d.sink(ctx, log)
	}
}

// NewForTests constructs a downloader with injectable dependencies.
func NewForTests(cfg Config, stat func(string) (os.FileInfo, error), mkdirAll func(string, os.FileMode) error) *Downloader {
	d := New(cfg)
	if stat != nil {
		d.stat = stat
	}
	if mkdirAll != nil {
		d.mkdirAll = mkdirAll
	}
	return d
}
