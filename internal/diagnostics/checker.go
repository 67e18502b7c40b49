package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"video-editor-mcp/internal/domain"
)

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all dependency checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool("ffmpeg", settings.FFmpegPath),
		c.checkTool("ffprobe", settings.FFprobePath),
		c.checkTool("yt-dlp", settings.YtdlpPath),
		c.checkOutputDir(settings.OutputDir),
	}
	if settings.FontFile != "" {
		items = append(items, c.checkFontFile(settings.FontFile))
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a required CLI executable exists. Bare names are
// resolved through PATH, explicit paths are checked directly.
func (c *Checker) checkTool(name, configured string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "tool_" + name,
		Name: name,
	}

	bin := strings.TrimSpace(configured)
	if bin == "" {
		bin = name
	}

	if strings.ContainsRune(bin, os.PathSeparator) {
		if _, err := c.stat(bin); err != nil {
			item.Status = domain.DiagnosticStatusFail
			item.Message = fmt.Sprintf("Configured binary not found: %s", bin)
			item.Hint = "Fix the configured path or remove it to fall back to PATH lookup."
			return item
		}
		item.Status = domain.DiagnosticStatusPass
		item.Path = bin
		item.Message = fmt.Sprintf("Found at %s", bin)
		return item
	}

	path, err := c.lookPath(bin)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Tool not found in PATH: %s", bin)
		item.Hint = fmt.Sprintf("Install %s and ensure the binary is available on PATH before calling tools that need it.", name)
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Path = path
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Set an output directory where rendered videos can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for rendered output."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Path = outputDir
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// checkFontFile validates the configured drawtext font file.
func (c *Checker) checkFontFile(fontFile string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "font_file",
		Name: "Font file",
	}

	info, err := c.stat(fontFile)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, os.ErrNotExist) {
			item.Message = fmt.Sprintf("Font file does not exist: %s", fontFile)
		} else {
			item.Message = fmt.Sprintf("Cannot access font file: %s", fontFile)
		}
		item.Hint = "Point font_file at a .ttf or .otf file; text overlays need it."
		return item
	}
	if info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Font path is a directory: %s", fontFile)
		item.Hint = "Point font_file at a font file, not a directory."
		return item
	}

	ext := strings.ToLower(filepath.Ext(fontFile))
	if ext != ".ttf" && ext != ".otf" && ext != ".ttc" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unrecognized font file extension: %s", fontFile)
		item.Hint = "Use a .ttf, .otf, or .ttc font file."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Path = fontFile
	item.Message = fmt.Sprintf("Font file found: %s", fontFile)
	return item
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
