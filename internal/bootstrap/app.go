package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"video-editor-mcp/internal/clips"
	"video-editor-mcp/internal/config"
	"video-editor-mcp/internal/diagnostics"
	"video-editor-mcp/internal/domain"
	"video-editor-mcp/internal/download"
	"video-editor-mcp/internal/ffmpeg"
	"video-editor-mcp/internal/history"
	"video-editor-mcp/internal/jobs"
	"video-editor-mcp/internal/runner"
	"video-editor-mcp/internal/server"
)

// App wires configuration, diagnostics, backends, job tracking and the
// MCP server into one runnable unit.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Diagnostics domain.DiagnosticReport

	server  *server.Server
	history *history.Store
	clips   *clips.Registry
	logger  *zap.Logger
}

// Options adjust startup behavior from the command line.
type Options struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string
	// HTTPAddr, when set, forces the Streamable HTTP transport on that
	// address regardless of the configured transport.
	HTTPAddr string
}

// New loads settings and builds the fully wired application.
func New(ctx context.Context, opts Options) (*App, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	store := config.NewViperStore(path)
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if opts.HTTPAddr != "" {
		settings.Transport = "http"
		settings.HTTPAddr = opts.HTTPAddr
		if err := config.Validate(settings); err != nil {
			return nil, err
		}
	}

	logger, err := newLogger(settings.LogLevel)
	if err != nil {
		return nil, err
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)
	for _, item := range report.Items {
		if item.Status == domain.DiagnosticStatusFail {
			logger.Warn("dependency check failed",
				zap.String("check", item.ID),
				zap.String("message", item.Message),
			)
		}
	}

	hist, err := history.Open(ctx, settings.HistoryDB)
	if err != nil {
		return nil, err
	}

	registry, err := clips.New(settings.TempDir)
	if err != nil {
		hist.Close()
		return nil, err
	}

	bus := jobs.NewEventBus(1000)
	manager := jobs.NewManager(0)
	execRunner := runner.ExecRunner{}

	// External command logs become job events; the job ID rides on the
	// context the render attached it to.
	sink := func(ctx context.Context, log runner.CommandLog) {
		bus.Publish(jobs.Event{
			JobID:    jobs.JobIDFrom(ctx),
			Type:     jobs.EventTypeLog,
			Message:  "Command completed",
			Command:  log.Command,
			Args:     log.Args,
			ExitCode: log.ExitCode,
			Stdout:   log.Stdout,
			Stderr:   log.Stderr,
		})
	}

	editor := ffmpeg.New(ffmpeg.Config{
		FFmpegPath:  settings.FFmpegPath,
		FFprobePath: settings.FFprobePath,
		FontFile:    settings.FontFile,
		Runner:      execRunner,
		LogSink:     sink,
	})
	downloader := download.New(download.Config{
		YtdlpPath: settings.YtdlpPath,
		OutputDir: settings.OutputDir,
		Runner:    execRunner,
		LogSink:   sink,
	})

	srv := server.New(server.Config{
		Settings:   settings,
		Editor:     editor,
		Downloader: downloader,
		Clips:      registry,
		Jobs:       manager,
		Events:     bus,
		History:    hist,
		Checker:    checker,
		Logger:     logger,
	})

	return &App{
		Settings:    settings,
		Store:       store,
		Diagnostics: report,
		server:      srv,
		history:     hist,
		clips:       registry,
		logger:      logger,
	}, nil
}

// Run serves MCP on the configured transport until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting video editor",
		zap.String("transport", a.Settings.Transport),
		zap.String("output_dir", a.Settings.OutputDir),
	)
	if a.Settings.Transport == "http" {
		return a.server.ServeHTTP(ctx, a.Settings.HTTPAddr)
	}
	return a.server.ServeStdio(ctx)
}

// Close releases the history database, managed clips and the logger.
func (a *App) Close() error {
	err := errors.Join(
		a.clips.Close(),
		a.history.Close(),
	)
	// Sync on stderr reports EINVAL on some platforms; nothing to act on.
	_ = a.logger.Sync()
	return err
}

// Check loads settings and runs the dependency checks without starting
// the server. Used by the -check flag.
func Check(configPath string) (domain.DiagnosticReport, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	settings, err := config.NewViperStore(path).Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return diagnostics.NewChecker().Run(settings), nil
}
