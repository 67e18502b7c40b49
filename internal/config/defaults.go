package config

import (
	"os"
	"path/filepath"

	"video-editor-mcp/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		OutputDir:          filepath.Join(homeDir, "Videos", "Edited"),
		TempDir:            "",
		FFmpegPath:         "ffmpeg",
		FFprobePath:        "ffprobe",
		YtdlpPath:          "yt-dlp",
		FontFile:           "",
		HistoryDB:          filepath.Join(homeDir, ".video-editor-mcp", "history.db"),
		MaxParallelRenders: 2,
		Transport:          "stdio",
		HTTPAddr:           "127.0.0.1:8483",
		LogLevel:           "info",
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".video-editor-mcp", "config.yaml")
}
