package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"video-editor-mcp/internal/domain"
)

// envPrefix namespaces environment overrides, e.g. VIDEDIT_OUTPUT_DIR.
const envPrefix = "VIDEDIT"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store defines persistence operations for server settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// ViperStore reads settings from a YAML file with environment overrides
// layered on top, and persists updates back to the same file.
type ViperStore struct {
	path string
}

// NewViperStore creates a viper-backed settings store.
func NewViperStore(path string) *ViperStore {
	return &ViperStore{path: path}
}

// Load merges defaults, the config file (if present), and VIDEDIT_*
// environment variables, then validates the result.
func (s *ViperStore) Load() (domain.Settings, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSettings()
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("temp_dir", defaults.TempDir)
	v.SetDefault("ffmpeg_path", defaults.FFmpegPath)
	v.SetDefault("ffprobe_path", defaults.FFprobePath)
	v.SetDefault("ytdlp_path", defaults.YtdlpPath)
	v.SetDefault("font_file", defaults.FontFile)
	v.SetDefault("history_db", defaults.HistoryDB)
	v.SetDefault("max_parallel_renders", defaults.MaxParallelRenders)
	v.SetDefault("transport", defaults.Transport)
	v.SetDefault("http_addr", defaults.HTTPAddr)
	v.SetDefault("log_level", defaults.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return domain.Settings{}, fmt.Errorf("read config %s: %w", s.path, err)
		}
	}

	var cfg domain.Settings
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.Settings{}, fmt.Errorf("parse config %s: %w", s.path, err)
	}

	if err := Validate(cfg); err != nil {
		return domain.Settings{}, err
	}
	return cfg, nil
}

// Save validates and writes settings as YAML, creating parent directories.
func (s *ViperStore) Save(cfg domain.Settings) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("output_dir", cfg.OutputDir)
	v.Set("temp_dir", cfg.TempDir)
	v.Set("ffmpeg_path", cfg.FFmpegPath)
	v.Set("ffprobe_path", cfg.FFprobePath)
	v.Set("ytdlp_path", cfg.YtdlpPath)
	v.Set("font_file", cfg.FontFile)
	v.Set("history_db", cfg.HistoryDB)
	v.Set("max_parallel_renders", cfg.MaxParallelRenders)
	v.Set("transport", cfg.Transport)
	v.Set("http_addr", cfg.HTTPAddr)
	v.Set("log_level", cfg.LogLevel)

	return v.WriteConfigAs(s.path)
}

// Validate checks settings against their struct constraints.
func Validate(cfg domain.Settings) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid settings: field %s fails %q constraint", first.Field(), first.Tag())
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}
