package domain

import "time"

// JobStatus tracks the lifecycle of one render job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusDone      JobStatus = "done"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job stores identity, lifecycle status, and outcome of one render.
type Job struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Status     JobStatus `json:"status"`
	Input      string    `json:"input,omitempty"`
	OutputPath string    `json:"outputPath,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Settings contains runtime configuration for the server process.
type Settings struct {
	OutputDir          string `json:"outputDir" mapstructure:"output_dir" validate:"required"`
	TempDir            string `json:"tempDir" mapstructure:"temp_dir"`
	FFmpegPath         string `json:"ffmpegPath" mapstructure:"ffmpeg_path" validate:"required"`
	FFprobePath        string `json:"ffprobePath" mapstructure:"ffprobe_path" validate:"required"`
	YtdlpPath          string `json:"ytdlpPath" mapstructure:"ytdlp_path" validate:"required"`
	FontFile           string `json:"fontFile" mapstructure:"font_file"`
	HistoryDB          string `json:"historyDb" mapstructure:"history_db" validate:"required"`
	MaxParallelRenders int    `json:"maxParallelRenders" mapstructure:"max_parallel_renders" validate:"min=1,max=16"`
	Transport          string `json:"transport" mapstructure:"transport" validate:"oneof=stdio http"`
	HTTPAddr           string `json:"httpAddr" mapstructure:"http_addr" validate:"required_if=Transport http"`
	LogLevel           string `json:"logLevel" mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// VideoInfo is the ffprobe-derived description of a media file.
type VideoInfo struct {
	Path          string  `json:"file_path"`
	Filename      string  `json:"filename"`
	Duration      float64 `json:"duration"`
	FPS           float64 `json:"fps,omitempty"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	AspectRatio   float64 `json:"aspect_ratio,omitempty"`
	VideoCodec    string  `json:"codec,omitempty"`
	PixelFormat   string  `json:"pix_fmt,omitempty"`
	BitRate       int64   `json:"bitrate,omitempty"`
	TotalFrames   int64   `json:"total_frames,omitempty"`
	HasAudio      bool    `json:"has_audio"`
	AudioCodec    string  `json:"audio_codec,omitempty"`
	AudioChannels int     `json:"audio_channels,omitempty"`
	SampleRate    int     `json:"sample_rate,omitempty"`
	FileSizeBytes int64   `json:"file_size_bytes,omitempty"`
	FileSize      string  `json:"file_size,omitempty"`
}

// ClipInfo describes one managed intermediate clip.
type ClipInfo struct {
	Ref       string    `json:"ref"`
	Path      string    `json:"path"`
	Source    string    `json:"source"`
	SizeBytes int64     `json:"size_bytes"`
	Size      string    `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
