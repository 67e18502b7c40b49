package ffmpeg

import (
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"video-editor-mcp/internal/domain"
)

// probeOutput mirrors the subset of `ffprobe -print_format json` we need.
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	PixFmt       string `json:"pix_fmt"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	Channels     int    `json:"channels"`
	SampleRate   string `json:"sample_rate"`
}

// Probe inspects a media file with ffprobe and returns its description.
func (e *Editor) Probe(ctx context.Context, path string) (domain.VideoInfo, error) {
	const op = "probe"

	if strings.TrimSpace(path) == "" {
		return domain.VideoInfo{}, opErr(op, "media path is required")
	}
	if _, err := e.stat(path); err != nil {
		return domain.VideoInfo{}, &OpError{Op: op, Message: "cannot access media file: " + path, Err: err}
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	res, err := e.runner.Run(ctx, e.ffprobePath, args...)
	log := res.Log(e.ffprobePath, args)
	e.emit(ctx, log)
	if err != nil {
		return domain.VideoInfo{}, &OpError{Op: op, Message: "ffprobe failed", CommandLog: log, Err: err}
	}

	var out probeOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return domain.VideoInfo{}, &OpError{Op: op, Message: "cannot parse ffprobe output", CommandLog: log, Err: err}
	}

	info := buildVideoInfo(path, out)
	if size, err := fileSize(e.stat, path); err == nil {
		info.FileSizeBytes = size
		info.FileSize = humanize.Bytes(uint64(size))
	}
	return info, nil
}

// buildVideoInfo converts raw ffprobe output into the domain description.
func buildVideoInfo(path string, out probeOutput) domain.VideoInfo {
	info := domain.VideoInfo{
		Path:     path,
		Filename: filepath.Base(path),
		Duration: parseFloat(out.Format.Duration),
		BitRate:  parseInt(out.Format.BitRate),
	}

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec != "" {
				continue // first video stream wins
			}
			info.VideoCodec = s.CodecName
			info.Width = s.Width
			info.Height = s.Height
			info.PixelFormat = s.PixFmt
			info.FPS = parseFrameRate(s.AvgFrameRate)
			if info.FPS == 0 {
				info.FPS = parseFrameRate(s.RFrameRate)
			}
		case "audio":
			if info.HasAudio {
				continue
			}
			info.HasAudio = true
			info.AudioCodec = s.CodecName
			info.AudioChannels = s.Channels
			info.SampleRate = int(parseInt(s.SampleRate))
		}
	}

	if info.Height > 0 {
		info.AspectRatio = math.Round(float64(info.Width)/float64(info.Height)*100) / 100
	}
	if info.FPS > 0 && info.Duration > 0 {
		info.TotalFrames = int64(info.FPS * info.Duration)
	}
	return info
}

// parseFrameRate converts ffprobe's "num/den" rational to a float.
func parseFrameRate(raw string) float64 {
	num, den, ok := strings.Cut(raw, "/")
	if !ok {
		return parseFloat(raw)
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return math.Round(n/d*1000) / 1000
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
