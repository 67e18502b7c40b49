package ffmpeg

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// globalArgs are prepended to every ffmpeg invocation.
var globalArgs = []string{"-hide_banner", "-nostdin", "-y"}

// encodeArgs is the default H.264/AAC re-encode tail shared by most
// operations; +faststart keeps outputs streamable.
var encodeArgs = []string{
	"-c:v", "libx264",
	"-preset", "veryfast",
	"-crf", "23",
	"-c:a", "aac",
	"-movflags", "+faststart",
}

// ffArgs assembles globals, inputs, operation args, encode tail, and output.
func ffArgs(inputs []string, opArgs []string, reencode bool, out string) []string {
	args := append([]string{}, globalArgs...)
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	args = append(args, opArgs...)
	if reencode {
		args = append(args, encodeArgs...)
	}
	return append(args, out)
}

// formatSeconds renders a time offset for ffmpeg CLI args.
func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', -1, 64)
}

// escapeFilterValue escapes a string for use inside a filter description.
// Backslash first, then the filter-syntax specials.
func escapeFilterValue(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`,`, `\,`,
		`[`, `\[`,
		`]`, `\]`,
		`;`, `\;`,
	)
	return r.Replace(s)
}

// trimArgs cuts [start, end) with an accurate output seek.
func trimArgs(start, end float64) []string {
	return []string{"-ss", formatSeconds(start), "-to", formatSeconds(end)}
}

// scaleFilter resizes to exact dimensions.
func scaleFilter(width, height int) string {
	return fmt.Sprintf("scale=%d:%d", width, height)
}

// cropFilter converts corner coordinates to ffmpeg's w:h:x:y form.
func cropFilter(x1, y1, x2, y2 int) string {
	return fmt.Sprintf("crop=%d:%d:%d:%d", x2-x1, y2-y1, x1, y1)
}

// rotateFilter rotates counter-clockwise by degrees, enlarging the canvas
// to the rotated bounding box so no content is clipped. Right-angle
// rotations map to lossless transpose chains.
func rotateFilter(angleDeg float64) string {
	deg := math.Mod(angleDeg, 360)
	if deg < 0 {
		deg += 360
	}
	switch deg {
	case 0:
		return "null"
	case 90:
		return "transpose=2"
	case 180:
		return "transpose=2,transpose=2"
	case 270:
		return "transpose=1"
	}

	rad := angleDeg * math.Pi / 180
	return fmt.Sprintf(
		"rotate=%s:ow='ceil(iw*abs(cos(%s))+ih*abs(sin(%s)))':oh='ceil(iw*abs(sin(%s))+ih*abs(cos(%s)))'",
		formatSeconds(-rad), formatSeconds(rad), formatSeconds(rad), formatSeconds(rad), formatSeconds(rad),
	)
}

// atempoChain decomposes an arbitrary speed factor into atempo filters,
// each within the supported [0.5, 2.0] range.
func atempoChain(factor float64) string {
	var parts []string
	f := factor
	for f > 2.0 {
		parts = append(parts, "atempo=2.0")
		f /= 2.0
	}
	for f < 0.5 {
		parts = append(parts, "atempo=0.5")
		f /= 0.5
	}
	parts = append(parts, fmt.Sprintf("atempo=%s", formatSeconds(roundTo(f, 6))))
	return strings.Join(parts, ",")
}

// speedFilterComplex builds the setpts/atempo graph for a speed change.
func speedFilterComplex(factor float64, hasAudio bool) string {
	v := fmt.Sprintf("[0:v]setpts=PTS/%s[v]", formatSeconds(roundTo(factor, 6)))
	if !hasAudio {
		return v
	}
	return fmt.Sprintf("%s;[0:a]%s[a]", v, atempoChain(factor))
}

// fadeArgs builds video and audio fade filters for one edge of the clip.
func fadeArgs(direction string, start, duration float64, hasAudio bool) []string {
	args := []string{
		"-vf", fmt.Sprintf("fade=t=%s:st=%s:d=%s", direction, formatSeconds(start), formatSeconds(duration)),
	}
	if hasAudio {
		args = append(args,
			"-af", fmt.Sprintf("afade=t=%s:st=%s:d=%s", direction, formatSeconds(start), formatSeconds(duration)),
		)
	}
	return args
}

// drawtextFilter renders a timed text overlay.
func drawtextFilter(o TextOverlay, fontFile string) string {
	var b strings.Builder
	b.WriteString("drawtext=")
	if fontFile != "" {
		fmt.Fprintf(&b, "fontfile='%s':", escapeFilterValue(fontFile))
	}
	fmt.Fprintf(&b, "text='%s'", escapeFilterValue(o.Text))
	fmt.Fprintf(&b, ":x=%d:y=%d", o.X, o.Y)
	fmt.Fprintf(&b, ":fontsize=%d", o.FontSize)
	fmt.Fprintf(&b, ":fontcolor=%s", o.Color)
	fmt.Fprintf(&b, ":enable='between(t\\,%s\\,%s)'",
		formatSeconds(o.Start), formatSeconds(o.Start+o.Duration))
	return b.String()
}

// overlayFilterComplex places input 1 on top of input 0 at (x, y) for the
// given time window, with optional alpha blending.
func overlayFilterComplex(x, y int, opacity, start, duration float64) string {
	prep := "[1:v]format=rgba"
	if opacity < 1 {
		prep += fmt.Sprintf(",colorchannelmixer=aa=%s", formatSeconds(roundTo(opacity, 4)))
	}
	return fmt.Sprintf(
		"%s[ovl];[0:v][ovl]overlay=%d:%d:enable='between(t\\,%s\\,%s)'[v]",
		prep, x, y, formatSeconds(start), formatSeconds(start+duration),
	)
}

// subtitlesFilter burns a subtitle file into the video stream.
func subtitlesFilter(path string) string {
	return fmt.Sprintf("subtitles='%s'", escapeFilterValue(path))
}

// roundTo trims float noise before formatting filter parameters.
func roundTo(f float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(f*p) / p
}
