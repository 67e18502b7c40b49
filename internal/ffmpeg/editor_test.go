package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"video-editor-mcp/internal/runner"
)

// fakeRunner simulates external command execution.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	run   func(ctx context.Context, name string, args ...string) (runner.Result, error)
}

// Run records the invocation and delegates to injected behavior.
func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	if f.run == nil {
		return runner.Result{}, nil
	}
	return f.run(ctx, name, args...)
}

// callCount returns how many commands ran.
func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// mustWriteFile creates a file with content or fails the test.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// probeJSON fabricates minimal ffprobe output.
func probeJSON(duration float64, hasAudio bool) string {
	streams := `{"codec_type":"video","codec_name":"h264","width":1280,"height":720,"pix_fmt":"yuv420p","avg_frame_rate":"30/1"}`
	if hasAudio {
		streams += `,{"codec_type":"audio","codec_name":"aac","channels":2,"sample_rate":"44100"}`
	}
	return fmt.Sprintf(`{"format":{"duration":"%g","bit_rate":"1000000"},"streams":[%s]}`, duration, streams)
}

// newTestEditor wires an editor onto a fake runner with real OS stat.
func newTestEditor(r runner.Runner) *Editor {
	return NewForTests(Config{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Runner:      r,
	}, nil, nil)
}

// TestTrimRejectsInvalidRange checks validation before any command runs.
func TestTrimRejectsInvalidRange(t *testing.T) {
	fake := &fakeRunner{}
	e := newTestEditor(fake)

	tests := []struct{ start, end float64 }{
		{-1, 5},
		{3, -5},
		{5, 5},
		{8, 2},
	}
	for _, tc := range tests {
		err := e.Trim(context.Background(), "in.mp4", "out.mp4", tc.start, tc.end)
		var opError *OpError
		if !errors.As(err, &opError) {
			t.Fatalf("Trim(%g, %g) error = %v, want OpError", tc.start, tc.end, err)
		}
	}
	if fake.callCount() != 0 {
		t.Fatalf("command calls = %d, want 0", fake.callCount())
	}
}

// TestTrimRunsFFmpegAndVerifiesOutput checks the happy path end to end.
func TestTrimRunsFFmpegAndVerifiesOutput(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in.mp4")
	out := filepath.Join(root, "out.mp4")
	mustWriteFile(t, in, "video")

	var gotArgs []string
	fake := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (runner.Result, error) {
			if name != "ffmpeg" {
				t.Fatalf("command = %q, want ffmpeg", name)
			}
			gotArgs = append([]string{}, args...)
			mustWriteFile(t, args[len(args)-1], "trimmed")
			return runner.Result{ExitCode: 0}, nil
		},
	}

	e := newTestEditor(fake)
	if err := e.Trim(context.Background(), in, out, 1, 5); err != nil {
		t.Fatalf("Trim() error = %v", err)
	}

	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "-ss 1 -to 5") {
		t.Fatalf("trim window missing: %v", gotArgs)
	}
	if gotArgs[len(gotArgs)-1] != out {
		t.Fatalf("output arg = %q, want %q", gotArgs[len(gotArgs)-1], out)
	}
}

// TestTrimMissingOutputFails checks the post-condition on the output file.
func TestTrimMissingOutputFails(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in.mp4")
	mustWriteFile(t, in, "video")

	fake := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (runner.Result, error) {
			return runner.Result{ExitCode: 0}, nil
		},
	}

	e := newTestEditor(fake)
	err := e.Trim(context.Background(), in, filepath.Join(root, "out.mp4"), 0, 2)
	var opError *OpError
	if !errors.As(err, &opError) {
		t.Fatalf("error = %v, want OpError", err)
	}
	if !strings.Contains(opError.Message, "output file is missing") {
		t.Fatalf("message = %q", opError.Message)
	}
}

// TestTrimFFmpegFailureCarriesCommandLog checks error context propagation.
func TestTrimFFmpegFailureCarriesCommandLog(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in.mp4")
	mustWriteFile(t, in, "video")

	fake := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (runner.Result, error) {
			return runner.Result{Stderr: "invalid data", ExitCode: 1}, errors.New("exit status 1")
		},
	}

	e := newTestEditor(fake)
	err := e.Trim(context.Background(), in, filepath.Join(root, "out.mp4"), 0, 2)
	var opError *OpError
	if !errors.As(err, &opError) {
		t.Fatalf("error = %v, want OpError", err)
	}
	if opError.CommandLog.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", opError.CommandLog.ExitCode)
	}
	if opError.CommandLog.Stderr != "invalid data" {
		t.Fatalf("stderr = %q", opError.CommandLog.Stderr)
	}
}

// TestMergeConcatWithAudio keeps audio legs when all inputs have audio.
func TestMergeConcatWithAudio(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.mp4")
	b := filepath.Join(root, "b.mp4")
	out := filepath.Join(root, "merged.mp4")
	mustWriteFile(t, a, "a")
	mustWriteFile(t, b, "b")

	var ffmpegArgs []string
	fake := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (runner.Result, error) {
			if name == "ffprobe" {
				return runner.Result{Stdout: probeJSON(10, true)}, nil
			}
			ffmpegArgs = append([]string{}, args...)
			mustWriteFile(t, args[len(args)-1], "merged")
			return runner.Result{}, nil
		},
	}

	e := newTestEditor(fake)
	if err := e.Merge(context.Background(), []string{a, b}, out); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	joined := strings.Join(ffmpegArgs, " ")
	if !strings.Contains(joined, "concat=n=2:v=1:a=1[v][a]") {
		t.Fatalf("audio concat graph missing: %v", ffmpegArgs)
	}
	if !strings.Contains(joined, "-map [a]") {
		t.Fatalf("audio map missing: %v", ffmpegArgs)
	}
}

// TestMergeConcatWithoutAudio drops the audio leg when any input is silent.
func TestMergeConcatWithoutAudio(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.mp4")
	b := filepath.Join(root, "b.mp4")
	mustWriteFile(t, a, "a")
	mustWriteFile(t, b, "b")

	probeCall := 0
	var ffmpegArgs []string
	fake := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (runner.Result, error) {
			if name == "ffprobe" {
				probeCall++
				return runner.Result{Stdout: probeJSON(10, probeCall == 1)}, nil
			}
			ffmpegArgs = append([]string{}, args...)
			mustWriteFile(t, args[len(args)-1], "merged")
			return runner.Result{}, nil
		},
	}

	e := newTestEditor(fake)
	if err := e.Merge(context.Background(), []string{a, b}, filepath.Join(root, "m.mp4")); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	joined := strings.Join(ffmpegArgs, " ")
	if !strings.Contains(joined, "concat=n=2:v=1:a=0[v]") {
		t.Fatalf("silent concat graph missing: %v", ffmpegArgs)
	}
	if strings.Contains(joined, "-map [a]") {
		t.Fatalf("unexpected audio map: %v", ffmpegArgs)
	}
}

// TestMergeRequiresTwoInputs rejects single-input merges.
func TestMergeRequiresTwoInputs(t *testing.T) {
	e := newTestEditor(&fakeRunner{})
	if err := e.Merge(context.Background(), []string{"only.mp4"}, "out.mp4"); err == nil {
		t.Fatal("Merge() error = nil, want error")
	}
}

// TestChangeSpeedRejectsNonPositiveFactor checks factor validation.
func TestChangeSpeedRejectsNonPositiveFactor(t *testing.T) {
	e := newTestEditor(&fakeRunner{})
	for _, factor := range []float64{0, -1} {
		if err := e.ChangeSpeed(context.Background(), "in.mp4", "out.mp4", factor); err == nil {
			t.Fatalf("ChangeSpeed(%g) error = nil, want error", factor)
		}
	}
}

// TestFadeOutRejectsFadeLongerThanClip uses probed duration for validation.
func TestFadeOutRejectsFadeLongerThanClip(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in.mp4")
	mustWriteFile(t, in, "video")

	fake := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (runner.Result, error) {
			return runner.Result{Stdout: probeJSON(5, true)}, nil
		},
	}

	e := newTestEditor(fake)
	err := e.FadeOut(context.Background(), in, filepath.Join(root, "out.mp4"), 6)
	if err == nil || !strings.Contains(err.Error(), "exceeds clip duration") {
		t.Fatalf("FadeOut() error = %v, want duration error", err)
	}
}

// TestFadeOutPositionsFadeAtClipEnd checks the computed fade start.
func TestFadeOutPositionsFadeAtClipEnd(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in.mp4")
	mustWriteFile(t, in, "video")

	var ffmpegArgs []string
	fake := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (runner.Result, error) {
			if name == "ffprobe" {
				return runner.Result{Stdout: probeJSON(10, false)}, nil
			}
			ffmpegArgs = append([]string{}, args...)
			mustWriteFile(t, args[len(args)-1], "faded")
			return runner.Result{}, nil
		},
	}

	e := newTestEditor(fake)
	if err := e.FadeOut(context.Background(), in, filepath.Join(root, "out.mp4"), 2); err != nil {
		t.Fatalf("FadeOut() error = %v", err)
	}

	joined := strings.Join(ffmpegArgs, " ")
	if !strings.Contains(joined, "fade=t=out:st=8:d=2") {
		t.Fatalf("fade position wrong: %v", ffmpegArgs)
	}
	if strings.Contains(joined, "afade") {
		t.Fatalf("unexpected audio fade for silent clip: %v", ffmpegArgs)
	}
}

// TestSplitValidatesTimes rejects unsorted and out-of-range split points.
func TestSplitValidatesTimes(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in.mp4")
	mustWriteFile(t, in, "video")

	fake := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (runner.Result, error) {
			return runner.Result{Stdout: probeJSON(10, false)}, nil
		},
	}
	e := newTestEditor(fake)
	outPath := func(i int) string { return filepath.Join(root, fmt.Sprintf("part%d.mp4", i)) }

	tests := []struct {
		name  string
		times []float64
	}{
		{"empty", nil},
		{"unsorted", []float64{7, 3}},
		{"zero", []float64{0, 5}},
		{"beyond end", []float64{5, 12}},
		{"duplicate", []float64{3, 3}},
	}
	for _, tc := range tests {
		if _, err := e.Split(context.Background(), in, tc.times, outPath); err == nil {
			t.Fatalf("%s: Split() error = nil, want error", tc.name)
		}
	}
}

// TestSplitRendersAllSegments checks segment count and ordering.
func TestSplitRendersAllSegments(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in.mp4")
	mustWriteFile(t, in, "video")

	fake := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (runner.Result, error) {
			if name == "ffprobe" {
				return runner.Result{Stdout: probeJSON(10, false)}, nil
			}
			mustWriteFile(t, args[len(args)-1], "segment")
			return runner.Result{}, nil
		},
	}

	e := newTestEditor(fake)
	paths, err := e.Split(context.Background(), in, []float64{3, 7}, func(i int) string {
		return filepath.Join(root, fmt.Sprintf("part%d.mp4", i+1))
	})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	if len(paths) != 3 {
		t.Fatalf("segments = %d, want 3", len(paths))
	}
	for i, p := range paths {
		want := filepath.Join(root, fmt.Sprintf("part%d.mp4", i+1))
		if p != want {
			t.Fatalf("paths[%d] = %q, want %q", i, p, want)
		}
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("segment missing: %v", err)
		}
	}
	// 1 probe + 3 segment renders.
	if fake.callCount() != 4 {
		t.Fatalf("command calls = %d, want 4", fake.callCount())
	}
}

// TestImagesToVideoRequiresDirectory rejects plain files.
func TestImagesToVideoRequiresDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "frame.png")
	mustWriteFile(t, file, "png")

	e := newTestEditor(&fakeRunner{})
	if err := e.ImagesToVideo(context.Background(), file, filepath.Join(root, "out.mp4"), 24); err == nil {
		t.Fatal("ImagesToVideo() error = nil, want error")
	}
}

// TestExtractFramesCreatesDirAndPattern checks the frame output pattern.
func TestExtractFramesCreatesDirAndPattern(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in.mp4")
	outDir := filepath.Join(root, "frames")
	mustWriteFile(t, in, "video")

	var gotArgs []string
	fake := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (runner.Result, error) {
			gotArgs = append([]string{}, args...)
			return runner.Result{}, nil
		},
	}

	e := newTestEditor(fake)
	dir, err := e.ExtractFrames(context.Background(), in, outDir, 0, 5, 2)
	if err != nil {
		t.Fatalf("ExtractFrames() error = %v", err)
	}
	if dir != outDir {
		t.Fatalf("dir = %q, want %q", dir, outDir)
	}
	if _, err := os.Stat(outDir); err != nil {
		t.Fatalf("output dir missing: %v", err)
	}

	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "fps=2") {
		t.Fatalf("fps filter missing: %v", gotArgs)
	}
	if !strings.Contains(joined, filepath.Join(outDir, "frame_%04d.png")) {
		t.Fatalf("frame pattern missing: %v", gotArgs)
	}
}

// TestCancelledContextSurfacesContextError maps cancellation cleanly.
func TestCancelledContextSurfacesContextError(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in.mp4")
	mustWriteFile(t, in, "video")

	fake := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (runner.Result, error) {
			return runner.Result{ExitCode: -1}, context.Canceled
		},
	}

	e := newTestEditor(fake)
	err := e.Trim(context.Background(), in, filepath.Join(root, "out.mp4"), 0, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled in chain", err)
	}
}
