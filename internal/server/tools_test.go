package server

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-editor-mcp/internal/domain"
	"video-editor-mcp/internal/download"
	"video-editor-mcp/internal/ffmpeg"
	"video-editor-mcp/internal/history"
)

// listPayload decodes a successful JSON-array tool result.
func listPayload(t *testing.T, res *mcplib.CallToolResult) []any {
	t.Helper()
	require.NotNil(t, res)
	require.False(t, res.IsError, "result = %+v", res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcplib.TextContent)
	require.True(t, ok, "content = %T", res.Content[0])
	var l []any
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &l))
	return l
}

// ─── Editing tools ────────────────────────────────────────────────────────────

func TestTrimVideoKeepsResultAsClip(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	res, err := ts.srv.handleTrimVideo(ctx, toolReq(map[string]any{
		"video":      "/media/talk.mp4",
		"start_time": 1.5,
		"end_time":   10.0,
	}))
	require.NoError(t, err)

	got := payload(t, res)
	assert.Equal(t, true, got["success"])
	assert.NotEmpty(t, got["job_id"])
	assert.Contains(t, got["clip"], "clip://")
	assert.NotContains(t, got, "output_path")

	assert.Equal(t, []string{"trim"}, ts.editor.calls)
	assert.Equal(t, "/media/talk.mp4", ts.editor.lastIn)
	assert.True(t, strings.HasPrefix(ts.editor.lastOut, ts.registry.Dir()),
		"out = %q, want inside clip dir", ts.editor.lastOut)

	// The clip reference resolves back to the rendered file.
	resolved, rerr := ts.registry.Resolve(got["clip"].(string))
	require.NoError(t, rerr)
	assert.Equal(t, ts.editor.lastOut, resolved)
}

func TestTrimVideoNamedOutputLandsInOutputDir(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleTrimVideo(context.Background(), toolReq(map[string]any{
		"video":       "/media/talk.mkv",
		"start_time":  0.0,
		"end_time":    5.0,
		"output_name": "../evil/final",
	}))
	require.NoError(t, err)

	got := payload(t, res)
	// Directory components are stripped, the input extension is inherited.
	want := filepath.Join(ts.srv.settings.OutputDir, "final.mkv")
	assert.Equal(t, want, got["output_path"])
	assert.NotContains(t, got, "clip")
	assert.Empty(t, ts.registry.List())
}

func TestTrimVideoRequiresTimes(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleTrimVideo(context.Background(), toolReq(map[string]any{
		"video": "/media/talk.mp4",
	}))
	require.NoError(t, err)
	assert.Contains(t, errText(t, res), "start_time")
	assert.Empty(t, ts.editor.calls)
}

func TestEditFailureReleasesClipAndRecordsFailure(t *testing.T) {
	ts := newTestServer(t)
	opErr := &ffmpeg.OpError{Op: "trim", Message: "ffmpeg failed"}
	opErr.CommandLog.ExitCode = 1
	ts.editor.err = opErr

	res, err := ts.srv.handleTrimVideo(context.Background(), toolReq(map[string]any{
		"video":      "/media/talk.mp4",
		"start_time": 0.0,
		"end_time":   5.0,
	}))
	require.NoError(t, err)
	assert.Contains(t, errText(t, res), "ffmpeg failed")

	// The reserved clip is released on failure.
	assert.Empty(t, ts.registry.List())

	require.Len(t, ts.history.entries, 1)
	entry := ts.history.entries[0]
	assert.Equal(t, "trim_video", entry.Tool)
	assert.Equal(t, string(domain.JobStatusFailed), entry.Status)
	assert.Equal(t, 1, entry.ExitCode)
	assert.Empty(t, entry.Output)

	jobs := ts.srv.jobs.List()
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.JobStatusFailed, jobs[0].Status)
}

func TestMergeVideosRequiresTwoInputs(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleMergeVideos(context.Background(), toolReq(map[string]any{
		"videos": []any{"/media/one.mp4"},
	}))
	require.NoError(t, err)
	assert.Contains(t, errText(t, res), "at least two")
	assert.Empty(t, ts.editor.calls)
}

func TestMergeVideosRunsEditor(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleMergeVideos(context.Background(), toolReq(map[string]any{
		"videos":      []any{"/media/one.mp4", "/media/two.mp4"},
		"output_name": "merged.mp4",
	}))
	require.NoError(t, err)

	got := payload(t, res)
	assert.Equal(t, "Merged 2 videos", got["message"])
	assert.Equal(t, []string{"merge"}, ts.editor.calls)
}

func TestSplitVideoToManagedClips(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleSplitVideo(context.Background(), toolReq(map[string]any{
		"video":       "/media/talk.mp4",
		"split_times": []any{2.0, 4.0},
	}))
	require.NoError(t, err)

	got := payload(t, res)
	clips, ok := got["clips"].([]any)
	require.True(t, ok, "clips = %T", got["clips"])
	assert.Len(t, clips, 3)
	assert.Equal(t, "Video split into 3 parts", got["message"])
	assert.Len(t, ts.registry.List(), 3)
}

func TestSplitVideoNamedPartsNumbered(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleSplitVideo(context.Background(), toolReq(map[string]any{
		"video":       "/media/talk.mp4",
		"split_times": []any{3.0},
		"output_name": "scene.mkv",
	}))
	require.NoError(t, err)

	got := payload(t, res)
	paths, ok := got["output_paths"].([]any)
	require.True(t, ok, "output_paths = %T", got["output_paths"])
	require.Len(t, paths, 2)
	dir := ts.srv.settings.OutputDir
	assert.Equal(t, filepath.Join(dir, "scene_part1.mkv"), paths[0])
	assert.Equal(t, filepath.Join(dir, "scene_part2.mkv"), paths[1])
	assert.Empty(t, ts.registry.List())
}

func TestConvertFormatPicksExtensionFromFormat(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleConvertFormat(context.Background(), toolReq(map[string]any{
		"video":  "/media/talk.mp4",
		"format": "webm",
		"codec":  "libvpx-vp9",
	}))
	require.NoError(t, err)

	got := payload(t, res)
	assert.Equal(t, "Video converted with codec libvpx-vp9", got["message"])

	resolved, rerr := ts.registry.Resolve(got["clip"].(string))
	require.NoError(t, rerr)
	assert.Equal(t, ".webm", filepath.Ext(resolved))
}

func TestExtractFramesDefaultsToManagedDir(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleExtractFrames(context.Background(), toolReq(map[string]any{
		"video":      "/media/talk.mp4",
		"start_time": 0.0,
		"end_time":   2.0,
	}))
	require.NoError(t, err)

	got := payload(t, res)
	out, _ := got["output_path"].(string)
	assert.True(t, strings.HasPrefix(out, ts.registry.Dir()), "output_path = %q", out)
	assert.Contains(t, filepath.Base(out), "frames-")
}

func TestAddTextOverlayRequiresDuration(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleAddTextOverlay(context.Background(), toolReq(map[string]any{
		"video": "/media/talk.mp4",
		"text":  "Hello",
	}))
	require.NoError(t, err)
	assert.Contains(t, errText(t, res), "duration")
	assert.Empty(t, ts.editor.calls)
}

func TestAddVideoOverlayResolvesBothInputs(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleAddVideoOverlay(context.Background(), toolReq(map[string]any{
		"video":         "/media/base.mp4",
		"overlay_video": "/media/pip.mp4",
		"duration":      5.0,
		"opacity":       0.5,
	}))
	require.NoError(t, err)

	got := payload(t, res)
	assert.Equal(t, "Video overlay added", got["message"])
	assert.Equal(t, []string{"video_overlay"}, ts.editor.calls)
	assert.Equal(t, "/media/base.mp4", ts.editor.lastIn)
}

// ─── Info tools ───────────────────────────────────────────────────────────────

func TestGetVideoInfoProbesResolvedPath(t *testing.T) {
	ts := newTestServer(t)
	ts.editor.probeInfo = domain.VideoInfo{
		Path:     "/media/talk.mp4",
		Filename: "talk.mp4",
		Duration: 12.5,
		Width:    1920,
		Height:   1080,
		HasAudio: true,
	}

	res, err := ts.srv.handleGetVideoInfo(context.Background(), toolReq(map[string]any{
		"video": "/media/talk.mp4",
	}))
	require.NoError(t, err)

	got := payload(t, res)
	assert.Equal(t, 12.5, got["duration"])
	assert.Equal(t, float64(1920), got["width"])
	assert.Equal(t, true, got["has_audio"])
	assert.Equal(t, []string{"probe"}, ts.editor.calls)
}

func TestGetVideoInfoUnknownClipFails(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleGetVideoInfo(context.Background(), toolReq(map[string]any{
		"video": "clip://no-such-clip",
	}))
	require.NoError(t, err)
	assert.Contains(t, errText(t, res), "unknown clip")
	assert.Empty(t, ts.editor.calls)
}

func TestCheckDependenciesReturnsReport(t *testing.T) {
	ts := newTestServer(t)
	ts.srv.checker = &fakeChecker{report: domain.DiagnosticReport{
		GeneratedAt: time.Now(),
		HasFailures: true,
		Items: []domain.DiagnosticItem{
			{ID: "tool_ffmpeg", Status: domain.DiagnosticStatusFail, Hint: "install ffmpeg"},
		},
	}}

	res, err := ts.srv.handleCheckDependencies(context.Background(), toolReq(nil))
	require.NoError(t, err)

	got := payload(t, res)
	assert.Equal(t, true, got["hasFailures"])
	items, ok := got["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)
}

// ─── Download tools ───────────────────────────────────────────────────────────

func TestDownloadVideoReturnsReportedPath(t *testing.T) {
	ts := newTestServer(t)
	ts.downloader.path = "/videos/talk.mp4"

	res, err := ts.srv.handleDownloadVideo(context.Background(), toolReq(map[string]any{
		"url":    "https://example.com/watch?v=1",
		"format": "bestvideo+bestaudio",
	}))
	require.NoError(t, err)

	got := payload(t, res)
	assert.Equal(t, "/videos/talk.mp4", got["output_path"])
	assert.NotEmpty(t, got["job_id"])
	assert.Equal(t, "https://example.com/watch?v=1", ts.downloader.gotURL)
	assert.Equal(t, "bestvideo+bestaudio", ts.downloader.gotFormat)

	require.Len(t, ts.history.entries, 1)
	assert.Equal(t, "download_video", ts.history.entries[0].Tool)
	assert.Equal(t, "/videos/talk.mp4", ts.history.entries[0].Output)
}

func TestDownloadAudioFailureCarriesExitCode(t *testing.T) {
	ts := newTestServer(t)
	dlErr := &download.Error{Message: "yt-dlp failed"}
	dlErr.CommandLog.ExitCode = 2
	ts.downloader.err = dlErr

	res, err := ts.srv.handleDownloadAudio(context.Background(), toolReq(map[string]any{
		"url": "https://example.com/watch?v=1",
	}))
	require.NoError(t, err)
	assert.Contains(t, errText(t, res), "yt-dlp failed")

	require.Len(t, ts.history.entries, 1)
	assert.Equal(t, 2, ts.history.entries[0].ExitCode)
	assert.Equal(t, string(domain.JobStatusFailed), ts.history.entries[0].Status)
}

func TestListFormatsNoJob(t *testing.T) {
	ts := newTestServer(t)
	ts.downloader.info = download.MediaInfo{
		ID:    "v1",
		Title: "Conference talk",
		Formats: []download.Format{
			{ID: "137", Ext: "mp4", Resolution: "1920x1080"},
		},
	}

	res, err := ts.srv.handleListFormats(context.Background(), toolReq(map[string]any{
		"url": "https://example.com/watch?v=1",
	}))
	require.NoError(t, err)

	got := payload(t, res)
	assert.Equal(t, "Conference talk", got["title"])

	// Metadata queries are cheap and not tracked as jobs.
	assert.Empty(t, ts.srv.jobs.List())
	assert.Empty(t, ts.history.entries)
}

// ─── Clip tools ───────────────────────────────────────────────────────────────

func TestListClipsAndDiscard(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	res, err := ts.srv.handleTrimVideo(ctx, toolReq(map[string]any{
		"video":      "/media/talk.mp4",
		"start_time": 0.0,
		"end_time":   5.0,
	}))
	require.NoError(t, err)
	ref := payload(t, res)["clip"].(string)

	listed := listPayload(t, mustCall(t, ts.srv.handleListClips, ctx, nil))
	require.Len(t, listed, 1)
	first, ok := listed[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ref, first["ref"])
	assert.Equal(t, "trim", first["source"])

	res, err = ts.srv.handleDiscardClip(ctx, toolReq(map[string]any{"clip": ref}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	assert.Empty(t, listPayload(t, mustCall(t, ts.srv.handleListClips, ctx, nil)))
}

func TestDiscardClipRejectsPlainPaths(t *testing.T) {
	ts := newTestServer(t)

	res, err := ts.srv.handleDiscardClip(context.Background(), toolReq(map[string]any{
		"clip": "/media/talk.mp4",
	}))
	require.NoError(t, err)
	assert.Contains(t, errText(t, res), "clip://")
}

// ─── Job tools ────────────────────────────────────────────────────────────────

// mustCall invokes a handler and fails the test on a transport-level error.
func mustCall(t *testing.T, h func(context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error), ctx context.Context, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	res, err := h(ctx, toolReq(args))
	require.NoError(t, err)
	return res
}

func TestJobToolsTrackRenders(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	res := mustCall(t, ts.srv.handleTrimVideo, ctx, map[string]any{
		"video":      "/media/talk.mp4",
		"start_time": 0.0,
		"end_time":   5.0,
	})
	jobID := payload(t, res)["job_id"].(string)

	got := payload(t, mustCall(t, ts.srv.handleGetJob, ctx, map[string]any{"job_id": jobID}))
	assert.Equal(t, jobID, got["id"])
	assert.Equal(t, string(domain.JobStatusDone), got["status"])
	assert.Equal(t, "trim_video", got["tool"])

	listed := listPayload(t, mustCall(t, ts.srv.handleListJobs, ctx, nil))
	assert.Len(t, listed, 1)

	// Each render publishes a running and a terminal status event.
	events := listPayload(t, mustCall(t, ts.srv.handleJobEvents, ctx, nil))
	require.Len(t, events, 2)
	last, ok := events[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(domain.JobStatusDone), last["status"])

	// Incremental reads skip already-seen events.
	lastSeq := last["seq"].(float64)
	assert.Empty(t, listPayload(t, mustCall(t, ts.srv.handleJobEvents, ctx, map[string]any{
		"since_seq": lastSeq,
	})))
}

func TestGetJobUnknownID(t *testing.T) {
	ts := newTestServer(t)

	res := mustCall(t, ts.srv.handleGetJob, context.Background(), map[string]any{"job_id": "nope"})
	assert.Contains(t, errText(t, res), "unknown job")
}

func TestCancelJobUnknownID(t *testing.T) {
	ts := newTestServer(t)

	res := mustCall(t, ts.srv.handleCancelJob, context.Background(), map[string]any{"job_id": "nope"})
	assert.True(t, res.IsError)
}

func TestRenderHistoryReadsLedger(t *testing.T) {
	ts := newTestServer(t)
	ts.history.entries = []history.Entry{
		{JobID: "job-1", Tool: "trim_video", Status: "done"},
		{JobID: "job-2", Tool: "merge_videos", Status: "failed", Error: "ffmpeg failed"},
	}

	listed := listPayload(t, mustCall(t, ts.srv.handleRenderHistory, context.Background(), nil))
	require.Len(t, listed, 2)
	first, ok := listed[0].(map[string]any)
	require.True(t, ok)
	// Newest first.
	assert.Equal(t, "job-2", first["jobId"])
}
