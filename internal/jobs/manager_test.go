package jobs

import (
	"errors"
	"strings"
	"testing"
	"time"

	"video-editor-mcp/internal/domain"
)

// TestBeginRegistersRunningJob checks initial state and identity.
func TestBeginRegistersRunningJob(t *testing.T) {
	m := NewManager(0)

	job := m.Begin("trim_video", "in.mp4", func() {})
	if !strings.HasPrefix(job.ID, "job-") {
		t.Fatalf("job ID = %q, want job- prefix", job.ID)
	}
	if job.Status != domain.JobStatusRunning {
		t.Fatalf("status = %q, want running", job.Status)
	}
	if job.Tool != "trim_video" || job.Input != "in.mp4" {
		t.Fatalf("job = %+v", job)
	}
	if job.StartedAt.IsZero() {
		t.Fatal("StartedAt is zero")
	}

	got, ok := m.Get(job.ID)
	if !ok {
		t.Fatal("Get() did not find the job")
	}
	if got.ID != job.ID {
		t.Fatalf("Get() ID = %q", got.ID)
	}
}

// TestFinishRecordsOutcome moves a job to a terminal state once.
func TestFinishRecordsOutcome(t *testing.T) {
	m := NewManager(0)
	job := m.Begin("resize_video", "in.mp4", nil)

	if err := m.Finish(job.ID, domain.JobStatusDone, "/out/final.mp4", ""); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, _ := m.Get(job.ID)
	if got.Status != domain.JobStatusDone {
		t.Fatalf("status = %q, want done", got.Status)
	}
	if got.OutputPath != "/out/final.mp4" {
		t.Fatalf("output = %q", got.OutputPath)
	}
	if got.FinishedAt.IsZero() {
		t.Fatal("FinishedAt is zero")
	}

	// A later outcome must not overwrite the first.
	if err := m.Finish(job.ID, domain.JobStatusFailed, "", "boom"); err != nil {
		t.Fatalf("second Finish() error = %v", err)
	}
	got, _ = m.Get(job.ID)
	if got.Status != domain.JobStatusDone || got.Error != "" {
		t.Fatalf("job after second finish = %+v", got)
	}
}

// TestFinishRejectsNonTerminalStatus guards the lifecycle.
func TestFinishRejectsNonTerminalStatus(t *testing.T) {
	m := NewManager(0)
	job := m.Begin("trim_video", "in.mp4", nil)

	if err := m.Finish(job.ID, domain.JobStatusRunning, "", ""); err == nil {
		t.Fatal("Finish(running) error = nil, want error")
	}
}

// TestFinishUnknownJobFails returns the sentinel.
func TestFinishUnknownJobFails(t *testing.T) {
	m := NewManager(0)
	if err := m.Finish("job-missing", domain.JobStatusDone, "", ""); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("Finish() error = %v, want ErrUnknownJob", err)
	}
}

// TestCancelInvokesCancelFunc aborts the external process and marks state.
func TestCancelInvokesCancelFunc(t *testing.T) {
	m := NewManager(0)

	cancelled := false
	job := m.Begin("merge_videos", "a.mp4", func() { cancelled = true })

	if err := m.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !cancelled {
		t.Fatal("cancel func was not invoked")
	}

	got, _ := m.Get(job.ID)
	if got.Status != domain.JobStatusCancelled {
		t.Fatalf("status = %q, want cancelled", got.Status)
	}

	if err := m.Cancel(job.ID); !errors.Is(err, ErrJobNotRunning) {
		t.Fatalf("second Cancel() error = %v, want ErrJobNotRunning", err)
	}
}

// TestCancelUnknownJobFails returns the sentinel.
func TestCancelUnknownJobFails(t *testing.T) {
	m := NewManager(0)
	if err := m.Cancel("job-missing"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("Cancel() error = %v, want ErrUnknownJob", err)
	}
}

// TestListNewestFirst orders snapshots by start time.
func TestListNewestFirst(t *testing.T) {
	m := NewManager(0)
	now := time.Now()
	m.now = func() time.Time { now = now.Add(time.Second); return now }

	first := m.Begin("trim_video", "a.mp4", nil)
	second := m.Begin("resize_video", "b.mp4", nil)

	jobs := m.List()
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}
	if jobs[0].ID != second.ID || jobs[1].ID != first.ID {
		t.Fatalf("order = %q, %q", jobs[0].ID, jobs[1].ID)
	}
}

// TestRetentionEvictsOldestTerminal trims finished jobs beyond the cap.
func TestRetentionEvictsOldestTerminal(t *testing.T) {
	m := NewManager(2)

	first := m.Begin("trim_video", "a.mp4", nil)
	if err := m.Finish(first.ID, domain.JobStatusDone, "", ""); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	second := m.Begin("trim_video", "b.mp4", nil)
	third := m.Begin("trim_video", "c.mp4", nil)

	if _, ok := m.Get(first.ID); ok {
		t.Fatal("oldest terminal job should have been evicted")
	}
	if _, ok := m.Get(second.ID); !ok {
		t.Fatal("running job must never be evicted")
	}
	if _, ok := m.Get(third.ID); !ok {
		t.Fatal("newest job missing")
	}
}
