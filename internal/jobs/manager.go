package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"video-editor-mcp/internal/domain"
)

// ErrUnknownJob is returned when a job ID does not resolve.
var ErrUnknownJob = errors.New("unknown job")

// ErrJobNotRunning is returned when cancel is requested for a finished job.
var ErrJobNotRunning = errors.New("job is not running")

type tracked struct {
	job    domain.Job
	cancel context.CancelFunc
}

// Manager tracks render jobs and their lifecycle transitions. Terminal
// jobs are retained (bounded) so clients can inspect recent outcomes.
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*tracked
	order   []string
	maxJobs int
	now     func() time.Time
}

// NewManager creates a manager retaining up to maxJobs entries.
func NewManager(maxJobs int) *Manager {
	if maxJobs <= 0 {
		maxJobs = 200
	}
	return &Manager{
		jobs:    make(map[string]*tracked),
		maxJobs: maxJobs,
		now:     time.Now,
	}
}

// Begin registers a new running job and returns it. cancel aborts the
// job's external process when invoked via Cancel.
func (m *Manager) Begin(tool, input string, cancel context.CancelFunc) domain.Job {
	job := domain.Job{
		ID:        "job-" + uuid.NewString(),
		Tool:      tool,
		Input:     input,
		Status:    domain.JobStatusRunning,
		StartedAt: m.now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = &tracked{job: job, cancel: cancel}
	m.order = append(m.order, job.ID)
	m.trimLocked()
	return job
}

// Finish moves a job to a terminal state with its outcome.
func (m *Manager) Finish(id string, status domain.JobStatus, outputPath, errMsg string) error {
	if !isTerminal(status) {
		return fmt.Errorf("invalid terminal status: %s", status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	if isTerminal(t.job.Status) {
		// Cancel may have already marked the job; keep the first outcome.
		return nil
	}

	t.job.Status = status
	t.job.OutputPath = outputPath
	t.job.Error = errMsg
	t.job.FinishedAt = m.now().UTC()
	t.cancel = nil
	return nil
}

// Cancel aborts a running job's external process and marks it cancelled.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	t, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	if isTerminal(t.job.Status) || t.cancel == nil {
		m.mu.Unlock()
		return ErrJobNotRunning
	}
	cancel := t.cancel
	t.job.Status = domain.JobStatusCancelled
	t.job.FinishedAt = m.now().UTC()
	t.cancel = nil
	m.mu.Unlock()

	cancel()
	return nil
}

// Get returns a snapshot of one job.
func (m *Manager) Get(id string) (domain.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return t.job, true
}

// List returns snapshots of all retained jobs, newest first.
func (m *Manager) List() []domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Job, 0, len(m.order))
	for _, id := range m.order {
		if t, ok := m.jobs[id]; ok {
			out = append(out, t.job)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// trimLocked evicts the oldest terminal jobs beyond the retention cap.
func (m *Manager) trimLocked() {
	if len(m.order) <= m.maxJobs {
		return
	}

	kept := m.order[:0]
	excess := len(m.order) - m.maxJobs
	for _, id := range m.order {
		t := m.jobs[id]
		if excess > 0 && t != nil && isTerminal(t.job.Status) {
			delete(m.jobs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}

// isTerminal reports whether a status ends the job lifecycle.
func isTerminal(status domain.JobStatus) bool {
	switch status {
	case domain.JobStatusDone, domain.JobStatusFailed, domain.JobStatusCancelled:
		return true
	default:
		return false
	}
}
