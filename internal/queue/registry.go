package queue

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// Registry is the in-memory store of transcription jobs. All reads and
// writes go through its single mutex; records are copied in and out so no
// caller ever holds a pointer into the map. State is process-scoped and is
// lost on restart.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*types.Job
	now  func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*types.Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a queued job and returns its fresh id.
func (r *Registry) Create(sessionID string, engine, resolved types.EngineID) string {
	id := uuid.New().String()
	if resolved == "" {
		resolved = engine
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.jobs[id] = &types.Job{
		ID:             id,
		SessionID:      sessionID,
		Engine:         engine,
		ResolvedEngine: resolved,
		Status:         types.StatusQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return id
}

// Get returns a copy of the job, or false if the id is unknown.
func (r *Registry) Get(id string) (types.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return types.Job{}, false
	}
	return *job, true
}

// List returns a point-in-time copy of all jobs, oldest first.
func (r *Registry) List() []types.Job {
	r.mu.Lock()
	out := make([]types.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SetStatus moves a job forward and refreshes UpdatedAt. It returns false if
// the id is unknown or the transition is not a forward step.
func (r *Registry) SetStatus(id string, status types.JobStatus) bool {
	return r.update(id, status, "")
}

// Fail marks a job failed and records why, in one update.
func (r *Registry) Fail(id, reason string) bool {
	return r.update(id, types.StatusFailed, reason)
}

func (r *Registry) update(id string, status types.JobStatus, reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || !isValidTransition(job.Status, status) {
		return false
	}

	job.Status = status
	if reason != "" {
		job.Error = reason
	}
	job.UpdatedAt = r.now()
	return true
}

// isValidTransition enforces queued -> processing -> {completed|failed}.
func isValidTransition(from, to types.JobStatus) bool {
	switch from {
	case types.StatusQueued:
		return to == types.StatusProcessing
	case types.StatusProcessing:
		return to == types.StatusCompleted || to == types.StatusFailed
	default:
		return false
	}
}
