package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/reanchor/internal/selector"
)

// JobStatus represents the state of a batch anchoring job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusResolving JobStatus = "resolving"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
)

// AnchorResult is the outcome of resolving one Location in a batch.
type AnchorResult struct {
	LocationID string `json:"location_id"`
	Method     string `json:"method,omitempty"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Text       string `json:"text,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Progress tracks batch processing progress.
type Progress struct {
	Total    int `json:"total"`
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
}

// Job tracks the state of one batch anchoring request. Serialize via
// Snapshot, never the Job itself.
type Job struct {
	mu sync.Mutex

	ID    string
	DocID string

	Status   JobStatus
	Progress Progress
	Results  []AnchorResult

	CreatedAt time.Time
	UpdatedAt time.Time

	locations []selector.Location
}

// NewJob creates a queued job for a batch of locations.
func NewJob(id, docID string, locations []selector.Location) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		DocID:     docID,
		Status:    StatusQueued,
		Progress:  Progress{Total: len(locations)},
		CreatedAt: now,
		UpdatedAt: now,
		locations: locations,
	}
}

// SetStatus updates the job state.
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

// AddResult appends one location outcome and bumps the progress counters.
func (j *Job) AddResult(res AnchorResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Results = append(j.Results, res)
	if res.Error == "" {
		j.Progress.Resolved++
	} else {
		j.Progress.Failed++
	}
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus      `json:"status"`
	Progress Progress       `json:"progress"`
	Results  []AnchorResult `json:"results,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state, detached from the
// mutex so workers can keep writing while it is encoded.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Status:    j.Status,
		Progress:  j.Progress,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	snap.Results = append(snap.Results, j.Results...)
	return snap
}

// Locations returns the batch contents.
func (j *Job) Locations() []selector.Location {
	return j.locations
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup drops jobs that have not been updated within the TTL.
func (s *JobStore) Cleanup() {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		job.mu.Lock()
		stale := job.UpdatedAt.Before(cutoff)
		job.mu.Unlock()
		if stale {
			delete(s.jobs, id)
		}
	}
}
