package pipeline

import (
	"sync"
	"time"
	"unicode/utf8"
)

// JobStatus represents the state of a batch job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusMerging    JobStatus = "merging"
	StatusExtracting JobStatus = "extracting"
	StatusReporting  JobStatus = "reporting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job tracks one asynchronously processed batch.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"batch_id"`
	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	Files  []string  `json:"files"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	batch  Batch
	result *Outcome
	errors []string
}

// Progress tracks processing progress.
type Progress struct {
	DocumentsTotal  int      `json:"documents_total"`
	TextsCombined   int      `json:"texts_combined"`
	TotalCharacters int      `json:"total_characters"`
	Errors          []string `json:"errors"`
}

// NewJob creates a queued job for batch.
func NewJob(batch Batch) *Job {
	now := time.Now()
	files := make([]string, 0, len(batch.Documents))
	for _, d := range batch.Documents {
		files = append(files, d.Name)
	}
	return &Job{
		ID:        batch.ID,
		Status:    StatusQueued,
		Phase:     "queued",
		Files:     files,
		Progress:  Progress{DocumentsTotal: len(batch.Documents)},
		CreatedAt: now,
		UpdatedAt: now,
		batch:     batch,
	}
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// Complete stores the outcome and marks the job completed.
func (j *Job) Complete(out Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &out
	j.Progress.TextsCombined = len(out.Combined.Sources())
	j.Progress.TotalCharacters = utf8.RuneCountInString(out.Combined.Text)
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Batch returns the batch the job processes.
func (j *Job) Batch() Batch {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.batch
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string         `json:"batch_id"`
	Status   JobStatus      `json:"status"`
	Phase    string         `json:"phase"`
	Files    []string       `json:"files"`
	Progress Progress       `json:"progress"`
	Result   *OutcomeReport `json:"result,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	snap := JobSnapshot{
		ID:     j.ID,
		Status: j.Status,
		Phase:  j.Phase,
		Files:  append([]string(nil), j.Files...),
		Progress: Progress{
			DocumentsTotal:  j.Progress.DocumentsTotal,
			TextsCombined:   j.Progress.TextsCombined,
			TotalCharacters: j.Progress.TotalCharacters,
			Errors:          append([]string(nil), errs...),
		},
	}
	if j.result != nil {
		r := j.result.Response()
		snap.Result = &r
	}
	return snap
}
