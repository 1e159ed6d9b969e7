// Package jobs tracks the lifecycle of document ingestion jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is a job's position in the ingestion lifecycle.
type State string

const (
	StatePending  State = "pending"
	StateIndexing State = "indexing"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// UnknownFilename stands in for the filename of a job recovered from the index.
const UnknownFilename = "unknown_document.pdf"

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrInvalidTransition = errors.New("invalid job state transition")
)

// Job is one document's ingestion-and-query lifecycle.
type Job struct {
	ID        string    `json:"job_id"`
	Filename  string    `json:"filename"`
	State     State     `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the job has finished ingestion, successfully or not.
func (j Job) Terminal() bool {
	return j.State == StateReady || j.State == StateFailed
}

// allowed lists the legal next states for each state.
var allowed = map[State][]State{
	StatePending:  {StateIndexing},
	StateIndexing: {StateReady, StateFailed},
}

func canTransition(from, to State) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IndexProbe reports whether a persisted index collection exists for a job.
type IndexProbe interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
}

// Registry maps job ids to lifecycle state and enforces the state machine
// Pending → Indexing → Ready | Failed.
type Registry struct {
	mu     sync.Mutex
	store  Store
	index  IndexProbe
	logger *slog.Logger
	now    func() time.Time
}

// NewRegistry creates a registry over store. index may be nil, in which case
// unknown jobs are never recovered.
func NewRegistry(store Store, index IndexProbe, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:  store,
		index:  index,
		logger: logger,
		now:    time.Now,
	}
}

// Create registers a Pending job. An existing entry with the same id is replaced.
func (r *Registry) Create(id, filename string) Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	job := Job{
		ID:        id,
		Filename:  filename,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.store.Put(job)
	return job
}

// Reset returns an existing job to Pending under filename and clears its error,
// so the same id can be ingested again. The last reset wins.
func (r *Registry) Reset(id, filename string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.store.Get(id)
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if job.Terminal() {
		r.logger.Debug("Re-ingesting job", "job_id", id, "previous_state", job.State, "filename", filename)
	}

	job.Filename = filename
	job.State = StatePending
	job.Error = ""
	job.UpdatedAt = r.now()
	r.store.Put(job)
	return job, nil
}

// Transition moves a job to the given state. errMsg is recorded for StateFailed.
func (r *Registry) Transition(id string, to State, errMsg string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.store.Get(id)
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if !canTransition(job.State, to) {
		return job, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.State, to)
	}

	job.State = to
	if to == StateFailed {
		job.Error = errMsg
	}
	job.UpdatedAt = r.now()
	r.store.Put(job)
	return job, nil
}

// Get returns the in-memory entry for id without consulting the index.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Get(id)
}

// Resolve returns the job for id. An id unknown in memory but backed by a
// persisted collection is rebuilt as Ready with UnknownFilename, which covers
// registry state lost across a restart.
func (r *Registry) Resolve(ctx context.Context, id string) (Job, error) {
	if job, ok := r.Get(id); ok {
		return job, nil
	}
	if r.index == nil {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	exists, err := r.index.CollectionExists(ctx, id)
	if err != nil {
		r.logger.Warn("Index probe failed", "job_id", id, "error", err)
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if !exists {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A concurrent upload may have registered the id meanwhile.
	if job, ok := r.store.Get(id); ok {
		return job, nil
	}
	now := r.now()
	job := Job{
		ID:        id,
		Filename:  UnknownFilename,
		State:     StateReady,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.store.Put(job)
	r.logger.Info("Recovered job from index", "job_id", id)
	return job, nil
}
