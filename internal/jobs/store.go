package jobs

import "sync"

// Store holds job entries. Implementations must be safe for concurrent use.
type Store interface {
	Get(id string) (Job, bool)
	Put(job Job)
}

// MemoryStore is a process-local Store; its contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (s *MemoryStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

func (s *MemoryStore) Put(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}
