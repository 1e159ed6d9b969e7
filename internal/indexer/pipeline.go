// Package indexer drives uploaded documents through extraction into the index store
// and records each job's progress in the job registry.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bull/docqa/internal/extract"
	"github.com/bull/docqa/internal/jobs"
	"github.com/bull/docqa/internal/metrics"
	"github.com/bull/docqa/internal/storage"
)

var (
	ErrEmptyDocument     = errors.New("empty document")
	ErrNoReadableContent = errors.New("no readable content in document")
)

// Kind classifies an ingestion failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindExtraction Kind = "extraction"
	KindIndex      Kind = "index"
)

// IngestError is returned by Ingest for every failure. The job is already
// recorded as failed when it is returned.
type IngestError struct {
	Kind  Kind
	JobID string
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s (%s): %v", e.JobID, e.Kind, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// Pipeline orchestrates ingestion from raw bytes to a queryable collection.
// It is the only writer of index collections.
type Pipeline struct {
	registry *jobs.Registry
	store    storage.IndexStore
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPipeline creates a new ingestion pipeline. m may be nil.
func NewPipeline(registry *jobs.Registry, store storage.IndexStore, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		registry: registry,
		store:    store,
		metrics:  m,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Ingest extracts passages from raw and replaces the job's collection with them.
// The job must already be registered; its entry is reset to pending under
// filename while the id is locked. Every failure of a registered job marks it
// failed and is returned as *IngestError.
func (p *Pipeline) Ingest(ctx context.Context, jobID, filename string, raw []byte) error {
	lock := p.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	if _, err := p.registry.Reset(jobID, filename); err != nil {
		return &IngestError{Kind: KindValidation, JobID: jobID, Err: err}
	}
	if _, err := p.registry.Transition(jobID, jobs.StateIndexing, ""); err != nil {
		ingestErr := &IngestError{Kind: KindValidation, JobID: jobID, Err: err}
		p.fail(ingestErr)
		return ingestErr
	}
	p.logger.Info("Starting ingestion", "job_id", jobID, "filename", filename, "size", len(raw))

	count, ingestErr := p.process(ctx, jobID, filename, raw)
	if ingestErr != nil {
		p.discard(jobID)
		p.fail(ingestErr)
		p.metrics.ObserveIngestion(string(ingestErr.Kind), 0, time.Since(start))
		return ingestErr
	}

	if _, err := p.registry.Transition(jobID, jobs.StateReady, ""); err != nil {
		return &IngestError{Kind: KindIndex, JobID: jobID, Err: err}
	}
	p.metrics.ObserveIngestion(string(jobs.StateReady), count, time.Since(start))
	p.logger.Info("Ingestion complete", "job_id", jobID, "passages", count, "duration", time.Since(start))
	return nil
}

// process runs validation, extraction and the collection swap.
// Returns the number of passages indexed.
func (p *Pipeline) process(ctx context.Context, jobID, filename string, raw []byte) (int, *IngestError) {
	if len(raw) == 0 {
		return 0, &IngestError{Kind: KindValidation, JobID: jobID, Err: ErrEmptyDocument}
	}

	extractor, err := extract.ForFile(filename)
	if err != nil {
		return 0, &IngestError{Kind: KindValidation, JobID: jobID, Err: err}
	}

	pages, err := extractor.Extract(ctx, raw)
	if err != nil {
		return 0, &IngestError{Kind: KindExtraction, JobID: jobID, Err: fmt.Errorf("extract: %w", err)}
	}

	passages := extract.Passages(pages)
	p.logger.Debug("Extracted passages", "job_id", jobID, "pages", len(pages), "passages", len(passages))
	if len(passages) == 0 {
		return 0, &IngestError{Kind: KindExtraction, JobID: jobID, Err: ErrNoReadableContent}
	}

	records := make([]storage.Record, len(passages))
	for i, passage := range passages {
		records[i] = storage.Record{
			ID:         passage.ID,
			Text:       passage.Content,
			PageNumber: passage.PageNumber,
		}
	}

	if err := p.store.ReplaceCollection(ctx, jobID, records); err != nil {
		return 0, &IngestError{Kind: KindIndex, JobID: jobID, Err: err}
	}
	return len(records), nil
}

// discard removes any collection left for the id, including one from an
// earlier successful ingestion.
func (p *Pipeline) discard(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.store.DeleteCollection(ctx, jobID); err != nil {
		p.logger.Warn("Failed to remove stale collection", "job_id", jobID, "error", err)
	}
}

func (p *Pipeline) fail(ingestErr *IngestError) {
	p.logger.Warn("Ingestion failed", "job_id", ingestErr.JobID, "kind", ingestErr.Kind, "error", ingestErr.Err)
	if _, err := p.registry.Transition(ingestErr.JobID, jobs.StateFailed, ingestErr.Err.Error()); err != nil {
		p.logger.Error("Failed to record job failure", "job_id", ingestErr.JobID, "error", err)
	}
}

func (p *Pipeline) lockFor(jobID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[jobID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[jobID] = lock
	}
	return lock
}
