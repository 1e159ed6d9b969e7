// Package qa composes ingestion, retrieval and answer synthesis into the
// operations exposed by the HTTP, MCP and CLI front ends.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/indexer"
	"github.com/bull/docqa/internal/jobs"
	"github.com/bull/docqa/internal/retriever"
	"github.com/bull/docqa/internal/storage"
)

var ErrEmptyQuestion = errors.New("question is empty")

// IndexStatus is the best-effort view of a job's collection in the index store.
type IndexStatus struct {
	Available     bool   `json:"available"`
	Exists        bool   `json:"collection_exists"`
	DocumentCount uint64 `json:"document_count"`
	Error         string `json:"error,omitempty"`
}

// StatusReport combines the in-memory job record with the index probe.
type StatusReport struct {
	JobID    string      `json:"job_id"`
	InMemory bool        `json:"in_memory"`
	Job      *jobs.Job   `json:"job,omitempty"`
	Index    IndexStatus `json:"index"`
}

type Service struct {
	registry    *jobs.Registry
	pipeline    *indexer.Pipeline
	retriever   *retriever.Retriever
	synthesizer *answer.Synthesizer
	store       storage.IndexStore
	logger      *slog.Logger
}

func NewService(
	registry *jobs.Registry,
	pipeline *indexer.Pipeline,
	retriever *retriever.Retriever,
	synthesizer *answer.Synthesizer,
	store storage.IndexStore,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:    registry,
		pipeline:    pipeline,
		retriever:   retriever,
		synthesizer: synthesizer,
		store:       store,
		logger:      logger,
	}
}

// Submit registers a new job for filename and ingests raw synchronously.
// The job id is returned even when ingestion fails, so callers can report
// the failure against it.
func (s *Service) Submit(ctx context.Context, filename string, raw []byte) (string, error) {
	jobID := uuid.New().String()
	s.registry.Create(jobID, filename)

	if err := s.pipeline.Ingest(ctx, jobID, filename, raw); err != nil {
		return jobID, err
	}
	return jobID, nil
}

// Status reports the job record and the state of its collection. A job lost
// across a restart is recovered from the index the same way Ask does.
// Index probe failures are reported in the result, not returned.
func (s *Service) Status(ctx context.Context, jobID string) StatusReport {
	report := StatusReport{JobID: jobID}
	if job, err := s.registry.Resolve(ctx, jobID); err == nil {
		report.InMemory = true
		report.Job = &job
	}

	exists, err := s.store.CollectionExists(ctx, jobID)
	if err != nil {
		report.Index.Error = err.Error()
		return report
	}
	report.Index.Available = true
	report.Index.Exists = exists
	if !exists {
		return report
	}

	count, err := s.store.CountRecords(ctx, jobID)
	if err != nil {
		report.Index.Error = err.Error()
		return report
	}
	report.Index.DocumentCount = count
	return report
}

// Ask answers question about the job's document. It fails only for an unknown
// job or an empty question; retrieval and completion problems come back as
// answer text.
func (s *Service) Ask(ctx context.Context, jobID, question string) (answer.Answer, error) {
	job, err := s.registry.Resolve(ctx, jobID)
	if err != nil {
		return answer.Answer{}, err
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return answer.Answer{}, ErrEmptyQuestion
	}

	if s.synthesizer.IsFilenameQuestion(question) {
		s.logger.Debug("Answering filename question", "job_id", jobID)
		return s.synthesizer.FilenameAnswer(job.Filename), nil
	}

	passages := s.retriever.Retrieve(ctx, jobID, question, retriever.DefaultTopK)
	s.logger.Info("Answering question", "job_id", jobID, "passages", len(passages))
	return s.synthesizer.Synthesize(ctx, question, passages, job.Filename), nil
}

// Health reports whether the index store is reachable.
func (s *Service) Health(ctx context.Context) error {
	if err := s.store.Health(ctx); err != nil {
		return fmt.Errorf("index store: %w", err)
	}
	return nil
}
