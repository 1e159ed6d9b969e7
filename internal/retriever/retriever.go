// Package retriever finds the passages of a job's collection most relevant to a question.
package retriever

import (
	"context"
	"log/slog"

	"github.com/bull/docqa/internal/extract"
	"github.com/bull/docqa/internal/metrics"
	"github.com/bull/docqa/internal/storage"
)

// DefaultTopK is the number of passages returned when the caller does not ask for more.
const DefaultTopK = 3

type Retriever struct {
	store   storage.IndexStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRetriever(store storage.IndexStore, m *metrics.Metrics, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: store, metrics: m, logger: logger}
}

// Retrieve returns up to k passages from the job's collection in decreasing
// relevance. k <= 0 means DefaultTopK. A missing collection or a store failure
// yields an empty result, never an error.
func (r *Retriever) Retrieve(ctx context.Context, jobID, question string, k int) []extract.Passage {
	if k <= 0 {
		k = DefaultTopK
	}

	records, err := r.store.Query(ctx, jobID, question, k)
	if err != nil {
		r.logger.Warn("Retrieval failed", "job_id", jobID, "error", err)
		r.metrics.ObserveRetrieval(0)
		return []extract.Passage{}
	}

	passages := make([]extract.Passage, 0, len(records))
	for _, record := range records {
		passages = append(passages, extract.Passage{
			ID:         record.ID,
			Content:    record.Text,
			PageNumber: record.PageNumber,
		})
	}

	r.logger.Debug("Retrieved passages", "job_id", jobID, "count", len(passages))
	r.metrics.ObserveRetrieval(len(passages))
	return passages
}
