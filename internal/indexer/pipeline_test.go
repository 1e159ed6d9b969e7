package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docqa/internal/embedding"
	"github.com/bull/docqa/internal/extract"
	"github.com/bull/docqa/internal/jobs"
	"github.com/bull/docqa/internal/metrics"
	"github.com/bull/docqa/internal/storage"
)

// brokenStore fails every collection write.
type brokenStore struct {
	*storage.MemoryStore
}

func (b *brokenStore) ReplaceCollection(ctx context.Context, name string, _ []storage.Record) error {
	_ = b.MemoryStore.DeleteCollection(ctx, name)
	return storage.ErrIndexWrite
}

// staleStore fails collection writes and leaves the previous collection in place.
type staleStore struct {
	*storage.MemoryStore
}

func (s *staleStore) ReplaceCollection(context.Context, string, []storage.Record) error {
	return storage.ErrIndexWrite
}

func newTestPipeline(t *testing.T, store storage.IndexStore) (*Pipeline, *jobs.Registry) {
	t.Helper()
	registry := jobs.NewRegistry(jobs.NewMemoryStore(), store, nil)
	return NewPipeline(registry, store, metrics.New(), nil), registry
}

func TestIngest_TwoPagesOneEmpty(t *testing.T) {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	pipeline, registry := newTestPipeline(t, store)
	registry.Create("job-1", "doc.txt")

	err := pipeline.Ingest(context.Background(), "job-1", "doc.txt", []byte("Hello world\f   \n"))
	require.NoError(t, err)

	job, ok := registry.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, jobs.StateReady, job.State)
	assert.Empty(t, job.Error)

	count, err := store.CountRecords(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	results, err := store.Query(context.Background(), "job-1", "hello", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Hello world", results[0].Text)
	assert.Equal(t, 0, results[0].PageNumber)
}

func TestIngest_EmptyDocument(t *testing.T) {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	pipeline, registry := newTestPipeline(t, store)
	registry.Create("job-1", "doc.pdf")

	err := pipeline.Ingest(context.Background(), "job-1", "doc.pdf", nil)

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, KindValidation, ingestErr.Kind)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	job, _ := registry.Get("job-1")
	assert.Equal(t, jobs.StateFailed, job.State)
	assert.Contains(t, job.Error, "empty document")
}

func TestIngest_NoReadableContent(t *testing.T) {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	pipeline, registry := newTestPipeline(t, store)
	registry.Create("job-1", "blank.txt")

	err := pipeline.Ingest(context.Background(), "job-1", "blank.txt", []byte(" \f\n\t\f  "))

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, KindExtraction, ingestErr.Kind)
	assert.ErrorIs(t, err, ErrNoReadableContent)

	exists, err := store.CollectionExists(context.Background(), "job-1")
	require.NoError(t, err)
	assert.False(t, exists)

	job, _ := registry.Get("job-1")
	assert.Equal(t, jobs.StateFailed, job.State)
}

func TestIngest_UnreadableDocument(t *testing.T) {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	pipeline, registry := newTestPipeline(t, store)
	registry.Create("job-1", "broken.pdf")

	err := pipeline.Ingest(context.Background(), "job-1", "broken.pdf", []byte("not a pdf at all"))

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, KindExtraction, ingestErr.Kind)
	assert.ErrorIs(t, err, extract.ErrUnreadableDocument)
}

func TestIngest_UnsupportedType(t *testing.T) {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	pipeline, registry := newTestPipeline(t, store)
	registry.Create("job-1", "sheet.xlsx")

	err := pipeline.Ingest(context.Background(), "job-1", "sheet.xlsx", []byte("data"))

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, KindValidation, ingestErr.Kind)
	assert.ErrorIs(t, err, extract.ErrUnsupportedType)
}

func TestIngest_IndexWriteFailure(t *testing.T) {
	store := &brokenStore{storage.NewMemoryStore(embedding.NewHashEmbedder(64))}
	pipeline, registry := newTestPipeline(t, store)
	registry.Create("job-1", "doc.txt")

	err := pipeline.Ingest(context.Background(), "job-1", "doc.txt", []byte("some text"))

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, KindIndex, ingestErr.Kind)
	assert.ErrorIs(t, err, storage.ErrIndexWrite)

	job, _ := registry.Get("job-1")
	assert.Equal(t, jobs.StateFailed, job.State)

	exists, err := store.CollectionExists(context.Background(), "job-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIngest_ReingestReplacesCollection(t *testing.T) {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	pipeline, registry := newTestPipeline(t, store)
	ctx := context.Background()

	registry.Create("job-1", "doc.txt")
	require.NoError(t, pipeline.Ingest(ctx, "job-1", "doc.txt", []byte("alpha\fbeta\fgamma")))

	registry.Create("job-1", "doc.txt")
	require.NoError(t, pipeline.Ingest(ctx, "job-1", "doc.txt", []byte("delta\fepsilon")))

	count, err := store.CountRecords(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestIngest_FailedReingestRemovesPreviousCollection(t *testing.T) {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	pipeline, registry := newTestPipeline(t, store)
	ctx := context.Background()

	registry.Create("job-1", "doc.txt")
	require.NoError(t, pipeline.Ingest(ctx, "job-1", "doc.txt", []byte("alpha")))

	registry.Create("job-1", "doc.txt")
	require.Error(t, pipeline.Ingest(ctx, "job-1", "doc.txt", []byte("   ")))

	exists, err := store.CollectionExists(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIngest_FailedIndexWriteRemovesPreviousCollection(t *testing.T) {
	mem := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	ctx := context.Background()
	require.NoError(t, mem.ReplaceCollection(ctx, "job-1", []storage.Record{
		{ID: "00000000-0000-0000-0000-000000000001", Text: "old content", PageNumber: 0},
	}))

	store := &staleStore{mem}
	pipeline, registry := newTestPipeline(t, store)
	registry.Create("job-1", "doc.txt")

	err := pipeline.Ingest(ctx, "job-1", "doc.txt", []byte("new content"))
	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, KindIndex, ingestErr.Kind)

	exists, err := store.CollectionExists(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, exists)

	job, _ := registry.Get("job-1")
	assert.Equal(t, jobs.StateFailed, job.State)
}

func TestIngest_SameIDLastUploadWins(t *testing.T) {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	pipeline, registry := newTestPipeline(t, store)
	ctx := context.Background()

	registry.Create("j", "a.txt")
	registry.Create("j", "b.txt")
	require.NoError(t, pipeline.Ingest(ctx, "j", "a.txt", []byte("alpha")))
	require.NoError(t, pipeline.Ingest(ctx, "j", "b.txt", []byte("beta")))

	job, ok := registry.Get("j")
	require.True(t, ok)
	assert.Equal(t, jobs.StateReady, job.State)
	assert.Equal(t, "b.txt", job.Filename)

	results, err := store.Query(ctx, "j", "beta", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "beta", results[0].Text)
}

func TestIngest_UnregisteredJob(t *testing.T) {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	pipeline, _ := newTestPipeline(t, store)

	err := pipeline.Ingest(context.Background(), "missing", "doc.txt", []byte("text"))
	assert.True(t, errors.Is(err, jobs.ErrJobNotFound))
}

func TestIngest_ConcurrentJobsIndependent(t *testing.T) {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	pipeline, registry := newTestPipeline(t, store)
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		registry.Create(id, id+".txt")
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, pipeline.Ingest(ctx, id, id+".txt", []byte("content of "+id)))
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		job, ok := registry.Get(id)
		require.True(t, ok)
		assert.Equal(t, jobs.StateReady, job.State, id)

		results, err := store.Query(ctx, id, "content", 3)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "content of "+id, results[0].Text)
	}
}
