package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/bull/docqa/internal/embedding"
)

// MemoryStore is an in-process IndexStore using brute-force cosine similarity.
// Collections are built outside the lock and swapped in under it, so readers
// never observe a partially written collection. Contents are lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	embedder    embedding.TextEmbedder
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	records []Record
	vectors [][]float32
}

func NewMemoryStore(embedder embedding.TextEmbedder) *MemoryStore {
	return &MemoryStore{
		embedder:    embedder,
		collections: make(map[string]*memoryCollection),
	}
}

func (s *MemoryStore) ReplaceCollection(ctx context.Context, name string, records []Record) error {
	if len(records) == 0 {
		s.remove(name)
		return fmt.Errorf("%w: no records for collection %s", ErrIndexWrite, name)
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}
	vectors, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err == nil && len(vectors) != len(records) {
		err = fmt.Errorf("%w: got %d vectors for %d records", ErrDimensionMismatch, len(vectors), len(records))
	}
	if err != nil {
		s.remove(name)
		return fmt.Errorf("%w: %w", ErrIndexWrite, err)
	}

	coll := &memoryCollection{
		records: append([]Record(nil), records...),
		vectors: vectors,
	}

	s.mu.Lock()
	s.collections[name] = coll
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteCollection(_ context.Context, name string) error {
	s.remove(name)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, name, queryText string, k int) ([]Record, error) {
	s.mu.RLock()
	coll, ok := s.collections[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	vectors, err := s.embedder.GenerateEmbeddings(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: query embedding", ErrDimensionMismatch)
	}
	query := vectors[0]

	idxs := make([]int, len(coll.records))
	scores := make([]float32, len(coll.records))
	for i := range coll.records {
		idxs[i] = i
		scores[i] = cosine(coll.vectors[i], query)
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return scores[idxs[a]] > scores[idxs[b]]
	})

	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]Record, 0, k)
	for _, i := range idxs[:k] {
		record := coll.records[i]
		record.Score = scores[i]
		results = append(results, record)
	}
	return results, nil
}

func (s *MemoryStore) CollectionExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *MemoryStore) CountRecords(_ context.Context, name string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return uint64(len(coll.records)), nil
}

func (s *MemoryStore) Health(context.Context) error {
	return nil
}

func (s *MemoryStore) remove(name string) {
	s.mu.Lock()
	delete(s.collections, name)
	s.mu.Unlock()
}

func cosine(a, b []float32) float32 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
