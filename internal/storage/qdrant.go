package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/bull/docqa/internal/embedding"
)

// QdrantStore keeps one Qdrant collection per job behind an alias named after the job.
//
// Writes go to a fresh physical collection ("<name>__<suffix>"). Once every point is
// stored the alias is moved in a single UpdateAliases request, which Qdrant applies
// atomically, and the previous physical collection is dropped.
type QdrantStore struct {
	client   *qdrant.Client
	embedder embedding.TextEmbedder
	logger   *slog.Logger
	host     string
	port     int
}

// NewQdrantStore creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStore(host string, port int, embedder embedding.TextEmbedder, logger *slog.Logger) (*QdrantStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &QdrantStore{
		client:   client,
		embedder: embedder,
		logger:   logger,
		host:     host,
		port:     port,
	}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return store, nil
}

// newBackoff returns the retry policy shared by health checks and writes.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithContext(b, ctx)
}

func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, newBackoff(ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// ReplaceCollection writes records into a new physical collection and swaps the alias to it.
func (s *QdrantStore) ReplaceCollection(ctx context.Context, name string, records []Record) error {
	if len(records) == 0 {
		s.dropAlias(name)
		return fmt.Errorf("%w: no records for collection %s", ErrIndexWrite, name)
	}

	physical := physicalName(name)
	if err := s.createCollection(ctx, physical); err != nil {
		s.abort(name, physical)
		return fmt.Errorf("%w: %w", ErrIndexWrite, err)
	}

	if err := s.writeRecords(ctx, physical, records); err != nil {
		s.abort(name, physical)
		return fmt.Errorf("%w: %w", ErrIndexWrite, err)
	}

	previous, err := s.aliasTarget(ctx, name)
	if err != nil {
		s.abort(name, physical)
		return fmt.Errorf("%w: %w", ErrIndexWrite, err)
	}

	actions := make([]*qdrant.AliasOperations, 0, 2)
	if previous != "" {
		actions = append(actions, qdrant.NewAliasDelete(name))
	}
	actions = append(actions, qdrant.NewAliasCreate(name, physical))
	if err := s.client.UpdateAliases(ctx, actions); err != nil {
		s.abort(name, physical)
		return fmt.Errorf("%w: swap alias: %w", ErrIndexWrite, err)
	}

	if previous != "" && previous != physical {
		s.dropPhysical(previous)
	}

	s.logger.Debug("Collection replaced", "collection", name, "physical", physical, "records", len(records))
	return nil
}

// DeleteCollection removes the alias and the physical collection behind it.
func (s *QdrantStore) DeleteCollection(ctx context.Context, name string) error {
	target, err := s.aliasTarget(ctx, name)
	if err != nil {
		return err
	}
	if target == "" {
		return nil
	}

	if err := s.client.DeleteAlias(ctx, name); err != nil {
		return fmt.Errorf("failed to delete alias %s: %w", name, err)
	}
	if err := s.client.DeleteCollection(ctx, target); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", target, err)
	}
	return nil
}

// Query embeds queryText and returns the k nearest records by cosine similarity.
func (s *QdrantStore) Query(ctx context.Context, name, queryText string, k int) ([]Record, error) {
	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	vectors, err := s.embedder.GenerateEmbeddings(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != s.embedder.Dimension() {
		return nil, fmt.Errorf("%w: query embedding", ErrDimensionMismatch)
	}

	// Query through the alias so a concurrent swap is never observed half-way.
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vectors[0]...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", name, err)
	}

	records := make([]Record, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		records = append(records, Record{
			ID:         result.Id.GetUuid(),
			Text:       payload["content"].GetStringValue(),
			PageNumber: int(payload["page_number"].GetIntegerValue()),
			Score:      result.Score,
		})
	}

	return records, nil
}

// CollectionExists reports whether an alias with the given name exists.
func (s *QdrantStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	target, err := s.aliasTarget(ctx, name)
	if err != nil {
		return false, err
	}
	return target != "", nil
}

// CountRecords returns the exact number of points behind the alias.
func (s *QdrantStore) CountRecords(ctx context.Context, name string) (uint64, error) {
	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", name, err)
	}
	return count, nil
}

// aliasTarget returns the physical collection the alias points to, or "" if none.
func (s *QdrantStore) aliasTarget(ctx context.Context, name string) (string, error) {
	aliases, err := s.client.ListAliases(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list aliases: %w", err)
	}
	for _, alias := range aliases {
		if alias.GetAliasName() == name {
			return alias.GetCollectionName(), nil
		}
	}
	return "", nil
}

// createCollection creates a physical collection sized for the embedder.
func (s *QdrantStore) createCollection(ctx context.Context, physical string) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: physical,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.embedder.Dimension()),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", physical, err)
	}

	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: physical,
		FieldName:      "page_number",
		FieldType:      qdrant.FieldType_FieldTypeInteger.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create page_number index: %w", err)
	}
	return nil
}

// writeRecords embeds every record and upserts them in batches of upsertBatchSize.
func (s *QdrantStore) writeRecords(ctx context.Context, physical string, records []Record) error {
	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}

	vectors, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("%w: got %d vectors for %d records", ErrDimensionMismatch, len(vectors), len(records))
	}
	for i, vector := range vectors {
		if len(vector) != s.embedder.Dimension() {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(vector), s.embedder.Dimension())
		}
	}

	for i := 0; i < len(records); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(records))

		points := make([]*qdrant.PointStruct, 0, end-i)
		for j := i; j < end; j++ {
			payload, err := qdrant.TryValueMap(map[string]any{
				"content":     records[j].Text,
				"page_number": records[j].PageNumber,
			})
			if err != nil {
				return fmt.Errorf("record %d payload: %w", j, err)
			}
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(records[j].ID),
				Vectors: qdrant.NewVectors(vectors[j]...),
				Payload: payload,
			})
		}

		if err := s.upsertWithRetry(ctx, physical, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// upsertWithRetry performs a waited upsert with exponential backoff retry.
func (s *QdrantStore) upsertWithRetry(ctx context.Context, physical string, points []*qdrant.PointStruct) error {
	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: physical,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		return err
	}

	return backoff.Retry(operation, newBackoff(ctx))
}

// dropPhysical deletes a physical collection on a detached context; failures are only logged.
func (s *QdrantStore) dropPhysical(physical string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.DeleteCollection(ctx, physical); err != nil {
		s.logger.Warn("Failed to drop collection", "collection", physical, "error", err)
	}
}

// abort drops the new physical collection and the alias with whatever it points
// to, so a failed replace leaves nothing queryable under name.
func (s *QdrantStore) abort(name, physical string) {
	s.dropPhysical(physical)
	s.dropAlias(name)
}

// dropAlias removes an alias and its collection.
func (s *QdrantStore) dropAlias(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.DeleteCollection(ctx, name); err != nil {
		s.logger.Warn("Failed to remove previous collection", "collection", name, "error", err)
	}
}

func physicalName(name string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return name + "__" + suffix
}
