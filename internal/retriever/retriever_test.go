package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docqa/internal/embedding"
	"github.com/bull/docqa/internal/storage"
)

type unreachableStore struct {
	*storage.MemoryStore
}

func (unreachableStore) Query(context.Context, string, string, int) ([]storage.Record, error) {
	return nil, errors.Join(storage.ErrQdrantUnreachable, errors.New("connection refused"))
}

func seed(t *testing.T, texts ...string) *storage.MemoryStore {
	t.Helper()
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(128))
	records := make([]storage.Record, len(texts))
	for i, text := range texts {
		records[i] = storage.Record{ID: text, Text: text, PageNumber: i}
	}
	require.NoError(t, store.ReplaceCollection(context.Background(), "job", records))
	return store
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	store := seed(t, "apples are red", "bananas are yellow", "cherries are red", "grapes are green", "limes are green")
	r := NewRetriever(store, nil, nil)

	passages := r.Retrieve(context.Background(), "job", "which fruit is red", 0)
	assert.Len(t, passages, DefaultTopK)
}

func TestRetrieve_MostRelevantFirst(t *testing.T) {
	store := seed(t, "the invoice total is 42 euros", "weather was sunny", "the contract starts in march")
	r := NewRetriever(store, nil, nil)

	passages := r.Retrieve(context.Background(), "job", "invoice total euros", 3)
	require.NotEmpty(t, passages)
	assert.Equal(t, "the invoice total is 42 euros", passages[0].Content)
	assert.Equal(t, 0, passages[0].PageNumber)
}

func TestRetrieve_FewerPassagesThanK(t *testing.T) {
	store := seed(t, "only one page")
	r := NewRetriever(store, nil, nil)

	passages := r.Retrieve(context.Background(), "job", "page", 3)
	assert.Len(t, passages, 1)
}

func TestRetrieve_MissingCollection(t *testing.T) {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(128))
	r := NewRetriever(store, nil, nil)

	passages := r.Retrieve(context.Background(), "nope", "anything", 3)
	assert.NotNil(t, passages)
	assert.Empty(t, passages)
}

func TestRetrieve_StoreFailure(t *testing.T) {
	store := unreachableStore{seed(t, "text")}
	r := NewRetriever(store, nil, nil)

	passages := r.Retrieve(context.Background(), "job", "text", 3)
	assert.Empty(t, passages)
}
