package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/embedding"
	"github.com/bull/docqa/internal/indexer"
	"github.com/bull/docqa/internal/jobs"
	"github.com/bull/docqa/internal/qa"
	"github.com/bull/docqa/internal/retriever"
	"github.com/bull/docqa/internal/storage"
)

type echoCompleter struct{}

func (echoCompleter) Complete(context.Context, string, string, float64) (string, error) {
	return "Respuesta de prueba.", nil
}

func newTestService() *qa.Service {
	store := storage.NewMemoryStore(embedding.NewHashEmbedder(64))
	registry := jobs.NewRegistry(jobs.NewMemoryStore(), store, nil)
	return qa.NewService(
		registry,
		indexer.NewPipeline(registry, store, nil, nil),
		retriever.NewRetriever(store, nil, nil),
		answer.NewSynthesizer(echoCompleter{}, answer.Spanish, nil, nil),
		store,
		nil,
	)
}

func connect(t *testing.T, cfg *Config) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer(cfg)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func call[Out any](t *testing.T, session *mcp.ClientSession, name string, args map[string]any) Out {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError, "tool %s returned an error result", name)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out Out
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestTools_IngestAskStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual.txt")
	require.NoError(t, os.WriteFile(path, []byte("The reset button is on the back.\f"), 0o600))

	session := connect(t, &Config{Service: newTestService(), AllowLocalFiles: true})

	ingested := call[IngestDocumentOutput](t, session, "ingest_document", map[string]any{"path": path})
	require.NotEmpty(t, ingested.JobID)
	assert.Equal(t, "manual.txt", ingested.Filename)
	assert.Equal(t, "ready", ingested.State)
	assert.Empty(t, ingested.Error)

	asked := call[AskDocumentOutput](t, session, "ask_document", map[string]any{
		"job_id":   ingested.JobID,
		"question": "where is the reset button",
	})
	assert.True(t, asked.Found)
	assert.Equal(t, []int{0}, asked.CitedPages)
	assert.Contains(t, asked.Answer, "Respuesta de prueba.")

	status := call[DocumentStatusOutput](t, session, "document_status", map[string]any{"job_id": ingested.JobID})
	assert.True(t, status.InMemory)
	assert.Equal(t, "ready", status.State)
	assert.True(t, status.CollectionExists)
	assert.Equal(t, uint64(1), status.DocumentCount)
}

func TestTools_AskUnknownJob(t *testing.T) {
	session := connect(t, &Config{Service: newTestService()})

	asked := call[AskDocumentOutput](t, session, "ask_document", map[string]any{
		"job_id":   "missing",
		"question": "anything",
	})
	assert.False(t, asked.Found)
	assert.NotEmpty(t, asked.Message)
}

func TestTools_IngestFailureReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.txt")
	require.NoError(t, os.WriteFile(path, []byte("   "), 0o600))

	session := connect(t, &Config{Service: newTestService(), AllowLocalFiles: true})

	ingested := call[IngestDocumentOutput](t, session, "ingest_document", map[string]any{"path": path})
	assert.NotEmpty(t, ingested.JobID)
	assert.Equal(t, "failed", ingested.State)
	assert.Contains(t, ingested.Error, "no readable content")
}

func TestTools_IngestHiddenWithoutLocalFiles(t *testing.T) {
	session := connect(t, &Config{Service: newTestService()})

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"ask_document", "document_status"}, names)
}

func TestReadLocalFile_Limit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	_, err := readLocalFile(path, 5)
	assert.Error(t, err)

	raw, err := readLocalFile(path, 10)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(raw))
}
