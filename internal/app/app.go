// Package app builds the service component graph from configuration.
package app

import (
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/config"
	"github.com/bull/docqa/internal/embedding"
	"github.com/bull/docqa/internal/indexer"
	"github.com/bull/docqa/internal/jobs"
	"github.com/bull/docqa/internal/llm"
	"github.com/bull/docqa/internal/metrics"
	"github.com/bull/docqa/internal/qa"
	"github.com/bull/docqa/internal/retriever"
	"github.com/bull/docqa/internal/storage"
)

// App holds the wired components shared by the server and the CLI.
type App struct {
	Config   config.Config
	Metrics  *metrics.Metrics
	Store    storage.IndexStore
	Registry *jobs.Registry
	Service  *qa.Service

	closers []func() error
}

// New wires every component for cfg. The Qdrant backend is health-checked
// with retry before New returns.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{
		Config:  cfg,
		Metrics: metrics.New(),
	}

	// The OpenAI client is optional: without a key answers report the
	// missing credential instead of failing at startup.
	var (
		client *embedding.Client
		oc     *openai.Client
	)
	if cfg.OpenAIAPIKey != "" {
		var err error
		client, err = embedding.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		oc = client.Client()
	}

	var embedder embedding.TextEmbedder
	switch cfg.EmbeddingBackend {
	case config.EmbeddingHash:
		embedder = embedding.NewHashEmbedder(cfg.HashDimension)
	default:
		embedder = embedding.NewEmbedder(client, cfg.EmbeddingBatchSize)
	}

	switch cfg.IndexBackend {
	case config.BackendMemory:
		a.Store = storage.NewMemoryStore(embedder)
	default:
		store, err := storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort, embedder, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)
	}

	a.Registry = jobs.NewRegistry(jobs.NewMemoryStore(), a.Store, logger)
	chat := llm.NewClient(oc, cfg.ChatModel, a.Metrics, logger)
	synthesizer := answer.NewSynthesizer(
		chat,
		answer.ParseLanguage(cfg.ResponseLanguage),
		a.Metrics,
		logger,
	)

	a.Service = qa.NewService(
		a.Registry,
		indexer.NewPipeline(a.Registry, a.Store, a.Metrics, logger),
		retriever.NewRetriever(a.Store, a.Metrics, logger),
		synthesizer,
		a.Store,
		logger,
	)

	logger.Info("Components ready",
		"index_backend", cfg.IndexBackend,
		"embedding_backend", cfg.EmbeddingBackend,
		"chat_model", chat.Model(),
		"language", synthesizer.Language(),
	)
	return a, nil
}

// Close releases backend connections.
func (a *App) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
