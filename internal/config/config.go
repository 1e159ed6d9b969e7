// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	BackendQdrant = "qdrant"
	BackendMemory = "memory"

	EmbeddingOpenAI = "openai"
	EmbeddingHash   = "hash"
)

type Config struct {
	Port       string
	ServerMode bool

	// Index store
	IndexBackend string
	QdrantHost   string
	QdrantPort   int

	// OpenAI
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ChatModel     string

	// Embeddings
	EmbeddingBackend   string
	EmbeddingBatchSize int
	HashDimension      int

	// Answers
	ResponseLanguage string

	// Upload limits
	MaxUploadBytes int64

	// Remote sources
	GitHubToken string
}

func Load() Config {
	cfg := Config{
		Port:       envOr("PORT", "8080"),
		ServerMode: envBool("SERVER_MODE", false),

		IndexBackend: strings.ToLower(envOr("INDEX_BACKEND", BackendQdrant)),
		QdrantHost:   envOr("QDRANT_HOST", "localhost"),
		QdrantPort:   envInt("QDRANT_PORT", 6334),

		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		ChatModel:     envOr("CHAT_MODEL", "gpt-3.5-turbo"),

		EmbeddingBackend:   strings.ToLower(envOr("EMBEDDING_BACKEND", EmbeddingOpenAI)),
		EmbeddingBatchSize: envInt("EMBEDDING_BATCH_SIZE", 500),
		HashDimension:      envInt("HASH_EMBEDDING_DIMENSION", 256),

		ResponseLanguage: envOr("RESPONSE_LANGUAGE", "es"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		GitHubToken: os.Getenv("GITHUB_TOKEN"),
	}

	if cfg.QdrantPort <= 0 {
		cfg.QdrantPort = 6334
	}
	if cfg.EmbeddingBatchSize <= 0 {
		cfg.EmbeddingBatchSize = 500
	}
	if cfg.HashDimension <= 0 {
		cfg.HashDimension = 256
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.IndexBackend {
	case BackendQdrant, BackendMemory:
	default:
		return fmt.Errorf("INDEX_BACKEND must be %q or %q, got %q", BackendQdrant, BackendMemory, c.IndexBackend)
	}
	switch c.EmbeddingBackend {
	case EmbeddingOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_BACKEND is %q", EmbeddingOpenAI)
		}
	case EmbeddingHash:
	default:
		return fmt.Errorf("EMBEDDING_BACKEND must be %q or %q, got %q", EmbeddingOpenAI, EmbeddingHash, c.EmbeddingBackend)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
