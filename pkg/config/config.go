// Package config centralizes Cora's environment and file-based settings,
// the way src/config.py did for the original service.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults (spec §4, §6).
const (
	DefaultChunkSize       = 1000
	DefaultChunkOverlap    = 150
	DefaultBatchSize       = 64
	DefaultK               = 3
	DefaultThreshold       = 0.3
	DefaultMaxTurns        = 20
	DefaultSessionTTL      = 30 * time.Minute
	DefaultTranslatorWait  = 5 * time.Second
	DefaultRetrievalWait   = 2 * time.Second
	DefaultLLMIdleWait     = 30 * time.Second
	DefaultQAWallClock     = 60 * time.Second
	DefaultCollectionName  = "rayied_knowledge_base"
	DefaultPort            = 8001
)

// FileDefaults holds the non-secret structural knobs that may be overridden
// by an optional YAML file (chunk sizing, batch size, retrieval
// parameters). Everything else — endpoints, credentials, TTLs — is
// environment-only, per spec §6.
type FileDefaults struct {
	ChunkSize    int     `yaml:"chunk_size"`
	ChunkOverlap int     `yaml:"chunk_overlap"`
	BatchSize    int     `yaml:"batch_size"`
	K            int     `yaml:"k"`
	Threshold    float64 `yaml:"threshold"`
}

// Config is Cora's fully resolved runtime configuration.
type Config struct {
	OllamaHost      string
	TranslatorURL   string
	ModelName       string
	ChromaPath      string
	CollectionName  string
	SessionTTL      time.Duration
	MaxTurns        int
	Port            int
	ChunkSize       int
	ChunkOverlap    int
	BatchSize       int
	K               int
	Threshold       float64
	TranslatorWait  time.Duration
	RetrievalWait   time.Duration
	LLMIdleWait     time.Duration
	QAWallClock     time.Duration
	QdrantHost      string
	QdrantPort      int
}

// Load reads a .env file (if present, via godotenv — a no-op when absent),
// an optional YAML defaults file, and then environment variables, in that
// increasing order of precedence.
func Load(yamlPath string) (*Config, error) {
	_ = godotenv.Load()

	fd := FileDefaults{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		BatchSize:    DefaultBatchSize,
		K:            DefaultK,
		Threshold:    DefaultThreshold,
	}
	if yamlPath != "" {
		if data, err := os.ReadFile(yamlPath); err == nil {
			if err := yaml.Unmarshal(data, &fd); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		OllamaHost:     envOr("OLLAMA_HOST", "http://localhost:11434"),
		TranslatorURL:  envOr("TRANSLATOR_API_URL", "http://localhost:8000"),
		ModelName:      envOr("MODEL_NAME", "qwen2.5:7b"),
		ChromaPath:     envOr("CHROMA_PATH", "./chroma_db"),
		CollectionName: DefaultCollectionName,
		SessionTTL:     envDuration("SESSION_TTL_SECONDS", DefaultSessionTTL),
		MaxTurns:       envInt("MAX_TURNS", DefaultMaxTurns),
		Port:           envInt("PORT", DefaultPort),
		ChunkSize:      fd.ChunkSize,
		ChunkOverlap:   fd.ChunkOverlap,
		BatchSize:      fd.BatchSize,
		K:              fd.K,
		Threshold:      fd.Threshold,
		TranslatorWait: DefaultTranslatorWait,
		RetrievalWait:  DefaultRetrievalWait,
		LLMIdleWait:    DefaultLLMIdleWait,
		QAWallClock:    DefaultQAWallClock,
		QdrantHost:     envOr("QDRANT_HOST", "localhost"),
		QdrantPort:     envInt("QDRANT_PORT", 6334),
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
