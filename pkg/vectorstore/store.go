// Package vectorstore provides the storage abstraction C1 depends on:
// upsert records, query by vector similarity with metadata filtering,
// count, and reset. The concrete adapter lives in qdrant.go.
package vectorstore

import (
	"context"

	"github.com/rayied/cora/pkg/models"
)

// Embedder produces a dense embedding vector for a text. The store never
// embeds text itself — embeddings are always supplied by the caller or
// produced through this interface, which pkg/llm.Client satisfies.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Filter restricts a Query to records whose metadata matches every
// populated field, conjunctively. An empty Filter matches everything.
type Filter struct {
	Language string
	AppName  string
	Type     string
}

func (f Filter) empty() bool {
	return f.Language == "" && f.AppName == "" && f.Type == ""
}

// Store is the contract the indexer and retriever depend on.
type Store interface {
	// Upsert writes or overwrites records by RecordID, idempotently.
	Upsert(ctx context.Context, records []models.IndexedRecord) error

	// Query returns up to limit hits nearest to vector, restricted by
	// filter, ordered by ascending distance (nearest first).
	Query(ctx context.Context, vector []float32, limit int, filter Filter) ([]models.Hit, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (uint64, error)

	// Reset deletes and recreates the underlying collection, discarding
	// all stored records.
	Reset(ctx context.Context) error

	Close() error
}
