// Package retriever translates a natural-language query into ranked,
// filtered, score-normalized document hits (spec §4.3), grounded on
// original_source/src/rag/retriever.py's retrieve/format_context/
// get_article_recommendations algorithm shape.
package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rayied/cora/pkg/models"
	"github.com/rayied/cora/pkg/vectorstore"
)

// Retriever wraps a vectorstore.Store and an Embedder to answer
// similarity queries.
type Retriever struct {
	store    vectorstore.Store
	embedder vectorstore.Embedder
}

func New(store vectorstore.Store, embedder vectorstore.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve implements spec §4.3 steps 1-5: embed the query, request
// k_raw = max(k, 3) hits, drop those below threshold, then return up to
// k ordered by descending similarity with record_id ascending as a
// stable tiebreak.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, filter vectorstore.Filter, threshold float64) ([]models.Hit, error) {
	if k <= 0 {
		k = 3
	}
	kRaw := k
	if kRaw < 3 {
		kRaw = 3
	}

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := r.store.Query(ctx, vector, kRaw, filter)
	if err != nil {
		return nil, err
	}

	filtered := hits[:0]
	for _, h := range hits {
		if float64(h.Similarity) >= threshold {
			filtered = append(filtered, h)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Similarity != filtered[j].Similarity {
			return filtered[i].Similarity > filtered[j].Similarity
		}
		return filtered[i].RecordID < filtered[j].RecordID
	})

	if len(filtered) > k {
		filtered = filtered[:k]
	}
	return filtered, nil
}

// RetrieveAndFormat retrieves and renders a context block in one step,
// directly generalizing retriever.py's retrieve_and_format.
func (r *Retriever) RetrieveAndFormat(ctx context.Context, query string, k int, filter vectorstore.Filter, threshold float64) (string, []models.Hit, error) {
	hits, err := r.Retrieve(ctx, query, k, filter, threshold)
	if err != nil {
		return "", nil, err
	}
	return FormatContext(hits), hits, nil
}

// FormatContext renders hits as "[Source N] [type=...] [article_id=...]
// [similarity=s.ss]\n<text>" blocks separated by blank lines (spec §4.3).
func FormatContext(hits []models.Hit) string {
	if len(hits) == 0 {
		return ""
	}
	var b strings.Builder
	for i, h := range hits {
		b.WriteString(fmt.Sprintf("[Source %d] [type=%s]", i+1, h.Metadata.Type))
		if h.Metadata.ArticleID != "" {
			b.WriteString(fmt.Sprintf(" [article_id=%s]", h.Metadata.ArticleID))
		}
		b.WriteString(fmt.Sprintf(" [similarity=%.2f]\n", h.Similarity))
		b.WriteString(h.Text)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// GetArticleRecommendations retrieves up to k hits restricted to
// filter.Type == "article" and projects to unique, ranked article_ids,
// per retriever.py's get_article_recommendations.
func (r *Retriever) GetArticleRecommendations(ctx context.Context, query string, k int, filter vectorstore.Filter) ([]string, error) {
	filter.Type = "article"
	hits, err := r.Retrieve(ctx, query, k, filter, 0)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, h := range hits {
		if h.Metadata.ArticleID == "" || seen[h.Metadata.ArticleID] {
			continue
		}
		seen[h.Metadata.ArticleID] = true
		ids = append(ids, h.Metadata.ArticleID)
	}
	return ids, nil
}
