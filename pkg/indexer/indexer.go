// Package indexer walks a content tree, turns structured articles and
// long documents into IndexedRecords, and batch-upserts them into a
// vectorstore.Store (spec §4.2). Grounded on the teacher's
// cmd/rag-indexer/main.go walk-and-batch shape and on
// sivagirish81-LitFlow's PDF extraction idiom.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/rayied/cora/pkg/apperrors"
	"github.com/rayied/cora/pkg/chunking"
	"github.com/rayied/cora/pkg/models"
	"github.com/rayied/cora/pkg/vectorstore"
)

// IndexError records a single per-item parse failure without halting the
// overall run (spec §4.2).
type IndexError struct {
	Path string
	Err  error
}

func (e IndexError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Stats summarizes one indexing run.
type Stats struct {
	ArticlesSeen    int
	DocumentsSeen   int
	RecordsUpserted int
	Errors          []IndexError
}

// Indexer walks a root path, parses *.json article files and *.pdf
// documents, chunks and embeds them, and upserts the results.
type Indexer struct {
	store        vectorstore.Store
	embedder     vectorstore.Embedder
	batchSize    int
	chunkSize    int
	chunkOverlap int
}

func New(store vectorstore.Store, embedder vectorstore.Embedder, batchSize, chunkSize, chunkOverlap int) *Indexer {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Indexer{
		store:        store,
		embedder:     embedder,
		batchSize:    batchSize,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Reset discards all existing records before a full reindex.
func (ix *Indexer) Reset(ctx context.Context) error {
	return ix.store.Reset(ctx)
}

// IndexTree walks root, enumerating *.json article files and *.pdf
// documents, and upserts their IndexedRecords in batches of ix.batchSize.
// A per-item parse failure is recorded in Stats.Errors and does not halt
// the run.
func (ix *Indexer) IndexTree(ctx context.Context, root string) (Stats, error) {
	var stats Stats
	batch := make([]models.IndexedRecord, 0, ix.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ix.store.Upsert(ctx, batch); err != nil {
			return err
		}
		stats.RecordsUpserted += len(batch)
		batch = batch[:0]
		return nil
	}

	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		lower := strings.ToLower(name)

		switch {
		case strings.HasSuffix(lower, ".json"):
			if strings.Contains(lower, "ignored") {
				return nil
			}
			stats.ArticlesSeen++
			records, err := ix.recordsFromArticleFile(ctx, path)
			if err != nil {
				stats.Errors = append(stats.Errors, IndexError{Path: path, Err: err})
				return nil
			}
			batch = append(batch, records...)

		case strings.HasSuffix(lower, ".pdf"):
			stats.DocumentsSeen++
			records, err := ix.recordsFromPDF(ctx, path)
			if err != nil {
				stats.Errors = append(stats.Errors, IndexError{Path: path, Err: err})
				return nil
			}
			batch = append(batch, records...)

		default:
			return nil
		}

		if len(batch) >= ix.batchSize {
			return flush()
		}
		return nil
	})
	if walkErr != nil {
		return stats, apperrors.Storage("walk content tree", walkErr)
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

// recordsFromArticleFile decodes a JSON file holding either a single
// article or a list of articles, emitting one IndexedRecord per
// non-empty language variant (spec §4.2).
func (ix *Indexer) recordsFromArticleFile(ctx context.Context, path string) ([]models.IndexedRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var articles []models.Article
	var list []models.Article
	if err := json.Unmarshal(raw, &list); err == nil {
		articles = list
	} else {
		var single models.Article
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("decode article json: %w", err)
		}
		articles = []models.Article{single}
	}

	var records []models.IndexedRecord
	for _, article := range articles {
		for _, lang := range article.Variants() {
			title := article.Titles[lang]
			body := article.Bodies[lang]
			text := fmt.Sprintf("[Article %s] [%s] %s\n%s", article.ID, article.AppName, title, body)

			embedding, err := ix.embedder.EmbedText(ctx, text)
			if err != nil {
				return nil, apperrors.Embedding("embed article variant", err)
			}

			recordID := hashRecordID("article", article.ID, lang, 0)
			records = append(records, models.IndexedRecord{
				RecordID:  recordID,
				Text:      text,
				Embedding: embedding,
				Metadata: models.Metadata{
					Type:      "article",
					ArticleID: article.ID,
					AppName:   article.AppName,
					Language:  lang,
					Title:     title,
				},
			})
		}
	}
	return records, nil
}

// recordsFromPDF extracts text page by page, chunks it with page-span
// tracking, and emits one IndexedRecord per chunk.
func (ix *Indexer) recordsFromPDF(ctx context.Context, path string) ([]models.IndexedRecord, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var full strings.Builder
	boundaries := make([]chunking.PageBoundary, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		boundaries = append(boundaries, chunking.PageBoundary{
			Page:      i,
			StartRune: len([]rune(full.String())),
		})
		full.WriteString(text)
		full.WriteString("\n")
	}

	docText := strings.TrimSpace(full.String())
	if docText == "" {
		return nil, fmt.Errorf("no extractable text")
	}

	chunks := chunking.Split(docText, ix.chunkSize, ix.chunkOverlap)
	records := make([]models.IndexedRecord, 0, len(chunks))
	for ordinal, c := range chunks {
		embedding, err := ix.embedder.EmbedText(ctx, c.Text)
		if err != nil {
			return nil, apperrors.Embedding("embed document chunk", err)
		}
		startPage, endPage := chunking.PageSpan(boundaries, c.StartRune, c.EndRune)
		recordID := hashRecordID("pdf", path, "unknown", ordinal)
		records = append(records, models.IndexedRecord{
			RecordID:  recordID,
			Text:      c.Text,
			Embedding: embedding,
			Metadata: models.Metadata{
				Type:         "pdf",
				Language:     "unknown",
				SourcePath:   path,
				ChunkOrdinal: ordinal,
				Title:        fmt.Sprintf("page %d-%d", startPage, endPage),
			},
		})
	}
	return records, nil
}

// hashRecordID derives record_id = sha256(source_kind|source_id|language|
// chunk_ordinal), truncated to 32 hex characters, following the same
// identity-tuple hashing technique as sivagirish81-LitFlow's ChunkID
// scheme (util.SHA256Hex composing a deterministic ID from its inputs).
func hashRecordID(sourceKind, sourceID, language string, chunkOrdinal int) string {
	h := sha256.New()
	io.WriteString(h, fmt.Sprintf("%s|%s|%s|%d", sourceKind, sourceID, language, chunkOrdinal))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
