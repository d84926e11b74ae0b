// Package models defines the data types shared across Cora's indexing,
// retrieval and conversation subsystems.
package models

// SupportedLanguages is the fixed set of languages Cora indexes and answers
// in. Kurdish variants are treated as distinct languages, not dialects of
// one another.
var SupportedLanguages = [4]string{"en", "ar", "ckb", "kmr"}

// Article is a structured, multilingual knowledge-base entry. A language
// variant is considered present when its Titles/Bodies entry is non-empty.
// Absent languages may be empty strings or missing map keys; decoding does
// not fill in missing keys, and Variants treats both forms as absent.
type Article struct {
	ID      string            `json:"id"`
	AppName string            `json:"app_name"`
	Tags    []string          `json:"tags,omitempty"`
	Titles  map[string]string `json:"titles"`
	Bodies  map[string]string `json:"bodies"`
}

// Variants returns the languages for which this article has a non-empty
// title or body.
func (a Article) Variants() []string {
	var out []string
	for _, lang := range SupportedLanguages {
		if a.Titles[lang] != "" || a.Bodies[lang] != "" {
			out = append(out, lang)
		}
	}
	return out
}

// DocumentChunk is one page-span slice of a long-form unstructured document
// (e.g. a PDF). The indexer does not build DocumentChunk values: its PDF
// path turns chunking.Chunk windows directly into IndexedRecords.
type DocumentChunk struct {
	SourcePath   string
	ChunkOrdinal int
	Text         string
	StartPage    int
	EndPage      int
	Language     string
}
