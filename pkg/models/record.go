package models

// Metadata is the payload attached to an IndexedRecord in the vector
// store. Optional fields are empty strings when not applicable to the
// record's source kind.
type Metadata struct {
	Type         string `json:"type"` // "article" | "pdf"
	ArticleID    string `json:"article_id,omitempty"`
	AppName      string `json:"app_name,omitempty"`
	Language     string `json:"language"`
	Title        string `json:"title,omitempty"`
	SourcePath   string `json:"source_path,omitempty"`
	ChunkOrdinal int    `json:"chunk_ordinal,omitempty"`
}

// IndexedRecord is a single embedded unit stored in the vector collection.
// RecordID is a deterministic function of (source_kind, source_id,
// language, chunk_ordinal) so re-indexing unchanged source is a no-op.
type IndexedRecord struct {
	RecordID  string
	Text      string
	Embedding []float32
	Metadata  Metadata
}

// Hit is one ranked, normalized retrieval result.
type Hit struct {
	RecordID   string
	Text       string
	Metadata   Metadata
	Distance   float32
	Similarity float32
}
