package domain

// Document represents a single source file after text extraction.
// Documents are transient: they exist between loading and chunking
// and are not retained by the index.
type Document struct {
	Path     string
	Content  string
	FileType string
	Metadata map[string]string
}

// Chunk is a contiguous slice of a document's text, the unit of
// embedding and retrieval. Start and End are byte offsets into the
// document content.
type Chunk struct {
	ID           string
	DocumentPath string
	Index        int
	Start        int
	End          int
	Text         string
	Metadata     map[string]string
}

// EmbeddedChunk is a chunk together with its embedding vector.
type EmbeddedChunk struct {
	Chunk
	Vector []float64
}

// ScoredChunk is a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalResult is an ordered sequence of scored chunks, highest
// similarity first. Produced per query, never persisted.
type RetrievalResult []ScoredChunk
