// Package chunker splits document text into overlapping fixed-size windows.
package chunker

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"docchat/internal/domain"
)

// WindowChunker produces fixed-size chunks with a configured overlap.
// Each window advances by size-overlap, so consecutive chunks from the
// same document share exactly overlap bytes.
type WindowChunker struct {
	size    int
	overlap int
}

// New creates a window chunker. Overlap must be strictly smaller than
// size, otherwise the window would never advance.
func New(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidConfig, overlap, size)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Chunk splits the document into ordered chunks covering its full text.
// An empty document yields no chunks; a document shorter than the chunk
// size yields exactly one chunk equal to the full text. The result is
// fully determined by the input and parameters.
func (c *WindowChunker) Chunk(doc domain.Document) []domain.Chunk {
	content := doc.Content
	if content == "" {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]domain.Chunk, 0, len(content)/step+1)

	for start, idx := 0, 0; start < len(content); start, idx = start+step, idx+1 {
		end := start + c.size
		if end > len(content) {
			end = len(content)
		}
		chunks = append(chunks, domain.Chunk{
			ID:           chunkID(doc.Path, idx),
			DocumentPath: doc.Path,
			Index:        idx,
			Start:        start,
			End:          end,
			Text:         content[start:end],
			Metadata:     doc.Metadata,
		})
		if end == len(content) {
			break
		}
	}
	return chunks
}

// chunkID derives a stable identifier from the document path and chunk
// sequence number. Rebuilds of an unchanged corpus must produce
// identical chunk IDs, so a name-based UUID is used rather than a
// random one.
func chunkID(path string, idx int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(path+"#"+strconv.Itoa(idx))).String()
}
