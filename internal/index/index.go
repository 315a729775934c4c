// Package index stores embedded chunks in memory, persists them as a
// single artifact, and answers nearest-neighbor queries by cosine
// similarity over a linear scan.
package index

import (
	"fmt"
	"math"
	"sort"

	"docchat/internal/domain"
)

// Fingerprint identifies the embedding configuration an index was built
// with. A persisted index whose fingerprint does not match the current
// configuration must be rebuilt, never served.
type Fingerprint struct {
	Model     string
	Dimension int
}

func (fp Fingerprint) String() string {
	return fmt.Sprintf("%s/%d", fp.Model, fp.Dimension)
}

// Index is an immutable snapshot of embedded chunks in insertion order.
// It is safe for concurrent queries; the only mutation path is building
// a replacement index and swapping the reference.
type Index struct {
	fingerprint Fingerprint
	entries     []domain.EmbeddedChunk
	norms       []float64
}

// Build constructs an index from chunks and their vectors, in order.
// Every vector must have the same dimensionality.
func Build(model string, chunks []domain.Chunk, vectors [][]float64) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("index build: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	ix := &Index{fingerprint: Fingerprint{Model: model}}
	if len(chunks) == 0 {
		return ix, nil
	}

	ix.fingerprint.Dimension = len(vectors[0])
	ix.entries = make([]domain.EmbeddedChunk, len(chunks))
	ix.norms = make([]float64, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != ix.fingerprint.Dimension {
			return nil, fmt.Errorf("index build: vector %d has dimension %d, want %d", i, len(vectors[i]), ix.fingerprint.Dimension)
		}
		ix.entries[i] = domain.EmbeddedChunk{Chunk: chunk, Vector: vectors[i]}
		ix.norms[i] = norm(vectors[i])
	}
	return ix, nil
}

// Fingerprint returns the embedding configuration of this index.
func (ix *Index) Fingerprint() Fingerprint { return ix.fingerprint }

// Len returns the number of stored chunks.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns the stored chunks in insertion order.
func (ix *Index) Entries() []domain.EmbeddedChunk { return ix.entries }

// Search returns the k entries most similar to the query vector by
// cosine similarity, ties broken by insertion order. A k larger than
// the index returns everything; an empty index returns an empty result.
func (ix *Index) Search(vector []float64, k int) (domain.RetrievalResult, error) {
	if len(ix.entries) == 0 {
		return domain.RetrievalResult{}, nil
	}
	if len(vector) != ix.fingerprint.Dimension {
		return nil, fmt.Errorf("query vector has dimension %d, index has %d", len(vector), ix.fingerprint.Dimension)
	}
	if k <= 0 {
		return domain.RetrievalResult{}, nil
	}

	queryNorm := norm(vector)
	scores := make([]float64, len(ix.entries))
	for i, entry := range ix.entries {
		scores[i] = cosine(entry.Vector, ix.norms[i], vector, queryNorm)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make(domain.RetrievalResult, 0, k)
	for _, i := range order[:k] {
		results = append(results, domain.ScoredChunk{Chunk: ix.entries[i].Chunk, Score: scores[i]})
	}
	return results, nil
}

// cosine is the normalized dot product. A zero vector on either side
// scores 0.
func cosine(a []float64, aNorm float64, b []float64, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum / (aNorm * bNorm)
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
