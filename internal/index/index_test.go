package index

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func testChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:           "c" + strconv.Itoa(i),
			DocumentPath: "doc.txt",
			Index:        i,
			Text:         "chunk " + strconv.Itoa(i),
		}
	}
	return chunks
}

func TestBuildRejectsMismatchedLengths(t *testing.T) {
	_, err := Build("m", testChunks(2), [][]float64{{1, 0}})
	require.Error(t, err)
}

func TestBuildRejectsMixedDimensions(t *testing.T) {
	_, err := Build("m", testChunks(2), [][]float64{{1, 0}, {1, 0, 0}})
	require.Error(t, err)
}

func TestSearchRanking(t *testing.T) {
	// Known vectors: v1=[1,0], v2=[0,1], v3=[0.7,0.7]. Query [1,0]
	// with K=2 returns v1 (score 1.0) then v3 (score ~0.707).
	ix, err := Build("m", testChunks(3), [][]float64{{1, 0}, {0, 1}, {0.7, 0.7}})
	require.NoError(t, err)

	results, err := ix.Search([]float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c0", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "c2", results[1].Chunk.ID)
	assert.InDelta(t, 1/math.Sqrt2, results[1].Score, 1e-9)
}

func TestSearchKLargerThanIndex(t *testing.T) {
	ix, err := Build("m", testChunks(3), [][]float64{{1, 0}, {0, 1}, {0.7, 0.7}})
	require.NoError(t, err)

	results, err := ix.Search([]float64{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	ix, err := Build("m", nil, nil)
	require.NoError(t, err)

	results, err := ix.Search([]float64{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	ix, err := Build("m", testChunks(3), [][]float64{{0, 1}, {1, 0}, {2, 0}})
	require.NoError(t, err)

	// c1 and c2 both score 1.0 against [1,0]; insertion order wins.
	results, err := ix.Search([]float64{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "c1", results[0].Chunk.ID)
	assert.Equal(t, "c2", results[1].Chunk.ID)
	assert.Equal(t, "c0", results[2].Chunk.ID)
}

func TestSearchDimensionMismatch(t *testing.T) {
	ix, err := Build("m", testChunks(1), [][]float64{{1, 0}})
	require.NoError(t, err)
	_, err = ix.Search([]float64{1, 0, 0}, 1)
	require.Error(t, err)
}

func TestSearchZeroQueryVector(t *testing.T) {
	ix, err := Build("m", testChunks(1), [][]float64{{1, 0}})
	require.NoError(t, err)

	results, err := ix.Search([]float64{0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].Score)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")
	ix, err := Build("all-minilm", testChunks(3), [][]float64{{1, 0}, {0, 1}, {0.7, 0.7}})
	require.NoError(t, err)
	require.NoError(t, ix.Save(path))

	loaded, err := Load(path, "all-minilm")
	require.NoError(t, err)
	assert.Equal(t, ix.Fingerprint(), loaded.Fingerprint())
	assert.Equal(t, ix.Entries(), loaded.Entries())

	results, err := loaded.Search([]float64{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c0", results[0].Chunk.ID)
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.gob"), "m")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexIntegrity)
}

func TestLoadCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")
	require.NoError(t, os.WriteFile(path, []byte("garbage bytes"), 0o644))

	_, err := Load(path, "m")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexIntegrity)
}

func TestLoadFingerprintMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")
	ix, err := Build("model-a", testChunks(1), [][]float64{{1, 0}})
	require.NoError(t, err)
	require.NoError(t, ix.Save(path))

	_, err = Load(path, "model-b")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexIntegrity)
}

func TestSaveReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")
	first, err := Build("m", testChunks(1), [][]float64{{1, 0}})
	require.NoError(t, err)
	require.NoError(t, first.Save(path))

	second, err := Build("m", testChunks(2), [][]float64{{1, 0}, {0, 1}})
	require.NoError(t, err)
	require.NoError(t, second.Save(path))

	loaded, err := Load(path, "m")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
