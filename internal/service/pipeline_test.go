package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/chunker"
	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/llm"
	"docchat/internal/loader"
)

// featureEmbedder derives a deterministic vector from text features, so
// identical text always embeds identically and self-similarity is 1.
type featureEmbedder struct {
	mu    sync.Mutex
	model string
	calls int
	fail  bool
}

func (f *featureEmbedder) ModelName() string {
	if f.model == "" {
		return "feature"
	}
	return f.model
}

func (f *featureEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail {
		return nil, errors.New("oracle down")
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		var vowels, spaces float64
		for _, r := range text {
			switch {
			case strings.ContainsRune("aeiou", r):
				vowels++
			case r == ' ':
				spaces++
			}
		}
		out[i] = []float64{float64(len(text)), vowels + 1, spaces + 1}
	}
	return out, nil
}

// scriptedGenerator records the prompt it was given.
type scriptedGenerator struct {
	reply  string
	err    error
	prompt string
}

func (g *scriptedGenerator) ModelName() string { return "scripted" }

func (g *scriptedGenerator) Generate(_ context.Context, prompt string, _ llm.Options) (string, error) {
	g.prompt = prompt
	return g.reply, g.err
}

func newTestPipeline(t *testing.T, docsDir string, emb embedding.Embedder, gen llm.Generator) *Pipeline {
	t.Helper()
	ch, err := chunker.New(40, 8)
	require.NoError(t, err)
	return New(Config{
		DocsDir:   docsDir,
		IndexPath: filepath.Join(t.TempDir(), "index.gob"),
		TopK:      3,
		Batch:     embedding.BatchOptions{BatchSize: 4, MaxRetries: 1},
	}, loader.Default(), ch, emb, gen)
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestEmptyDirectoryYieldsEmptyQueryableIndex(t *testing.T) {
	p := newTestPipeline(t, t.TempDir(), &featureEmbedder{}, &scriptedGenerator{})
	require.NoError(t, p.BuildOrLoadIndex(context.Background()))
	assert.Zero(t, p.IndexSize())

	results, err := p.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRebuildAndRetrieve(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "cats.txt", "cats purr")
	writeDoc(t, dir, "dogs.txt", "dogs bark loudly at the postal worker every day")

	p := newTestPipeline(t, dir, &featureEmbedder{}, &scriptedGenerator{})
	require.NoError(t, p.Rebuild(context.Background()))
	require.NotZero(t, p.IndexSize())

	// A query identical to a stored chunk's text must rank it first
	// with similarity 1.0.
	results, err := p.Retrieve(context.Background(), "cats purr", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Chunk.DocumentPath, "cats.txt")
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestBuildOrLoadIndexReusesArtifact(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "some document content here")

	emb := &featureEmbedder{}
	p := newTestPipeline(t, dir, emb, &scriptedGenerator{})
	require.NoError(t, p.Rebuild(context.Background()))
	buildCalls := emb.calls

	p2 := New(p.cfg, loader.Default(), p.chunker, emb, &scriptedGenerator{})
	require.NoError(t, p2.BuildOrLoadIndex(context.Background()))
	assert.Equal(t, p.IndexSize(), p2.IndexSize())
	assert.Equal(t, buildCalls, emb.calls, "loading a valid artifact must not re-embed")
}

func TestModelChangeTriggersRebuild(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "some document content here")

	p := newTestPipeline(t, dir, &featureEmbedder{model: "model-a"}, &scriptedGenerator{})
	require.NoError(t, p.BuildOrLoadIndex(context.Background()))

	emb := &featureEmbedder{model: "model-b"}
	p2 := New(p.cfg, loader.Default(), p.chunker, emb, &scriptedGenerator{})
	require.NoError(t, p2.BuildOrLoadIndex(context.Background()))
	assert.NotZero(t, emb.calls, "fingerprint mismatch must trigger a rebuild")
}

func TestFailedRebuildLeavesArtifactUntouched(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "some document content here")

	emb := &featureEmbedder{}
	p := newTestPipeline(t, dir, emb, &scriptedGenerator{})
	require.NoError(t, p.Rebuild(context.Background()))
	sizeBefore := p.IndexSize()
	artifactBefore, err := os.ReadFile(p.cfg.IndexPath)
	require.NoError(t, err)

	emb.fail = true
	err = p.Rebuild(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)

	artifactAfter, err := os.ReadFile(p.cfg.IndexPath)
	require.NoError(t, err)
	assert.Equal(t, artifactBefore, artifactAfter)
	assert.Equal(t, sizeBefore, p.IndexSize(), "failed build must not replace the snapshot")
}

func TestRebuildDeterminism(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "alpha beta gamma delta epsilon zeta eta theta")
	writeDoc(t, dir, "b.md", "---\ntitle: B\n---\nsecond document body")

	emb := &featureEmbedder{}
	p := newTestPipeline(t, dir, emb, &scriptedGenerator{})
	require.NoError(t, p.Rebuild(context.Background()))
	first := p.idx.Load().Entries()

	require.NoError(t, p.Rebuild(context.Background()))
	second := p.idx.Load().Entries()
	assert.Equal(t, first, second)
}

func TestGeneratePromptAssembly(t *testing.T) {
	gen := &scriptedGenerator{reply: "generated answer"}
	p := newTestPipeline(t, t.TempDir(), &featureEmbedder{}, gen)
	p.systemPrompt = "You are a documentation assistant."

	results := domain.RetrievalResult{
		{Chunk: domain.Chunk{DocumentPath: "notes/a.md", Text: "chunk one"}, Score: 0.9},
		{Chunk: domain.Chunk{DocumentPath: "notes/b.md", Text: "chunk two"}, Score: 0.5},
	}
	answer, err := p.Generate(context.Background(), "what is this?", results)
	require.NoError(t, err)
	assert.Equal(t, "generated answer", answer)

	assert.True(t, strings.HasPrefix(gen.prompt, "You are a documentation assistant."))
	assert.Contains(t, gen.prompt, "[source: notes/a.md]\nchunk one")
	assert.Contains(t, gen.prompt, "[source: notes/b.md]\nchunk two")
	assert.Contains(t, gen.prompt, "Question: what is this?")
	assert.True(t, strings.HasSuffix(gen.prompt, "Answer: "))
}

func TestAnswerKeepsResultsOnGenerationFailure(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "some document content here")

	gen := &scriptedGenerator{err: domain.ErrGenerationUnavailable}
	p := newTestPipeline(t, dir, &featureEmbedder{}, gen)
	require.NoError(t, p.Rebuild(context.Background()))

	answer, results, err := p.Answer(context.Background(), "some document content here")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.Empty(t, answer)
	assert.NotEmpty(t, results, "retrieval results stay available when generation fails")
}
