// Package service wires loader, chunker, embedder, index, and generator
// into the three operations the chat front-ends consume: build-or-load,
// retrieve, and generate.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"docchat/internal/chunker"
	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/index"
	"docchat/internal/llm"
	"docchat/internal/loader"
	"docchat/internal/logger"
)

// Config holds the pipeline tunables, validated by the caller at startup.
type Config struct {
	DocsDir          string
	IndexPath        string
	SystemPromptPath string
	TopK             int
	Batch            embedding.BatchOptions
	Generation       llm.Options
}

// Pipeline is the ingestion-to-answer pipeline. The index is held as an
// atomically swapped immutable snapshot: queries read whatever snapshot
// is current and a rebuild installs its replacement in one pointer
// update, so in-flight queries never observe a partially built index.
type Pipeline struct {
	cfg          Config
	loader       *loader.Loader
	chunker      *chunker.WindowChunker
	embedder     embedding.Embedder
	generator    llm.Generator
	systemPrompt string

	idx atomic.Pointer[index.Index]
}

// New creates a pipeline. The system prompt file is optional; a missing
// file logs a warning and leaves the prompt instruction-only.
func New(cfg Config, ld *loader.Loader, ch *chunker.WindowChunker, emb embedding.Embedder, gen llm.Generator) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		loader:    ld,
		chunker:   ch,
		embedder:  emb,
		generator: gen,
	}
	if cfg.SystemPromptPath != "" {
		data, err := os.ReadFile(cfg.SystemPromptPath)
		if err != nil {
			logger.Warn("system prompt file %s not loaded: %v", cfg.SystemPromptPath, err)
		} else {
			p.systemPrompt = string(data)
		}
	}
	return p
}

// BuildOrLoadIndex loads the persisted index artifact if it is present
// and compatible with the current embedding model, and rebuilds from
// the document directory otherwise.
func (p *Pipeline) BuildOrLoadIndex(ctx context.Context) error {
	ix, err := index.Load(p.cfg.IndexPath, p.embedder.ModelName())
	if err == nil {
		logger.Info("loaded index with %d chunks from %s", ix.Len(), p.cfg.IndexPath)
		p.idx.Store(ix)
		return nil
	}
	if !errors.Is(err, domain.ErrIndexIntegrity) {
		return err
	}
	logger.Info("rebuilding index: %v", err)
	return p.Rebuild(ctx)
}

// Rebuild runs the full ingestion pipeline: load documents, chunk,
// embed, build a fresh index, persist it, and swap it in. The build is
// all-or-nothing; on any failure the previous snapshot and the
// persisted artifact are left untouched.
func (p *Pipeline) Rebuild(ctx context.Context) error {
	docs, err := p.loader.Load(p.cfg.DocsDir)
	if err != nil {
		return err
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, p.chunker.Chunk(doc)...)
	}
	logger.Info("created %d chunks from %d documents", len(chunks), len(docs))

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := embedding.EmbedAll(ctx, p.embedder, texts, p.cfg.Batch)
	if err != nil {
		return err
	}

	ix, err := index.Build(p.embedder.ModelName(), chunks, vectors)
	if err != nil {
		return err
	}
	if err := ix.Save(p.cfg.IndexPath); err != nil {
		return err
	}
	logger.Info("index persisted to %s", p.cfg.IndexPath)
	p.idx.Store(ix)
	return nil
}

// IndexSize reports the number of chunks in the current snapshot.
func (p *Pipeline) IndexSize() int {
	if ix := p.idx.Load(); ix != nil {
		return ix.Len()
	}
	return 0
}

// Retrieve embeds the query and returns the top-k most similar chunks.
// An empty or absent index yields an empty result, not an error.
func (p *Pipeline) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	ix := p.idx.Load()
	if ix == nil || ix.Len() == 0 {
		return domain.RetrievalResult{}, nil
	}
	vectors, err := embedding.EmbedAll(ctx, p.embedder, []string{query}, p.cfg.Batch)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.Search(vectors[0], k)
}

// Generate assembles a prompt from the query and retrieved chunks and
// invokes the generative oracle once, returning its output unmodified.
func (p *Pipeline) Generate(ctx context.Context, query string, results domain.RetrievalResult) (string, error) {
	prompt := buildPrompt(p.systemPrompt, query, results)
	return p.generator.Generate(ctx, prompt, p.cfg.Generation)
}

// Answer is the per-turn query path: retrieve then generate. The
// retrieval results are returned alongside the answer so the caller can
// still show sources when generation fails.
func (p *Pipeline) Answer(ctx context.Context, query string) (string, domain.RetrievalResult, error) {
	results, err := p.Retrieve(ctx, query, p.cfg.TopK)
	if err != nil {
		return "", nil, err
	}
	answer, err := p.Generate(ctx, query, results)
	if err != nil {
		return "", results, err
	}
	return answer, results, nil
}
