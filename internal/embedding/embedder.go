// Package embedding maps chunk texts to fixed-length vectors through a
// pretrained embedding oracle.
package embedding

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"docchat/internal/domain"
	"docchat/internal/logger"
)

// Embedder converts text into numeric vectors. Implementations wrap a
// remote oracle; identical text and model configuration must yield
// stable vectors, since the index fingerprint depends on it.
type Embedder interface {
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// ModelName identifies the embedding model for index fingerprinting.
	ModelName() string
}

// BatchOptions tunes how EmbedAll drives the oracle.
type BatchOptions struct {
	// BatchSize is the number of texts per oracle call.
	BatchSize int

	// MaxRetries bounds retries per failing batch before the whole
	// operation is abandoned.
	MaxRetries int

	// Concurrency is the number of batches embedded in parallel.
	Concurrency int
}

// EmbedAll embeds all texts in batches, retrying each failing batch with
// exponential backoff. Batches run in parallel but write into
// pre-allocated slots, so the output order always matches the input.
// Exhausting retries surfaces domain.ErrEmbeddingFailed.
func EmbedAll(ctx context.Context, e Embedder, texts []string, opts BatchOptions) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	vectors := make([][]float64, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end
		g.Go(func() error {
			batch, err := embedWithRetry(ctx, e, texts[start:end], opts.MaxRetries)
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func embedWithRetry(ctx context.Context, e Embedder, texts []string, maxRetries int) ([][]float64, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying embedding batch (attempt %d): %v", attempt, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}
		vectors, err := e.EmbedBatch(ctx, texts)
		if err != nil {
			lastErr = err
			continue
		}
		if len(vectors) != len(texts) {
			lastErr = fmt.Errorf("oracle returned %d vectors for %d texts", len(vectors), len(texts))
			continue
		}
		return vectors, nil
	}
	return nil, fmt.Errorf("%w: %d texts after %d retries: %v", domain.ErrEmbeddingFailed, len(texts), maxRetries, lastErr)
}

// retryDelay returns an exponential backoff capped at 5s. The shift
// count is clamped so an arbitrarily large attempt number cannot
// overflow the duration.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		attempt = 5
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
