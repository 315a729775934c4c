package domain

import "errors"

// Domain errors distinguish the failure classes the pipeline can hit.
var (
	// ErrInvalidConfig indicates configuration that cannot be served,
	// such as a chunk overlap that is not smaller than the chunk size.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates the embedding oracle failed after
	// bounded retries. Fatal to the current index build only; a
	// previously persisted index is left untouched.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrIndexIntegrity indicates the persisted index artifact is
	// missing, corrupted, or was built with a different embedding
	// configuration. The caller should rebuild rather than serve it.
	ErrIndexIntegrity = errors.New("index integrity check failed")

	// ErrGenerationUnavailable indicates the generative oracle could
	// not be reached or timed out. Retrieval results remain valid.
	ErrGenerationUnavailable = errors.New("generation unavailable")
)
