package model

import "errors"

var (
	// ErrInvalidInput is returned when a caller supplies an empty or malformed argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfiguration is returned for parameters that can never work,
	// such as a chunk overlap not smaller than the chunk size.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDimensionMismatch is returned when a vector's length differs from the
	// dimension the embedder or index was built for.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingUnavailable is returned when the embedding backend failed
	// after all retries.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrNoContextAvailable means there is nothing to retrieve from for the tenant.
	// Callers answer with the deterministic "no relevant documents" response.
	ErrNoContextAvailable = errors.New("no context available")

	// ErrGenerationUnavailable is returned when the language model call failed
	// or produced an empty completion.
	ErrGenerationUnavailable = errors.New("answer generation unavailable")

	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidTransition = errors.New("invalid document status transition")
)
