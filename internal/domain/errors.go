package domain

import "errors"

var (
	// ErrInvalidInput indicates malformed arguments such as k < 1 or an empty vector.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedBlock marks an upstream document block that cannot be parsed.
	// Builds skip such blocks instead of aborting.
	ErrMalformedBlock = errors.New("malformed input block")

	// ErrDimensionMismatch indicates a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrOutOfRange indicates a metadata lookup past the end of the store.
	// Under correct alignment this never happens.
	ErrOutOfRange = errors.New("position out of range")

	// ErrEmbeddingProvider wraps failures of the embedding provider.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrIndexUnavailable indicates the index and metadata were not loaded,
	// are missing, or failed validation.
	ErrIndexUnavailable = errors.New("index unavailable")
)
