package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoUnits indicates a regulation source contains no unit
	// markers. Informational: nothing was stored.
	ErrNoUnits = errors.New("no regulation units found")

	// ErrStoreUnavailable indicates the vector store is unreachable or
	// rejected the query. Recoverable: generation proceeds without
	// retrieval context when retrieval is optional.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrLLMUnavailable indicates the language model service is not
	// configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrGenerationFailed indicates report generation errored for one
	// item. Per-item: the batch continues.
	ErrGenerationFailed = errors.New("report generation failed")

	// ErrReviewFailed indicates report review errored for one item.
	// Per-item: the batch continues.
	ErrReviewFailed = errors.New("report review failed")

	// ErrArchiveInvalid indicates the input archive does not match the
	// expected category layout. Fatal for the whole run, reported
	// before any item processes.
	ErrArchiveInvalid = errors.New("invalid archive layout")
)
