package driven

import (
	"context"

	"github.com/raildock/raildoc/internal/core/domain"
)

// VectorStore provides similarity search over stored text units.
// Backed by a Chroma collection in production; an in-memory
// implementation exists for tests and offline runs.
type VectorStore interface {
	// Add stores documents with their IDs and per-document metadata.
	// The three slices must have equal length.
	Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]string) error

	// Search returns the topK closest chunks for the query, ordered
	// ascending by distance (best match first). filter restricts
	// results to chunks whose metadata matches every given key/value;
	// nil means no filtering.
	Search(ctx context.Context, query string, topK int, filter map[string]string) ([]domain.RetrievedChunk, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Metadatas returns the metadata of every document matching the
	// filter; nil means all documents. Used for collection statistics.
	Metadatas(ctx context.Context, filter map[string]string) ([]map[string]string, error)

	// DeleteWhere removes all documents whose metadata matches every
	// given key/value.
	DeleteWhere(ctx context.Context, filter map[string]string) error
}
