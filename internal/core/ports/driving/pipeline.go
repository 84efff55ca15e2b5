package driving

import (
	"context"

	"github.com/raildock/raildoc/internal/core/domain"
)

// ProcessOptions configures one archive run.
type ProcessOptions struct {
	// SkipReview disables the review step; generated drafts are kept
	// as-is.
	SkipReview bool

	// OutputDir receives the per-category artifact JSON files.
	// Empty disables file export.
	OutputDir string
}

// PipelineService drives batch processing of a detection archive.
type PipelineService interface {
	// ProcessArchive extracts the archive, processes every item, and
	// aggregates per-category artifacts. Per-item failures are
	// recorded in the result; only archive-level errors abort.
	ProcessArchive(ctx context.Context, archivePath string, opts ProcessOptions) (*domain.BatchResult, error)
}

// IngestService loads regulation documents into the knowledge store.
type IngestService interface {
	// IngestDirectory chunks and stores every regulation PDF under
	// dir. Returns the number of units stored.
	IngestDirectory(ctx context.Context, dir string) (int, error)

	// IngestText chunks and stores one regulation document given as
	// raw text. Returns the number of units stored.
	IngestText(ctx context.Context, text, sourceName string) (int, error)

	// IngestWholeDocument stores one document as a single unit without
	// chunking (maintenance manuals).
	IngestWholeDocument(ctx context.Context, text, sourceName string) error
}

// QueryService answers retrieval queries against the knowledge store.
type QueryService interface {
	// Query returns the topK regulation chunks matching the query.
	Query(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error)

	// Stats summarises the stored regulation collection.
	Stats(ctx context.Context) (*StoreStats, error)

	// DeleteRegulation removes every chunk of one regulation ID.
	DeleteRegulation(ctx context.Context, regulationID string) error

	// Clear removes every stored chunk.
	Clear(ctx context.Context) error
}

// StoreStats summarises the regulation collection.
type StoreStats struct {
	// TotalChunks is the number of stored units.
	TotalChunks int

	// RegulationIDs lists the distinct stored regulation IDs.
	RegulationIDs []string
}
