package driven

import (
	"context"

	"github.com/raildock/raildoc/internal/core/domain"
)

// ArtifactStore persists per-category batch artifacts.
// Backed by SQLite for metadata storage.
type ArtifactStore interface {
	// SaveArtifact stores an artifact and its items.
	SaveArtifact(ctx context.Context, artifact *domain.BatchArtifact) error

	// GetArtifact retrieves an artifact by ID.
	GetArtifact(ctx context.Context, id string) (*domain.BatchArtifact, error)

	// ListArtifacts returns artifacts for a category, newest first.
	// An empty category lists all artifacts.
	ListArtifacts(ctx context.Context, category domain.Category) ([]domain.BatchArtifact, error)
}
