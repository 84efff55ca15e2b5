package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driven"
	"github.com/raildock/raildoc/internal/core/ports/driving"
	"github.com/raildock/raildoc/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService answers ad-hoc retrieval queries and administers the
// regulation collection.
type QueryService struct {
	store driven.VectorStore
}

// NewQueryService creates a query service.
func NewQueryService(store driven.VectorStore) *QueryService {
	return &QueryService{store: store}
}

// Query returns the topK regulation chunks matching the query.
func (s *QueryService) Query(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	chunks, err := s.store.Search(ctx, query, topK, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return chunks, nil
}

// Stats summarises the stored regulation collection.
func (s *QueryService) Stats(ctx context.Context) (*driving.StoreStats, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count: %v", domain.ErrStoreUnavailable, err)
	}

	metadatas, err := s.store.Metadatas(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: list metadata: %v", domain.ErrStoreUnavailable, err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, metadata := range metadatas {
		id := metadata["regulation_id"]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return &driving.StoreStats{
		TotalChunks:   count,
		RegulationIDs: ids,
	}, nil
}

// DeleteRegulation removes every chunk of one regulation ID.
func (s *QueryService) DeleteRegulation(ctx context.Context, regulationID string) error {
	if regulationID == "" {
		return fmt.Errorf("%w: empty regulation ID", domain.ErrInvalidInput)
	}

	err := s.store.DeleteWhere(ctx, map[string]string{"regulation_id": regulationID})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", domain.ErrStoreUnavailable, regulationID, err)
	}

	logger.Info("Deleted regulation %s", regulationID)
	return nil
}

// Clear removes every stored chunk.
func (s *QueryService) Clear(ctx context.Context) error {
	if err := s.store.DeleteWhere(ctx, nil); err != nil {
		return fmt.Errorf("%w: clear collection: %v", domain.ErrStoreUnavailable, err)
	}

	logger.Info("Cleared regulation collection")
	return nil
}

// GradeSummary counts stored reports in the report collection by risk
// grade. Reports without a resolvable grade count under "".
func GradeSummary(ctx context.Context, reportStore driven.VectorStore) (map[string]int, error) {
	metadatas, err := reportStore.Metadatas(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: list report metadata: %v", domain.ErrStoreUnavailable, err)
	}

	summary := make(map[string]int)
	for _, metadata := range metadatas {
		summary[metadata["risk_grade"]]++
	}
	return summary, nil
}
