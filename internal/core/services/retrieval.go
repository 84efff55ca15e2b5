package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driven"
	"github.com/raildock/raildoc/internal/logger"
)

// FallbackQuery is used when the detections carry no usable facts.
const FallbackQuery = "rail facility defect inspection"

// DefaultTopK is the default number of regulation chunks retrieved per
// generation call.
const DefaultTopK = 5

// RetrievalResult is the regulation context fetched for one generation
// call.
type RetrievalResult struct {
	// Query is the retrieval query built from the detection facts.
	Query string

	// Chunks are the matched regulation units, best match first.
	Chunks []domain.RetrievedChunk

	// RegulationIDs are the distinct regulation IDs the chunks came
	// from, in result order.
	RegulationIDs []string

	// Used reports whether retrieval contributed context: true iff at
	// least one chunk came back.
	Used bool
}

// RetrievalService builds retrieval queries from detection facts and
// fetches regulation context from the vector store.
type RetrievalService struct {
	store driven.VectorStore
	topK  int

	// threshold is the configured similarity threshold. It is carried
	// for reporting but not applied as a result cutoff.
	threshold float64
}

// NewRetrievalService creates a retrieval service. topK <= 0 falls back
// to DefaultTopK.
func NewRetrievalService(store driven.VectorStore, topK int, threshold float64) *RetrievalService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RetrievalService{
		store:     store,
		topK:      topK,
		threshold: threshold,
	}
}

// BuildQuery assembles the retrieval query from detection facts: one
// `<component> <detail>` term per detection that has both, then each
// distinct rail category once in first-seen order. No usable facts
// yield FallbackQuery.
func (s *RetrievalService) BuildQuery(detections []domain.Detection) string {
	var terms []string

	for _, d := range detections {
		component := strings.TrimSpace(d.ComponentName)
		detail := strings.TrimSpace(d.DefectDetail)
		if component != "" && detail != "" {
			terms = append(terms, component+" "+detail)
		}
	}

	seen := make(map[string]bool)
	for _, d := range detections {
		category := strings.TrimSpace(d.RailCategory)
		if category == "" || seen[category] {
			continue
		}
		seen[category] = true
		terms = append(terms, category)
	}

	if len(terms) == 0 {
		return FallbackQuery
	}
	return strings.Join(terms, " ")
}

// Retrieve builds the query and fetches the topK closest regulation
// chunks. An unreachable store is reported as ErrStoreUnavailable;
// callers that treat retrieval as optional proceed without context.
func (s *RetrievalService) Retrieve(ctx context.Context, detections []domain.Detection) (*RetrievalResult, error) {
	query := s.BuildQuery(detections)
	logger.Debug("Retrieval query: %q (top-k %d)", query, s.topK)

	chunks, err := s.store.Search(ctx, query, s.topK, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: search regulations: %v", domain.ErrStoreUnavailable, err)
	}

	result := &RetrievalResult{
		Query:  query,
		Chunks: chunks,
		Used:   len(chunks) > 0,
	}

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		if chunk.SourceID == "" || seen[chunk.SourceID] {
			continue
		}
		seen[chunk.SourceID] = true
		result.RegulationIDs = append(result.RegulationIDs, chunk.SourceID)
	}

	logger.Debug("Retrieved %d chunks from %d regulations", len(chunks), len(result.RegulationIDs))

	return result, nil
}
