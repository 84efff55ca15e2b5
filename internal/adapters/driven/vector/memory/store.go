// Package memory provides an in-process VectorStore for offline runs
// and tests. Similarity is lexical token overlap, not embeddings; it is
// deterministic and dependency-free.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

type record struct {
	id       string
	content  string
	tokens   map[string]bool
	metadata map[string]string
}

// Store keeps documents in memory.
type Store struct {
	mu      sync.RWMutex
	records []record
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Add stores documents with their IDs and per-document metadata.
func (s *Store) Add(_ context.Context, ids, documents []string, metadatas []map[string]string) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range ids {
		metadata := metadatas[i]
		if metadata == nil {
			metadata = map[string]string{}
		}
		s.records = append(s.records, record{
			id:       id,
			content:  documents[i],
			tokens:   tokenise(documents[i]),
			metadata: metadata,
		})
	}
	return nil
}

// Search ranks documents by token overlap with the query, best match
// first. Documents sharing no token with the query are not returned.
func (s *Store) Search(_ context.Context, query string, topK int, filter map[string]string) ([]domain.RetrievedChunk, error) {
	queryTokens := tokenise(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []domain.RetrievedChunk
	for _, r := range s.records {
		if !matches(r.metadata, filter) {
			continue
		}

		distance := overlapDistance(queryTokens, r.tokens)
		if distance >= 1.0 {
			continue
		}

		chunks = append(chunks, domain.RetrievedChunk{
			Content:  r.content,
			SourceID: r.metadata["regulation_id"],
			Distance: distance,
			Metadata: r.metadata,
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Distance < chunks[j].Distance
	})

	if topK > 0 && len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Metadatas returns the metadata of every document matching the filter.
func (s *Store) Metadatas(_ context.Context, filter map[string]string) ([]map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []map[string]string
	for _, r := range s.records {
		if matches(r.metadata, filter) {
			out = append(out, r.metadata)
		}
	}
	return out, nil
}

// DeleteWhere removes all documents whose metadata matches the filter.
// A nil filter removes everything.
func (s *Store) DeleteWhere(_ context.Context, filter map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if !matches(r.metadata, filter) {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

func tokenise(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		tokens[strings.Trim(field, ".,;:()[]\"'")] = true
	}
	delete(tokens, "")
	return tokens
}

// overlapDistance is 1 minus the fraction of query tokens present in
// the document. 0 means every query token occurs; 1 means no overlap.
func overlapDistance(query, doc map[string]bool) float64 {
	if len(query) == 0 {
		return 1.0
	}

	shared := 0
	for token := range query {
		if doc[token] {
			shared++
		}
	}
	return 1.0 - float64(shared)/float64(len(query))
}

func matches(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
