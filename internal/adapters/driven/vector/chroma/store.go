// Package chroma provides a VectorStore adapter backed by a Chroma
// server's REST API. Embedding happens server-side; this adapter is
// transport only.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:8000/api/v1"
	DefaultCollection = "regulations"
	DefaultTimeout    = 30 * time.Second
)

// Config holds configuration for the Chroma store.
type Config struct {
	// BaseURL is the Chroma API base URL.
	BaseURL string

	// Collection is the collection name. It is created on first use.
	Collection string

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// Store talks to one Chroma collection.
type Store struct {
	client     *http.Client
	baseURL    string
	collection string

	mu           sync.Mutex
	collectionID string
}

// NewStore creates a Chroma store. The collection is resolved lazily on
// first use.
func NewStore(cfg Config) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		collection: cfg.Collection,
	}
}

// ensureCollection resolves and caches the collection ID, creating the
// collection when absent.
func (s *Store) ensureCollection(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collectionID != "" {
		return s.collectionID, nil
	}

	reqBody := map[string]any{
		"name":          s.collection,
		"get_or_create": true,
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := s.post(ctx, "/collections", reqBody, &resp); err != nil {
		return "", fmt.Errorf("resolve collection %s: %w", s.collection, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("resolve collection %s: empty collection ID", s.collection)
	}

	s.collectionID = resp.ID
	return s.collectionID, nil
}

// Add stores documents with their IDs and per-document metadata.
func (s *Store) Add(ctx context.Context, ids, documents []string, metadatas []map[string]string) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("%w: ids, documents and metadatas must have equal length", domain.ErrInvalidInput)
	}
	if len(ids) == 0 {
		return nil
	}

	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}

	reqBody := map[string]any{
		"ids":       ids,
		"documents": documents,
		"metadatas": metadatas,
	}
	return s.post(ctx, "/collections/"+collectionID+"/add", reqBody, nil)
}

// Search returns the topK closest chunks for the query, best match
// first.
func (s *Store) Search(ctx context.Context, query string, topK int, filter map[string]string) ([]domain.RetrievedChunk, error) {
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]any{
		"query_texts": []string{query},
		"n_results":   topK,
		"include":     []string{"documents", "metadatas", "distances"},
	}
	if where := buildWhere(filter); where != nil {
		reqBody["where"] = where
	}

	var resp struct {
		IDs       [][]string         `json:"ids"`
		Documents [][]string         `json:"documents"`
		Distances [][]float64        `json:"distances"`
		Metadatas [][]map[string]any `json:"metadatas"`
	}
	if err := s.post(ctx, "/collections/"+collectionID+"/query", reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Documents) == 0 {
		return nil, nil
	}

	chunks := make([]domain.RetrievedChunk, 0, len(resp.Documents[0]))
	for i, document := range resp.Documents[0] {
		chunk := domain.RetrievedChunk{Content: document}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			chunk.Distance = resp.Distances[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			chunk.Metadata = stringifyMetadata(resp.Metadatas[0][i])
			chunk.SourceID = chunk.Metadata["regulation_id"]
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/collections/"+collectionID+"/count", http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("chroma error (status %d): %s", resp.StatusCode, string(body))
	}

	var count int
	if err := json.Unmarshal(body, &count); err != nil {
		return 0, fmt.Errorf("decode count: %w", err)
	}
	return count, nil
}

// Metadatas returns the metadata of every document matching the filter.
func (s *Store) Metadatas(ctx context.Context, filter map[string]string) ([]map[string]string, error) {
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]any{
		"include": []string{"metadatas"},
	}
	if where := buildWhere(filter); where != nil {
		reqBody["where"] = where
	}

	var resp struct {
		Metadatas []map[string]any `json:"metadatas"`
	}
	if err := s.post(ctx, "/collections/"+collectionID+"/get", reqBody, &resp); err != nil {
		return nil, err
	}

	metadatas := make([]map[string]string, len(resp.Metadatas))
	for i, metadata := range resp.Metadatas {
		metadatas[i] = stringifyMetadata(metadata)
	}
	return metadatas, nil
}

// DeleteWhere removes all documents whose metadata matches the filter.
// A nil filter removes everything.
func (s *Store) DeleteWhere(ctx context.Context, filter map[string]string) error {
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}

	reqBody := map[string]any{}
	if where := buildWhere(filter); where != nil {
		reqBody["where"] = where
	}
	return s.post(ctx, "/collections/"+collectionID+"/delete", reqBody, nil)
}

// post sends a JSON request and decodes the JSON response into out when
// out is non-nil.
func (s *Store) post(ctx context.Context, path string, reqBody any, out any) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chroma error (status %d): %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// buildWhere converts a key/value filter to the Chroma where clause.
// Multiple keys combine with $and.
func buildWhere(filter map[string]string) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	if len(filter) == 1 {
		for k, v := range filter {
			return map[string]any{k: v}
		}
	}

	clauses := make([]map[string]any, 0, len(filter))
	for k, v := range filter {
		clauses = append(clauses, map[string]any{k: v})
	}
	return map[string]any{"$and": clauses}
}

// stringifyMetadata flattens Chroma's loosely typed metadata values.
func stringifyMetadata(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = fmt.Sprint(v)
	}
	return out
}
