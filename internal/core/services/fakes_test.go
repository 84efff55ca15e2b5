package services

import (
	"context"
	"errors"
	"sort"

	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driven"
)

// fakeVectorStore is a hand-rolled in-memory VectorStore for tests.
type fakeVectorStore struct {
	searchResult []domain.RetrievedChunk
	searchErr    error
	addErr       error

	addedIDs       []string
	addedDocuments []string
	addedMetadatas []map[string]string
	deleteFilters  []map[string]string
	searchQueries  []string
}

var _ driven.VectorStore = (*fakeVectorStore)(nil)

func (f *fakeVectorStore) Add(_ context.Context, ids, documents []string, metadatas []map[string]string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.addedIDs = append(f.addedIDs, ids...)
	f.addedDocuments = append(f.addedDocuments, documents...)
	f.addedMetadatas = append(f.addedMetadatas, metadatas...)
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, query string, topK int, _ map[string]string) ([]domain.RetrievedChunk, error) {
	f.searchQueries = append(f.searchQueries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if topK < len(f.searchResult) {
		return f.searchResult[:topK], nil
	}
	return f.searchResult, nil
}

func (f *fakeVectorStore) Count(_ context.Context) (int, error) {
	return len(f.addedIDs), nil
}

func (f *fakeVectorStore) Metadatas(_ context.Context, _ map[string]string) ([]map[string]string, error) {
	return f.addedMetadatas, nil
}

func (f *fakeVectorStore) DeleteWhere(_ context.Context, filter map[string]string) error {
	f.deleteFilters = append(f.deleteFilters, filter)
	return nil
}

// fakeLLM returns a canned response, optionally failing on the Nth call.
type fakeLLM struct {
	response string
	err      error
	failOn   int // 1-based call number that errors; 0 = never

	calls   int
	prompts []string
}

var _ driven.LLMService = (*fakeLLM)(nil)

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if f.failOn > 0 && f.calls == f.failOn {
		return "", errors.New("model overloaded")
	}
	return f.response, nil
}

func (f *fakeLLM) ModelName() string { return "fake-model" }

func (f *fakeLLM) Ping(_ context.Context) error { return nil }

func (f *fakeLLM) Close() error { return nil }

// fakeArtifactStore records saved artifacts in memory.
type fakeArtifactStore struct {
	saved   []*domain.BatchArtifact
	saveErr error
}

var _ driven.ArtifactStore = (*fakeArtifactStore)(nil)

func (f *fakeArtifactStore) SaveArtifact(_ context.Context, artifact *domain.BatchArtifact) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, artifact)
	return nil
}

func (f *fakeArtifactStore) GetArtifact(_ context.Context, id string) (*domain.BatchArtifact, error) {
	for _, artifact := range f.saved {
		if artifact.ID == id {
			return artifact, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeArtifactStore) ListArtifacts(_ context.Context, category domain.Category) ([]domain.BatchArtifact, error) {
	var out []domain.BatchArtifact
	for _, artifact := range f.saved {
		if category == "" || artifact.Category == category {
			out = append(out, *artifact)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
