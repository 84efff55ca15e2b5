package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driving"
)

// executeCommand runs the root command with the given arguments and
// returns the combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetServices clears injected services after a test.
func resetServices(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		ingestService = nil
		pipelineService = nil
		queryService = nil
		reportStore = nil
		artifactStore = nil

		// Flag variables persist across executions.
		verbose = false
		ingestWatch = false
		ingestWhole = false
		processSkipReview = false
		processOutputDir = ""
		defaultOutputDir = ""
		queryTopK = 0
		queryJSON = false
		artifactsCategory = ""
	})
}

type fakeQueryService struct {
	chunks    []domain.RetrievedChunk
	stats     *driving.StoreStats
	err       error
	deletedID string
	cleared   bool
	gotTopK   int
	gotQuery  string
}

func (f *fakeQueryService) Query(_ context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	f.gotQuery = query
	f.gotTopK = topK
	return f.chunks, f.err
}

func (f *fakeQueryService) Stats(context.Context) (*driving.StoreStats, error) {
	return f.stats, f.err
}

func (f *fakeQueryService) DeleteRegulation(_ context.Context, regulationID string) error {
	f.deletedID = regulationID
	return f.err
}

func (f *fakeQueryService) Clear(context.Context) error {
	f.cleared = true
	return f.err
}

type fakeIngestService struct {
	count     int
	err       error
	wholeDocs []string
	texts     []string
	dirs      []string
}

func (f *fakeIngestService) IngestDirectory(_ context.Context, dir string) (int, error) {
	f.dirs = append(f.dirs, dir)
	return f.count, f.err
}

func (f *fakeIngestService) IngestText(_ context.Context, _ string, sourceName string) (int, error) {
	f.texts = append(f.texts, sourceName)
	return f.count, f.err
}

func (f *fakeIngestService) IngestWholeDocument(_ context.Context, _ string, sourceName string) error {
	f.wholeDocs = append(f.wholeDocs, sourceName)
	return f.err
}

type fakePipelineService struct {
	result  *domain.BatchResult
	err     error
	gotPath string
	gotOpts driving.ProcessOptions
}

func (f *fakePipelineService) ProcessArchive(_ context.Context, archivePath string, opts driving.ProcessOptions) (*domain.BatchResult, error) {
	f.gotPath = archivePath
	f.gotOpts = opts
	return f.result, f.err
}

type fakeArtifactStore struct {
	artifacts   []domain.BatchArtifact
	err         error
	gotCategory domain.Category
}

func (f *fakeArtifactStore) SaveArtifact(context.Context, *domain.BatchArtifact) error {
	return f.err
}

func (f *fakeArtifactStore) GetArtifact(_ context.Context, id string) (*domain.BatchArtifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.artifacts {
		if f.artifacts[i].ID == id {
			return &f.artifacts[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeArtifactStore) ListArtifacts(_ context.Context, category domain.Category) ([]domain.BatchArtifact, error) {
	f.gotCategory = category
	return f.artifacts, f.err
}

type fakeReportStore struct {
	metadatas []map[string]string
	err       error
}

func (f *fakeReportStore) Add(context.Context, []string, []string, []map[string]string) error {
	return f.err
}

func (f *fakeReportStore) Search(context.Context, string, int, map[string]string) ([]domain.RetrievedChunk, error) {
	return nil, f.err
}

func (f *fakeReportStore) Count(context.Context) (int, error) {
	return len(f.metadatas), f.err
}

func (f *fakeReportStore) Metadatas(context.Context, map[string]string) ([]map[string]string, error) {
	return f.metadatas, f.err
}

func (f *fakeReportStore) DeleteWhere(context.Context, map[string]string) error {
	return f.err
}
