package services

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driven"
	"github.com/raildock/raildoc/internal/core/ports/driving"
	"github.com/raildock/raildoc/internal/report"
)

const fakeDetection = `{
	"image_file": "0001.jpg",
	"is_anomaly": true,
	"detections": [
		{"cls_name": "fastening clip", "rail_type": "rail", "detail": "crack", "confidence": 0.9, "bbox": [0, 0, 10, 10]}
	]
}`

const fakeReport = "[Serial Number]\nRPT-20260825-ABCDEF\n\n" +
	"[Rail Category]\nrail\n\n" +
	"[Component]\nfastening clip\n\n" +
	"[Defect Info]\nDefect Type: crack\nDefect State: transverse crack\n\n" +
	"[Risk Assessment]\nRisk Grade: X2\n\n" +
	"[Recommended Action]\n- fastening clip (X2, RAIL-MNT-001): replace the clip\n- rail web (E, RAIL-MNT-002): monitor\n"

// writeArchive builds a zip archive from name -> content entries and
// returns its path.
func writeArchive(t *testing.T, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "run.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return path
}

func newTestPipeline(llm *fakeLLM, store, reportStore *fakeVectorStore, artifacts *fakeArtifactStore) *PipelineService {
	retrieval := NewRetrievalService(store, 5, 0.1)
	// Avoid handing typed-nil pointers to the interface parameters: the
	// pipeline's nil checks would pass and methods would run on a nil
	// receiver.
	var artifactStore driven.ArtifactStore
	if artifacts != nil {
		artifactStore = artifacts
	}
	var reportVectorStore driven.VectorStore
	if reportStore != nil {
		reportVectorStore = reportStore
	}
	return NewPipelineService(retrieval, NewReportService(llm), artifactStore, reportVectorStore, time.Minute)
}

func TestProcessArchive_HappyPath(t *testing.T) {
	archivePath := writeArchive(t, map[string]string{
		"rail/json/0001.json": fakeDetection,
		"rail/json/0002.json": fakeDetection,
		"metadata.json":       `{"site": "depot-3"}`,
	})

	llm := &fakeLLM{response: fakeReport}
	store := &fakeVectorStore{}
	reportStore := &fakeVectorStore{}
	artifacts := &fakeArtifactStore{}
	outputDir := filepath.Join(t.TempDir(), "out")

	p := newTestPipeline(llm, store, reportStore, artifacts)
	result, err := p.ProcessArchive(context.Background(), archivePath, driving.ProcessOptions{
		SkipReview: true,
		OutputDir:  outputDir,
	})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, 2, result.Succeeded())
	assert.Equal(t, 0, result.Failed())
	assert.NotEmpty(t, result.RunID)

	require.Len(t, result.Artifacts, 1)
	artifact := result.Artifacts[0]
	assert.Equal(t, domain.CategoryRail, artifact.Category)
	assert.Equal(t, "rail_inspection_report", artifact.CategoryName)
	assert.Equal(t, 2, artifact.TotalCount)
	assert.Regexp(t, regexp.MustCompile(`^RPT-\d{8}-[0-9A-F]{6}$`), artifact.ID)
	assert.Equal(t, "depot-3", artifact.RunMetadata["site"])

	require.Len(t, artifact.Items, 2)
	assert.Equal(t, 1, artifact.Items[0].Index)
	assert.Equal(t, 2, artifact.Items[1].Index)
	assert.Equal(t, "fastening clip", artifact.Items[0].ParsedFields["component"])
	assert.Equal(t,
		"- fastening clip (X2, RAIL-MNT-001): replace the clip "+report.BreakToken+"- rail web (E, RAIL-MNT-002): monitor",
		artifact.Items[0].ParsedFields["recommended_action"])

	// Persisted and exported.
	require.Len(t, artifacts.saved, 1)
	_, err = os.Stat(filepath.Join(outputDir, "rail_inspection_report.json"))
	assert.NoError(t, err)

	// Succeeded reports land in the report collection.
	require.Len(t, reportStore.addedDocuments, 2)
	assert.Equal(t, "X2", reportStore.addedMetadatas[0]["risk_grade"])
	assert.Equal(t, "crack", reportStore.addedMetadatas[0]["defect_type"])
}

func TestProcessArchive_FailureIsolation(t *testing.T) {
	archivePath := writeArchive(t, map[string]string{
		"rail/json/0001.json": fakeDetection,
		"rail/json/0002.json": fakeDetection,
		"rail/json/0003.json": fakeDetection,
	})

	// With review skipped there is one LLM call per item; the third
	// item's generation fails.
	llm := &fakeLLM{response: fakeReport, failOn: 3}

	p := newTestPipeline(llm, &fakeVectorStore{}, nil, nil)
	result, err := p.ProcessArchive(context.Background(), archivePath, driving.ProcessOptions{SkipReview: true})
	require.NoError(t, err)

	require.Len(t, result.Items, 3)
	assert.Equal(t, 2, result.Succeeded())
	assert.Equal(t, 1, result.Failed())

	failed := result.Items[2]
	assert.Equal(t, domain.ItemFailed, failed.Status)
	assert.Equal(t, "0003.json", failed.SourceFile)
	assert.Contains(t, failed.Error, domain.ErrGenerationFailed.Error())

	// The artifact aggregates only the succeeded items.
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, 2, result.Artifacts[0].TotalCount)
}

func TestProcessArchive_MalformedItemIsolated(t *testing.T) {
	archivePath := writeArchive(t, map[string]string{
		"rail/json/0001.json": "{broken",
		"rail/json/0002.json": fakeDetection,
	})

	llm := &fakeLLM{response: fakeReport}
	p := newTestPipeline(llm, &fakeVectorStore{}, nil, nil)

	result, err := p.ProcessArchive(context.Background(), archivePath, driving.ProcessOptions{SkipReview: true})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, domain.ItemFailed, result.Items[0].Status)
	assert.Equal(t, domain.ItemSucceeded, result.Items[1].Status)
}

func TestProcessArchive_ReviewEnabled(t *testing.T) {
	archivePath := writeArchive(t, map[string]string{
		"rail/json/0001.json": fakeDetection,
	})

	llm := &fakeLLM{response: fakeReport}
	p := newTestPipeline(llm, &fakeVectorStore{}, nil, nil)

	result, err := p.ProcessArchive(context.Background(), archivePath, driving.ProcessOptions{})
	require.NoError(t, err)

	// Generation plus review.
	assert.Equal(t, 2, llm.calls)
	assert.Equal(t, 1, result.Succeeded())

	// The review prompt carries the detection facts and the grade
	// rubric alongside the draft.
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "fastening clip")
	assert.Contains(t, llm.prompts[1], "Risk grades:")
}

func TestProcessArchive_EmptyCategoryProducesNoArtifact(t *testing.T) {
	archivePath := writeArchive(t, map[string]string{
		"rail/json/0001.json": fakeDetection,
		"insulator/json/.keep": "",
	})

	llm := &fakeLLM{response: fakeReport}
	p := newTestPipeline(llm, &fakeVectorStore{}, nil, nil)

	result, err := p.ProcessArchive(context.Background(), archivePath, driving.ProcessOptions{SkipReview: true})
	require.NoError(t, err)

	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, domain.CategoryRail, result.Artifacts[0].Category)
}

func TestProcessArchive_NoCategoryDirsFatal(t *testing.T) {
	archivePath := writeArchive(t, map[string]string{
		"unrelated/file.json": "{}",
	})

	p := newTestPipeline(&fakeLLM{response: fakeReport}, &fakeVectorStore{}, nil, nil)

	_, err := p.ProcessArchive(context.Background(), archivePath, driving.ProcessOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArchiveInvalid)
}

func TestProcessArchive_MissingArchive(t *testing.T) {
	p := newTestPipeline(&fakeLLM{response: fakeReport}, &fakeVectorStore{}, nil, nil)

	_, err := p.ProcessArchive(context.Background(), filepath.Join(t.TempDir(), "absent.zip"), driving.ProcessOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArchiveInvalid)
}

func TestProcessArchive_UnreachableStoreStillGenerates(t *testing.T) {
	archivePath := writeArchive(t, map[string]string{
		"rail/json/0001.json": fakeDetection,
	})

	store := &fakeVectorStore{searchErr: errors.New("connection refused")}
	llm := &fakeLLM{response: fakeReport}
	p := newTestPipeline(llm, store, nil, nil)

	result, err := p.ProcessArchive(context.Background(), archivePath, driving.ProcessOptions{SkipReview: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded())
}

func TestProcessArchive_TempDirRemoved(t *testing.T) {
	archivePath := writeArchive(t, map[string]string{
		"rail/json/0001.json": fakeDetection,
	})

	p := newTestPipeline(&fakeLLM{response: fakeReport}, &fakeVectorStore{}, nil, nil)
	_, err := p.ProcessArchive(context.Background(), archivePath, driving.ProcessOptions{SkipReview: true})
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "raildoc-run-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestArtifactID_DeterministicPerRun(t *testing.T) {
	now := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)

	a := artifactID(domain.CategoryRail, "20260825_103000", now)
	b := artifactID(domain.CategoryRail, "20260825_103000", now)
	c := artifactID(domain.CategoryNest, "20260825_103000", now)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, regexp.MustCompile(`^RPT-20260825-[0-9A-F]{6}$`), a)
}
