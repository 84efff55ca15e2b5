package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raildock/raildoc/internal/archive"
	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driven"
	"github.com/raildock/raildoc/internal/core/ports/driving"
	"github.com/raildock/raildoc/internal/logger"
	"github.com/raildock/raildoc/internal/report"
)

// Ensure PipelineService implements the interface.
var _ driving.PipelineService = (*PipelineService)(nil)

// DefaultCallTimeout bounds each outbound retrieval or LLM call.
const DefaultCallTimeout = 120 * time.Second

// PipelineService walks an extracted detection archive, drives
// generation and review per item, and aggregates per-category
// artifacts. Items are processed strictly sequentially.
type PipelineService struct {
	retrieval   *RetrievalService
	reports     *ReportService
	parser      *report.Parser
	artifacts   driven.ArtifactStore
	reportStore driven.VectorStore
	callTimeout time.Duration
}

// NewPipelineService creates the batch orchestrator. artifacts and
// reportStore are optional; callTimeout <= 0 falls back to
// DefaultCallTimeout.
func NewPipelineService(
	retrieval *RetrievalService,
	reports *ReportService,
	artifacts driven.ArtifactStore,
	reportStore driven.VectorStore,
	callTimeout time.Duration,
) *PipelineService {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &PipelineService{
		retrieval:   retrieval,
		reports:     reports,
		parser:      report.NewParser(),
		artifacts:   artifacts,
		reportStore: reportStore,
		callTimeout: callTimeout,
	}
}

// ProcessArchive extracts the archive, processes every discovered item,
// and aggregates per-category artifacts. A per-item failure is recorded
// and the batch continues; only archive-level errors abort.
func (s *PipelineService) ProcessArchive(
	ctx context.Context, archivePath string, opts driving.ProcessOptions,
) (*domain.BatchResult, error) {
	logger.Section("Archive Processing")

	// 1. Extract into a fresh temp dir, removed on every path.
	tempDir, err := os.MkdirTemp("", "raildoc-run-*")
	if err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := archive.ExtractZip(archivePath, tempDir); err != nil {
		return nil, err
	}

	// 2. Discover the archive shape; a shapeless archive is fatal
	// before any item processes.
	layout, err := archive.Discover(tempDir)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	runstamp := now.Format("20060102_150405")
	result := &domain.BatchResult{RunID: uuid.NewString()}

	logger.Info("Run %s: %d items discovered", result.RunID, len(layout.Items))

	// 3. Process items sequentially; one failure never aborts the batch.
	for i, item := range layout.Items {
		itemResult := domain.ItemResult{
			Index:      i + 1,
			Category:   item.Category,
			SourceFile: filepath.Base(item.SourceFile),
		}
		if item.AssetFile != "" {
			itemResult.AssetFile = filepath.Base(item.AssetFile)
		}

		document, err := s.processItem(ctx, item, layout.RunMetadata, opts, now)
		if err != nil {
			logger.Warn("Item %d (%s) failed: %v", itemResult.Index, itemResult.SourceFile, err)
			itemResult.Status = domain.ItemFailed
			itemResult.Error = err.Error()
		} else {
			itemResult.Status = domain.ItemSucceeded
			itemResult.Document = document
		}

		result.Items = append(result.Items, itemResult)
	}

	// 4. Aggregate one artifact per category with processed items.
	result.Artifacts = s.aggregate(result.Items, layout.RunMetadata, now, runstamp)

	// 5. Persist and export artifacts.
	for i := range result.Artifacts {
		artifact := &result.Artifacts[i]
		if s.artifacts != nil {
			if err := s.artifacts.SaveArtifact(ctx, artifact); err != nil {
				logger.Warn("Persist artifact %s failed: %v", artifact.ID, err)
			}
		}
	}
	if opts.OutputDir != "" {
		if err := exportArtifacts(opts.OutputDir, result.Artifacts); err != nil {
			return nil, err
		}
	}

	// 6. Add successful reports to the report collection, best-effort.
	s.storeReports(ctx, result)

	logger.Info("Run %s: %d succeeded, %d failed, %d artifacts",
		result.RunID, result.Succeeded(), result.Failed(), len(result.Artifacts))

	return result, nil
}

// processItem runs retrieval, generation, optional review, and text
// repair for one archive item.
func (s *PipelineService) processItem(
	ctx context.Context,
	item archive.Item,
	runMetadata map[string]any,
	opts driving.ProcessOptions,
	now time.Time,
) (string, error) {
	vision, err := archive.LoadVisionResult(item.SourceFile)
	if err != nil {
		return "", err
	}

	serial := NewSerialNumber(now)

	// Retrieval is optional here: an unreachable store downgrades to
	// generation without regulation context.
	retrieval, err := s.retrieveWithTimeout(ctx, vision.Detections)
	if err != nil {
		logger.Warn("Retrieval unavailable, generating without context: %v", err)
		retrieval = nil
	}

	gctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	draft, err := s.reports.GenerateDraft(gctx, vision, item.Category, serial, retrieval, runMetadata)
	cancel()
	if err != nil {
		return "", err
	}

	document := draft
	if !opts.SkipReview {
		rctx, cancel := context.WithTimeout(ctx, s.callTimeout)
		document, err = s.reports.Review(rctx, draft, vision, retrieval)
		cancel()
		if err != nil {
			return "", err
		}
	}

	return report.FixInlineBreaks(document), nil
}

func (s *PipelineService) retrieveWithTimeout(
	ctx context.Context, detections []domain.Detection,
) (*RetrievalResult, error) {
	rctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.retrieval.Retrieve(rctx, detections)
}

// aggregate groups succeeded items into one artifact per category, in
// closed-set category order. Categories without a successful item
// produce nothing.
func (s *PipelineService) aggregate(
	items []domain.ItemResult,
	runMetadata map[string]any,
	now time.Time,
	runstamp string,
) []domain.BatchArtifact {
	var artifacts []domain.BatchArtifact

	for _, category := range domain.Categories {
		var artifactItems []domain.ArtifactItem

		for _, item := range items {
			if item.Category != category || item.Status != domain.ItemSucceeded {
				continue
			}
			fields := s.parser.Parse(item.Document).Sections
			actionKey := domain.NormaliseSectionKey(domain.SectionRecommended)
			if action := fields[actionKey]; action != "" {
				fields[actionKey] = report.FormatActionList(action)
			}

			artifactItems = append(artifactItems, domain.ArtifactItem{
				Index:        len(artifactItems) + 1,
				SourceFile:   item.SourceFile,
				RawDocument:  item.Document,
				ParsedFields: fields,
			})
		}

		if len(artifactItems) == 0 {
			continue
		}

		artifacts = append(artifacts, domain.BatchArtifact{
			ID:           artifactID(category, runstamp, now),
			Category:     category,
			CategoryName: category.DisplayName(),
			CreatedAt:    now,
			TotalCount:   len(artifactItems),
			RunMetadata:  runMetadata,
			Items:        artifactItems,
		})
	}

	return artifacts
}

// artifactID derives the per-category artifact identifier for a run:
// RPT-<yyyymmdd>-<first 6 hex of md5(category_runstamp)>.
func artifactID(category domain.Category, runstamp string, now time.Time) string {
	sum := md5.Sum([]byte(string(category) + "_" + runstamp))
	return fmt.Sprintf("RPT-%s-%s",
		now.Format("20060102"),
		strings.ToUpper(hex.EncodeToString(sum[:])[:6]))
}

// exportArtifacts writes one JSON file per artifact into outputDir.
func exportArtifacts(outputDir string, artifacts []domain.BatchArtifact) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for i := range artifacts {
		artifact := &artifacts[i]

		data, err := json.MarshalIndent(artifact, "", "  ")
		if err != nil {
			return fmt.Errorf("encode artifact %s: %w", artifact.ID, err)
		}

		path := filepath.Join(outputDir, artifact.CategoryName+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write artifact %s: %w", path, err)
		}
		logger.Info("Exported %s", path)
	}

	return nil
}

// storeReports adds every succeeded report to the report vector
// collection. Failures are logged; they never fail the run.
func (s *PipelineService) storeReports(ctx context.Context, result *domain.BatchResult) {
	if s.reportStore == nil {
		return
	}

	var (
		ids       []string
		documents []string
		metadatas []map[string]string
	)

	for _, item := range result.Items {
		if item.Status != domain.ItemSucceeded {
			continue
		}

		parsed := s.parser.Parse(item.Document)
		ids = append(ids, uuid.NewString())
		documents = append(documents, item.Document)
		metadatas = append(metadatas, map[string]string{
			"run_id":      result.RunID,
			"category":    string(item.Category),
			"source_file": item.SourceFile,
			"risk_grade":  parsed.RiskGrade,
			"defect_type": parsed.DefectType,
		})
	}

	if len(ids) == 0 {
		return
	}

	if err := s.reportStore.Add(ctx, ids, documents, metadatas); err != nil {
		logger.Warn("Report collection add failed: %v", err)
		return
	}
	logger.Debug("Stored %d reports in the report collection", len(ids))
}
