package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/raildock/raildoc/internal/chunker"
	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driven"
	"github.com/raildock/raildoc/internal/core/ports/driving"
	"github.com/raildock/raildoc/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService loads regulation documents, chunks them, and stores the
// units with their extracted metadata.
type IngestService struct {
	store   driven.VectorStore
	loader  driven.DocumentLoader
	chunker *chunker.Chunker
}

// NewIngestService creates an ingest service. loader is optional; when
// nil, PDF sources are skipped.
func NewIngestService(store driven.VectorStore, loader driven.DocumentLoader, c *chunker.Chunker) *IngestService {
	if c == nil {
		c = chunker.New()
	}
	return &IngestService{
		store:   store,
		loader:  loader,
		chunker: c,
	}
}

// IngestDirectory chunks and stores every regulation document under
// dir (PDF and plain text). A single unreadable file is logged and
// skipped; the walk continues. Returns the number of units stored.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string) (int, error) {
	logger.Section("Regulation Ingestion")

	total := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		text, ok, err := s.loadFile(ctx, path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		if !ok {
			return nil
		}

		count, err := s.IngestText(ctx, text, filepath.Base(path))
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		total += count
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("walk regulation dir: %w", err)
	}

	logger.Info("Ingested %d units from %s", total, dir)
	return total, nil
}

// loadFile reads one regulation source. The second return reports
// whether the file type is ingestable.
func (s *IngestService) loadFile(ctx context.Context, path string) (string, bool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", true, fmt.Errorf("read regulation file: %w", err)
		}
		return string(data), true, nil

	case ".pdf":
		if s.loader == nil {
			logger.Debug("No PDF loader configured, skipping %s", path)
			return "", false, nil
		}
		text, err := s.loader.ExtractText(ctx, path)
		if err != nil {
			return "", true, fmt.Errorf("extract pdf text: %w", err)
		}
		return text, true, nil

	default:
		return "", false, nil
	}
}

// IngestText chunks one regulation document and stores its units,
// replacing any units previously stored from the same source. A
// marker-less document stores nothing and reports ErrNoUnits.
func (s *IngestService) IngestText(ctx context.Context, text, sourceName string) (int, error) {
	units := s.chunker.Chunk(text)
	if len(units) == 0 {
		return 0, fmt.Errorf("%w: %s", domain.ErrNoUnits, sourceName)
	}

	if err := s.store.DeleteWhere(ctx, map[string]string{"source": sourceName}); err != nil {
		return 0, fmt.Errorf("%w: replace units of %s: %v", domain.ErrStoreUnavailable, sourceName, err)
	}

	ids := make([]string, len(units))
	documents := make([]string, len(units))
	metadatas := make([]map[string]string, len(units))

	for i := range units {
		units[i].SourceName = sourceName
	}

	for i, unit := range units {
		ids[i] = uuid.NewString()
		documents[i] = unit.Content

		metadata := map[string]string{
			"regulation_id": unit.ID,
			"chunk_index":   strconv.Itoa(unit.Index),
			"total_chunks":  strconv.Itoa(unit.TotalUnits),
			"source":        unit.SourceName,
		}
		for k, v := range unit.Fields {
			metadata[k] = v
		}
		metadatas[i] = metadata
	}

	if err := s.store.Add(ctx, ids, documents, metadatas); err != nil {
		return 0, fmt.Errorf("%w: store units: %v", domain.ErrStoreUnavailable, err)
	}

	logger.Debug("Stored %d units from %s", len(units), sourceName)
	return len(units), nil
}

// IngestWholeDocument stores one document as a single unit without
// chunking. Used for maintenance manuals that carry no unit markers.
func (s *IngestService) IngestWholeDocument(ctx context.Context, text, sourceName string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty document %s", domain.ErrInvalidInput, sourceName)
	}

	metadata := map[string]string{
		"source":         sourceName,
		"whole_document": "true",
	}

	if err := s.store.DeleteWhere(ctx, map[string]string{"source": sourceName}); err != nil {
		return fmt.Errorf("%w: replace document %s: %v", domain.ErrStoreUnavailable, sourceName, err)
	}

	err := s.store.Add(ctx, []string{uuid.NewString()}, []string{text}, []map[string]string{metadata})
	if err != nil {
		return fmt.Errorf("%w: store document: %v", domain.ErrStoreUnavailable, err)
	}

	logger.Debug("Stored whole document %s (%d chars)", sourceName, len(text))
	return nil
}
