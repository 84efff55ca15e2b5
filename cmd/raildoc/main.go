// Command raildoc is the rail facility inspection report pipeline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/raildock/raildoc/internal/adapters/driven/config/file"
	"github.com/raildock/raildoc/internal/adapters/driven/llm/gemini"
	"github.com/raildock/raildoc/internal/adapters/driven/pdfload"
	"github.com/raildock/raildoc/internal/adapters/driven/storage/sqlite"
	"github.com/raildock/raildoc/internal/adapters/driven/vector/chroma"
	"github.com/raildock/raildoc/internal/adapters/driven/vector/memory"
	"github.com/raildock/raildoc/internal/adapters/driving/cli"
	"github.com/raildock/raildoc/internal/chunker"
	"github.com/raildock/raildoc/internal/core/ports/driven"
	"github.com/raildock/raildoc/internal/core/services"
	"github.com/raildock/raildoc/internal/logger"
)

// version is overridden at build time via
// -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath, err := file.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := file.Load(configPath)
	if err != nil {
		return err
	}

	var regulationStore, reportStore driven.VectorStore
	if cfg.Store.BaseURL == "memory" {
		// Offline mode: process-local stores, nothing persists.
		regulationStore = memory.NewStore()
		reportStore = memory.NewStore()
	} else {
		regulationStore = chroma.NewStore(chroma.Config{
			BaseURL:    cfg.Store.BaseURL,
			Collection: cfg.Store.Collection,
		})
		reportStore = chroma.NewStore(chroma.Config{
			BaseURL:    cfg.Store.BaseURL,
			Collection: cfg.Store.ReportCollection,
		})
	}

	artifactStore, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer artifactStore.Close()

	chunks := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.ChunkSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	cli.SetIngestService(services.NewIngestService(regulationStore, pdfload.NewLoader(), chunks))
	cli.SetQueryService(services.NewQueryService(regulationStore))
	cli.SetReportStore(reportStore)
	cli.SetArtifactStore(artifactStore)
	cli.SetDefaultOutputDir(cfg.Pipeline.OutputDir)

	// The pipeline needs the LLM; leave it unconfigured without a key so
	// ingest and query still work.
	if cfg.LLM.APIKey != "" {
		llm, err := gemini.NewLLMService(gemini.Config{
			APIKey:            cfg.LLM.APIKey,
			Model:             cfg.LLM.Model,
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		})
		if err != nil {
			return err
		}
		defer llm.Close()

		retrieval := services.NewRetrievalService(regulationStore, cfg.Retrieval.TopK, cfg.Retrieval.SimilarityThreshold)
		reports := services.NewReportService(llm)
		cli.SetPipelineService(services.NewPipelineService(retrieval, reports, artifactStore, reportStore, cfg.CallTimeout()))
	} else {
		logger.Debug("No API key configured; report generation disabled")
	}

	cli.SetVersion(version)
	return cli.Execute()
}
