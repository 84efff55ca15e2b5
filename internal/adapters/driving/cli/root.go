// Package cli implements the raildoc command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/raildock/raildoc/internal/core/ports/driven"
	"github.com/raildock/raildoc/internal/core/ports/driving"
	"github.com/raildock/raildoc/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by the composition root before Execute.
var (
	ingestService   driving.IngestService
	pipelineService driving.PipelineService
	queryService    driving.QueryService
	reportStore     driven.VectorStore
	artifactStore   driven.ArtifactStore
)

var verbose bool

// defaultOutputDir is the configured artifact export directory, used
// when the process command's --output flag is not given.
var defaultOutputDir string

var rootCmd = &cobra.Command{
	Use:   "raildoc",
	Short: "Rail facility inspection report pipeline",
	Long: `raildoc ingests rail maintenance regulations into a vector store and
batch-generates structured inspection reports from machine-vision
detection archives, grounded in the retrieved regulations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetIngestService injects the ingest service.
func SetIngestService(s driving.IngestService) {
	ingestService = s
}

// SetPipelineService injects the batch pipeline service.
func SetPipelineService(s driving.PipelineService) {
	pipelineService = s
}

// SetQueryService injects the query service.
func SetQueryService(s driving.QueryService) {
	queryService = s
}

// SetReportStore injects the generated-report collection used for
// grade statistics.
func SetReportStore(s driven.VectorStore) {
	reportStore = s
}

// SetArtifactStore injects the persisted-artifact store.
func SetArtifactStore(s driven.ArtifactStore) {
	artifactStore = s
}

// SetDefaultOutputDir sets the configured artifact export directory.
func SetDefaultOutputDir(dir string) {
	defaultOutputDir = dir
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
