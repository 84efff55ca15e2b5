package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driving"
)

var (
	processSkipReview bool
	processOutputDir  string
)

var processCmd = &cobra.Command{
	Use:   "process <archive.zip>",
	Short: "Generate inspection reports from a detection archive",
	Long: `Process extracts a detection archive, generates a grounded
inspection report for every item, and aggregates the results into one
artifact per category. Failed items are reported but do not abort the
run.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processSkipReview, "skip-review", false, "keep generated drafts without the review pass")
	processCmd.Flags().StringVarP(&processOutputDir, "output", "o", "", "directory for per-category artifact JSON files")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	outputDir := processOutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir
	}

	result, err := pipelineService.ProcessArchive(cmd.Context(), args[0], driving.ProcessOptions{
		SkipReview: processSkipReview,
		OutputDir:  outputDir,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Run %s: %d succeeded, %d failed\n", result.RunID, result.Succeeded(), result.Failed())
	for _, item := range result.Items {
		if item.Status == domain.ItemFailed {
			cmd.Printf("  failed: %s/%s: %s\n", item.Category, item.SourceFile, item.Error)
		}
	}
	for _, artifact := range result.Artifacts {
		cmd.Printf("Artifact %s (%s): %d reports\n", artifact.ID, artifact.CategoryName, artifact.TotalCount)
	}
	return nil
}
