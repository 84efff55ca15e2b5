package cli

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"

	"github.com/raildock/raildoc/internal/core/services"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge store statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	stats, err := queryService.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Stored units: %d\n", stats.TotalChunks)
	cmd.Printf("Regulations:  %d\n", len(stats.RegulationIDs))
	for _, id := range stats.RegulationIDs {
		cmd.Printf("  %s\n", id)
	}

	if reportStore == nil {
		return nil
	}

	summary, err := services.GradeSummary(cmd.Context(), reportStore)
	if err != nil {
		return err
	}
	if len(summary) == 0 {
		return nil
	}

	grades := make([]string, 0, len(summary))
	for grade := range summary {
		grades = append(grades, grade)
	}
	sort.Strings(grades)

	cmd.Println("Report grades:")
	for _, grade := range grades {
		label := grade
		if label == "" {
			label = "(none)"
		}
		cmd.Printf("  %s: %d\n", label, summary[grade])
	}
	return nil
}
