package cli

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/raildock/raildoc/internal/core/domain"
)

var artifactsCategory string

var artifactsCmd = &cobra.Command{
	Use:   "artifacts [id]",
	Short: "List or show persisted report artifacts",
	Long: `Artifacts lists the per-category report artifacts of past pipeline
runs, newest first. With an artifact ID it prints the full artifact as
JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArtifacts,
}

func init() {
	artifactsCmd.Flags().StringVarP(&artifactsCategory, "category", "c", "", "restrict the listing to one category (rail, insulator, nest)")
	rootCmd.AddCommand(artifactsCmd)
}

func runArtifacts(cmd *cobra.Command, args []string) error {
	if artifactStore == nil {
		return errors.New("artifact store not configured")
	}

	if len(args) == 1 {
		artifact, err := artifactStore.GetArtifact(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(artifact, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if artifactsCategory != "" && !domain.ValidCategory(artifactsCategory) {
		return errors.New("unknown category: " + artifactsCategory)
	}

	artifacts, err := artifactStore.ListArtifacts(cmd.Context(), domain.Category(artifactsCategory))
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		cmd.Println("No artifacts stored")
		return nil
	}

	for _, artifact := range artifacts {
		cmd.Printf("%s  %-28s %3d reports  %s\n",
			artifact.ID, artifact.CategoryName, artifact.TotalCount,
			artifact.CreatedAt.Format(time.RFC3339))
	}
	return nil
}
