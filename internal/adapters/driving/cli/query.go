package cli

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var (
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>...",
	Short: "Search the stored regulations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (0 uses the configured default)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	query := strings.Join(args, " ")
	chunks, err := queryService.Query(cmd.Context(), query, queryTopK)
	if err != nil {
		return err
	}

	if queryJSON {
		data, err := json.MarshalIndent(chunks, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(chunks) == 0 {
		cmd.Println("No matching regulations")
		return nil
	}

	for i, chunk := range chunks {
		cmd.Printf("%d. [%s] (distance %.4f)\n", i+1, chunk.SourceID, chunk.Distance)
		cmd.Printf("   %s\n", firstLine(chunk.Content))
	}
	return nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete <regulation-id>",
	Short: "Remove every stored chunk of one regulation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if queryService == nil {
			return errors.New("query service not configured")
		}
		if err := queryService.DeleteRegulation(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Deleted regulation %s\n", args[0])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored regulation chunk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if queryService == nil {
			return errors.New("query service not configured")
		}
		if err := queryService.Clear(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Cleared regulation collection")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
}

// firstLine truncates a chunk to a single display line.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
