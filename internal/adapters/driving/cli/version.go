package cli

import "github.com/spf13/cobra"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the raildoc version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("raildoc version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
