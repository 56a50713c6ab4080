package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "vmime",
	Short: "Inspect and round-trip MIME messages",
}

func Execute() error {
	return rootCmd.Execute()
}
