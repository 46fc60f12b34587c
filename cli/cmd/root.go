package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "sakurs",
	Short:        "sakurs",
	SilenceUsage: true,
	Long:         `High-throughput sentence boundary detection for Unicode text.`,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
