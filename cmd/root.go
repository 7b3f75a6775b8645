package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cite",
	Short: "Serve legal cases at canonical citation URLs",
	Long: `cite serves published case law through citation URLs, with a daily
view quota for anonymous readers and per-case redaction rules.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
