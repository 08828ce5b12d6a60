// Package cmd provides CLI commands for tokentrimctl.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	serverURL  string
	apiKey     string
	outputJSON bool
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "tokentrimctl",
	Short: "tokentrim CLI - Optimize prompts and manage the concept store",
	Long: `tokentrimctl is a command-line tool for interacting with the tokentrim server.

tokentrim reduces the token cost of LLM prompts by removing boilerplate,
compressing verbose phrasing, and substituting cheaper surface forms, while
leaving code, templates, URLs, and instruction keywords untouched.

Use tokentrimctl to:
  - Optimize prompts from the command line
  - Manage concepts and their surface forms
  - Inspect pattern statistics and rules
  - Submit feedback on proposed edits`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", getEnvOrDefault("TOKENTRIM_URL", "http://localhost:8080"), "tokentrim server URL")
	rootCmd.PersistentFlags().StringVarP(&apiKey, "api-key", "k", os.Getenv("TOKENTRIM_API_KEY"), "API key for authenticated servers")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "Output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(conceptCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(statsCmd)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
