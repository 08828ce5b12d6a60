package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// StatsResponse represents server statistics.
type StatsResponse struct {
	Concepts     int `json:"concepts"`
	SurfaceForms int `json:"surface_forms"`
	Rules        int `json:"rules"`
	Feedback     int `json:"feedback"`
	PatternStats int `json:"pattern_stats"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Long:  `Display statistics about the tokentrim server's stored data.`,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	var stats StatsResponse
	if err := client.Get("/v1/stats", &stats); err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if outputJSON {
		return PrintJSON(stats)
	}

	fmt.Println("tokentrim Server Statistics")
	fmt.Println("---------------------------")
	fmt.Printf("Server:        %s\n", serverURL)
	fmt.Printf("Concepts:      %d\n", stats.Concepts)
	fmt.Printf("Surface forms: %d\n", stats.SurfaceForms)
	fmt.Printf("Rules:         %d\n", stats.Rules)
	fmt.Printf("Feedback:      %d\n", stats.Feedback)
	fmt.Printf("Pattern stats: %d\n", stats.PatternStats)
	return nil
}
