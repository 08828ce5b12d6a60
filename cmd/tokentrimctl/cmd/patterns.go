package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// PatternStat mirrors one pattern's frequency statistics.
type PatternStat struct {
	Pattern        string  `json:"pattern"`
	Occurrences    int     `json:"occurrences"`
	Accepted       int     `json:"accepted"`
	Rejected       int     `json:"rejected"`
	AvgTokensSaved float64 `json:"avg_tokens_saved"`
}

// RuleStat mirrors one persisted rule with its adjusted confidence.
type RuleStat struct {
	ID                  string  `json:"id"`
	Category            string  `json:"category"`
	Pattern             string  `json:"pattern"`
	BaseConfidence      float64 `json:"base_confidence"`
	EffectiveConfidence float64 `json:"effective_confidence"`
	TimesApplied        int     `json:"times_applied"`
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Show pattern statistics and stored rules",
	RunE:  runPatterns,
}

func runPatterns(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	var resp struct {
		Patterns []PatternStat `json:"patterns"`
		Rules    []RuleStat    `json:"rules"`
	}
	if err := client.Get("/v1/patterns", &resp); err != nil {
		return fmt.Errorf("failed to get patterns: %w", err)
	}

	if outputJSON {
		return PrintJSON(resp)
	}

	if len(resp.Patterns) > 0 {
		fmt.Println("Pattern statistics:")
		rows := make([][]string, 0, len(resp.Patterns))
		for _, p := range resp.Patterns {
			rows = append(rows, []string{
				Truncate(p.Pattern, 40),
				fmt.Sprintf("%d", p.Occurrences),
				fmt.Sprintf("%d/%d", p.Accepted, p.Accepted+p.Rejected),
				fmt.Sprintf("%.1f", p.AvgTokensSaved),
			})
		}
		PrintTable([]string{"PATTERN", "SEEN", "ACCEPTED", "AVG SAVED"}, rows)
	}

	if len(resp.Rules) > 0 {
		fmt.Println("\nStored rules:")
		rows := make([][]string, 0, len(resp.Rules))
		for _, r := range resp.Rules {
			rows = append(rows, []string{
				r.ID,
				r.Category,
				Truncate(r.Pattern, 40),
				fmt.Sprintf("%.2f", r.BaseConfidence),
				fmt.Sprintf("%.2f", r.EffectiveConfidence),
				fmt.Sprintf("%d", r.TimesApplied),
			})
		}
		PrintTable([]string{"ID", "CATEGORY", "PATTERN", "BASE", "EFFECTIVE", "APPLIED"}, rows)
	}

	if len(resp.Patterns) == 0 && len(resp.Rules) == 0 {
		fmt.Println("No pattern statistics recorded yet.")
	}
	return nil
}
